package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func issueCookie(t *testing.T, m *Manager, userID int64) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	require.NoError(t, m.Issue(rec, userID))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	return cookies[0]
}

func TestIssueAndParseRoundtrip(t *testing.T) {
	m := NewManager("test-secret", time.Hour)
	cookie := issueCookie(t, m, 7)

	assert.Equal(t, CookieName, cookie.Name)
	assert.True(t, cookie.HttpOnly)

	sess, err := m.Parse(cookie.Value)
	require.NoError(t, err)
	assert.Equal(t, int64(7), sess.UserID)
}

func TestFromRequest(t *testing.T) {
	m := NewManager("test-secret", time.Hour)
	cookie := issueCookie(t, m, 12)

	req := httptest.NewRequest(http.MethodGet, "/home/bookings", nil)
	req.AddCookie(cookie)

	sess, err := m.FromRequest(req)
	require.NoError(t, err)
	assert.Equal(t, int64(12), sess.UserID)
}

func TestFromRequestWithoutCookie(t *testing.T) {
	m := NewManager("test-secret", time.Hour)
	req := httptest.NewRequest(http.MethodGet, "/home/bookings", nil)

	_, err := m.FromRequest(req)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	issuer := NewManager("secret-a", time.Hour)
	verifier := NewManager("secret-b", time.Hour)
	cookie := issueCookie(t, issuer, 7)

	_, err := verifier.Parse(cookie.Value)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	m := NewManager("test-secret", -time.Minute)
	cookie := issueCookie(t, m, 7)

	_, err := m.Parse(cookie.Value)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestParseRejectsGarbage(t *testing.T) {
	m := NewManager("test-secret", time.Hour)

	_, err := m.Parse("not-a-token")
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestClearExpiresCookie(t *testing.T) {
	m := NewManager("test-secret", time.Hour)
	rec := httptest.NewRecorder()
	m.Clear(rec)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CookieName, cookies[0].Name)
	assert.Empty(t, cookies[0].Value)
	assert.Negative(t, cookies[0].MaxAge)
}
