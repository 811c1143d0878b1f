// Package session carries the authenticated user's identity across
// requests. The identifier lives in a signed cookie: set at login, removed
// at logout, absent means not authenticated. Components receive the session
// as an explicit Context value rather than reading shared state.
package session

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const CookieName = "fb_session"

// ErrNoSession is returned when the request carries no valid session.
var ErrNoSession = errors.New("no active session")

// Context identifies the authenticated user for the duration of one
// request. It is created at login and injected into every component that
// needs the user id.
type Context struct {
	UserID int64
}

// Manager issues and verifies session cookies.
type Manager struct {
	secret []byte
	ttl    time.Duration
}

func NewManager(secret string, ttl time.Duration) *Manager {
	return &Manager{secret: []byte(secret), ttl: ttl}
}

// Issue signs a session token for userID and sets it on the response.
func (m *Manager) Issue(w http.ResponseWriter, userID int64) error {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  now.Add(m.ttl),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Clear removes the session cookie. Destroying the session is the whole of
// logout; the backend holds no session state for this client.
func (m *Manager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// FromRequest resolves the session carried by the request, or ErrNoSession.
func (m *Manager) FromRequest(r *http.Request) (*Context, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return nil, ErrNoSession
	}
	return m.Parse(cookie.Value)
}

// Parse verifies a raw session token.
func (m *Manager) Parse(raw string) (*Context, error) {
	var claims jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrNoSession
	}
	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return nil, ErrNoSession
	}
	return &Context{UserID: userID}, nil
}
