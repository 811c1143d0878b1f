package handlers

import (
	"encoding/base64"
	"net/http"
	"strings"
)

// Flash messages are the toast equivalent: a one-shot cookie consumed by
// the next render.
const flashCookie = "fb_flash"

const (
	flashSuccess = "success"
	flashError   = "error"
)

func setFlash(w http.ResponseWriter, kind, message string) {
	value := base64.RawURLEncoding.EncodeToString([]byte(kind + "|" + message))
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// takeFlash reads and clears the pending flash message, if any.
func takeFlash(w http.ResponseWriter, r *http.Request) (message, kind string) {
	cookie, err := r.Cookie(flashCookie)
	if err != nil {
		return "", ""
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	decoded, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return "", ""
	}
	kind, message, found := strings.Cut(string(decoded), "|")
	if !found {
		return "", ""
	}
	return message, kind
}
