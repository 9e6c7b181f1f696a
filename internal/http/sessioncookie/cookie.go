// Package sessioncookie выставляет и сбрасывает cookie с токеном сессии.
package sessioncookie

import (
	"net/http"
	"time"
)

// Options параметры cookie сессии.
type Options struct {
	Name   string
	Secure bool
	TTL    time.Duration
}

// Set записывает HttpOnly cookie с токеном.
func Set(w http.ResponseWriter, opts Options, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     opts.Name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(opts.TTL.Seconds()),
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Clear удаляет cookie сессии.
func Clear(w http.ResponseWriter, opts Options) {
	http.SetCookie(w, &http.Cookie{
		Name:     opts.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
