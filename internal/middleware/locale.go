package middleware

import (
	"net/http"

	"github.com/HowestAILab/AIUPD8-Website/internal/i18n"
	"github.com/HowestAILab/AIUPD8-Website/internal/platform/requestctx"
)

const (
	LocaleCookie = "aiupd8-locale"
	localeParam  = "lang"
	cookieMaxAge = 365 * 24 * 60 * 60
)

// Locale resolves the request language: ?lang, then the aiupd8-locale
// cookie, then Accept-Language, then def. An explicit ?lang is remembered
// in the cookie.
func Locale(def i18n.Locale, secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			locale, fromQuery := resolveLocale(r, def)
			if fromQuery {
				setCookie(w, LocaleCookie, string(locale), secure)
			}
			w.Header().Set("Content-Language", string(locale))
			w.Header().Add("Vary", "Accept-Language")
			next.ServeHTTP(w, r.WithContext(requestctx.WithLocale(r.Context(), locale)))
		})
	}
}

func resolveLocale(r *http.Request, def i18n.Locale) (i18n.Locale, bool) {
	if l, ok := i18n.Parse(r.URL.Query().Get(localeParam)); ok {
		return l, true
	}
	if c, err := r.Cookie(LocaleCookie); err == nil {
		if l, ok := i18n.Parse(c.Value); ok {
			return l, false
		}
	}
	if l, ok := i18n.Match(r.Header.Get("Accept-Language")); ok {
		return l, false
	}
	return def, false
}

func setCookie(w http.ResponseWriter, name, value string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   cookieMaxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
