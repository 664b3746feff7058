package middleware

import (
	"net/http"

	"github.com/ebrain/board/shared/csrf"
	"github.com/ebrain/board/shared/errors"
	"github.com/ebrain/board/shared/logger"
	"github.com/ebrain/board/shared/utils"
)

const (
	csrfCookieName = "csrf_token"
	CSRFHeader     = "X-CSRF-Token"
)

// CSRF guards requests authenticated by the session cookie with a double-submit token.
// Safe methods get a csrf_token cookie readable by the admin client; unsafe methods must
// echo it in X-CSRF-Token. Bearer-token requests carry no ambient credentials and pass through.
func CSRF(secureCookies bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, err := r.Cookie(accessTokenCookie); err != nil {
				next.ServeHTTP(w, r)
				return
			}

			cookie, cookieErr := r.Cookie(csrfCookieName)

			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				if cookieErr != nil || cookie.Value == "" {
					token, err := csrf.GenerateToken()
					if err != nil {
						logger.Log.Error("failed to generate csrf token", "error", err)
						utils.WriteErrorAndStatusCode(w, err)
						return
					}
					http.SetCookie(w, &http.Cookie{
						Name:     csrfCookieName,
						Value:    token,
						Path:     "/",
						Secure:   secureCookies,
						SameSite: http.SameSiteLaxMode,
						MaxAge:   86400,
					})
				}
				next.ServeHTTP(w, r)
				return
			}

			if cookieErr != nil || !csrf.ValidateToken(cookie.Value, r.Header.Get(CSRFHeader)) {
				logger.Log.Warn("csrf token validation failed", "path", r.URL.Path)
				utils.WriteErrorAndStatusCode(w, errors.Forbidden("CSRF_INVALID", "CSRF token missing or invalid"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
