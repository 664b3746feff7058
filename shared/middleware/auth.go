package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/ebrain/board/shared/domain"
	"github.com/ebrain/board/shared/errors"
	jwt_internal "github.com/ebrain/board/shared/jwt"
	"github.com/ebrain/board/shared/logger"
	"github.com/ebrain/board/shared/utils"
)

// Key to store the requester identity in the request context
type key int

const IdentityKey key = 0

const accessTokenCookie = "accessToken"

// Auth turns a session cookie (admin client) or a bearer token (member client)
// into one domain.Identity, so nothing downstream cares which one was used.
type Auth struct {
	jwtService    jwt_internal.JwtService
	secureCookies bool
}

func NewAuth(jwtService jwt_internal.JwtService, secureCookies bool) *Auth {
	return &Auth{
		jwtService:    jwtService,
		secureCookies: secureCookies,
	}
}

// NeedAuth returns middleware that requires an identity
func (a *Auth) NeedAuth() func(http.Handler) http.Handler {
	return a.auth(false)
}

// AdminOnly returns middleware that requires an admin identity
func (a *Auth) AdminOnly() func(http.Handler) http.Handler {
	return a.auth(true)
}

// OptionalAuth populates the identity when a valid token is present and lets anonymous requests through.
func (a *Auth) OptionalAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, _ := a.extractIdentity(r)
			if identity != nil {
				next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (a *Auth) extractIdentity(r *http.Request) (*domain.Identity, error) {
	var tokenString string
	if cookie, err := r.Cookie(accessTokenCookie); err == nil {
		tokenString = cookie.Value
	} else if token, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); found {
		tokenString = token
	}

	if tokenString == "" {
		return nil, errNoToken
	}

	token, err := a.jwtService.DecodeToken(tokenString)
	if err != nil {
		return nil, err
	}

	identity, err := jwt_internal.IdentityFromClaims(token)
	if err != nil {
		logger.Log.Warn("invalid jwt claims", "error", err)
		return nil, errInvalidClaims
	}
	return identity, nil
}

var (
	errNoToken       = errorString("no token")
	errInvalidClaims = errorString("invalid claims")
)

type errorString string

func (e errorString) Error() string { return string(e) }

func (a *Auth) auth(adminOnly bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := a.extractIdentity(r)
			if err != nil {
				switch err {
				case errNoToken:
					utils.WriteErrorAndStatusCode(w, errors.Unauthorized("Please sign-in"))
				case errInvalidClaims:
					a.clearCookie(w)
					utils.WriteErrorAndStatusCode(w, errors.Unauthorized("Invalid token"))
				default:
					utils.WriteErrorAndStatusCode(w, err)
				}
				return
			}

			if adminOnly && !identity.IsAdmin() {
				utils.WriteErrorAndStatusCode(w, errors.Forbidden(errors.CodeAdminOnly, "Access denied. Only for admin"))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

func (a *Auth) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Path:     "/",
		Name:     accessTokenCookie,
		Value:    "",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   a.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func WithIdentity(ctx context.Context, identity *domain.Identity) context.Context {
	return context.WithValue(ctx, IdentityKey, identity)
}

// GetIdentityFromContext returns nil for anonymous requests.
func GetIdentityFromContext(r *http.Request) *domain.Identity {
	identity, ok := r.Context().Value(IdentityKey).(*domain.Identity)
	if !ok {
		return nil
	}
	return identity
}
