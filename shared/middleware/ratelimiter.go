package middleware

import (
	"fmt"
	"net"
	"net/http"

	"github.com/ebrain/board/shared/middleware/ratelimiter"
	"github.com/ebrain/board/shared/utils"
)

// RateLimit rejects requests whose key has run out of tokens. Admins are never limited.
func RateLimit(rl *ratelimiter.UserRateLimiter, getKey func(r *http.Request) (string, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if GetIdentityFromContext(r).IsAdmin() {
				next.ServeHTTP(w, r)
				return
			}

			key, err := getKey(r)
			if err != nil {
				utils.WriteErrorAndStatusCode(w, err)
				return
			}
			if !rl.Allow(key) {
				utils.WriteJSON(w, http.StatusTooManyRequests, utils.ErrorResponse{Code: "RATE_LIMITED", Message: "Rate limit exceeded, try again later"})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GetIP keys by the TCP peer address.
func GetIP(r *http.Request) (string, error) {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}
	if net.ParseIP(ip) == nil {
		return "", fmt.Errorf("invalid IP address: %s", ip)
	}
	return ip, nil
}

// GetIdentityOrIP keys authenticated requests by author and anonymous ones by IP.
func GetIdentityOrIP(r *http.Request) (string, error) {
	if identity := GetIdentityFromContext(r); identity != nil {
		return fmt.Sprintf("%s:%s", identity.Type, identity.Id), nil
	}
	return GetIP(r)
}
