package middleware

import (
	"net/http"
)

// apiCSP forbids everything: the API only serves JSON and file downloads.
const apiCSP = "default-src 'none'; frame-ancestors 'none'"

var baseSecurityHeaders = map[string]string{
	"X-Frame-Options":        "DENY",
	"X-Content-Type-Options": "nosniff",
	"Referrer-Policy":        "strict-origin-when-cross-origin",
	"Permissions-Policy":     "camera=(), microphone=(), geolocation=(), payment=()",
	// downloads are fetched by the admin and member clients on other origins
	"Cross-Origin-Resource-Policy": "cross-origin",
}

// SecurityHeaders sets hardening headers on every response.
// isHTTPS adds Strict-Transport-Security; csp overrides the default API policy when non-empty.
func SecurityHeaders(isHTTPS bool, csp string) func(http.Handler) http.Handler {
	if csp == "" {
		csp = apiCSP
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			headers := w.Header()
			for k, v := range baseSecurityHeaders {
				headers.Set(k, v)
			}
			headers.Set("Content-Security-Policy", csp)
			if isHTTPS {
				headers.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}
			next.ServeHTTP(w, r)
		})
	}
}
