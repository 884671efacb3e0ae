package middleware

import (
	"net/http"
)

// JSON only, nothing to render
const apiContentSecurityPolicy = "default-src 'none'; " +
	"connect-src 'self'; " +
	"frame-ancestors 'none'; " +
	"form-action 'none'; " +
	"base-uri 'none'"

// CSPMiddleware returns a middleware that sets Content Security Policy and other security headers
func CSPMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Security-Policy", apiContentSecurityPolicy)

			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			w.Header().Set("Permissions-Policy", "geolocation=(), microphone=(), camera=()")

			// HSTS only makes sense over TLS
			if r.TLS != nil {
				w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}

			next.ServeHTTP(w, r)
		})
	}
}
