package middleware

import (
	"net/http"
	"strings"
)

const defaultDevelopmentOrigin = "http://localhost:3000"

func CORSMiddleware(environment, frontendURL string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			// In production, restrict to the frontend domain and its subdomains
			if environment == "production" {
				isAllowed := frontendURL != "" && origin == frontendURL
				if !isAllowed && frontendURL != "" && strings.HasPrefix(origin, "https://") {
					host := strings.TrimPrefix(frontendURL, "https://")
					isAllowed = strings.HasSuffix(origin, "."+host)
				}

				if isAllowed {
					w.Header().Set("Access-Control-Allow-Origin", origin)
					w.Header().Set("Access-Control-Allow-Credentials", "true")
					w.Header().Add("Vary", "Origin")
				}
			} else {
				if origin == "" {
					origin = defaultDevelopmentOrigin
				}
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}

			// Preflight requests stop here
			if r.Method == http.MethodOptions {
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Sec-WebSocket-Protocol, Sec-WebSocket-Extensions, Sec-WebSocket-Version, Sec-WebSocket-Key")
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
