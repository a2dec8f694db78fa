package middleware

import (
	"log"
	"net/http"
	"slices"
)

// CORS returns a middleware that allows the given origins. In development
// any origin is reflected back.
func CORS(allowedOrigins []string, development bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			switch {
			case isAllowedOrigin(origin, allowedOrigins):
				w.Header().Set("Access-Control-Allow-Origin", origin)
			case development && origin != "":
				log.Printf("Development mode: allowing origin %s", origin)
				w.Header().Set("Access-Control-Allow-Origin", origin)
			case len(allowedOrigins) > 0:
				w.Header().Set("Access-Control-Allow-Origin", allowedOrigins[0])
			}
			w.Header().Add("Vary", "Origin")

			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers",
				"Content-Type, Authorization, X-Requested-With, Accept, Origin")
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Max-Age", "3600")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func isAllowedOrigin(origin string, allowedOrigins []string) bool {
	return origin != "" && slices.Contains(allowedOrigins, origin)
}
