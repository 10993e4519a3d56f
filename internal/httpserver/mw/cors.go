package mw

import (
	"net/http"

	"github.com/rs/cors"
)

// CORS lets browser front-ends on the given origins call the API. "*" allows
// any origin.
func CORS(origins []string) func(http.Handler) http.Handler {
	opts := cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
		},
		AllowedHeaders: []string{"Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id", "Retry-After", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		MaxAge:         300,
	}
	for _, o := range origins {
		if o == "*" {
			opts.AllowOriginFunc = func(string) bool { return true }
			break
		}
	}
	if opts.AllowOriginFunc == nil {
		opts.AllowedOrigins = origins
	}
	return cors.New(opts).Handler
}
