package handlers

import (
	"context"
	"net/http"
	"time"
)

// WithResponseDeadline bounds the request context by budget. Handlers that stop working once their context is done
// can then still respond before the server's write deadline. A budget of 0 or less leaves the context untouched.
func WithResponseDeadline(budget time.Duration) HandlerWrapper {
	return func(h http.Handler) http.Handler {
		if budget <= 0 {
			return h
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), budget)
			defer cancel()

			h.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
