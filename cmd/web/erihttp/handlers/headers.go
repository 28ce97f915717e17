package handlers

import "net/http"

// WithHeaders adds headers to every response, before the wrapped handler runs. Handlers can still override them.
func WithHeaders(headers http.Header) HandlerWrapper {
	return func(handler http.Handler) http.Handler {
		if len(headers) == 0 {
			return handler
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			copyHeaders(w.Header(), headers)

			handler.ServeHTTP(w, r)
		})
	}
}

func copyHeaders(dst, src http.Header) {
	for name, values := range src {
		for _, value := range values {
			dst.Add(name, value)
		}
	}
}
