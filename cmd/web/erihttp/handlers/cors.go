package handlers

import (
	"net/http"

	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
)

// WithCORS allows cross-origin POST requests from allowedOrigins. Without origins the handler is returned as-is.
func WithCORS(logger logrus.FieldLogger, allowedOrigins, allowedHeaders []string) HandlerWrapper {
	logger = logger.WithField("middleware", "cors")

	if len(allowedOrigins) == 0 {
		logger.Debug("No allowed origins configured, CORS is disabled")
		return func(h http.Handler) http.Handler {
			return h
		}
	}

	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedHeaders: allowedHeaders,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
	})

	return c.Handler
}
