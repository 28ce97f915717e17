package handlers

import (
	"compress/gzip"
	"net/http"

	"github.com/NYTimes/gziphandler"
	"github.com/sirupsen/logrus"
)

const (
	mtuSize = 1500
)

// WithGzipHandler compresses responses that don't fit a single packet. Verification responses of a handful of
// addresses are sent as-is.
func WithGzipHandler(logger logrus.FieldLogger) HandlerWrapper {
	logger = logger.WithField("middleware", "gzip")

	wrapper, err := gziphandler.GzipHandlerWithOpts(
		gziphandler.CompressionLevel(gzip.BestSpeed),
		gziphandler.MinSize(mtuSize),
	)

	if err != nil {
		logger.WithError(err).Error("Unable to create the compression handler, responses won't be compressed")
		return func(handler http.Handler) http.Handler {
			return handler
		}
	}

	return func(handler http.Handler) http.Handler {
		return wrapper(handler)
	}
}
