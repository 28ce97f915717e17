package handlers

import (
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
)

// WithPathStrip removes a path prefix, e.g. when running behind a proxy on /mxprobe. The resulting path always
// starts with a /.
func WithPathStrip(logger logrus.FieldLogger, path string) HandlerWrapper {
	logger = logger.WithField("middleware", "path_strip")

	if path == "" || path == "/" {
		logger.Warn("Path strip is used without a path to strip, requests are passed on unchanged")
		return func(h http.Handler) http.Handler {
			return h
		}
	}

	path = normalizeSlashes(logger, path)
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if p := strings.TrimPrefix(r.URL.Path, path); p != r.URL.Path {
				if !strings.HasPrefix(p, `/`) {
					p = `/` + p
				}

				r.URL.Path = p
				r.URL.RawPath = ""
			}

			h.ServeHTTP(w, r)
		})
	}
}

// normalizeSlashes makes sure the path starts with a `/` and doesn't end with a `/`
func normalizeSlashes(logger logrus.FieldLogger, path string) string {
	if !strings.HasPrefix(path, `/`) {
		original := path
		path = `/` + path
		logger.WithFields(logrus.Fields{
			"from": original,
			"to":   path,
		}).Warn("The path strip argument doesn't start with a `/`, correcting it")
	}

	if strings.HasSuffix(path, `/`) {
		original := path
		path = strings.TrimRight(path, `/`)
		logger.WithFields(logrus.Fields{
			"from": original,
			"to":   path,
		}).Warn("The path strip argument ends with a `/`, correcting it")
	}

	return path
}
