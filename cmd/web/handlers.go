package main

import (
	"encoding/json"
	"net/http"

	"github.com/Dynom/mxprobe/cmd/web/erihttp"
	"github.com/Dynom/mxprobe/cmd/web/erihttp/handlers"
	"github.com/Dynom/mxprobe/inspector"
	"github.com/sirupsen/logrus"
)

const (
	failedRequestError  = "Request failed, unable to parse request body. Expected JSON."
	methodNotAllowed    = "Method not allowed, expected POST."
	failedResponseError = "Generating response failed."
)

// NewVerifyHandler constructs a HTTP handler that partitions a comma separated list of addresses
func NewVerifyHandler(logger logrus.FieldLogger, insp inspector.Inspector, maxBodySize uint64) http.HandlerFunc {
	logger = logger.WithField("handler", "verify")

	return func(w http.ResponseWriter, r *http.Request) {
		var req erihttp.VerifyRequest

		logger := logger.WithField(handlers.RequestID.String(), r.Context().Value(handlers.RequestID))

		defer deferClose(r.Body, logger)

		w.Header().Set("Content-Type", "application/json")

		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			w.WriteHeader(http.StatusMethodNotAllowed)
			writeErrorJSONResponse(logger, w, &erihttp.VerifyResponse{Error: methodNotAllowed})
			return
		}

		body, err := erihttp.GetBodyFromHTTPRequest(r, int64(maxBodySize))
		if err != nil {
			logger.WithFields(logrus.Fields{
				"error":          err,
				"content_length": r.ContentLength,
			}).Warn("Error handling request")

			w.WriteHeader(http.StatusBadRequest)

			// err is expected to be safe to expose to the client
			writeErrorJSONResponse(logger, w, &erihttp.VerifyResponse{Error: err.Error()})
			return
		}

		if err := json.Unmarshal(body, &req); err != nil {
			logger.WithError(err).Warn("Error handling request body")

			w.WriteHeader(http.StatusBadRequest)
			writeErrorJSONResponse(logger, w, &erihttp.VerifyResponse{Error: failedRequestError})
			return
		}

		addresses := inspector.SplitAddresses(req.Emails)
		result := insp.Inspect(r.Context(), addresses)

		res := erihttp.VerifyResponse{
			ValidEmails:   result.Accepted,
			InvalidEmails: result.Rejected,
		}
		res.PrepareResponse()

		response, err := json.Marshal(res)
		if err != nil {
			logger.WithError(err).Error("Failed to marshal the response")

			w.WriteHeader(http.StatusInternalServerError)
			writeErrorJSONResponse(logger, w, &erihttp.VerifyResponse{Error: failedResponseError})
			return
		}

		logger.WithFields(logrus.Fields{
			"addresses": len(addresses),
			"valid":     len(res.ValidEmails),
			"invalid":   len(res.InvalidEmails),
		}).Debug("Done verifying")

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(response)
	}
}

func NewHealthHandler(logger logrus.FieldLogger) http.HandlerFunc {
	logger = logger.WithField("handler", "health")

	return func(w http.ResponseWriter, r *http.Request) {
		logger := logger.WithField(handlers.RequestID.String(), r.Context().Value(handlers.RequestID))

		w.Header().Set("content-type", "text/plain")
		w.WriteHeader(http.StatusOK)

		_, err := w.Write([]byte("OK"))
		if err != nil {
			logger.WithError(err).Error("failed to write in health handler")
		}
	}
}
