package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"time"

	"github.com/Dynom/mxprobe/cmd/web/config"
	"github.com/Dynom/mxprobe/cmd/web/erihttp"
	"github.com/Dynom/mxprobe/validator"
	"github.com/sirupsen/logrus"
)

func headersToHTTPHeaders(h config.Headers) http.Header {
	headers := http.Header{}
	for name, value := range h {
		headers.Add(name, value)
	}

	return headers
}

func newLogger(conf config.Config) (*logrus.Logger, error) {
	var err error
	logger := logrus.New()

	if conf.Server.Log.Format == config.LFText {
		logger.Formatter = &logrus.TextFormatter{}
	} else {
		logger.Formatter = &logrus.JSONFormatter{}
	}

	logger.Out = os.Stdout
	logger.Level, err = logrus.ParseLevel(conf.Server.Log.Level)

	return logger, err
}

func configureProfiler(mux *http.ServeMux, conf config.Config) {
	var prefix string
	if conf.Server.Profiler.Prefix != "" {
		prefix = conf.Server.Profiler.Prefix
	} else {
		prefix = "debug"
	}

	mux.HandleFunc(`/`+prefix+`/pprof/`, pprof.Index)
	mux.HandleFunc(`/`+prefix+`/pprof/cmdline`, pprof.Cmdline)
	mux.HandleFunc(`/`+prefix+`/pprof/profile`, pprof.Profile)
	mux.HandleFunc(`/`+prefix+`/pprof/symbol`, pprof.Symbol)
	mux.HandleFunc(`/`+prefix+`/pprof/trace`, pprof.Trace)
}

// newResolver returns a resolver that sends every query to host, on port 53 unless specified. An empty host means the
// system resolver.
func newResolver(host string, timeout time.Duration) validator.LookupMX {
	if host == "" {
		return net.DefaultResolver
	}

	return validator.NewDNSResolver(host, timeout)
}

func deferClose(toClose io.Closer, log logrus.FieldLogger) {
	if toClose == nil {
		return
	}

	err := toClose.Close()
	if err != nil {
		if log == nil {
			fmt.Printf("error failed to close handle %s", err)
			return
		}

		log.WithError(err).Error("Failed to close handle")
	}
}

func mapValidatorTypeToValidatorFn(vt config.ValidatorType, v validator.EmailValidator) validator.CheckFn {
	switch vt {
	case config.VTProbe:
		return v.CheckWithProbe
	case config.VTLookup:
		return v.CheckWithLookup
	case config.VTStructure:
		return v.CheckWithSyntax
	}

	panic(fmt.Sprintf("Incorrect validator %q configured.", vt))
}

func writeErrorJSONResponse(logger logrus.FieldLogger, w http.ResponseWriter, responseType erihttp.ERIResponse) {
	responseType.PrepareResponse()
	response, err := json.Marshal(responseType)
	if err != nil {
		logger.WithError(err).Error("Failed to marshal the response")
		response = []byte(`{"error":"` + failedResponseError + `"}`)
	}

	_, err = w.Write(response)
	if err != nil {
		logger.WithError(err).Error("Failed to write response")
	}
}
