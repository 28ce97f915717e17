package main

import (
	"errors"
	"io/fs"
	"net/http"
	"os"
	"syscall"

	"github.com/Dynom/mxprobe/cmd/web/config"
	"github.com/Dynom/mxprobe/cmd/web/erihttp"
	"github.com/Dynom/mxprobe/cmd/web/erihttp/handlers"
	"github.com/Dynom/mxprobe/inspector"
	"github.com/Dynom/mxprobe/runtimer"
	"github.com/Dynom/mxprobe/validator"
	gqlHandler "github.com/graphql-go/handler"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Version contains the app version, the value is changed during compile time to the appropriate Git tag
var Version = "dev"

func main() {
	configFile := "config.toml"
	if v := os.Getenv("MXPROBE_CONFIG"); v != "" {
		configFile = v
	}

	conf, confErr := config.NewConfig(configFile)
	if confErr != nil && !errors.Is(confErr, fs.ErrNotExist) {
		panic(confErr)
	}

	logger, err := newLogger(conf)
	if err != nil {
		panic(err)
	}

	if confErr != nil {
		logger.WithField("file", configFile).Warn("Config file not found, continuing with the defaults")
	}

	logger.WithFields(logrus.Fields{
		"version":         Version,
		"validator":       conf.Probe.Validator,
		"accepted_domain": conf.Probe.AcceptedDomain,
		"concurrency":     conf.Probe.Concurrency,
	}).Info("Starting up...")

	rt := runtimer.New(os.Interrupt, syscall.SIGTERM)

	resolver := newResolver(conf.Probe.Resolver, conf.Probe.Timeout.AsDuration())
	if r, ok := resolver.(*validator.DNSResolver); ok {
		logger.WithField("resolver", r.Server()).Info("Resolving MX records with a custom name server")
	}

	val := validator.NewEmailAddressValidator(conf.ProbeConfig(),
		validator.WithResolver(resolver),
		validator.WithLogger(logger),
	)

	insp := inspector.New(
		inspector.WithCheckFn(validatorLogProxy(logger, mapValidatorTypeToValidatorFn(conf.Probe.Validator, val))),
		inspector.WithConcurrency(int(conf.Probe.Concurrency)),
		inspector.WithLogger(logger),
	)

	// Probing endpoints stop in time to respond, the addresses left over are rejected
	withDeadline := handlers.WithResponseDeadline(erihttp.ResponseBudget(conf))

	mux := http.NewServeMux()
	mux.Handle("/verify-emails", withDeadline(NewVerifyHandler(logger, insp, conf.Client.InputLengthMax)))
	mux.HandleFunc("/health", NewHealthHandler(logger))

	schema, err := NewGraphQLSchema(insp)
	if err != nil {
		logger.WithError(err).Error("Unable to build the GraphQL schema")
		os.Exit(1)
	}

	mux.Handle("/graphql", withDeadline(gqlHandler.New(&gqlHandler.Config{
		Schema:     &schema,
		Pretty:     conf.Server.GraphQL.PrettyOutput,
		GraphiQL:   conf.Server.GraphQL.GraphiQL,
		Playground: conf.Server.GraphQL.Playground,
	})))

	if conf.Server.Metrics.Enable {
		mux.Handle(conf.Server.Metrics.Path, promhttp.Handler())
	}

	if conf.Server.Profiler.Enable {
		configureProfiler(mux, conf)
		logger.WithField("prefix", conf.Server.Profiler.Prefix).Warn("Profiler is enabled")
	}

	lw := logger.WriterLevel(logrus.ErrorLevel)
	defer deferClose(lw, nil)

	wrappers := []func(h http.Handler) http.Handler{
		handlers.WithGzipHandler(logger),
		handlers.WithHeaders(headersToHTTPHeaders(conf.Server.Headers)),
		handlers.WithCORS(logger, conf.Server.CORS.AllowedOrigins, conf.Server.CORS.AllowedHeaders),
		handlers.WithRequestLogger(logger),
	}

	if conf.Server.PathStrip != "" {
		wrappers = append(wrappers, handlers.WithPathStrip(logger, conf.Server.PathStrip))
	}

	s := erihttp.NewServer(mux, conf, logger, lw, rt, wrappers...)

	err = s.Serve()
	if !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Error("HTTP server stopped")
		os.Exit(1)
	}

	rt.Wait()
	logger.Info("Bye")
}
