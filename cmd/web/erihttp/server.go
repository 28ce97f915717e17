package erihttp

import (
	"context"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/Dynom/mxprobe/cmd/web/config"
	"github.com/Dynom/mxprobe/runtimer"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/netutil"
)

const (
	shutdownGracePeriod = 10 * time.Second

	minResponseMargin = 500 * time.Millisecond
	maxResponseMargin = 5 * time.Second
)

// WriteTimeout returns the read and write deadline the server applies to connections. The profiler needs at least
// 30s to collect a CPU profile.
func WriteTimeout(conf config.Config) time.Duration {
	netTTL := conf.Server.NetTTL.AsDuration()
	if netTTL <= 0 {
		netTTL = 60 * time.Second
	}

	if conf.Server.Profiler.Enable && netTTL < 31*time.Second {
		netTTL = 31 * time.Second
	}

	return netTTL
}

// ResponseBudget returns how long a handler may work before it has to respond, leaving a margin to write the
// response before the connection's write deadline passes
func ResponseBudget(conf config.Config) time.Duration {
	ttl := WriteTimeout(conf)

	margin := ttl / 10
	if margin < minResponseMargin {
		margin = minResponseMargin
	}

	if margin > maxResponseMargin {
		margin = maxResponseMargin
	}

	if ttl <= margin {
		return ttl / 2
	}

	return ttl - margin
}

// NewServer creates a server with the handlers applied in order, the first being the innermost. When rt is not nil,
// the server shuts down gracefully once rt receives a signal.
func NewServer(mux http.Handler, conf config.Config, logger logrus.FieldLogger, logWriter io.Writer, rt *runtimer.SignalHandler, handlers ...func(h http.Handler) http.Handler) *Server {
	for _, h := range handlers {
		mux = h(mux)
	}

	netTTL := WriteTimeout(conf)

	server := &http.Server{
		ReadHeaderTimeout: 2 * time.Second,
		ReadTimeout:       netTTL,
		WriteTimeout:      netTTL,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 19, // 512 kb
		Handler:           mux,
		Addr:              conf.Server.ListenOn,
		ErrorLog:          log.New(logWriter, "", 0),
	}

	s := &Server{
		server:          server,
		logger:          logger.WithField("svc", "http"),
		connectionLimit: int(conf.Server.ConnectionLimit),
	}

	if rt != nil {
		rt.RegisterCallback(func(sig os.Signal) {
			s.logger.WithField("signal", sig.String()).Info("Signal received, shutting down")

			ctx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
			defer cancel()

			if err := s.Shutdown(ctx); err != nil {
				s.logger.WithError(err).Error("Graceful shutdown failed")
			}
		})
	}

	return s
}

type Server struct {
	server          *http.Server
	logger          logrus.FieldLogger
	connectionLimit int
}

// Serve opens the listener and serves until the server is shut down. A shutdown results in http.ErrServerClosed.
func (s *Server) Serve() error {
	listener, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("unable to listen on %q %w", s.server.Addr, err)
	}

	return s.ServeListener(listener)
}

// ServeListener serves on an existing listener, applying the connection limit
func (s *Server) ServeListener(listener net.Listener) error {
	if s.connectionLimit > 0 {
		listener = netutil.LimitListener(listener, s.connectionLimit)
	}

	s.logger.WithFields(logrus.Fields{
		"listen_on":        listener.Addr().String(),
		"connection_limit": s.connectionLimit,
	}).Info("Serving requests")

	return s.server.Serve(listener)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
