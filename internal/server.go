package internal

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Stopper initiates a graceful shutdown.
type Stopper interface {
	Stop()
}

// Server is an http.Server that can be told to stop from inside one of its own handlers.
type Server struct {
	addr            string
	shutdownTimeout time.Duration
	log             *logrus.Logger

	stop      chan struct{}
	stopOnce  sync.Once
	ready     chan struct{}
	readyOnce sync.Once

	mu         sync.Mutex
	listenAddr string
}

func NewServer(c ServerConfig, addr string, log *logrus.Logger) *Server {
	shutdownTimeout := c.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &Server{
		addr:            addr,
		shutdownTimeout: shutdownTimeout,
		log:             log,
		stop:            make(chan struct{}),
		ready:           make(chan struct{}),
	}
}

// Stop makes Serve shut down. Safe to call more than once and before Serve.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		s.log.Info("Shutdown requested")
		close(s.stop)
	})
}

// Serve runs until ctx is cancelled or Stop is called, then stops accepting connections and
// waits for in-flight requests to finish.
func (s *Server) Serve(ctx context.Context, handler http.Handler) error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.mu.Lock()
	s.listenAddr = listener.Addr().String()
	s.mu.Unlock()
	s.readyOnce.Do(func() { close(s.ready) })

	serveErr := make(chan error, 1)
	go func() {
		s.log.WithField("addr", listener.Addr().String()).Info("Starting http-server")
		serveErr <- httpServer.Serve(listener)
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	case <-s.stop:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		s.log.WithError(err).Error("Graceful shutdown failed")
		if closeErr := httpServer.Close(); closeErr != nil {
			s.log.WithError(closeErr).Error("Forced close failed")
		}
		return err
	}
	return nil
}

// Ready is closed once Serve is listening.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Addr returns the address Serve listens on, or "" before it started.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listenAddr
}
