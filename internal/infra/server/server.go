// Package server serves a visualization directory over HTTP for the capture run.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/LouYuanbo1/vizcapture/internal/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

const IndexFile = "index.html"

type Server struct {
	dir      string
	listener net.Listener
	http     *http.Server
	log      logrus.FieldLogger
}

// Listen binds cfg.Host:cfg.Port and prepares to serve dir, which must
// contain index.html. Port 0 picks a free port.
func Listen(dir string, cfg config.Server, log logrus.FieldLogger) (*Server, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	index := filepath.Join(abs, IndexFile)
	if info, err := os.Stat(index); err != nil || info.IsDir() {
		return nil, fmt.Errorf("server: %s must be an existing file", index)
	}

	ln, err := net.Listen("tcp", net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)))
	if err != nil {
		return nil, fmt.Errorf("server: listen: %w", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.NoCache)
	r.Use(requestLogger(log))
	r.Handle("/*", http.FileServer(http.Dir(abs)))

	return &Server{
		dir:      abs,
		listener: ln,
		http: &http.Server{
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: log,
	}, nil
}

// BaseURL is the root URL the directory is served at, with a trailing slash.
func (s *Server) BaseURL() *url.URL {
	return &url.URL{Scheme: "http", Host: s.listener.Addr().String(), Path: "/"}
}

// Serve blocks until ctx is done, then shuts the server down.
func (s *Server) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.WithFields(logrus.Fields{"dir": s.dir, "url": s.BaseURL().String()}).Info("serving visualization")
		errCh <- s.http.Serve(s.listener)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: %w", err)
	}
	s.log.Info("server stopped")
	return nil
}

func requestLogger(log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.WithFields(logrus.Fields{
				"path":     r.URL.Path,
				"status":   ww.Status(),
				"bytes":    ww.BytesWritten(),
				"duration": time.Since(start),
			}).Debug("served")
		})
	}
}
