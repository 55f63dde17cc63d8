// Package admin is the operational surface around a respool.Pool: health
// and readiness endpoints, Prometheus metrics, and a live dashboard fed by
// pool lifecycle events over a websocket. It has no effect on pool
// correctness — a Pool runs identically whether or not a Server is ever
// attached to it.
package admin

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"time"

	"net/http"

	"github.com/kestrel-systems/respool/internal/certwatch"
	"github.com/kestrel-systems/respool/internal/config"
	"github.com/kestrel-systems/respool/internal/wsrelay"
)

// Server is the poolmond admin/demo HTTP server.
type Server struct {
	cfg       *config.Config
	logger    *slog.Logger
	http      *http.Server
	http3     *HTTP3Server
	metrics   *Metrics
	redirect  *http.Server
	certwatch *certwatch.Watcher
}

// New creates a new admin Server wrapping p, broadcasting lifecycle events
// to wsManager's connected dashboards. metrics may be nil, in which case a
// fresh collector is created; pass an existing one if it was already
// attached to the pool as a pool.Observer (see Metrics.SetPool).
func New(cfg *config.Config, p PoolStatter, wsManager *wsrelay.Manager, metrics *Metrics, logger *slog.Logger) *Server {
	s := &Server{cfg: cfg, logger: logger}

	if metrics == nil {
		metrics = NewMetrics(p)
	} else {
		metrics.SetPool(p)
	}
	s.metrics = metrics
	router := NewRouter(p, wsManager, logger)

	s.http = &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      s.buildMiddleware(router),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s
}

// Start begins listening for HTTP connections; it blocks until the server
// stops or fails.
func (s *Server) Start() error {
	s.logger.Info("admin server starting",
		"address", s.cfg.Server.Address,
		"tls", s.cfg.Server.TLS.Auto,
		"http3", s.cfg.Server.HTTP3,
	)

	if err := EnableHTTP2(s.http, s.cfg.Server.TLS.Auto || s.cfg.Server.TLS.Cert != ""); err != nil {
		return fmt.Errorf("enabling http2: %w", err)
	}

	if s.cfg.Server.TLS.Auto || (s.cfg.Server.TLS.Cert != "" && s.cfg.Server.TLS.Key != "") {
		return s.startTLS()
	}
	return s.http.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("admin server shutting down")
	if s.certwatch != nil {
		s.certwatch.Stop()
	}
	if s.redirect != nil {
		_ = s.redirect.Shutdown(ctx)
	}
	if s.http3 != nil {
		_ = s.http3.Stop(ctx)
	}
	return s.http.Shutdown(ctx)
}

func (s *Server) startTLS() error {
	if s.cfg.Server.TLS.ACME.Email != "" {
		tlsConfig, redirectSrv, err := SetupACME(s.cfg, s.logger)
		if err != nil {
			return fmt.Errorf("setting up ACME: %w", err)
		}
		s.http.TLSConfig = tlsConfig
		s.redirect = redirectSrv
		return s.http.ListenAndServeTLS("", "")
	}

	if s.cfg.Server.TLS.Cert != "" && s.cfg.Server.TLS.Key != "" {
		if !s.cfg.Watch.Enabled {
			return s.http.ListenAndServeTLS(s.cfg.Server.TLS.Cert, s.cfg.Server.TLS.Key)
		}
		return s.startWatchedTLS()
	}

	if !s.cfg.Server.TLS.Auto {
		return fmt.Errorf("TLS enabled but no cert/key provided and auto-TLS is disabled")
	}

	s.logger.Warn("auto-TLS: using self-signed certificate for development")

	cert, key, err := generateSelfSignedCert()
	if err != nil {
		return fmt.Errorf("generating self-signed cert: %w", err)
	}

	tlsCert, err := tls.X509KeyPair(cert, key)
	if err != nil {
		return fmt.Errorf("parsing self-signed cert: %w", err)
	}

	s.http.TLSConfig = &tls.Config{
		Certificates: []tls.Certificate{tlsCert},
		MinVersion:   tls.VersionTLS12,
	}

	if s.cfg.Server.HTTP3 {
		s.http3 = NewHTTP3Server(s.cfg, s.http.Handler, s.http.TLSConfig, s.logger)
		go func() {
			if err := s.http3.Start(); err != nil {
				s.logger.Error("http3 server error", "error", err)
			}
		}()
	}

	return s.http.ListenAndServeTLS("", "")
}

// startWatchedTLS serves the configured cert/key pair through a
// certwatch.Watcher, so an operator can rotate the files on disk (e.g. via
// certbot renew) without restarting poolmond.
func (s *Server) startWatchedTLS() error {
	initial, err := tls.LoadX509KeyPair(s.cfg.Server.TLS.Cert, s.cfg.Server.TLS.Key)
	if err != nil {
		return fmt.Errorf("loading initial TLS certificate: %w", err)
	}

	reloadable := certwatch.NewReloadableTLSConfig(&initial)

	s.certwatch = certwatch.New(
		s.cfg.Server.TLS.Cert,
		s.cfg.Server.TLS.Key,
		s.cfg.Watch.Interval.Duration(),
		s.logger,
		reloadable.Set,
	)
	if err := s.certwatch.Start(); err != nil {
		return fmt.Errorf("starting certificate watcher: %w", err)
	}

	s.http.TLSConfig = &tls.Config{
		GetCertificate: reloadable.GetCertificate,
		MinVersion:     tls.VersionTLS12,
	}

	if s.cfg.Server.HTTP3 {
		s.http3 = NewHTTP3Server(s.cfg, s.http.Handler, s.http.TLSConfig, s.logger)
		go func() {
			if err := s.http3.Start(); err != nil {
				s.logger.Error("http3 server error", "error", err)
			}
		}()
	}

	return s.http.ListenAndServeTLS("", "")
}

func (s *Server) buildMiddleware(handler http.Handler) http.Handler {
	handler = CoreMiddleware(s.logger)(handler)

	if s.cfg.Metrics.Enabled {
		handler = s.metrics.Middleware(s.cfg.Metrics.Path)(handler)
	}

	handler = CompressionMiddleware()(handler)

	return handler
}
