// Package certwatch polls a TLS cert/key pair for changes and triggers a
// hot reload callback, so an operator can rotate a certificate without
// restarting the admin server.
package certwatch

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"
)

// Watcher polls a cert/key file pair for modification-time changes.
type Watcher struct {
	certPath string
	keyPath  string
	interval time.Duration
	logger   *slog.Logger
	onReload func(*tls.Certificate)
	ctx      context.Context
	cancel   context.CancelFunc

	certMtime time.Time
	keyMtime  time.Time
}

// New creates a watcher for the cert/key pair at certPath/keyPath. onReload
// is called with the freshly parsed certificate whenever either file's
// modification time advances and the pair parses; a pair that fails to
// parse is logged and checked again on the next tick.
func New(certPath, keyPath string, interval time.Duration, logger *slog.Logger, onReload func(*tls.Certificate)) *Watcher {
	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		certPath: certPath,
		keyPath:  keyPath,
		interval: interval,
		logger:   logger,
		onReload: onReload,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start records the current mtimes and begins polling in the background.
func (w *Watcher) Start() error {
	certInfo, err := os.Stat(w.certPath)
	if err != nil {
		return fmt.Errorf("stat cert file: %w", err)
	}
	keyInfo, err := os.Stat(w.keyPath)
	if err != nil {
		return fmt.Errorf("stat key file: %w", err)
	}
	w.certMtime = certInfo.ModTime()
	w.keyMtime = keyInfo.ModTime()

	go func() {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				w.checkAndReload()
			case <-w.ctx.Done():
				return
			}
		}
	}()

	w.logger.Info("certificate watcher started", "cert", w.certPath, "key", w.keyPath, "interval", w.interval)
	return nil
}

// Stop stops the watcher.
func (w *Watcher) Stop() {
	w.cancel()
}

func (w *Watcher) checkAndReload() {
	certInfo, err := os.Stat(w.certPath)
	if err != nil {
		w.logger.Warn("stat cert file", "error", err)
		return
	}
	keyInfo, err := os.Stat(w.keyPath)
	if err != nil {
		w.logger.Warn("stat key file", "error", err)
		return
	}

	if !certInfo.ModTime().After(w.certMtime) && !keyInfo.ModTime().After(w.keyMtime) {
		return
	}

	cert, err := tls.LoadX509KeyPair(w.certPath, w.keyPath)
	if err != nil {
		w.logger.Error("loading reloaded certificate", "error", err)
		return
	}

	w.certMtime = certInfo.ModTime()
	w.keyMtime = keyInfo.ModTime()
	w.logger.Info("certificate reloaded", "cert", w.certPath)
	w.onReload(&cert)
}

// ReloadableTLSConfig wraps a certwatch-driven certificate so it can be
// plugged into tls.Config.GetCertificate.
type ReloadableTLSConfig struct {
	mu   sync.RWMutex
	cert *tls.Certificate
}

// NewReloadableTLSConfig creates a holder seeded with the initial cert.
func NewReloadableTLSConfig(initial *tls.Certificate) *ReloadableTLSConfig {
	return &ReloadableTLSConfig{cert: initial}
}

// Set replaces the served certificate; intended as a Watcher's onReload.
func (r *ReloadableTLSConfig) Set(cert *tls.Certificate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cert = cert
}

// GetCertificate implements the tls.Config.GetCertificate signature.
func (r *ReloadableTLSConfig) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cert, nil
}
