package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"go.uber.org/zap"

	"github.com/rishavSprinto/eigenflow/config"
)

// Manager wraps the HTTP server with non-blocking start, graceful
// shutdown, and signal handling.
type Manager struct {
	server   *http.Server
	listener net.Listener
	errCh    chan error
	cfg      config.ServerConfig
	logger   *zap.Logger
	mu       sync.Mutex
	closed   bool
}

// NewManager creates a server manager for the given handler.
func NewManager(handler http.Handler, cfg config.ServerConfig, logger *zap.Logger) *Manager {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return &Manager{
		server: srv,
		errCh:  make(chan error, 1),
		cfg:    cfg,
		logger: logger.With(zap.String("component", "http_server")),
	}
}

// Start begins serving without blocking. The returned error covers
// listener setup only; serve errors surface through Err.
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("server is closed")
	}
	if m.listener != nil {
		return fmt.Errorf("server already started")
	}

	ln, err := net.Listen("tcp", m.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", m.cfg.Addr, err)
	}
	m.listener = ln

	go func() {
		m.logger.Info("server listening", zap.String("addr", ln.Addr().String()))
		if err := m.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.errCh <- err
		}
	}()
	return nil
}

// Err exposes asynchronous serve failures.
func (m *Manager) Err() <-chan error {
	return m.errCh
}

// Addr returns the bound listener address, useful with ":0" in tests.
func (m *Manager) Addr() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listener == nil {
		return ""
	}
	return m.listener.Addr().String()
}

// Shutdown drains in-flight requests within the configured timeout.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, m.cfg.ShutdownTimeout)
	defer cancel()

	m.logger.Info("shutting down server")
	if err := m.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}

// WaitForSignal blocks until SIGINT/SIGTERM arrives or the server
// fails, then returns the cause.
func (m *Manager) WaitForSignal() error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		m.logger.Info("signal received", zap.String("signal", sig.String()))
		return nil
	case err := <-m.errCh:
		return err
	}
}
