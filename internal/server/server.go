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
	"time"

	"github.com/muurk/gogogate/internal/device"
	"github.com/muurk/gogogate/internal/logging"
	"go.uber.org/zap"
)

// Config holds the emulator configuration
type Config struct {
	Host     string
	Port     int
	Family   device.Family
	Username string
	Password string
	APICode  string
	Name     string
	LogLevel string
}

// Server serves an emulated hub over plain HTTP, as the real hubs do.
type Server struct {
	config   *Config
	hub      *Hub
	httpSrv  *http.Server
	listener net.Listener
	mu       sync.Mutex
}

// New creates a new Server instance
func New(config *Config) (*Server, error) {
	if err := logging.Initialize(config.LogLevel); err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}

	hub, err := NewHub(HubConfig{
		Family:   config.Family,
		Username: config.Username,
		Password: config.Password,
		APICode:  config.APICode,
		Name:     config.Name,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create hub: %w", err)
	}

	return &Server{
		config: config,
		hub:    hub,
		httpSrv: &http.Server{
			Handler:           hub,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// Hub returns the emulated hub
func (s *Server) Hub() *Hub {
	return s.hub
}

// Listen binds the listening socket. Start calls it when needed.
func (s *Server) Listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return nil
	}

	addr := net.JoinHostPort(s.config.Host, fmt.Sprintf("%d", s.config.Port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.listener = listener
	return nil
}

// Addr returns the bound address, or nil before Listen
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Serve serves requests until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}

	logging.Info("Hub emulator listening",
		zap.String("addr", s.Addr().String()),
		zap.String("family", s.hub.Family().String()),
		zap.String("username", s.config.Username),
	)

	errChan := make(chan error, 1)
	go func() {
		err := s.httpSrv.Serve(s.listener)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errChan <- err
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	case err := <-errChan:
		return err
	}
}

// Start serves until SIGINT or SIGTERM
func (s *Server) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := s.Serve(ctx)
	if ctx.Err() != nil {
		logging.Info("Shutdown signal received, emulator stopped")
	}
	return err
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down hub emulator...")

	err := s.httpSrv.Shutdown(ctx)
	if err != nil {
		logging.Warn("Shutdown timeout, forcing close", zap.Error(err))
		_ = s.httpSrv.Close()
	}

	logging.Info("Hub emulator stopped", zap.Int("requests_served", s.hub.Requests()))
	logging.Sync()

	return err
}
