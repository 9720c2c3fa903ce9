package rest

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/Gunvolt24/queue-consumer/config"
	"github.com/Gunvolt24/queue-consumer/internal/ports"
)

// Server — служебный HTTP-сервер; живёт столько же, сколько цикл потребления.
type Server struct {
	srv             *http.Server
	log             ports.Logger
	gracefulTimeout time.Duration
}

func NewServer(cfg config.HTTP, handler http.Handler, log ports.Logger) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              cfg.Addr,
			Handler:           handler,
			ReadTimeout:       cfg.ReadTimeout,
			WriteTimeout:      cfg.WriteTimeout,
			ReadHeaderTimeout: cfg.ReadHeaderTimeout,
			IdleTimeout:       cfg.IdleTimeout,
		},
		log:             log,
		gracefulTimeout: cfg.GracefulTimeout,
	}
}

// Start — слушает адрес синхронно (ошибка порта видна сразу), обслуживает в фоне.
// Ошибка Serve уходит в errCh.
func (s *Server) Start(ctx context.Context, errCh chan<- error) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return err
	}
	s.log.Infof(ctx, "ops http server starting (addr=%s)", ln.Addr())

	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	return nil
}

// Shutdown — корректная остановка с таймаутом gracefulTimeout.
func (s *Server) Shutdown(ctx context.Context) {
	gt := s.gracefulTimeout
	if gt <= 0 {
		gt = 5 * time.Second
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), gt)
	defer cancel()

	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		s.log.Warnf(ctx, "ops http server shutdown failed: %v", err)
		return
	}
	s.log.Infof(ctx, "ops http server stopped gracefully")
}
