package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/zeusync/farmlife/internal/core/observability/log"
	"github.com/zeusync/farmlife/internal/replication"
)

const shutdownTimeout = 5 * time.Second

// Server serves the observer feed and a health probe over HTTP.
type Server struct {
	cfg     Config
	hub     *Hub
	httpSrv *http.Server
	log     log.Log
	running atomic.Bool
	addr    atomic.Value // net.Addr once listening
}

func New(cfg Config, snap Snapshotter, logger log.Log) *Server {
	logger = log.OrNop(logger)
	if cfg.Path == "" {
		cfg.Path = DefaultConfig().Path
	}
	hub := NewHub(cfg, snap, logger)

	mux := http.NewServeMux()
	mux.Handle(cfg.Path, hub)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return &Server{
		cfg: cfg,
		hub: hub,
		httpSrv: &http.Server{
			Addr:              cfg.Addr,
			Handler:           mux,
			ReadHeaderTimeout: cfg.WriteTimeout,
		},
		log: logger.With(log.String("component", "server")),
	}
}

func (s *Server) Hub() *Hub { return s.hub }

// Broadcast forwards d to every connected observer.
func (s *Server) Broadcast(d replication.Delta) error {
	return s.hub.Broadcast(d)
}

// Addr is the bound listener address, nil before Run starts listening.
func (s *Server) Addr() net.Addr {
	if a, ok := s.addr.Load().(net.Addr); ok {
		return a
	}
	return nil
}

// Run listens until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrServerAlreadyRunning
	}
	defer s.running.Store(false)

	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	s.addr.Store(ln.Addr())
	s.log.Info("observer server listening", log.String("addr", ln.Addr().String()), log.String("path", s.cfg.Path))

	errCh := make(chan error, 1)
	go func() { errCh <- s.httpSrv.Serve(ln) }()

	select {
	case err = <-errCh:
		s.hub.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.hub.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err = s.httpSrv.Shutdown(shutdownCtx); err != nil {
		s.log.Warn("observer server shutdown", log.Error(err))
		return err
	}
	s.log.Info("observer server stopped")
	return nil
}
