package netsync

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Server upgrades HTTP requests to websocket peers. New peers are handed to
// the game thread through NewPeers.
type Server struct {
	upgrader websocket.Upgrader
	nextID   atomic.Uint64
	newPeers chan *Peer
	inSize   int
	outSize  int
	log      *zap.Logger

	closeCh   chan struct{}
	closeOnce sync.Once
}

var _ http.Handler = (*Server)(nil)

func NewServer(inSize, outSize int, log *zap.Logger) *Server {
	return &Server{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		newPeers: make(chan *Peer, 64),
		inSize:   inSize,
		outSize:  outSize,
		log:      log,
		closeCh:  make(chan struct{}),
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	select {
	case <-s.closeCh:
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	default:
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug("upgrade failed", zap.Error(err))
		return // Upgrade already replied
	}

	p := NewPeer(conn, s.nextID.Add(1), s.inSize, s.outSize, s.log)
	p.Start()
	s.log.Info("peer connected", zap.Uint64("peer", p.ID), zap.String("addr", p.Addr))

	select {
	case s.newPeers <- p:
	default:
		s.log.Warn("peer queue full, rejecting connection", zap.Uint64("peer", p.ID))
		p.Close()
	}
}

// NewPeers returns the channel of newly connected peers.
func (s *Server) NewPeers() <-chan *Peer { return s.newPeers }

// ListenAndServe serves websocket upgrades on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s, ReadHeaderTimeout: 5 * time.Second}
	stop := context.AfterFunc(ctx, func() {
		s.Shutdown()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	})
	defer stop()

	s.log.Info("network listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting new peers. Hijacked connections stay open until
// their peers are closed.
func (s *Server) Shutdown() {
	s.closeOnce.Do(func() { close(s.closeCh) })
}
