package netsync

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const writeTimeout = 10 * time.Second

// Peer is one websocket connection. Socket I/O runs in dedicated goroutines;
// Send and FlushOutput belong to the game thread.
type Peer struct {
	ID   uint64
	Addr string
	conn *websocket.Conn

	In  chan []byte // game thread reads messages from here
	Out chan []byte // write goroutine reads from here

	outBuf [][]byte // buffered until FlushOutput (game thread only)

	closeCh   chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool

	log *zap.Logger
}

var _ Sender = (*Peer)(nil)

func NewPeer(conn *websocket.Conn, id uint64, inSize, outSize int, log *zap.Logger) *Peer {
	return &Peer{
		ID:      id,
		Addr:    conn.RemoteAddr().String(),
		conn:    conn,
		In:      make(chan []byte, inSize),
		Out:     make(chan []byte, outSize),
		closeCh: make(chan struct{}),
		log:     log.With(zap.Uint64("peer", id)),
	}
}

// Dial connects to a server and starts the peer.
func Dial(ctx context.Context, url string, inSize, outSize int, log *zap.Logger) (*Peer, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	p := NewPeer(conn, 1, inSize, outSize, log)
	p.Start()
	return p, nil
}

// Start launches the reader and writer goroutines.
func (p *Peer) Start() {
	go p.readLoop()
	go p.writeLoop()
}

// Send buffers a message until the next FlushOutput.
func (p *Peer) Send(data []byte) {
	if p.closed.Load() {
		return
	}
	p.outBuf = append(p.outBuf, data)
}

// FlushOutput hands buffered messages to the writer goroutine. A full Out
// queue means the peer cannot keep up and it is disconnected.
func (p *Peer) FlushOutput() {
	for _, data := range p.outBuf {
		select {
		case p.Out <- data:
		default:
			p.log.Warn("output queue full, dropping slow peer")
			p.Close()
			clear(p.outBuf)
			p.outBuf = p.outBuf[:0]
			return
		}
	}
	clear(p.outBuf)
	p.outBuf = p.outBuf[:0]
}

func (p *Peer) Close() {
	p.closeOnce.Do(func() {
		p.closed.Store(true)
		close(p.closeCh)
		p.conn.Close()
	})
}

func (p *Peer) IsClosed() bool { return p.closed.Load() }

// Done is closed when the peer shuts down.
func (p *Peer) Done() <-chan struct{} { return p.closeCh }

func (p *Peer) readLoop() {
	defer p.Close()

	for {
		kind, payload, err := p.conn.ReadMessage()
		if err != nil {
			if !p.closed.Load() {
				p.log.Debug("read error", zap.Error(err))
			}
			return
		}
		if kind != websocket.BinaryMessage {
			continue
		}
		// Blocking only stalls this peer; dropping updates would desync it.
		select {
		case p.In <- payload:
		case <-p.closeCh:
			return
		}
	}
}

func (p *Peer) writeLoop() {
	defer p.Close()

	for {
		select {
		case data := <-p.Out:
			p.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := p.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
				if !p.closed.Load() {
					p.log.Debug("write error", zap.Error(err))
				}
				return
			}
		case <-p.closeCh:
			return
		}
	}
}
