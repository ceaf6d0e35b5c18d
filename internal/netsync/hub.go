package netsync

import "slices"

// Hub is the game thread's set of connected peers. Sending to the hub
// buffers the message on every open peer.
type Hub struct {
	peers []*Peer
}

var _ Sender = (*Hub)(nil)

func (h *Hub) Add(p *Peer) { h.peers = append(h.peers, p) }

func (h *Hub) Peers() []*Peer { return h.peers }

func (h *Hub) Len() int { return len(h.peers) }

func (h *Hub) Send(data []byte) {
	for _, p := range h.peers {
		p.Send(data)
	}
}

// Flush hands buffered output to every peer's writer.
func (h *Hub) Flush() {
	for _, p := range h.peers {
		p.FlushOutput()
	}
}

// Drain passes every message already waiting on a peer's In queue to fn
// without blocking, and returns how many there were.
func (h *Hub) Drain(fn func(p *Peer, payload []byte)) int {
	n := 0
	for _, p := range h.peers {
	queue:
		for {
			select {
			case payload := <-p.In:
				fn(p, payload)
				n++
			default:
				break queue
			}
		}
	}
	return n
}

// Prune removes closed peers and returns them.
func (h *Hub) Prune() []*Peer {
	var dead []*Peer
	h.peers = slices.DeleteFunc(h.peers, func(p *Peer) bool {
		if p.IsClosed() {
			dead = append(dead, p)
			return true
		}
		return false
	})
	return dead
}

// Close closes every peer.
func (h *Hub) Close() {
	for _, p := range h.peers {
		p.Close()
	}
	h.peers = nil
}
