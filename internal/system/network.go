package system

import (
	"time"

	"github.com/runicrealm/engine/internal/core/event"
	coresys "github.com/runicrealm/engine/internal/core/system"
	"github.com/runicrealm/engine/internal/netsync"
	"go.uber.org/zap"
)

// NetRecvSystem accepts new peers, applies inbound sync messages and prunes
// closed peers. Phase 0 (Input).
type NetRecvSystem struct {
	hub      *netsync.Hub
	net      *netsync.Network
	newPeers <-chan *netsync.Peer
	bus      *event.Bus
	log      *zap.Logger
}

// NewNetRecvSystem wires peer intake. newPeers may be nil for clients that
// dialed a single peer up front.
func NewNetRecvSystem(hub *netsync.Hub, net *netsync.Network, newPeers <-chan *netsync.Peer, bus *event.Bus, log *zap.Logger) *NetRecvSystem {
	return &NetRecvSystem{hub: hub, net: net, newPeers: newPeers, bus: bus, log: log}
}

func (s *NetRecvSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *NetRecvSystem) Update(_ time.Duration) {
	s.acceptPeers()

	s.hub.Drain(func(p *netsync.Peer, payload []byte) {
		if err := s.net.Receive(payload); err != nil {
			s.log.Debug("sync message rejected", zap.Uint64("peer", p.ID), zap.Error(err))
		}
	})

	for _, p := range s.hub.Prune() {
		s.log.Info("peer disconnected", zap.Uint64("peer", p.ID), zap.String("addr", p.Addr))
		event.Emit(s.bus, event.PeerDisconnected{PeerID: p.ID})
	}
}

func (s *NetRecvSystem) acceptPeers() {
	if s.newPeers == nil {
		return
	}
	for {
		select {
		case p := <-s.newPeers:
			s.hub.Add(p)
			// newcomers need the full state, not just what changed
			s.net.Resync()
			s.log.Info("peer connected", zap.Uint64("peer", p.ID), zap.String("addr", p.Addr))
			event.Emit(s.bus, event.PeerConnected{PeerID: p.ID, Addr: p.Addr})
		default:
			return
		}
	}
}

// NetSendSystem encodes changed writing syncables and flushes every peer's
// output queue. Phase 5 (Output).
type NetSendSystem struct {
	net      *netsync.Network
	hub      *netsync.Hub
	gameTime func() float64
}

func NewNetSendSystem(net *netsync.Network, hub *netsync.Hub, gameTime func() float64) *NetSendSystem {
	return &NetSendSystem{net: net, hub: hub, gameTime: gameTime}
}

func (s *NetSendSystem) Phase() coresys.Phase { return coresys.PhaseOutput }

func (s *NetSendSystem) Update(_ time.Duration) {
	s.net.Update(s.gameTime())
	s.hub.Flush()
}

// ClockSyncSystem makes a client follow the host's game clock: whenever a
// sync message was applied, the local game time jumps to the remote time
// carried with it. Phase 4 (PostUpdate).
type ClockSyncSystem struct {
	net     *netsync.Network
	set     func(float64)
	applied uint64
}

func NewClockSyncSystem(net *netsync.Network, set func(float64)) *ClockSyncSystem {
	return &ClockSyncSystem{net: net, set: set}
}

func (s *ClockSyncSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *ClockSyncSystem) Update(_ time.Duration) {
	st := s.net.Stats()
	if st.Applied == s.applied {
		return
	}
	s.applied = st.Applied
	s.set(s.net.RemoteTime())
}
