package event

import "github.com/runicrealm/engine/internal/core/ident"

// TriggerHit is emitted once per overlapping trigger pair per tick.
type TriggerHit struct {
	A, B ident.ID
}

type EntityAdded struct {
	ID ident.ID
}

type EntityRemoved struct {
	ID ident.ID
}

type AssetLoaded struct {
	Name string
}

type AssetFailed struct {
	Name string
	Err  error
}

type PeerConnected struct {
	PeerID uint64
	Addr   string
}

type PeerDisconnected struct {
	PeerID uint64
}
