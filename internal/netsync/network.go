package netsync

import (
	"errors"
	"fmt"
	"slices"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"
)

// OpUpdate carries {S netID, value, F gameTime}.
const OpUpdate byte = 0

var (
	ErrUnknownSyncable = errors.New("netsync: unknown syncable")
	ErrUnknownOpcode   = errors.New("netsync: unknown opcode")
)

// Sender transmits one encoded message.
type Sender interface {
	Send(data []byte)
}

// CustomHandler receives messages with opcode >= 1. r is positioned after the
// opcode byte.
type CustomHandler func(opcode byte, r *Reader)

type Stats struct {
	Sent       uint64
	Suppressed uint64
	Applied    uint64
	Dropped    uint64
}

// Network keeps the reading and writing syncable registries. All methods run
// on the game thread.
type Network struct {
	out    Sender
	custom CustomHandler
	log    *zap.Logger

	reading map[string]Syncable
	writing map[string]Syncable
	order   []string          // writing ids in registration order
	sent    map[string]uint64 // xxhash of the last value bytes sent per id

	remoteTime float32
	stats      Stats
}

func NewNetwork(out Sender, custom CustomHandler, log *zap.Logger) *Network {
	return &Network{
		out:     out,
		custom:  custom,
		log:     log,
		reading: make(map[string]Syncable),
		writing: make(map[string]Syncable),
		sent:    make(map[string]uint64),
	}
}

func (n *Network) AddReading(s Syncable) { n.reading[s.NetID()] = s }

func (n *Network) AddWriting(s Syncable) {
	id := s.NetID()
	if _, ok := n.writing[id]; !ok {
		n.order = append(n.order, id)
	}
	n.writing[id] = s
	delete(n.sent, id)
}

func (n *Network) RemoveReading(s Syncable) { delete(n.reading, s.NetID()) }

func (n *Network) RemoveWriting(s Syncable) {
	id := s.NetID()
	if _, ok := n.writing[id]; !ok {
		return
	}
	delete(n.writing, id)
	delete(n.sent, id)
	n.order = slices.DeleteFunc(n.order, func(o string) bool { return o == id })
}

func (n *Network) Reading(id string) (Syncable, bool) {
	s, ok := n.reading[id]
	return s, ok
}

func (n *Network) Writing(id string) (Syncable, bool) {
	s, ok := n.writing[id]
	return s, ok
}

// Update sends every writing syncable whose encoded value changed since it
// was last sent.
func (n *Network) Update(gameTime float64) int {
	sent := 0
	val := NewWriter()
	for _, id := range n.order {
		val.buf = val.buf[:0]
		n.writing[id].Encode(val)
		h := xxhash.Sum64(val.Bytes())
		if last, ok := n.sent[id]; ok && last == h {
			n.stats.Suppressed++
			continue
		}
		n.sent[id] = h

		w := NewWriterWithOpcode(OpUpdate)
		w.WriteS(id)
		w.WriteBytes(val.Bytes())
		w.WriteF(float32(gameTime))
		n.out.Send(w.Bytes())
		sent++
	}
	n.stats.Sent += uint64(sent)
	return sent
}

// Resync forgets what was sent so the next Update sends every value, e.g.
// after a peer joins.
func (n *Network) Resync() { clear(n.sent) }

// SendCustom sends a game message with opcode op >= 1.
func (n *Network) SendCustom(op byte, fill func(w *Writer)) error {
	if op == OpUpdate {
		return fmt.Errorf("%w: %d is reserved", ErrUnknownOpcode, op)
	}
	w := NewWriterWithOpcode(op)
	if fill != nil {
		fill(w)
	}
	n.out.Send(w.Bytes())
	return nil
}

// Receive decodes one message. Updates for unknown ids and malformed
// messages are dropped and reported.
func (n *Network) Receive(payload []byte) error {
	r := NewReader(payload)
	if r.Err() != nil {
		n.stats.Dropped++
		return r.Err()
	}
	op := r.Opcode()
	if op != OpUpdate {
		if n.custom == nil {
			n.stats.Dropped++
			n.log.Debug("dropped message", zap.Uint8("op", op))
			return fmt.Errorf("%w: %d", ErrUnknownOpcode, op)
		}
		n.custom(op, r)
		return nil
	}

	id := r.ReadS()
	s, ok := n.reading[id]
	if !ok {
		n.stats.Dropped++
		n.log.Debug("update for unknown syncable", zap.String("net_id", id))
		return fmt.Errorf("%w: %q", ErrUnknownSyncable, id)
	}
	v := s.Decode(r)
	t := r.ReadF()
	if err := r.Err(); err != nil {
		n.stats.Dropped++
		return fmt.Errorf("update %s: %w", id, err)
	}
	s.Apply(v)
	n.remoteTime = t
	n.stats.Applied++
	return nil
}

// RemoteTime is the game time carried by the last applied update.
func (n *Network) RemoteTime() float64 { return float64(n.remoteTime) }

func (n *Network) Stats() Stats { return n.stats }
