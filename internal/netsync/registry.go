package netsync

import "go.uber.org/zap"

// Custom opcodes understood by every runicrealm peer. Games add their own
// from OpUser upward.
const (
	OpResync byte = 1 // ask the host to resend every writing syncable
	OpUser   byte = 16
)

// HandlerFunc handles one custom message; r is positioned after the opcode.
type HandlerFunc func(r *Reader)

// Registry maps custom opcodes to handlers. Its Handle method is a
// CustomHandler.
type Registry struct {
	handlers map[byte]HandlerFunc
	log      *zap.Logger
	unknown  uint64
}

func NewRegistry(log *zap.Logger) *Registry {
	return &Registry{
		handlers: make(map[byte]HandlerFunc),
		log:      log,
	}
}

// Register maps opcode to fn, replacing any earlier handler. Opcode 0 is
// reserved for updates and panics.
func (reg *Registry) Register(opcode byte, fn HandlerFunc) {
	if opcode == OpUpdate {
		panic("netsync: opcode 0 is reserved")
	}
	reg.handlers[opcode] = fn
}

// Handle dispatches one message. Unknown opcodes are logged and dropped.
func (reg *Registry) Handle(opcode byte, r *Reader) {
	fn, ok := reg.handlers[opcode]
	if !ok {
		reg.unknown++
		reg.log.Debug("unknown opcode", zap.Uint8("op", opcode))
		return
	}
	fn(r)
}

// Unknown counts messages dropped for lack of a handler.
func (reg *Registry) Unknown() uint64 { return reg.unknown }
