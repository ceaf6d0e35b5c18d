// Package netsync replicates values between game instances over websockets.
//
// Every message is one websocket binary frame: an opcode byte followed by
// little-endian fields. Opcode 0 is a value update; higher opcodes belong to
// the game.
package netsync

import (
	"encoding/binary"
	"errors"
	"math"
	"unicode/utf8"
)

// ErrShortRead is reported by Reader.Err after any read ran past the payload.
var ErrShortRead = errors.New("netsync: short read")

// MaxStringLen is the longest string WriteS sends. Longer strings are cut at
// a rune boundary.
const MaxStringLen = 255

// Writer builds one message. All multi-byte writes are little-endian.
type Writer struct {
	buf []byte
}

func NewWriter() *Writer {
	return &Writer{buf: make([]byte, 0, 64)}
}

func NewWriterWithOpcode(opcode byte) *Writer {
	w := NewWriter()
	w.WriteC(opcode)
	return w
}

// WriteC writes 1 byte.
func (w *Writer) WriteC(v byte) {
	w.buf = append(w.buf, v)
}

// WriteH writes 2 bytes.
func (w *Writer) WriteH(v uint16) {
	w.buf = binary.LittleEndian.AppendUint16(w.buf, v)
}

// WriteD writes a signed 4 byte integer.
func (w *Writer) WriteD(v int32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, uint32(v))
}

// WriteF writes an IEEE 754 single.
func (w *Writer) WriteF(v float32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, math.Float32bits(v))
}

// WriteS writes a length byte and up to MaxStringLen bytes of s.
func (w *Writer) WriteS(s string) {
	n := len(s)
	if n > MaxStringLen {
		n = MaxStringLen
		for n > 0 && !utf8.RuneStart(s[n]) {
			n--
		}
	}
	w.buf = append(w.buf, byte(n))
	w.buf = append(w.buf, s[:n]...)
}

func (w *Writer) WriteBytes(b []byte) {
	w.buf = append(w.buf, b...)
}

func (w *Writer) Bytes() []byte { return w.buf }

func (w *Writer) Len() int { return len(w.buf) }

// Reader reads fields from one message. Byte 0 is the opcode.
// Reads past the end return zero values and latch ErrShortRead.
type Reader struct {
	data []byte
	off  int
	err  error
}

func NewReader(data []byte) *Reader {
	r := &Reader{data: data, off: 1} // skip opcode byte
	if len(data) == 0 {
		r.off = 0
		r.err = ErrShortRead
	}
	return r
}

func (r *Reader) Opcode() byte {
	if len(r.data) == 0 {
		return 0
	}
	return r.data[0]
}

func (r *Reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if r.off+n > len(r.data) {
		r.err = ErrShortRead
		r.off = len(r.data)
		return nil
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b
}

func (r *Reader) ReadC() byte {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *Reader) ReadH() uint16 {
	b := r.take(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (r *Reader) ReadD() int32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return int32(binary.LittleEndian.Uint32(b))
}

func (r *Reader) ReadF() float32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}

func (r *Reader) ReadS() string {
	n := int(r.ReadC())
	b := r.take(n)
	if b == nil {
		return ""
	}
	return string(b)
}

// ReadBytes copies the next n bytes.
func (r *Reader) ReadBytes(n int) []byte {
	b := r.take(n)
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}

func (r *Reader) Remaining() int { return len(r.data) - r.off }

// Err is ErrShortRead once any read has run out of data.
func (r *Reader) Err() error { return r.err }
