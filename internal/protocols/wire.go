// Package protocols implements the river status and control protocol objects
// as go-wayland proxies.
package protocols

import (
	"encoding/binary"
	"errors"
)

var errShortMessage = errors.New("wayland message truncated")

// paddedLen rounds l up to the 32-bit word size of the wire format
func paddedLen(l int) int {
	return (l + 3) &^ 3
}

// request builds one wire message: object id, size<<16|opcode, arguments
type request struct {
	buf []byte
}

func newRequest(sender uint32, opcode uint32) *request {
	r := &request{buf: make([]byte, 8, 32)}
	binary.NativeEndian.PutUint32(r.buf[0:4], sender)
	binary.NativeEndian.PutUint32(r.buf[4:8], opcode&0xffff)
	return r
}

func (r *request) putUint32(v uint32) {
	r.buf = binary.NativeEndian.AppendUint32(r.buf, v)
}

// putString writes a length-prefixed, NUL-terminated and padded string
func (r *request) putString(s string) {
	n := len(s) + 1
	r.putUint32(uint32(n))
	r.buf = append(r.buf, s...)
	r.buf = append(r.buf, make([]byte, paddedLen(n)-len(s))...)
}

// bytes patches the size into the header and returns the message
func (r *request) bytes() []byte {
	header := binary.NativeEndian.Uint32(r.buf[4:8])
	binary.NativeEndian.PutUint32(r.buf[4:8], uint32(len(r.buf))<<16|header&0xffff)
	return r.buf
}

// eventReader decodes event arguments in order. The first failure sticks.
type eventReader struct {
	data []byte
	off  int
	err  error
}

func (r *eventReader) uint32() uint32 {
	if r.err != nil {
		return 0
	}
	if len(r.data)-r.off < 4 {
		r.err = errShortMessage
		return 0
	}
	v := binary.NativeEndian.Uint32(r.data[r.off:])
	r.off += 4
	return v
}

// bytes reads a length-prefixed block and skips its padding. The result
// aliases the message buffer.
func (r *eventReader) bytes() []byte {
	n := int(r.uint32())
	if r.err != nil {
		return nil
	}
	if n < 0 || len(r.data)-r.off < paddedLen(n) {
		r.err = errShortMessage
		return nil
	}
	b := r.data[r.off : r.off+n]
	r.off += paddedLen(n)
	return b
}

func (r *eventReader) string() string {
	b := r.bytes()
	if len(b) == 0 {
		return ""
	}
	// Drop the terminating NUL
	if b[len(b)-1] == 0 {
		b = b[:len(b)-1]
	}
	return string(b)
}

func (r *eventReader) array() []byte {
	return r.bytes()
}
