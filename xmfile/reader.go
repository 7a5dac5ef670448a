package xmfile

import (
	"encoding/binary"
	"fmt"
	"strconv"
)

// reader walks the XM data. Every read failure panics with a *ParseError
// that the parser recovers from; the XM layout is too deep to thread
// errors through each field.
type reader struct {
	data   []byte
	offset int
	at     location
}

// location names the part of the file being parsed for the error messages.
type location struct {
	section   string
	index     int
	part      string
	partIndex int
}

func (l location) String() string {
	s := l.section
	if l.index >= 0 {
		s += "[" + strconv.Itoa(l.index) + "]"
	}
	if l.part != "" {
		s += "." + l.part
		if l.partIndex >= 0 {
			s += "[" + strconv.Itoa(l.partIndex) + "]"
		}
	}
	return s
}

func (r *reader) enter(section string) {
	r.at = location{section: section, index: -1, partIndex: -1}
}

func (r *reader) enterPart(part string) {
	r.at.part = part
	r.at.partIndex = -1
}

func (r *reader) fail(format string, args ...any) {
	panic(&ParseError{
		Stage:   r.at.String(),
		Message: fmt.Sprintf(format, args...),
		Offset:  r.offset,
	})
}

func (r *reader) remaining() int { return len(r.data) - r.offset }

func (r *reader) bytes(n int, what string) []byte {
	if n < 0 || r.remaining() < n {
		r.fail("unexpected EOF while reading %s", what)
	}
	b := r.data[r.offset : r.offset+n]
	r.offset += n
	return b
}

func (r *reader) skip(n int, what string) { r.bytes(n, what) }

func (r *reader) text(n int, what string) string {
	return trimString(r.bytes(n, what))
}

func (r *reader) u8(what string) uint8 { return r.bytes(1, what)[0] }

func (r *reader) u16(what string) uint16 {
	return binary.LittleEndian.Uint16(r.bytes(2, what))
}

func (r *reader) u32(what string) uint32 {
	return binary.LittleEndian.Uint32(r.bytes(4, what))
}

// block reads a size-prefixed header and returns the offset it ends at.
// The size includes the 4 bytes of the size field itself.
func (r *reader) block(what string) int {
	start := r.offset
	size := int(r.u32(what + " size"))
	if size < 4 || size-4 > r.remaining() {
		r.fail("invalid %s size: %d", what, size)
	}
	return start + size
}

// leave moves to the end of the block, rejecting headers that were
// shorter than the fields read from them.
func (r *reader) leave(end int) {
	if r.offset > end {
		r.fail("consumed %d extra bytes", r.offset-end)
	}
	r.offset = end
}
