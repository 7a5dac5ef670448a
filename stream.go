package mas

import (
	"errors"
	"io"
	"sync"
)

// Stream wraps the engine, making it possible to Read() its PCM bytes.
//
// The Read() method produces 16-bit little endian stereo PCM bytes; this is what
// ebiten/audio and oto expect. Use Stream as an io.Reader argument for their players.
//
// Audio libraries call Read from their own goroutines.
// Any other engine access must go through Do.
type Stream struct {
	mu     sync.Mutex
	engine *Engine

	frame []int16
	pos   int

	// bytePos is used to report the current pos via Seek().
	bytePos int64
}

// NewStream creates a PCM stream over the engine.
func NewStream(e *Engine) *Stream {
	return &Stream{engine: e}
}

// Do runs f with the engine locked against concurrent Read calls.
func (s *Stream) Do(f func(e *Engine)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f(s.engine)
}

// Read puts next PCM bytes into provided slice.
//
// The output is produced frame by frame: Engine.Frame is called
// whenever the current front buffer is consumed.
// Only whole stereo samples (4 bytes) are written; the stream never ends.
func (s *Stream) Read(b []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	written := 0
	for len(b) >= 4 {
		if s.pos >= len(s.frame) {
			s.engine.Frame()
			s.engine.SwapBuffers()
			s.frame = s.engine.FrontBuffer()
			s.pos = 0
		}
		putPCM(b, s.frame[s.pos], s.frame[s.pos+1])
		s.pos += 2
		b = b[4:]
		written += 4
	}

	s.bytePos += int64(written)
	return written, nil
}

// Seek partially implements io.Seeker.
//
// Only (0, SeekCurrent) is supported: it reports the number of bytes read so far.
func (s *Stream) Seek(offset int64, whence int) (int64, error) {
	if whence == io.SeekCurrent && offset == 0 {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.bytePos, nil
	}
	return 0, errors.New("unsupported Seek call")
}
