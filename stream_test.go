package mas

import (
	"encoding/binary"
	"io"
	"testing"

	"github.com/quasilyte/mas/masfile"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamRead(t *testing.T) {
	bank := newTestBank(t, testModule([]masfile.Event{noteEvent(0, 60)}, nil, nil, nil))

	e := newTestEngine(t, bank, Config{})
	require.NoError(t, e.Start(0, PlayLoop))
	s := NewStream(e)

	// Partial samples are never written.
	buf := make([]byte, 10)
	n, err := s.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 8, n)
	assert.EqualValues(t, 8096, int16(binary.LittleEndian.Uint16(buf[0:])))
	assert.EqualValues(t, 8160, int16(binary.LittleEndian.Uint16(buf[2:])))

	pos, err := s.Seek(0, io.SeekCurrent)
	require.NoError(t, err)
	assert.EqualValues(t, 8, pos)

	_, err = s.Seek(0, io.SeekStart)
	assert.Error(t, err)

	n, err = s.Read(make([]byte, 3))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestStreamMatchesFrames(t *testing.T) {
	bank := newTestBank(t, testModule([]masfile.Event{noteEvent(0, 60)}, nil, []masfile.Event{noteEvent(1, 67)}, nil))

	framed := newTestEngine(t, bank, Config{VolumeRamping: true})
	streamed := newTestEngine(t, bank, Config{VolumeRamping: true})
	require.NoError(t, framed.Start(0, PlayLoop))
	require.NoError(t, streamed.Start(0, PlayLoop))
	s := NewStream(streamed)

	spf := framed.SamplesPerFrame()
	buf := make([]byte, 4*spf)
	for frame := 0; frame < 5; frame++ {
		framed.Frame()
		framed.SwapBuffers()
		want := framed.FrontBuffer()

		_, err := io.ReadFull(s, buf)
		require.NoError(t, err)
		for i := 0; i < spf; i++ {
			require.Equal(t, want[2*i], int16(binary.LittleEndian.Uint16(buf[4*i:])), "frame %d sample %d", frame, i)
			require.Equal(t, want[2*i+1], int16(binary.LittleEndian.Uint16(buf[4*i+2:])), "frame %d sample %d", frame, i)
		}
	}

	var row int
	s.Do(func(e *Engine) {
		row = e.Row()
	})
	assert.Equal(t, framed.Row(), row)
}
