package mas

import (
	"testing"

	"github.com/quasilyte/mas/masfile"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPatternLayer(data []byte) *layer {
	return &layer{
		module:      &masfile.Module{Instruments: make([]masfile.Instrument, 2)},
		channels:    make([]moduleChannel, 4),
		numChannels: 4,
		pattern:     data,
	}
}

func TestReadPatternCarryOver(t *testing.T) {
	l := newPatternLayer([]byte{
		0x81, 0x77, 60, 1, 40, 0,
		0x81, 0x44, 20, 0,
		0x01, 10, 0,
	})
	ch := &l.channels[0]

	require.True(t, l.readPattern())
	assert.EqualValues(t, 60, ch.pnoter)
	assert.EqualValues(t, 1, ch.inst)
	assert.EqualValues(t, 40, ch.volcmd)
	assert.EqualValues(t, chanNewInstr|chanStart|chanDefaultVol|chanHasVolcmd, ch.flags)
	assert.Equal(t, 6, l.cursor)
	assert.EqualValues(t, 1, l.updateMask)

	// The note is omitted: the previous one is kept.
	require.True(t, l.readPattern())
	assert.EqualValues(t, 60, ch.pnoter)
	assert.EqualValues(t, 1, ch.inst)
	assert.EqualValues(t, 20, ch.volcmd)
	assert.EqualValues(t, chanHasVolcmd, ch.flags)
	assert.Equal(t, 10, l.cursor)

	// No mask byte: the last mask of the track is reused.
	require.True(t, l.readPattern())
	assert.EqualValues(t, 10, ch.volcmd)
	assert.EqualValues(t, chanHasVolcmd, ch.flags)
	assert.Equal(t, 13, l.cursor)
}

func TestReadPatternFields(t *testing.T) {
	tests := []struct {
		name      string
		data      []byte
		wantInst  uint8
		wantNote  uint8
		wantFlags uint8
	}{
		{
			name:      "unknown instrument",
			data:      []byte{0x81, 0x22, 5, 0},
			wantInst:  0,
			wantNote:  48,
			wantFlags: chanNewInstr | chanDefaultVol,
		},
		{
			name:      "known instrument",
			data:      []byte{0x81, 0x22, 2, 0},
			wantInst:  2,
			wantNote:  48,
			wantFlags: chanNewInstr | chanDefaultVol,
		},
		{
			name:      "same instrument",
			data:      []byte{0x81, 0x22, 1, 0},
			wantInst:  1,
			wantNote:  48,
			wantFlags: chanDefaultVol,
		},
		{
			name:      "note cut",
			data:      []byte{0x81, 0x03, masfile.NoteCut, 2, 0},
			wantInst:  1,
			wantNote:  48,
			wantFlags: chanNoteCut,
		},
		{
			name:      "note off",
			data:      []byte{0x81, 0x01, masfile.NoteOff, 0},
			wantInst:  1,
			wantNote:  48,
			wantFlags: chanNoteOff,
		},
		{
			name:      "effect",
			data:      []byte{0x81, 0x89, 50, 7, 0x20, 0},
			wantInst:  1,
			wantNote:  50,
			wantFlags: chanHasEffect,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newPatternLayer(tt.data)
			ch := &l.channels[0]
			ch.inst = 1
			ch.pnoter = 48

			require.True(t, l.readPattern())
			assert.Equal(t, tt.wantInst, ch.inst)
			assert.Equal(t, tt.wantNote, ch.pnoter)
			assert.Equal(t, tt.wantFlags, ch.flags)
			assert.Equal(t, len(tt.data), l.cursor)
		})
	}
}

func TestReadPatternCorrupt(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{name: "empty", data: nil},
		{name: "truncated mask", data: []byte{0x81}},
		{name: "truncated note", data: []byte{0x81, 0x07}},
		{name: "truncated effect", data: []byte{0x81, 0x08, 7}},
		{name: "missing row end", data: []byte{0x81, 0x01, 60}},
		{name: "track out of range", data: []byte{0x85, 0x01, 60, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newPatternLayer(tt.data)
			assert.False(t, l.readPattern())
			assert.Zero(t, l.cursor)
			assert.Zero(t, l.updateMask)
		})
	}
}
