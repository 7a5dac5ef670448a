package xmfile

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type xmWriter struct {
	buf bytes.Buffer
}

func (w *xmWriter) str(s string, n int) {
	b := make([]byte, n)
	copy(b, s)
	w.buf.Write(b)
}

func (w *xmWriter) u8(v ...uint8) { w.buf.Write(v) }

func (w *xmWriter) u16(v uint16) { w.buf.Write(binary.LittleEndian.AppendUint16(nil, v)) }

func (w *xmWriter) u32(v uint32) { w.buf.Write(binary.LittleEndian.AppendUint32(nil, v)) }

func (w *xmWriter) header(numPatterns, numInstruments uint16, order []uint8) {
	w.str("Extended Module: ", 17)
	w.str("test song", 20)
	w.u8(0x1a)
	w.str("FastTracker v2.00", 20)
	w.u16(0x0104)
	w.u32(20 + 256)
	w.u16(uint16(len(order)))
	w.u16(0)
	w.u16(2)
	w.u16(numPatterns)
	w.u16(numInstruments)
	w.u16(1)
	w.u16(6)
	w.u16(125)
	w.str(string(order), 256)
}

func (w *xmWriter) pattern(numRows uint16, data []byte) {
	w.u32(9)
	w.u8(0)
	w.u16(numRows)
	w.u16(uint16(len(data)))
	w.buf.Write(data)
}

func (w *xmWriter) emptyInstrument() {
	w.u32(29)
	w.str("silence", 22)
	w.u8(0)
	w.u16(0)
}

func (w *xmWriter) instrument(sampleData []byte, finetune, relativeNote int8) {
	w.u32(263)
	w.str("lead", 22)
	w.u8(0)
	w.u16(1)
	w.u32(40)
	w.str("", 96)
	// Volume envelope: (0, 64), (10, 0).
	w.u16(0)
	w.u16(64)
	w.u16(10)
	w.u16(0)
	w.str("", 48-8)
	w.str("", 48)
	w.u8(2, 0)
	w.u8(0, 0, 0, 0, 0, 0)
	w.u8(1, 0)
	w.u8(0, 0, 0, 0)
	w.u16(256)
	w.str("", 22)

	w.u32(uint32(len(sampleData)))
	w.u32(0)
	w.u32(0)
	w.u8(48, uint8(finetune), 0, 128, uint8(relativeNote), 0)
	w.str("kick", 22)
	w.buf.Write(sampleData)
}

func testModuleBytes() []byte {
	var w xmWriter
	w.header(2, 2, []uint8{0, 1, 0})
	w.pattern(2, []byte{
		49, 1, 0x40, 0x0F, 6,
		0x80,
		0x81, 97,
		0x80,
	})
	w.pattern(64, nil)
	w.instrument([]byte{1, 1, 254}, -16, -12)
	w.emptyInstrument()
	return w.buf.Bytes()
}

func TestParse(t *testing.T) {
	m, err := Parse(bytes.NewReader(testModuleBytes()))
	require.NoError(t, err)

	assert.Equal(t, "test song", m.Name)
	assert.Equal(t, "FastTracker v2.00", m.TrackerName)
	assert.Equal(t, uint16(0x0104), m.Version)
	assert.Equal(t, 2, m.NumChannels)
	assert.Equal(t, 6, m.DefaultSpeed)
	assert.Equal(t, 125, m.DefaultBPM)
	assert.True(t, m.LinearFrequency())
	assert.Equal(t, []uint8{0, 1, 0}, m.PatternOrder)

	require.Len(t, m.Patterns, 2)
	pat := m.Patterns[0]
	require.Len(t, pat.Rows, 2)
	assert.False(t, pat.Blank())

	n := m.Notes[pat.Rows[0].Notes[0]]
	assert.Equal(t, uint8(49), n.Note)
	assert.Equal(t, uint8(1), n.Instrument)
	assert.Equal(t, uint8(0x40), n.Volume)
	assert.Equal(t, uint8(0x0F), n.EffectType)
	assert.Equal(t, uint8(6), n.EffectParameter)
	assert.Equal(t, uint16(0), pat.Rows[0].Notes[1])
	assert.Equal(t, uint8(NoteKeyOff), m.Notes[pat.Rows[1].Notes[0]].Note)
	assert.Equal(t, PatternNote{}, m.Notes[0])

	empty := m.Patterns[1]
	assert.True(t, empty.Blank())
	assert.Len(t, empty.Rows, 64)

	require.Len(t, m.Instruments, 2)
	inst := m.Instruments[0]
	assert.Equal(t, "lead", inst.Name)
	assert.Equal(t, []EnvelopePoint{{X: 0, Y: 64}, {X: 10, Y: 0}}, inst.VolumeEnvelope.Points)
	assert.True(t, inst.VolumeEnvelope.Enabled())
	assert.False(t, inst.VolumeEnvelope.Flags.LoopEnabled())
	assert.Nil(t, inst.PanningEnvelope.Points)
	assert.False(t, inst.PanningEnvelope.Enabled())
	assert.False(t, inst.Vibrato.Active())
	assert.Equal(t, 256, inst.Fadeout)
	assert.Len(t, inst.Keymap, 96)

	require.Len(t, inst.Samples, 1)
	s := inst.Samples[0]
	assert.Equal(t, "kick", s.Name)
	assert.Equal(t, 48, s.Volume)
	assert.Equal(t, -16, s.Finetune)
	assert.Equal(t, -12, s.RelativeNote)
	assert.Equal(t, SampleLoopNone, s.LoopType())
	assert.False(t, s.Is16bits())
	assert.Equal(t, []byte{1, 1, 254}, s.Data)

	assert.Empty(t, m.Instruments[1].Samples)
}

func TestParserSkipsStrings(t *testing.T) {
	m, err := NewParser(ParserConfig{}).ParseFromBytes(testModuleBytes())
	require.NoError(t, err)
	assert.Equal(t, "test song", m.Name)
	assert.Empty(t, m.Instruments[0].Name)
	assert.Empty(t, m.Instruments[0].Samples[0].Name)
}

func TestParserReuse(t *testing.T) {
	p := NewParser(ParserConfig{NeedStrings: true})
	data := testModuleBytes()

	m, err := p.ParseFromBytes(data)
	require.NoError(t, err)
	numNotes := len(m.Notes)

	m, err = p.ParseFromBytes(data)
	require.NoError(t, err)
	assert.Len(t, m.Notes, numNotes)
	assert.Len(t, m.Patterns, 2)
	assert.Len(t, m.Instruments, 2)
}

func TestParseErrors(t *testing.T) {
	valid := testModuleBytes()

	tests := []struct {
		name string
		data func() []byte
		want string
	}{
		{
			name: "bad id",
			data: func() []byte {
				data := bytes.Clone(valid)
				copy(data, "Protracker")
				return data
			},
			want: "unexpected ID text",
		},
		{
			name: "bad magic",
			data: func() []byte {
				data := bytes.Clone(valid)
				data[37] = 0
				return data
			},
			want: "expected 0x1a",
		},
		{
			name: "truncated",
			data: func() []byte { return valid[:50] },
			want: "unexpected EOF",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewParser(ParserConfig{}).ParseFromBytes(tt.data())
			require.Error(t, err)
			var parseErr *ParseError
			require.ErrorAs(t, err, &parseErr)
			assert.Contains(t, parseErr.Message, tt.want)
			assert.Equal(t, "header", parseErr.Stage)
			assert.Contains(t, err.Error(), "header: ")
		})
	}
}

func TestBlockAllocator(t *testing.T) {
	var a blockAllocator[uint16]
	a.init(8)

	first := a.alloc(5)
	second := a.alloc(3)
	require.Len(t, first, 5)
	require.Len(t, second, 3)
	assert.Len(t, a.blocks, 1)

	// Appending must not clobber the next allocation.
	second[0] = 7
	first = append(first, 1)
	assert.Len(t, first, 6)
	assert.EqualValues(t, 7, second[0])

	third := a.alloc(2)
	assert.Len(t, third, 2)
	assert.Len(t, a.blocks, 2)

	assert.Len(t, a.alloc(100), 100)
	assert.Len(t, a.blocks, 2)

	a.reset()
	a.alloc(8)
	assert.Len(t, a.blocks, 2)
}

func TestTrimString(t *testing.T) {
	assert.Equal(t, "kick", trimString([]byte("kick\x00\x00junk")))
	assert.Equal(t, "FastTracker v2.00", trimString([]byte("FastTracker v2.00   ")))
	assert.Equal(t, "", trimString(make([]byte, 4)))
}

func TestReadPackedNote(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want PatternNote
	}{
		{"unpacked", []byte{49, 2, 0x10, 0x0A, 0x0F}, PatternNote{Note: 49, Instrument: 2, Volume: 0x10, EffectType: 0x0A, EffectParameter: 0x0F}},
		{"empty", []byte{0x80}, PatternNote{}},
		{"note and effect", []byte{0x89, 60, 0x0C}, PatternNote{Note: 60, EffectType: 0x0C}},
		{"parameter only", []byte{0x90, 0x20}, PatternNote{EffectParameter: 0x20}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newParser(ParserConfig{})
			p.r = reader{data: tt.data}
			assert.Equal(t, tt.want, p.readPackedNote())
			assert.Zero(t, p.r.remaining())
		})
	}
}

func TestPatternDataSizeMismatch(t *testing.T) {
	var w xmWriter
	w.header(1, 0, []uint8{0})
	// Two rows of two channels need four cells, the data has five.
	w.pattern(2, []byte{0x80, 0x80, 0x80, 0x80, 0x80})

	_, err := NewParser(ParserConfig{}).ParseFromBytes(w.buf.Bytes())
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "pattern[0]", parseErr.Stage)
	assert.Contains(t, parseErr.Message, "redundant bytes")
}

func TestLocationString(t *testing.T) {
	tests := []struct {
		at   location
		want string
	}{
		{location{section: "header", index: -1, partIndex: -1}, "header"},
		{location{section: "pattern", index: 3, partIndex: -1}, "pattern[3]"},
		{location{section: "instrument", index: 0, part: "sample", partIndex: 1}, "instrument[0].sample[1]"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.at.String())
	}
}

func TestDecodeEnvelopePoints(t *testing.T) {
	raw := make([]byte, envelopeBytes)
	raw[0], raw[2] = 5, 64
	raw[4], raw[5] = 0x00, 0x01

	assert.Nil(t, decodeEnvelopePoints(raw, 0))
	assert.Equal(t, []EnvelopePoint{{X: 5, Y: 64}, {X: 256}}, decodeEnvelopePoints(raw, 2))
	assert.Len(t, decodeEnvelopePoints(raw, 200), maxEnvelopeLen)
}
