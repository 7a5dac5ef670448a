package masfile

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/quasilyte/mas/internal/masdb"
)

// BankBuilder serializes samples and modules into the bank format
// understood by OpenBank.
type BankBuilder struct {
	samples [][]byte
	modules [][]byte
}

func NewBankBuilder() *BankBuilder {
	return &BankBuilder{}
}

// ModuleSpec describes a module to be encoded.
type ModuleSpec struct {
	Flags          Flags
	GlobalVolume   uint8
	InitialSpeed   uint8
	InitialTempo   uint8
	RepeatPosition uint8
	NumChannels    int

	// ChannelVolume entries default to 64 when the slice is too short.
	ChannelVolume []uint8

	// ChannelPanning entries default to 128 when the slice is too short.
	ChannelPanning []uint8

	Sequence []uint8

	Instruments []InstrumentSpec

	// Samples are encoded as is.
	// An info with Embedded sample stores the PCM data inside the module,
	// otherwise BankID must refer to a bank-level sample.
	Samples []SampleInfo

	Patterns []PatternSpec
}

type InstrumentSpec struct {
	GlobalVolume uint8
	Fadeout      uint8
	NNA          NewNoteAction
	DCT          DuplicateCheckType
	DCA          DuplicateCheckAction
	Panning      uint8

	VolumeEnvelopeEnabled bool

	// Sample is a 1-based module sample played for every note.
	// It's used only when NoteMap is empty.
	Sample uint8

	// NoteMap must have NumNotes entries if it's not empty.
	NoteMap []NoteMapEntry

	VolumeEnvelope  *Envelope
	PanningEnvelope *Envelope
	PitchEnvelope   *Envelope
}

type NoteMapEntry struct {
	Note   uint8
	Sample uint8
}

type PatternSpec struct {
	Rows [][]Event
}

// Event is a single channel cell of a pattern row.
// Fields tells which of the values are present (FieldNote, FieldInstrument, etc).
type Event struct {
	Channel    int
	Fields     uint8
	Note       uint8
	Instrument uint8
	Volcmd     uint8
	Effect     uint8
	Param      uint8
}

// AddSample appends a bank-level sample and returns its ID.
func (b *BankBuilder) AddSample(s Sample) int {
	b.samples = append(b.samples, encodeEntry(kindSample, encodeSample(nil, &s)))
	return len(b.samples) - 1
}

// AddModule encodes the module and returns its ID.
func (b *BankBuilder) AddModule(spec *ModuleSpec) (int, error) {
	payload, err := encodeModule(spec)
	if err != nil {
		return 0, err
	}
	b.modules = append(b.modules, encodeEntry(kindModule, payload))
	return len(b.modules) - 1, nil
}

// Bytes returns the serialized bank.
func (b *BankBuilder) Bytes() []byte {
	headerSize := bankHeaderSize + 4*(len(b.samples)+len(b.modules))
	out := make([]byte, headerSize, headerSize+b.entriesSize())
	binary.LittleEndian.PutUint16(out[0:], uint16(len(b.samples)))
	binary.LittleEndian.PutUint16(out[2:], uint16(len(b.modules)))
	copy(out[4:], bankMagic)
	tableOffset := bankHeaderSize
	for _, entries := range [...][][]byte{b.samples, b.modules} {
		for _, e := range entries {
			binary.LittleEndian.PutUint32(out[tableOffset:], uint32(len(out)))
			tableOffset += 4
			out = append(out, e...)
		}
	}
	return out
}

func (b *BankBuilder) entriesSize() int {
	n := 0
	for _, e := range b.samples {
		n += len(e)
	}
	for _, e := range b.modules {
		n += len(e)
	}
	return n
}

func encodeEntry(kind uint8, payload []byte) []byte {
	out := make([]byte, prefixSize, prefixSize+len(payload))
	binary.LittleEndian.PutUint32(out, uint32(len(payload)))
	out[4] = kind
	out[5] = FormatVersion
	return append(out, payload...)
}

func encodeSample(dst []byte, s *Sample) []byte {
	dst = binary.LittleEndian.AppendUint32(dst, uint32(len(s.Data)))
	dst = binary.LittleEndian.AppendUint32(dst, uint32(s.LoopLength))
	dst = binary.LittleEndian.AppendUint32(dst, uint32(s.DefaultFrequency))
	dst = append(dst, 0, 0, 0, 0)
	return append(dst, int8ToBytes(s.Data)...)
}

func encodeModule(spec *ModuleSpec) ([]byte, error) {
	switch {
	case spec.NumChannels <= 0 || spec.NumChannels > MaxChannels:
		return nil, fmt.Errorf("invalid channel count: %d", spec.NumChannels)
	case len(spec.Sequence) == 0 || len(spec.Sequence) > MaxOrders:
		return nil, fmt.Errorf("invalid sequence length: %d", len(spec.Sequence))
	case len(spec.Instruments) > 255:
		return nil, errors.New("too many instruments")
	case len(spec.Samples) > 255:
		return nil, errors.New("too many samples")
	case len(spec.Patterns) > 255:
		return nil, errors.New("too many patterns")
	}

	out := make([]byte, moduleHeaderSize)
	out[0] = uint8(len(spec.Sequence))
	out[1] = uint8(len(spec.Instruments))
	out[2] = uint8(len(spec.Samples))
	out[3] = uint8(len(spec.Patterns))
	out[4] = uint8(spec.Flags)
	out[5] = spec.GlobalVolume
	out[6] = spec.InitialSpeed
	out[7] = spec.InitialTempo
	out[8] = spec.RepeatPosition
	out[9] = uint8(spec.NumChannels)
	for i := 0; i < MaxChannels; i++ {
		out[12+i] = 64
		if i < len(spec.ChannelVolume) {
			out[12+i] = spec.ChannelVolume[i]
		}
		out[12+MaxChannels+i] = 128
		if i < len(spec.ChannelPanning) {
			out[12+MaxChannels+i] = spec.ChannelPanning[i]
		}
	}
	copy(out[12+2*MaxChannels:], spec.Sequence)

	tableOffset := len(out)
	numEntries := len(spec.Instruments) + len(spec.Samples) + len(spec.Patterns)
	out = append(out, make([]byte, 4*numEntries)...)
	putOffset := func() {
		binary.LittleEndian.PutUint32(out[tableOffset:], uint32(len(out)))
		tableOffset += 4
	}

	for i := range spec.Instruments {
		putOffset()
		encoded, err := encodeInstrument(&spec.Instruments[i])
		if err != nil {
			return nil, fmt.Errorf("instrument[%d]: %w", i, err)
		}
		out = append(out, encoded...)
	}
	for i := range spec.Samples {
		putOffset()
		out = encodeSampleInfo(out, &spec.Samples[i])
	}
	for i := range spec.Patterns {
		putOffset()
		encoded, err := encodePattern(&spec.Patterns[i], spec.NumChannels)
		if err != nil {
			return nil, fmt.Errorf("pattern[%d]: %w", i, err)
		}
		out = append(out, encoded...)
	}

	return out, nil
}

func encodeInstrument(spec *InstrumentSpec) ([]byte, error) {
	var envFlags EnvelopeFlags
	if spec.VolumeEnvelope != nil {
		envFlags |= EnvelopeVolumeExists
	}
	if spec.PanningEnvelope != nil {
		envFlags |= EnvelopePanningExists
	}
	if spec.PitchEnvelope != nil {
		envFlags |= EnvelopePitchExists
	}
	if spec.VolumeEnvelopeEnabled {
		envFlags |= EnvelopeVolumeEnabled
	}

	out := []byte{
		spec.GlobalVolume,
		spec.Fadeout,
		0,
		uint8(spec.DCT),
		uint8(spec.NNA),
		uint8(envFlags),
		spec.Panning,
		uint8(spec.DCA),
		0, 0, // note map
		0, 0,
	}
	for _, env := range [...]*Envelope{spec.VolumeEnvelope, spec.PanningEnvelope, spec.PitchEnvelope} {
		if env == nil {
			continue
		}
		if len(env.Nodes) == 0 || len(env.Nodes) > maxEnvelopeLen {
			return nil, fmt.Errorf("invalid envelope node count: %d", len(env.Nodes))
		}
		out = encodeEnvelope(out, env)
	}

	if len(spec.NoteMap) == 0 {
		binary.LittleEndian.PutUint16(out[8:], noteMapDirect|uint16(spec.Sample))
		return out, nil
	}
	if len(spec.NoteMap) != NumNotes {
		return nil, fmt.Errorf("note map has %d entries, expected %d", len(spec.NoteMap), NumNotes)
	}
	binary.LittleEndian.PutUint16(out[8:], uint16(len(out)))
	for _, e := range spec.NoteMap {
		out = append(out, e.Note, e.Sample)
	}
	return out, nil
}

func encodeEnvelope(dst []byte, env *Envelope) []byte {
	filter := uint8(0)
	if env.Filter {
		filter = 1
	}
	dst = append(dst,
		uint8(envHeaderSize+4*len(env.Nodes)),
		env.LoopStart,
		env.LoopEnd,
		env.SustainStart,
		env.SustainEnd,
		uint8(len(env.Nodes)),
		filter,
		0)
	for _, n := range env.Nodes {
		dst = binary.LittleEndian.AppendUint16(dst, uint16(n.Delta))
		dst = binary.LittleEndian.AppendUint16(dst, uint16(n.Base&0x7f)|n.Range<<7)
	}
	return dst
}

func encodeSampleInfo(dst []byte, info *SampleInfo) []byte {
	dst = append(dst, info.DefaultVolume, info.Panning)
	dst = binary.LittleEndian.AppendUint16(dst, info.Frequency)
	dst = append(dst, info.VibratoType, info.VibratoDepth, info.VibratoSpeed, info.GlobalVolume)
	dst = binary.LittleEndian.AppendUint16(dst, info.VibratoRate)
	if info.Embedded == nil {
		return binary.LittleEndian.AppendUint16(dst, info.BankID)
	}
	dst = binary.LittleEndian.AppendUint16(dst, BankSampleNone)
	return append(dst, encodeEntry(kindSample, encodeSample(nil, info.Embedded))...)
}

// channelState tracks what the decoder already remembers about a channel.
// It starts unknown at every pattern, so patterns can be played in any order.
type channelState struct {
	maskKnown  bool
	mask       uint8
	noteKnown  bool
	note       uint8
	instKnown  bool
	inst       uint8
	vcmdKnown  bool
	vcmd       uint8
	fxKnown    bool
	effect     uint8
	effectArgs uint8
}

func encodePattern(spec *PatternSpec, numChannels int) ([]byte, error) {
	if len(spec.Rows) == 0 || len(spec.Rows) > 256 {
		return nil, fmt.Errorf("invalid row count: %d", len(spec.Rows))
	}

	var channels [MaxChannels]channelState
	out := []byte{uint8(len(spec.Rows) - 1)}
	for rowIndex, row := range spec.Rows {
		if setsLoopPoint(row) {
			// The row is decoded again on every loop pass.
			channels = [MaxChannels]channelState{}
		}
		for _, e := range row {
			if e.Channel < 0 || e.Channel >= numChannels {
				return nil, fmt.Errorf("row %d: invalid channel %d", rowIndex, e.Channel)
			}
			ch := &channels[e.Channel]

			var rowFlags uint8
			var fields uint8
			noteCut := false
			if e.Fields&FieldNote != 0 {
				noteCut = e.Note >= NoteCut
				if !noteCut {
					rowFlags |= RowStart
				}
				if noteCut || !ch.noteKnown || ch.note != e.Note {
					fields |= FieldNote
				}
			}
			if e.Fields&FieldInstrument != 0 {
				rowFlags |= RowDefaultVolume
				if noteCut || !ch.instKnown || ch.inst != e.Instrument {
					fields |= FieldInstrument
				}
			}
			if e.Fields&FieldVolcmd != 0 {
				rowFlags |= RowVolcmd
				if !ch.vcmdKnown || ch.vcmd != e.Volcmd {
					fields |= FieldVolcmd
				}
			}
			if e.Fields&FieldEffect != 0 {
				rowFlags |= RowEffect
				if !ch.fxKnown || ch.effect != e.Effect || ch.effectArgs != e.Param {
					fields |= FieldEffect
				}
			}

			mask := fields | rowFlags
			if ch.maskKnown && ch.mask == mask {
				out = append(out, uint8(e.Channel+1))
			} else {
				out = append(out, uint8(e.Channel+1)|0x80, mask)
				ch.maskKnown = true
				ch.mask = mask
			}

			if fields&FieldNote != 0 {
				out = append(out, e.Note)
				if !noteCut {
					ch.noteKnown = true
					ch.note = e.Note
				}
			}
			if fields&FieldInstrument != 0 {
				out = append(out, e.Instrument)
				if !noteCut {
					ch.instKnown = true
					ch.inst = e.Instrument
				}
			}
			if fields&FieldVolcmd != 0 {
				out = append(out, e.Volcmd)
				ch.vcmdKnown = true
				ch.vcmd = e.Volcmd
			}
			if fields&FieldEffect != 0 {
				out = append(out, e.Effect, e.Param)
				ch.fxKnown = true
				ch.effect = e.Effect
				ch.effectArgs = e.Param
			}
		}
		out = append(out, 0)
	}
	return out, nil
}

func setsLoopPoint(row []Event) bool {
	for _, e := range row {
		if e.Fields&FieldEffect != 0 && e.Effect == masdb.EffectExtended && e.Param == 0xB0 {
			return true
		}
	}
	return false
}
