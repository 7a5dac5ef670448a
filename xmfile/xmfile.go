package xmfile

import (
	"fmt"
	"io"
)

// Module is a parsed XM file contents.
// It mirrors the file layout; xmconv turns it into something playable.
type Module struct {
	Name        string
	TrackerName string

	// Version is stored as 0xMMmm, 0x0104 for most files around.
	Version uint16

	RestartPosition int

	NumChannels int

	Flags HeaderFlags

	// DefaultSpeed is the number of ticks per row.
	DefaultSpeed int
	DefaultBPM   int

	PatternOrder []uint8

	Patterns []Pattern

	// Notes is a set of all unique cells used by the patterns.
	// PatternRow.Notes refer to this slice by index.
	// Notes[0] is always an empty cell.
	Notes []PatternNote

	Instruments []Instrument
}

// LinearFrequency reports whether the module uses the linear frequency table.
func (m *Module) LinearFrequency() bool { return m.Flags.LinearFrequency() }

type HeaderFlags uint16

func (f HeaderFlags) LinearFrequency() bool { return f&1 != 0 }

type Pattern struct {
	Rows []PatternRow
}

// Blank reports whether the pattern was stored without any cell data.
func (p *Pattern) Blank() bool {
	for _, row := range p.Rows {
		for _, id := range row.Notes {
			if id != 0 {
				return false
			}
		}
	}
	return true
}

type PatternRow struct {
	// Notes contain Module.Notes indexes, one per channel.
	Notes []uint16
}

type PatternNote struct {
	Note            uint8
	Instrument      uint8
	Volume          uint8
	EffectType      uint8
	EffectParameter uint8
}

// NoteKeyOff is a Note value that releases the playing note.
const NoteKeyOff = 97

type Instrument struct {
	Name string

	// Keymap selects a sample for each of the 96 notes, C-0 first.
	Keymap []byte

	VolumeEnvelope  Envelope
	PanningEnvelope Envelope

	Vibrato AutoVibrato

	Fadeout int

	Samples []InstrumentSample
}

// Envelope is an instrument volume or panning envelope.
// Sustain and loop values are Points indexes.
type Envelope struct {
	Points    []EnvelopePoint
	Sustain   uint8
	LoopStart uint8
	LoopEnd   uint8
	Flags     EnvelopeFlags
}

// Enabled reports whether the envelope should be applied at all.
func (e *Envelope) Enabled() bool {
	return e.Flags.IsOn() && len(e.Points) != 0
}

type EnvelopePoint struct {
	X uint16
	Y uint16
}

type EnvelopeFlags uint8

func (f EnvelopeFlags) IsOn() bool { return f&(1<<0) != 0 }

func (f EnvelopeFlags) SustainEnabled() bool { return f&(1<<1) != 0 }

func (f EnvelopeFlags) LoopEnabled() bool { return f&(1<<2) != 0 }

// AutoVibrato is applied to every sample of the instrument.
type AutoVibrato struct {
	Type  uint8
	Sweep uint8
	Depth uint8
	Rate  uint8
}

func (v AutoVibrato) Active() bool { return v.Depth != 0 && v.Rate != 0 }

type InstrumentSample struct {
	Name         string
	Length       int
	LoopStart    int
	LoopLength   int
	Volume       int
	Finetune     int
	TypeFlags    uint8
	Panning      uint8
	RelativeNote int
	Format       SampleFormat
	Data         []uint8
}

type SampleLoopType int

const (
	SampleLoopNone SampleLoopType = iota
	SampleLoopForward
	SampleLoopPingPong
	SampleLoopUnknown
)

func (s *InstrumentSample) LoopType() SampleLoopType {
	return SampleLoopType(s.TypeFlags & 0b11)
}

func (s *InstrumentSample) Is16bits() bool {
	return s.TypeFlags&(1<<4) != 0
}

type SampleFormat int

const (
	SampleFormatDeltaPacked SampleFormat = iota
	SampleFormatADPCM
)

type ParserConfig struct {
	// NeedStrings makes the parser keep instrument and sample names.
	// Module and tracker names are always decoded.
	NeedStrings bool
}

// Parser decodes XM files.
//
// A parser can be reused; every parse call invalidates
// the module returned by the previous one.
type Parser struct {
	impl *parser
}

func NewParser(config ParserConfig) *Parser {
	return &Parser{impl: newParser(config)}
}

// ParseFromBytes decodes the XM file data.
// The resulting module references the data slice.
//
// A non-nil error is usually a *ParseError object.
func (p *Parser) ParseFromBytes(data []byte) (*Module, error) {
	if err := p.impl.parse(data); err != nil {
		return nil, err
	}
	return &p.impl.module, nil
}

// Parse reads XM file data and decodes it into a module.
func Parse(r io.Reader) (*Module, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read data: %w", err)
	}
	return NewParser(ParserConfig{NeedStrings: true}).ParseFromBytes(data)
}
