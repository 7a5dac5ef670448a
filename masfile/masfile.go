package masfile

// Bank is a parsed sound bank.
//
// All views returned by the bank share the underlying bytes;
// nothing is copied, so the bank data must not be modified after OpenBank.
type Bank struct {
	samples []Sample
	modules []Module
}

// OpenBank validates the bank bytes and builds the read-only views.
//
// A non-nil error is usually a *FormatError object.
func OpenBank(data []byte) (*Bank, error) {
	p := newParser(data)
	if err := p.parse(); err != nil {
		return nil, err
	}
	return &p.bank, nil
}

// NumSamples reports the number of bank-level samples.
func (b *Bank) NumSamples() int { return len(b.samples) }

// NumModules reports the number of modules.
func (b *Bank) NumModules() int { return len(b.modules) }

// Sample returns a bank sample or nil if id is out of range.
func (b *Bank) Sample(id int) *Sample {
	if id < 0 || id >= len(b.samples) {
		return nil
	}
	return &b.samples[id]
}

// Module returns a module or nil if id is out of range.
func (b *Bank) Module(id int) *Module {
	if id < 0 || id >= len(b.modules) {
		return nil
	}
	return &b.modules[id]
}

// SampleData resolves the PCM source of a module sample.
func (b *Bank) SampleData(info *SampleInfo) *Sample {
	if info.Embedded != nil {
		return info.Embedded
	}
	return b.Sample(int(info.BankID))
}

// Flags is a module header flag set.
type Flags uint8

const (
	// FlagOldEffects selects legacy (S3M-era) vibrato depth and tick 0 behavior.
	FlagOldEffects Flags = 1 << iota

	// FlagLinearFreq selects the linear frequency model.
	// Without it, Amiga periods are used.
	FlagLinearFreq

	// FlagXMMode selects FastTracker II semantics for volume commands,
	// global volume range, note-off fading and volume slides.
	FlagXMMode

	// FlagOldMode marks MOD/S3M-derived modules.
	FlagOldMode

	// FlagLinkGxx makes the glissando share memory with the portamento effects.
	FlagLinkGxx
)

func (f Flags) Contains(v Flags) bool { return f&v != 0 }

const (
	MaxChannels    = 32
	MaxOrders      = 200
	NumNotes       = 120
	SequenceSkip   = 254
	SequenceEnd    = 255
	NoteCut        = 254
	NoteOff        = 255
	BankSampleNone = 0xFFFF
)

// Pattern event stream encoding.
//
// Every touched channel starts with a byte: bits 0-6 hold channel+1,
// bit 7 tells that a new field mask follows. A zero byte ends the row.
// The low nibble of the mask lists the fields stored in the stream,
// the high nibble holds row flags.
const (
	FieldNote       = 1 << 0
	FieldInstrument = 1 << 1
	FieldVolcmd     = 1 << 2
	FieldEffect     = 1 << 3

	RowStart         = 1 << 4
	RowDefaultVolume = 1 << 5
	RowVolcmd        = 1 << 6
	RowEffect        = 1 << 7
)

// Module is a read-only view over a module payload.
type Module struct {
	Flags          Flags
	GlobalVolume   uint8
	InitialSpeed   uint8
	InitialTempo   uint8
	RepeatPosition uint8
	NumChannels    int
	NumOrders      int

	ChannelVolume  []uint8
	ChannelPanning []uint8
	Sequence       []uint8

	Instruments []Instrument
	Samples     []SampleInfo
	Patterns    []Pattern
}

// Instrument returns the instrument by its 1-based index or nil.
func (m *Module) Instrument(index uint8) *Instrument {
	if index == 0 || int(index) > len(m.Instruments) {
		return nil
	}
	return &m.Instruments[index-1]
}

// Sample returns the sample info by its 1-based index or nil.
func (m *Module) Sample(index uint8) *SampleInfo {
	if index == 0 || int(index) > len(m.Samples) {
		return nil
	}
	return &m.Samples[index-1]
}

type NewNoteAction uint8

const (
	NNACut NewNoteAction = iota
	NNAContinue
	NNAOff
	NNAFade
)

type DuplicateCheckType uint8

const (
	DCTNone DuplicateCheckType = iota
	DCTNote
	DCTSample
	DCTInstrument
)

type DuplicateCheckAction uint8

const (
	DCACut DuplicateCheckAction = iota
	DCAOff
	DCAFade
)

type EnvelopeFlags uint8

const (
	EnvelopeVolumeExists EnvelopeFlags = 1 << iota
	EnvelopePanningExists
	EnvelopePitchExists
	EnvelopeVolumeEnabled
)

func (f EnvelopeFlags) Contains(v EnvelopeFlags) bool { return f&v != 0 }

type Instrument struct {
	GlobalVolume uint8
	Fadeout      uint8
	DCT          DuplicateCheckType
	NNA          NewNoteAction
	EnvFlags     EnvelopeFlags

	// Panning has bit 7 set when the instrument overrides the channel panning.
	Panning uint8

	DCA DuplicateCheckAction

	directSample uint8
	noteMap      []byte

	VolumeEnvelope  *Envelope
	PanningEnvelope *Envelope
	PitchEnvelope   *Envelope
}

// MapNote translates a pattern note into the note to play and
// the 1-based module sample index.
//
// Instruments without a note map play their only sample at the pattern note.
func (inst *Instrument) MapNote(note uint8) (uint8, uint8) {
	if inst.noteMap == nil {
		return note, inst.directSample
	}
	if int(note) >= NumNotes {
		return note, 0
	}
	entry := inst.noteMap[int(note)*2:]
	return entry[0], entry[1]
}

type Envelope struct {
	LoopStart    uint8
	LoopEnd      uint8
	SustainStart uint8
	SustainEnd   uint8
	Filter       bool
	Nodes        []EnvelopeNode
}

// EnvelopeNodeNone disables a loop or sustain point.
const EnvelopeNodeNone = 255

// EnvelopeNode is a linear segment: the value starts at Base and
// changes by Delta/8 (in 1/64 units) for Range ticks.
type EnvelopeNode struct {
	Delta int16
	Base  uint8
	Range uint16
}

type SampleInfo struct {
	DefaultVolume uint8

	// Panning has bit 7 set when the sample overrides the channel panning.
	Panning uint8

	// Frequency is the C-5 playback rate divided by 4.
	Frequency uint16

	VibratoType  uint8
	VibratoDepth uint8
	VibratoSpeed uint8
	GlobalVolume uint8
	VibratoRate  uint16

	// BankID refers to a bank sample when Embedded is nil.
	BankID   uint16
	Embedded *Sample
}

// Sample holds 8-bit signed PCM data.
type Sample struct {
	Data []int8

	// LoopLength is the size of the looped tail; zero means one-shot.
	LoopLength int

	DefaultFrequency int
}

func (s *Sample) Looping() bool { return s.LoopLength != 0 }

type Pattern struct {
	Rows int
	Data []byte
}
