package masfile

import (
	"encoding/binary"
	"fmt"
	"strings"
)

const (
	bankMagic     = "MSL1"
	FormatVersion = 1

	kindModule = 0
	kindSample = 1

	bankHeaderSize   = 8
	prefixSize       = 8
	sampleHeaderSize = 16
	moduleHeaderSize = 276
	instHeaderSize   = 12
	envHeaderSize    = 8
	sampleInfoSize   = 12

	noteMapDirect  = 0x8000
	maxEnvelopeLen = 25
)

type parser struct {
	data []byte

	offset int

	// Base is a start offset of the current module payload.
	// Module-level tables are relative to it.
	base int
	end  int

	bank Bank

	// These fields below are needed for better error reporting.
	stage         string
	stageIndex    int
	subStage      string
	subStageIndex int
}

func newParser(data []byte) *parser {
	return &parser{data: data}
}

func (p *parser) startStage(name string) {
	p.stage = name
	p.stageIndex = -1
	p.subStage = ""
	p.subStageIndex = -1
}

func (p *parser) startSubStage(name string) {
	p.subStage = name
	p.subStageIndex = -1
}

func (p *parser) formatStage() string {
	var b strings.Builder
	b.Grow(len(p.stage) + len(p.subStage) + 16)
	b.WriteString(p.stage)
	if p.stageIndex >= 0 {
		fmt.Fprintf(&b, "[%d]", p.stageIndex)
	}
	if p.subStage != "" {
		b.WriteByte('.')
		b.WriteString(p.subStage)
		if p.subStageIndex >= 0 {
			fmt.Fprintf(&b, "[%d]", p.subStageIndex)
		}
	}
	return b.String()
}

func (p *parser) errorf(format string, args ...any) *FormatError {
	return &FormatError{
		Stage:   p.formatStage(),
		Message: fmt.Sprintf(format, args...),
		Offset:  p.offset,
	}
}

func (p *parser) dataBytesRemaining() int {
	return p.end - p.offset
}

func (p *parser) seek(offset int, what string) {
	if offset < 0 || offset > p.end {
		panic(p.errorf("%s offset %d is out of bounds", what, offset))
	}
	p.offset = offset
}

func (p *parser) read(l int, what string) []byte {
	if l < 0 || p.dataBytesRemaining() < l {
		panic(p.errorf("unexpected EOF while reading %s", what))
	}
	b := p.data[p.offset : p.offset+l]
	p.offset += l
	return b
}

func (p *parser) skip(l int, what string) {
	p.read(l, what)
}

func (p *parser) readDword(what string) uint32 {
	return binary.LittleEndian.Uint32(p.read(4, what))
}

func (p *parser) readWord(what string) uint16 {
	return binary.LittleEndian.Uint16(p.read(2, what))
}

func (p *parser) readByte(what string) uint8 {
	return p.read(1, what)[0]
}

func (p *parser) parse() (err error) {
	defer func() {
		rv := recover()
		if rv != nil {
			if panicErr, ok := rv.(*FormatError); ok {
				err = panicErr
			} else {
				panic(rv)
			}
		}
	}()

	p.end = len(p.data)
	p.parseBank()

	return err // See the deferred call above
}

func (p *parser) parseBank() {
	p.startStage("header")
	numSamples := int(p.readWord("sample count"))
	numModules := int(p.readWord("module count"))
	if magic := string(p.read(4, "magic")); magic != bankMagic {
		panic(p.errorf("unexpected magic: %q", magic))
	}
	sampleOffsets := make([]int, numSamples)
	for i := range sampleOffsets {
		sampleOffsets[i] = int(p.readDword("sample offset"))
	}
	moduleOffsets := make([]int, numModules)
	for i := range moduleOffsets {
		moduleOffsets[i] = int(p.readDword("module offset"))
	}

	p.startStage("sample")
	p.bank.samples = make([]Sample, numSamples)
	for i, offset := range sampleOffsets {
		p.stageIndex = i
		p.seek(offset, "sample")
		p.bank.samples[i] = p.parseSampleEntry()
	}

	p.startStage("module")
	p.bank.modules = make([]Module, numModules)
	for i, offset := range moduleOffsets {
		p.stageIndex = i
		p.seek(offset, "module")
		p.bank.modules[i] = p.parseModuleEntry()
	}
}

// parsePrefix reads the entry prefix and returns the payload end offset.
func (p *parser) parsePrefix(wantKind uint8) int {
	size := int(p.readDword("entry size"))
	kind := p.readByte("entry kind")
	version := p.readByte("entry version")
	p.skip(2, "entry padding")
	if kind != wantKind {
		panic(p.errorf("unexpected entry kind %d, expected %d", kind, wantKind))
	}
	if version != FormatVersion {
		panic(p.errorf("unsupported entry version %d", version))
	}
	if p.dataBytesRemaining() < size {
		panic(p.errorf("entry size %d exceeds the data bounds", size))
	}
	return p.offset + size
}

func (p *parser) parseSampleEntry() Sample {
	end := p.parsePrefix(kindSample)
	prevEnd := p.end
	p.end = end
	s := p.parseSample()
	p.end = prevEnd
	return s
}

func (p *parser) parseSample() Sample {
	var s Sample
	length := int(p.readDword("sample length"))
	s.LoopLength = int(p.readDword("loop length"))
	s.DefaultFrequency = int(p.readDword("default frequency"))
	if format := p.readByte("sample format"); format != 0 {
		panic(p.errorf("unsupported sample format %d", format))
	}
	p.skip(3, "sample padding")
	if s.LoopLength > length {
		panic(p.errorf("loop length %d exceeds sample length %d", s.LoopLength, length))
	}
	s.Data = bytesToInt8(p.read(length, "sample data"))
	return s
}

func (p *parser) parseModuleEntry() Module {
	var m Module

	end := p.parsePrefix(kindModule)
	prevEnd := p.end
	p.end = end
	p.base = p.offset

	p.startSubStage("header")
	m.NumOrders = int(p.readByte("order count"))
	numInstruments := int(p.readByte("instrument count"))
	numSamples := int(p.readByte("sample count"))
	numPatterns := int(p.readByte("pattern count"))
	m.Flags = Flags(p.readByte("flags"))
	m.GlobalVolume = p.readByte("global volume")
	m.InitialSpeed = p.readByte("initial speed")
	m.InitialTempo = p.readByte("initial tempo")
	m.RepeatPosition = p.readByte("repeat position")
	m.NumChannels = int(p.readByte("channel count"))
	p.skip(2, "header padding")
	m.ChannelVolume = p.read(MaxChannels, "channel volume table")
	m.ChannelPanning = p.read(MaxChannels, "channel panning table")
	m.Sequence = p.read(MaxOrders, "sequence")

	if m.NumOrders == 0 || m.NumOrders > MaxOrders {
		panic(p.errorf("invalid order count: %d", m.NumOrders))
	}
	if m.NumChannels == 0 || m.NumChannels > MaxChannels {
		panic(p.errorf("invalid channel count: %d", m.NumChannels))
	}
	if int(m.RepeatPosition) >= m.NumOrders {
		panic(p.errorf("repeat position %d is outside of the sequence", m.RepeatPosition))
	}
	for i, order := range m.Sequence[:m.NumOrders] {
		if order == SequenceSkip || order == SequenceEnd {
			continue
		}
		if int(order) >= numPatterns {
			panic(p.errorf("sequence[%d] refers to a missing pattern %d", i, order))
		}
	}

	instOffsets := p.readOffsetTable(numInstruments, "instrument offset")
	sampleOffsets := p.readOffsetTable(numSamples, "sample offset")
	patternOffsets := p.readOffsetTable(numPatterns, "pattern offset")

	p.startSubStage("instrument")
	m.Instruments = make([]Instrument, numInstruments)
	for i, offset := range instOffsets {
		p.subStageIndex = i
		p.seek(p.base+offset, "instrument")
		m.Instruments[i] = p.parseInstrument(numSamples)
	}

	p.startSubStage("sample")
	m.Samples = make([]SampleInfo, numSamples)
	for i, offset := range sampleOffsets {
		p.subStageIndex = i
		p.seek(p.base+offset, "sample")
		m.Samples[i] = p.parseSampleInfo()
	}

	p.startSubStage("pattern")
	m.Patterns = make([]Pattern, numPatterns)
	for i, offset := range patternOffsets {
		p.subStageIndex = i
		p.seek(p.base+offset, "pattern")
		m.Patterns[i].Rows = int(p.readByte("row count")) + 1
		m.Patterns[i].Data = p.data[p.offset:p.end]
	}

	p.end = prevEnd
	return m
}

func (p *parser) readOffsetTable(n int, what string) []int {
	offsets := make([]int, n)
	for i := range offsets {
		offsets[i] = int(p.readDword(what))
	}
	return offsets
}

func (p *parser) parseInstrument(numSamples int) Instrument {
	var inst Instrument
	start := p.offset
	inst.GlobalVolume = p.readByte("global volume")
	inst.Fadeout = p.readByte("fadeout")
	p.skip(1, "random volume")
	inst.DCT = DuplicateCheckType(p.readByte("dct"))
	inst.NNA = NewNoteAction(p.readByte("nna"))
	inst.EnvFlags = EnvelopeFlags(p.readByte("envelope flags"))
	inst.Panning = p.readByte("panning")
	inst.DCA = DuplicateCheckAction(p.readByte("dca"))
	noteMap := p.readWord("note map")
	p.skip(2, "instrument padding")

	if inst.DCT > DCTInstrument {
		panic(p.errorf("invalid duplicate check type %d", inst.DCT))
	}
	if inst.NNA > NNAFade {
		panic(p.errorf("invalid new note action %d", inst.NNA))
	}
	if inst.DCA > DCAFade {
		panic(p.errorf("invalid duplicate check action %d", inst.DCA))
	}

	if inst.EnvFlags.Contains(EnvelopeVolumeExists) {
		inst.VolumeEnvelope = p.parseEnvelope("volume envelope")
	}
	if inst.EnvFlags.Contains(EnvelopePanningExists) {
		inst.PanningEnvelope = p.parseEnvelope("panning envelope")
	}
	if inst.EnvFlags.Contains(EnvelopePitchExists) {
		inst.PitchEnvelope = p.parseEnvelope("pitch envelope")
	}

	if noteMap&noteMapDirect != 0 {
		inst.directSample = uint8(noteMap)
		if int(inst.directSample) > numSamples {
			panic(p.errorf("direct sample %d is out of range", inst.directSample))
		}
		return inst
	}

	p.seek(start+int(noteMap), "note map")
	inst.noteMap = p.read(NumNotes*2, "note map")
	for i := 0; i < NumNotes; i++ {
		note := inst.noteMap[i*2]
		sample := inst.noteMap[i*2+1]
		if int(note) >= NumNotes {
			panic(p.errorf("note map[%d] refers to an invalid note %d", i, note))
		}
		if int(sample) > numSamples {
			panic(p.errorf("note map[%d] refers to a missing sample %d", i, sample))
		}
	}
	return inst
}

func (p *parser) parseEnvelope(what string) *Envelope {
	var env Envelope
	start := p.offset
	size := int(p.readByte(what + " size"))
	env.LoopStart = p.readByte(what + " loop start")
	env.LoopEnd = p.readByte(what + " loop end")
	env.SustainStart = p.readByte(what + " sustain start")
	env.SustainEnd = p.readByte(what + " sustain end")
	numNodes := int(p.readByte(what + " node count"))
	env.Filter = p.readByte(what+" filter flag") != 0
	p.skip(1, what+" padding")

	if numNodes == 0 || numNodes > maxEnvelopeLen {
		panic(p.errorf("invalid %s node count: %d", what, numNodes))
	}
	if size != envHeaderSize+numNodes*4 {
		panic(p.errorf("%s size %d mismatches its node count", what, size))
	}
	for _, point := range [...]uint8{env.LoopStart, env.LoopEnd, env.SustainStart, env.SustainEnd} {
		if point != EnvelopeNodeNone && int(point) >= numNodes {
			panic(p.errorf("%s refers to a missing node %d", what, point))
		}
	}

	env.Nodes = make([]EnvelopeNode, numNodes)
	for i := range env.Nodes {
		delta := int16(p.readWord(what + " node delta"))
		packed := p.readWord(what + " node value")
		env.Nodes[i] = EnvelopeNode{
			Delta: delta,
			Base:  uint8(packed & 0x7f),
			Range: packed >> 7,
		}
	}

	p.offset = start + size
	return &env
}

func (p *parser) parseSampleInfo() SampleInfo {
	var info SampleInfo
	info.DefaultVolume = p.readByte("default volume")
	info.Panning = p.readByte("panning")
	info.Frequency = p.readWord("frequency")
	info.VibratoType = p.readByte("vibrato type")
	info.VibratoDepth = p.readByte("vibrato depth")
	info.VibratoSpeed = p.readByte("vibrato speed")
	info.GlobalVolume = p.readByte("global volume")
	info.VibratoRate = p.readWord("vibrato rate")
	info.BankID = p.readWord("bank id")

	if info.BankID != BankSampleNone {
		if int(info.BankID) >= len(p.bank.samples) {
			panic(p.errorf("refers to a missing bank sample %d", info.BankID))
		}
		return info
	}

	end := p.parsePrefix(kindSample)
	prevEnd := p.end
	p.end = end
	embedded := p.parseSample()
	p.end = prevEnd
	info.Embedded = &embedded
	return info
}
