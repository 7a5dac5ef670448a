package xmfile

import (
	"strings"
)

const (
	maxPatterns    = 256
	maxInstruments = 128
	maxRows        = 256

	envelopeBytes  = 48
	maxEnvelopeLen = envelopeBytes / 4
)

type parser struct {
	r reader

	module Module

	rows blockAllocator[PatternRow]
	ids  blockAllocator[uint16]

	// noteIDs maps a cell to its Module.Notes index.
	noteIDs map[PatternNote]uint16

	config ParserConfig
}

func newParser(config ParserConfig) *parser {
	p := &parser{
		noteIDs: make(map[PatternNote]uint16, 512),
		config:  config,
	}
	p.module.Notes = make([]PatternNote, 0, 512)
	p.ids.init(2048 * 8)
	p.rows.init(64 * 20)
	return p
}

func (p *parser) reset(data []byte) {
	p.r = reader{data: data}
	clear(p.noteIDs)
	p.ids.reset()
	p.rows.reset()

	p.module = Module{
		Notes:        p.module.Notes[:0],
		Patterns:     p.module.Patterns[:0],
		Instruments:  p.module.Instruments[:0],
		PatternOrder: p.module.PatternOrder[:0],
	}
	p.internNote(PatternNote{})
}

func (p *parser) parse(data []byte) (err error) {
	p.reset(data)

	defer func() {
		rv := recover()
		if rv == nil {
			return
		}
		parseErr, ok := rv.(*ParseError)
		if !ok {
			panic(rv)
		}
		err = parseErr
	}()

	p.r.enter("header")
	numPatterns, numInstruments := p.parseHeader()

	p.r.enter("pattern")
	for i := 0; i < numPatterns; i++ {
		p.r.at.index = i
		p.module.Patterns = append(p.module.Patterns, p.parsePattern())
	}

	p.r.enter("instrument")
	for i := 0; i < numInstruments; i++ {
		p.r.at.index = i
		p.module.Instruments = append(p.module.Instruments, p.parseInstrument())
	}

	return nil
}

func (p *parser) optionalText(n int, what string) string {
	if !p.config.NeedStrings {
		p.r.skip(n, what)
		return ""
	}
	return p.r.text(n, what)
}

func (p *parser) parseHeader() (numPatterns, numInstruments int) {
	r := &p.r
	m := &p.module

	if id := r.text(17, "id text"); !strings.EqualFold(id, "extended module:") {
		r.fail("unexpected ID text: %q", id)
	}
	m.Name = r.text(20, "module name")
	if b := r.u8("magic byte"); b != 0x1a {
		r.fail("expected 0x1a, found %#02x", b)
	}
	m.TrackerName = r.text(20, "tracker name")
	m.Version = r.u16("version")

	end := r.block("header")

	songLength := int(r.u16("song length"))
	if songLength == 0 || songLength > 256 {
		r.fail("invalid song length value: %d", songLength)
	}
	m.RestartPosition = int(r.u16("restart position"))
	if m.RestartPosition >= songLength {
		m.RestartPosition = 0
	}
	m.NumChannels = int(r.u16("number of channels"))

	numPatterns = int(r.u16("number of patterns"))
	if numPatterns > maxPatterns {
		r.fail("too many patterns: %d", numPatterns)
	}
	numInstruments = int(r.u16("number of instruments"))
	if numInstruments > maxInstruments {
		r.fail("too many instruments: %d", numInstruments)
	}

	m.Flags = HeaderFlags(r.u16("flags"))
	m.DefaultSpeed = int(r.u16("default speed"))
	m.DefaultBPM = int(r.u16("default bpm"))

	// The order table is always 256 bytes long, only the first
	// songLength entries are meaningful.
	m.PatternOrder = append(m.PatternOrder, r.bytes(songLength, "pattern order table")...)

	r.offset = end
	return numPatterns, numInstruments
}

func (p *parser) parsePattern() Pattern {
	r := &p.r

	end := r.block("pattern header")
	r.skip(1, "packing type")
	numRows := int(r.u16("number of rows"))
	if numRows == 0 || numRows > maxRows {
		r.fail("invalid number of rows: %d", numRows)
	}
	dataSize := int(r.u16("packed pattern data size"))
	r.leave(end)

	if r.remaining() < dataSize {
		r.fail("incomplete packed pattern data")
	}
	dataEnd := r.offset + dataSize

	pat := Pattern{Rows: p.rows.alloc(numRows)}
	if dataSize == 0 {
		// Patterns without data are blank; all rows share
		// the same zero ID slice.
		blank := make([]uint16, p.module.NumChannels)
		for i := range pat.Rows {
			pat.Rows[i].Notes = blank
		}
		return pat
	}

	for i := range pat.Rows {
		notes := p.ids.alloc(p.module.NumChannels)
		for ch := range notes {
			notes[ch] = p.internNote(p.readPackedNote())
		}
		pat.Rows[i].Notes = notes
	}

	switch {
	case r.offset < dataEnd:
		r.fail("found %d redundant bytes in the pattern data", dataEnd-r.offset)
	case r.offset > dataEnd:
		r.fail("consumed %d extra bytes of the pattern data", r.offset-dataEnd)
	}
	return pat
}

// readPackedNote decodes one pattern cell.
// When the first byte has its high bit set, the low 5 bits tell which
// fields follow. Otherwise the byte is the note and the other 4 fields
// are stored unconditionally.
func (p *parser) readPackedNote() PatternNote {
	r := &p.r

	var n PatternNote
	mask := r.u8("pattern cell")
	if mask&0x80 == 0 {
		n.Note = mask
		mask = 0b11110
	}
	if mask&(1<<0) != 0 {
		n.Note = r.u8("pattern note")
	}
	if mask&(1<<1) != 0 {
		n.Instrument = r.u8("pattern instrument")
	}
	if mask&(1<<2) != 0 {
		n.Volume = r.u8("pattern volume")
	}
	if mask&(1<<3) != 0 {
		n.EffectType = r.u8("effect type")
	}
	if mask&(1<<4) != 0 {
		n.EffectParameter = r.u8("effect parameter")
	}
	return n
}

func (p *parser) internNote(n PatternNote) uint16 {
	if id, ok := p.noteIDs[n]; ok {
		return id
	}
	id := uint16(len(p.module.Notes))
	p.module.Notes = append(p.module.Notes, n)
	p.noteIDs[n] = id
	return id
}

func (p *parser) parseInstrument() Instrument {
	r := &p.r

	var inst Instrument
	end := r.block("instrument header")
	inst.Name = p.optionalText(22, "instrument name")
	r.skip(1, "instrument type")

	numSamples := int(r.u16("number of samples"))
	if numSamples == 0 {
		r.leave(end)
		return inst
	}

	sampleHeaderSize := int(r.u32("sample header size"))
	if sampleHeaderSize < 40 {
		r.fail("invalid sample header size: %d", sampleHeaderSize)
	}
	inst.Keymap = r.bytes(96, "keymap")

	volumePoints := r.bytes(envelopeBytes, "volume envelope points")
	panningPoints := r.bytes(envelopeBytes, "panning envelope points")
	inst.VolumeEnvelope.Points = decodeEnvelopePoints(volumePoints, r.u8("number of volume points"))
	inst.PanningEnvelope.Points = decodeEnvelopePoints(panningPoints, r.u8("number of panning points"))

	envelopes := [2]*Envelope{&inst.VolumeEnvelope, &inst.PanningEnvelope}
	for _, env := range envelopes {
		env.Sustain = r.u8("envelope sustain point")
		env.LoopStart = r.u8("envelope loop start point")
		env.LoopEnd = r.u8("envelope loop end point")
	}
	for _, env := range envelopes {
		env.Flags = EnvelopeFlags(r.u8("envelope type"))
	}

	inst.Vibrato = AutoVibrato{
		Type:  r.u8("vibrato type"),
		Sweep: r.u8("vibrato sweep"),
		Depth: r.u8("vibrato depth"),
		Rate:  r.u8("vibrato rate"),
	}
	inst.Fadeout = int(r.u16("volume fadeout"))
	r.leave(end)

	inst.Samples = make([]InstrumentSample, numSamples)
	r.enterPart("sample")
	for i := range inst.Samples {
		r.at.partIndex = i
		headerEnd := r.offset + sampleHeaderSize
		p.parseSampleHeader(&inst.Samples[i])
		r.leave(headerEnd)
	}

	// Sample data follows all of the instrument sample headers.
	r.enterPart("sampledata")
	for i := range inst.Samples {
		r.at.partIndex = i
		s := &inst.Samples[i]
		if s.Length != 0 {
			s.Data = r.bytes(s.Length, "sample data")
		}
	}

	return inst
}

func decodeEnvelopePoints(raw []byte, n uint8) []EnvelopePoint {
	if n == 0 {
		return nil
	}
	points := make([]EnvelopePoint, min(int(n), maxEnvelopeLen))
	for i := range points {
		pair := raw[i*4:]
		points[i] = EnvelopePoint{
			X: uint16(pair[0]) | uint16(pair[1])<<8,
			Y: uint16(pair[2]) | uint16(pair[3])<<8,
		}
	}
	return points
}

func (p *parser) parseSampleHeader(s *InstrumentSample) {
	r := &p.r

	s.Length = int(r.u32("sample length"))
	s.LoopStart = int(r.u32("sample loop start"))
	s.LoopLength = int(r.u32("sample loop length"))
	s.Volume = int(r.u8("sample volume"))
	s.Finetune = int(int8(r.u8("sample finetune")))
	s.TypeFlags = r.u8("sample type")
	s.Panning = r.u8("sample panning")
	s.RelativeNote = int(int8(r.u8("sample relative note number")))

	switch format := r.u8("sample encoding"); format {
	case 0:
		s.Format = SampleFormatDeltaPacked
	case 0xAD:
		s.Format = SampleFormatADPCM
	default:
		r.fail("unknown sample encoding scheme (%#02x)", format)
	}

	s.Name = p.optionalText(22, "sample name")
}
