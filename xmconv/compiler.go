package xmconv

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/quasilyte/mas/internal/xmdb"
	"github.com/quasilyte/mas/masfile"
	"github.com/quasilyte/mas/xmfile"
)

// Convert builds a module spec that plays the XM module.
//
// Samples are embedded into the module, so the result can be added
// to any bank without adding bank-level samples.
func Convert(m *xmfile.Module) (*masfile.ModuleSpec, error) {
	c := &moduleCompiler{}
	if err := c.compile(m); err != nil {
		return nil, err
	}
	return &c.result, nil
}

type moduleCompiler struct {
	result masfile.ModuleSpec

	// sampleBase maps an instrument index to the module index of its first sample.
	sampleBase []int
}

func (c *moduleCompiler) compile(m *xmfile.Module) error {
	switch {
	case m.NumChannels <= 0 || m.NumChannels > masfile.MaxChannels:
		return fmt.Errorf("unsupported number of channels: %d", m.NumChannels)
	case len(m.PatternOrder) > masfile.MaxOrders:
		return fmt.Errorf("the pattern order is too long: %d", len(m.PatternOrder))
	case len(m.Patterns) > 255:
		return fmt.Errorf("too many patterns: %d", len(m.Patterns))
	}

	flags := masfile.FlagXMMode
	if m.LinearFrequency() {
		flags |= masfile.FlagLinearFreq
	}
	c.result = masfile.ModuleSpec{
		Flags:          flags,
		GlobalVolume:   64,
		InitialSpeed:   uint8(clamp(m.DefaultSpeed, 1, 31)),
		InitialTempo:   uint8(clamp(m.DefaultBPM, 32, 255)),
		RepeatPosition: uint8(m.RestartPosition),
		NumChannels:    m.NumChannels,
	}

	c.result.Sequence = make([]uint8, len(m.PatternOrder))
	for i, p := range m.PatternOrder {
		if int(p) >= len(m.Patterns) {
			p = masfile.SequenceSkip
		}
		c.result.Sequence[i] = p
	}

	if err := c.compileInstruments(m); err != nil {
		return err
	}

	if err := c.compilePatterns(m); err != nil {
		return err
	}

	return nil
}

func (c *moduleCompiler) compileInstruments(m *xmfile.Module) error {
	if len(m.Instruments) > 255 {
		return fmt.Errorf("too many instruments: %d", len(m.Instruments))
	}
	c.result.Instruments = make([]masfile.InstrumentSpec, len(m.Instruments))
	c.sampleBase = make([]int, len(m.Instruments))

	for i := range m.Instruments {
		inst := &m.Instruments[i]
		c.sampleBase[i] = len(c.result.Samples)
		if len(c.result.Samples)+len(inst.Samples) > 255 {
			return errors.New("too many samples")
		}

		for j := range inst.Samples {
			info, err := compileSample(inst, &inst.Samples[j])
			if err != nil {
				return fmt.Errorf("instrument[%d].sample[%d]: %w", i, j, err)
			}
			c.result.Samples = append(c.result.Samples, info)
		}

		dstInst, err := c.compileInstrument(i, inst)
		if err != nil {
			return fmt.Errorf("instrument[%d]: %w", i, err)
		}
		c.result.Instruments[i] = dstInst
	}

	return nil
}

func (c *moduleCompiler) compileInstrument(index int, inst *xmfile.Instrument) (masfile.InstrumentSpec, error) {
	dstInst := masfile.InstrumentSpec{
		GlobalVolume: 128,
		Fadeout:      uint8(min((inst.Fadeout+16)>>5, 255)),
		NNA:          masfile.NNACut,
	}

	switch len(inst.Samples) {
	case 0:
		// An instrument without samples is silent.
		return dstInst, nil
	case 1:
		dstInst.Sample = uint8(c.sampleBase[index] + 1)
	default:
		if len(inst.Keymap) < 96 {
			return dstInst, errors.New("incomplete keymap")
		}
		dstInst.NoteMap = make([]masfile.NoteMapEntry, masfile.NumNotes)
		for note := range dstInst.NoteMap {
			key := clamp(note-12, 0, 95)
			entry := masfile.NoteMapEntry{Note: uint8(note)}
			if s := int(inst.Keymap[key]); s < len(inst.Samples) {
				entry.Sample = uint8(c.sampleBase[index] + s + 1)
			}
			dstInst.NoteMap[note] = entry
		}
	}

	if inst.VolumeEnvelope.Enabled() {
		dstInst.VolumeEnvelope = compileEnvelope(&inst.VolumeEnvelope)
		dstInst.VolumeEnvelopeEnabled = true
	}
	if inst.PanningEnvelope.Enabled() {
		dstInst.PanningEnvelope = compileEnvelope(&inst.PanningEnvelope)
	}

	return dstInst, nil
}

// compileEnvelope turns XM envelope points into linear segments.
func compileEnvelope(src *xmfile.Envelope) *masfile.Envelope {
	points := src.Points
	env := &masfile.Envelope{
		LoopStart:    masfile.EnvelopeNodeNone,
		LoopEnd:      masfile.EnvelopeNodeNone,
		SustainStart: masfile.EnvelopeNodeNone,
		SustainEnd:   masfile.EnvelopeNodeNone,
		Nodes:        make([]masfile.EnvelopeNode, len(points)),
	}

	last := uint8(len(points) - 1)
	if src.Flags.LoopEnabled() && src.LoopStart <= src.LoopEnd && src.LoopEnd <= last {
		env.LoopStart = src.LoopStart
		env.LoopEnd = src.LoopEnd
	}
	if src.Flags.SustainEnabled() && src.Sustain <= last {
		env.SustainStart = src.Sustain
		env.SustainEnd = src.Sustain
	}

	for i, p := range points {
		node := &env.Nodes[i]
		node.Base = uint8(min(p.Y, 64))
		if i == len(points)-1 {
			break
		}
		next := points[i+1]
		if next.X <= p.X {
			node.Range = 1
			continue
		}
		// The segment length is stored in 9 bits.
		node.Range = min(next.X-p.X, 511)
		delta := (int(min(next.Y, 64)) - int(node.Base)) * 512 / int(node.Range)
		node.Delta = int16(clamp(delta, math.MinInt16, math.MaxInt16))
	}

	return env
}

// compileSample decodes the delta-packed sample data into 8-bit PCM.
// Ping-pong loops are unrolled into forward loops.
func compileSample(inst *xmfile.Instrument, sample *xmfile.InstrumentSample) (masfile.SampleInfo, error) {
	if sample.Format != xmfile.SampleFormatDeltaPacked {
		return masfile.SampleInfo{}, errors.New("ADPCM samples are not supported")
	}

	pcm := decodeSample(sample)

	loopStart := sample.LoopStart
	loopLength := sample.LoopLength
	if sample.Is16bits() {
		loopStart /= 2
		loopLength /= 2
	}
	loopStart = clamp(loopStart, 0, len(pcm))
	loopLength = clamp(loopLength, 0, len(pcm)-loopStart)

	dst := &masfile.Sample{}
	switch sample.LoopType() {
	case xmfile.SampleLoopNone:
		dst.Data = pcm
	case xmfile.SampleLoopForward:
		dst.Data = pcm[:loopStart+loopLength]
		dst.LoopLength = loopLength
	case xmfile.SampleLoopPingPong:
		dst.Data = make([]int8, loopStart+2*loopLength)
		copy(dst.Data, pcm[:loopStart+loopLength])
		for i := 0; i < loopLength; i++ {
			dst.Data[loopStart+loopLength+i] = pcm[loopStart+loopLength-1-i]
		}
		dst.LoopLength = 2 * loopLength
	default:
		return masfile.SampleInfo{}, errors.New("unknown sample loop type")
	}

	freq := baseFrequency(sample.RelativeNote, sample.Finetune)
	dst.DefaultFrequency = freq

	info := masfile.SampleInfo{
		DefaultVolume: uint8(clamp(sample.Volume, 0, 64)),
		Panning:       0x80 | sample.Panning>>1,
		Frequency:     uint16(min(freq/4, math.MaxUint16)),
		GlobalVolume:  64,
		Embedded:      dst,
	}
	if vib := inst.Vibrato; vib.Active() {
		info.VibratoType = vib.Type
		info.VibratoDepth = vib.Depth
		info.VibratoSpeed = vib.Rate
		info.VibratoRate = 32768
		if vib.Sweep != 0 {
			info.VibratoRate = uint16(32768 / int(vib.Sweep))
		}
	}
	return info, nil
}

func decodeSample(sample *xmfile.InstrumentSample) []int8 {
	if sample.Is16bits() {
		pcm := make([]int8, len(sample.Data)/2)
		v := int16(0)
		for i := range pcm {
			v += int16(binary.LittleEndian.Uint16(sample.Data[i*2:]))
			pcm[i] = int8(v >> 8)
		}
		return pcm
	}

	pcm := make([]int8, len(sample.Data))
	v := int8(0)
	for i, delta := range sample.Data {
		v += int8(delta)
		pcm[i] = v
	}
	return pcm
}

// baseFrequency returns the rate in Hz that plays the sample at C-5.
func baseFrequency(relativeNote, finetune int) int {
	semitones := float64(relativeNote) + float64(finetune)/128
	return int(math.Round(8363 * math.Pow(2, semitones/12)))
}

func (c *moduleCompiler) compilePatterns(m *xmfile.Module) error {
	c.result.Patterns = make([]masfile.PatternSpec, len(m.Patterns))
	for i := range m.Patterns {
		rawPat := &m.Patterns[i]
		pat := &c.result.Patterns[i]
		pat.Rows = make([][]masfile.Event, len(rawPat.Rows))
		for j, row := range rawPat.Rows {
			for ch, id := range row.Notes {
				if int(id) >= len(m.Notes) {
					return fmt.Errorf("pattern[%d]: row %d refers to unknown note %d", i, j, id)
				}
				if e, ok := c.compileNote(ch, m.Notes[id]); ok {
					pat.Rows[j] = append(pat.Rows[j], e)
				}
			}
		}
	}
	return nil
}

func (c *moduleCompiler) compileNote(channel int, n xmfile.PatternNote) (masfile.Event, bool) {
	e := masfile.Event{Channel: channel}
	if note, ok := xmdb.ConvertNote(n.Note); ok {
		e.Fields |= masfile.FieldNote
		e.Note = note
	}
	if n.Instrument != 0 && int(n.Instrument) <= len(c.result.Instruments) {
		e.Fields |= masfile.FieldInstrument
		e.Instrument = n.Instrument
	}
	if vol, ok := xmdb.ConvertVolume(n.Volume); ok {
		e.Fields |= masfile.FieldVolcmd
		e.Volcmd = vol
	}
	if fx, ok := xmdb.ConvertEffect(n); ok {
		e.Fields |= masfile.FieldEffect
		e.Effect = fx.Op
		e.Param = fx.Arg
	}
	return e, e.Fields != 0
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
