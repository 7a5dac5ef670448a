package mas

import (
	"github.com/quasilyte/mas/internal/masdb"
	"github.com/quasilyte/mas/masfile"
)

// disposition is what happens to the previous voice of a track
// when a new note starts.
type disposition uint8

const (
	dispCut disposition = iota
	dispContinue
	dispNoteOff
	dispFade
)

func nnaDisposition(nna masfile.NewNoteAction) disposition {
	switch nna {
	case masfile.NNAContinue:
		return dispContinue
	case masfile.NNAOff:
		return dispNoteOff
	case masfile.NNAFade:
		return dispFade
	default:
		return dispCut
	}
}

func dcaDisposition(dca masfile.DuplicateCheckAction) disposition {
	switch dca {
	case masfile.DCAOff:
		return dispNoteOff
	case masfile.DCAFade:
		return dispFade
	default:
		return dispCut
	}
}

// noteDisposition decides the fate of the old voice using the
// duplicate check first and the new note action otherwise.
func noteDisposition(ch *moduleChannel, inst *masfile.Instrument, v *activeChannel) disposition {
	if ch.nna == masfile.NNACut {
		return dispCut
	}
	duplicate := false
	switch inst.DCT {
	case masfile.DCTNote:
		note, _ := inst.MapNote(ch.pnoter)
		duplicate = note == ch.note
	case masfile.DCTSample:
		_, sample := inst.MapNote(ch.pnoter)
		duplicate = sample == v.sample
	case masfile.DCTInstrument:
		duplicate = ch.inst == v.inst
	}
	if duplicate {
		return dcaDisposition(inst.DCA)
	}
	return nnaDisposition(ch.nna)
}

func (l *layer) voiceOf(e *Engine, ch *moduleChannel) *activeChannel {
	if ch.alloc == noChannel || int(ch.alloc) >= len(e.voices) {
		return nil
	}
	return &e.voices[ch.alloc]
}

// newNote moves the current voice of the track to the background
// (or cuts it) and allocates a voice for the new note.
func (e *Engine) newNote(l *layer, ch *moduleChannel) {
	inst := l.module.Instrument(ch.inst)
	if inst == nil {
		return
	}

	old := l.voiceOf(e, ch)
	if old != nil {
		switch noteDisposition(ch, inst, old) {
		case dispCut:
			if !e.config.VolumeRamping || old.kind == voiceDisabled {
				return
			}
			old.kind = voiceBackground
			old.volume = 0
		case dispContinue:
			old.kind = voiceBackground
		case dispNoteOff:
			old.flags &^= voiceKeyOn
			old.kind = voiceBackground
		case dispFade:
			old.flags |= voiceFade
			old.kind = voiceBackground
		}
	}

	alloc := e.allocVoice()
	ch.alloc = alloc
	if e.config.VolumeRamping && alloc != noChannel && old != nil {
		e.voices[alloc] = *old
	}
}

// startVoice binds the voice to the track and resolves the note
// through the instrument note map.
//
// Without an instrument the pattern note is returned untranslated
// and ch.note is left as is.
func (e *Engine) startVoice(l *layer, ch *moduleChannel, v *activeChannel, index int) uint8 {
	ch.tremorOff = false
	if v != nil {
		v.kind = voiceForeground
		v.flags = (v.flags &^ layerMask) | l.owner
		v.parent = uint8(index)
		v.inst = ch.inst
	}

	inst := l.module.Instrument(ch.inst)
	if inst == nil {
		return ch.pnoter
	}
	note, sample := inst.MapNote(ch.pnoter)
	ch.note = note
	if v != nil {
		v.sample = sample
	}
	return note
}

// isGlissandoStart reports whether the row note is a portamento target
// rather than a new note.
func isGlissandoStart(l *layer, ch *moduleChannel) bool {
	if ch.flags&chanNewInstr != 0 {
		return false
	}
	if ch.flags&chanHasEffect != 0 && ch.effect == masdb.EffectGlissando {
		return true
	}
	if ch.flags&chanHasVolcmd == 0 {
		return false
	}
	if l.flags.Contains(masfile.FlagXMMode) {
		return ch.volcmd >= 0xF0
	}
	return ch.volcmd >= 193 && ch.volcmd <= 202
}

// updateChannelT0 handles the first tick of a row.
func (e *Engine) updateChannelT0(l *layer, index int) {
	ch := &l.channels[index]
	xm := l.flags.Contains(masfile.FlagXMMode)

	var v *activeChannel
	if ch.flags&chanStart != 0 {
		if v = l.voiceOf(e, ch); isGlissandoStart(l, ch) && v != nil {
			e.startVoice(l, ch, v, index)
			ch.flags &^= chanStart
		} else {
			e.newNote(l, ch)
			v = l.voiceOf(e, ch)
			if v == nil {
				e.updateChannelTN(l, index)
				return
			}
			note := e.startVoice(l, ch, v, index)
			if info := l.module.Sample(v.sample); info != nil {
				ch.period = periodFor(note, uint32(info.Frequency)<<2, l.flags.Contains(masfile.FlagLinearFreq))
				v.flags |= voiceStart
			}
		}
	} else {
		v = l.voiceOf(e, ch)
	}

	if v == nil {
		e.updateChannelTN(l, index)
		return
	}

	if ch.flags&chanDefaultVol != 0 {
		if inst := l.module.Instrument(ch.inst); inst != nil {
			ch.nna = inst.NNA
			if inst.EnvFlags.Contains(masfile.EnvelopeVolumeEnabled) {
				v.flags |= voiceVolEnv
			} else {
				v.flags &^= voiceVolEnv
			}
			if inst.Panning&0x80 != 0 {
				ch.panning = (inst.Panning & 0x7F) << 1
			}
		}
		if info := l.module.Sample(v.sample); info != nil {
			ch.volume = info.DefaultVolume
			if info.Panning&0x80 != 0 {
				ch.panning = (info.Panning & 0x7F) << 1
			}
		}
	}

	if ch.flags&(chanStart|chanDefaultVol) != 0 && (!xm || ch.flags&chanDefaultVol != 0) {
		v.fade = 1024
		v.envCountVol = 0
		v.envCountPan = 0
		v.envCountPitch = 0
		v.envNodeVol = 0
		v.envNodePan = 0
		v.envNodePitch = 0
		v.avibDepth = 0
		v.avibPos = 0
		ch.fxmem = 0
		v.flags |= voiceKeyOn
		v.flags &^= voiceEnvEnd | voiceFade
	}

	if ch.flags&chanNoteOff != 0 {
		v.flags &^= voiceKeyOn
		if xm {
			v.flags |= voiceFade
		}
	}
	if ch.flags&chanNoteCut != 0 {
		ch.volume = 0
	}

	ch.flags &^= chanStart
	e.updateChannelTN(l, index)
}

// updateChannelTN runs the row commands for the current tick and
// updates the track voice.
func (e *Engine) updateChannelTN(l *layer, index int) {
	ch := &l.channels[index]
	v := l.voiceOf(e, ch)
	period := ch.period

	e.fx = tickVars{}

	if ch.flags&chanHasVolcmd != 0 {
		period = e.processVolcmd(l, ch, v, period)
	}
	if ch.flags&chanHasEffect != 0 {
		period = e.processEffect(l, ch, v, index, period)
	}

	if v == nil {
		return
	}

	volume := clampMax((int(ch.volume)*int(ch.cvolume))>>5, 128)
	v.volume = uint8(volume)
	e.fx.afvol = clamp(volume+e.fx.volplus<<3, 0, 128)

	if e.fx.noteDelay != 0 {
		v.flags |= voiceUpdated
		return
	}

	v.panning = ch.panning
	v.period = ch.period
	e.fx.panplus = 0
	v.flags |= voiceUpdated

	e.updateVoice(l, ch.alloc, period)
}
