package mas

import (
	"github.com/quasilyte/mas/internal/masdb"
	"github.com/quasilyte/mas/masfile"
)

// exchangeMemory substitutes a zero parameter with the remembered one
// and remembers a non-zero parameter.
func (ch *moduleChannel) exchangeMemory(xm bool) uint8 {
	slot := masdb.MemorySlot(ch.effect, xm)
	if slot == masdb.NoMemory {
		return ch.param
	}
	if ch.param == 0 {
		ch.param = ch.memory[slot]
	} else {
		ch.memory[slot] = ch.param
	}
	return ch.param
}

// volumeSlide implements the D command semantics, also used for
// channel volume, panning and global volume slides.
func volumeSlide(l *layer, value, param uint8, limit int) uint8 {
	v := int(value)
	hi := int(param >> 4)
	lo := int(param & 0xF)
	tick := l.tick

	if l.flags.Contains(masfile.FlagXMMode) {
		if tick != 0 {
			v = clamp(v+hi-lo, 0, limit)
		}
		return uint8(v)
	}

	switch {
	case param == 0x0F:
		v -= 0xF
	case param == 0xF0:
		if tick == 0 {
			return value
		}
		v += 0xF
	case lo == 0:
		if tick == 0 {
			return value
		}
		v += hi
	case hi == 0:
		if tick == 0 {
			return value
		}
		v -= lo
	case tick != 0:
		return value
	case lo == 0xF:
		v += hi
	case hi == 0xF:
		v -= lo
	}
	return uint8(clamp(v, 0, limit))
}

func doVibrato(l *layer, ch *moduleChannel, period uint32) uint32 {
	if !l.flags.Contains(masfile.FlagOldEffects) || l.tick != 0 {
		ch.vibpos += ch.vibspd
	}
	value := (int(masdb.FineSine[ch.vibpos]) * int(ch.vibdep)) >> 8
	linear := l.flags.Contains(masfile.FlagLinearFreq)
	if value < 0 {
		return pitchSlideDown(period, uint32(-value), linear)
	}
	return pitchSlideUp(period, uint32(value), linear)
}

// glissandoTo slides the track period towards the current note.
func (e *Engine) glissandoTo(l *layer, ch *moduleChannel, v *activeChannel, speed uint8, period uint32) uint32 {
	if v == nil {
		return period
	}
	info := l.module.Sample(v.sample)
	if info == nil {
		return period
	}
	linear := l.flags.Contains(masfile.FlagLinearFreq)
	target := periodFor(ch.note, uint32(info.Frequency)<<2, linear)

	current := ch.period
	var next uint32
	switch {
	case current < target:
		if linear {
			next = pitchSlideUp(current, uint32(speed), linear)
		} else {
			next = pitchSlideDown(current, uint32(speed), linear)
		}
		next = min(next, target)
	case current > target:
		if linear {
			next = pitchSlideDown(current, uint32(speed), linear)
		} else {
			next = pitchSlideUp(current, uint32(speed), linear)
		}
		next = max(next, target)
	default:
		return period
	}

	ch.period = next
	return shiftPeriod(period, int64(next)-int64(current))
}

func (e *Engine) processEffect(l *layer, ch *moduleChannel, v *activeChannel, index int, period uint32) uint32 {
	xm := l.flags.Contains(masfile.FlagXMMode)
	param := ch.exchangeMemory(xm)
	tick := l.tick

	switch ch.effect {
	case masdb.EffectSetSpeed:
		if tick == 0 && param != 0 {
			l.speed = param
		}

	case masdb.EffectPositionJump:
		if tick == 0 {
			l.patternJump = param
		}

	case masdb.EffectPatternBreak:
		if tick == 0 {
			l.jumpRow = param
			if l.patternJump == 255 {
				l.patternJump = uint8(l.position + 1)
			}
		}

	case masdb.EffectVolumeSlide:
		ch.volume = volumeSlide(l, ch.volume, param, 64)

	case masdb.EffectPortamentoDown, masdb.EffectPortamentoUp:
		return effectPortamento(l, ch, param, period)

	case masdb.EffectGlissando:
		return e.effectGlissando(l, ch, v, param, period)

	case masdb.EffectVibrato:
		if tick != 0 {
			return doVibrato(l, ch, period)
		}
		if x := param >> 4; x != 0 {
			ch.vibspd = x * 4
		}
		if y := param & 0xF; y != 0 {
			ch.vibdep = (y * 4) << l.oldEffectsShift()
			return doVibrato(l, ch, period)
		}

	case masdb.EffectTremor:
		e.effectTremor(ch, max(param>>4, 1), max(param&0xF, 1))

	case masdb.EffectArpeggio:
		return effectArpeggio(l, ch, v, param, period)

	case masdb.EffectVibratoVolume:
		next := doVibrato(l, ch, period)
		ch.volume = volumeSlide(l, ch.volume, param, 64)
		return next

	case masdb.EffectPortaVolume:
		next := e.effectGlissando(l, ch, v, ch.memory[masdb.MemGlissando], period)
		ch.volume = volumeSlide(l, ch.volume, param, 64)
		return next

	case masdb.EffectChannelVolume:
		if tick == 0 && param <= 0x40 {
			ch.cvolume = param
		}

	case masdb.EffectChannelVolumeSlide:
		ch.cvolume = volumeSlide(l, ch.cvolume, param, 64)

	case masdb.EffectSampleOffset:
		if tick == 0 {
			e.fx.sampleOffset = param
		}

	case masdb.EffectPanningSlide:
		ch.panning = volumeSlide(l, ch.panning, param, 255)

	case masdb.EffectRetrigger:
		effectRetrigger(ch, v, param)

	case masdb.EffectTremolo:
		if tick != 0 {
			ch.fxmem += (param >> 4) * 4
		}
		result := (int(masdb.FineSine[ch.fxmem]) * int(param&0xF)) >> 6
		if xm {
			result >>= 1
		}
		e.fx.volplus = result

	case masdb.EffectExtended:
		e.effectExtended(l, ch, v, index, param)

	case masdb.EffectTempo:
		e.effectTempo(l, param)

	case masdb.EffectFineVibrato:
		if tick == 0 {
			if x := param >> 4; x != 0 {
				ch.vibspd = x * 4
			}
			if y := param & 0xF; y != 0 {
				ch.vibdep = y << l.oldEffectsShift()
			}
		}
		return doVibrato(l, ch, period)

	case masdb.EffectGlobalVolume:
		if tick == 0 {
			limit := uint8(128)
			if l.flags.Contains(masfile.FlagXMMode | masfile.FlagOldMode) {
				limit = 64
			}
			l.globalVolume = min(param, limit)
		}

	case masdb.EffectGlobalVolumeSlide:
		limit := 128
		if xm {
			limit = 64
		}
		l.globalVolume = volumeSlide(l, l.globalVolume, param, limit)

	case masdb.EffectSetPanning:
		if tick == 0 {
			ch.panning = param
		}

	case masdb.EffectSetVolume:
		if tick == 0 {
			ch.volume = min(param, 64)
		}

	case masdb.EffectKeyOff:
		if tick == param && v != nil {
			v.flags &^= voiceKeyOn
		}

	case masdb.EffectEnvelopePos:
		if tick == 0 && v != nil {
			e.seekEnvelopes(l, v, uint16(param))
		}

	case masdb.EffectOldTremor:
		e.effectTremor(ch, param>>4+1, param&0xF+1)
	}

	return period
}

func (l *layer) oldEffectsShift() uint8 {
	if l.flags.Contains(masfile.FlagOldEffects) {
		return 1
	}
	return 0
}

func effectPortamento(l *layer, ch *moduleChannel, param uint8, period uint32) uint32 {
	fine := false
	switch param >> 4 {
	case 0xE:
		if l.tick != 0 {
			return period
		}
		param &= 0xF
		fine = true
	case 0xF:
		if l.tick != 0 {
			return period
		}
		param &= 0xF
	default:
		if l.tick == 0 {
			return period
		}
	}

	linear := l.flags.Contains(masfile.FlagLinearFreq)
	var next uint32
	switch {
	case ch.effect == masdb.EffectPortamentoDown && fine:
		next = finePitchSlideDown(ch.period, uint32(param), linear)
	case ch.effect == masdb.EffectPortamentoDown:
		next = pitchSlideDown(ch.period, uint32(param), linear)
	case fine:
		next = finePitchSlideUp(ch.period, uint32(param), linear)
	default:
		next = pitchSlideUp(ch.period, uint32(param), linear)
	}

	delta := int64(next) - int64(ch.period)
	ch.period = next
	return shiftPeriod(period, delta)
}

func (e *Engine) effectGlissando(l *layer, ch *moduleChannel, v *activeChannel, param uint8, period uint32) uint32 {
	if l.tick == 0 {
		if !l.flags.Contains(masfile.FlagLinkGxx) {
			if param == 0 {
				param = ch.memory[masdb.MemGlissando]
				ch.param = param
			}
			ch.memory[masdb.MemGlissando] = param
			return period
		}
		if param == 0 {
			param = ch.memory[masdb.MemITPorta]
			ch.param = param
		}
		ch.memory[masdb.MemITPorta] = param
		ch.memory[masdb.MemGlissando] = param
	}
	return e.glissandoTo(l, ch, v, ch.memory[masdb.MemGlissando], period)
}

// effectTremor alternates between on and off phases of the given lengths.
func (e *Engine) effectTremor(ch *moduleChannel, on, off uint8) {
	if ch.fxmem == 0 {
		ch.tremorOff = false
		ch.fxmem = on
	}
	if ch.tremorOff {
		e.fx.volplus = -64
	}
	ch.fxmem--
	if ch.fxmem == 0 {
		ch.tremorOff = !ch.tremorOff
		if ch.tremorOff {
			ch.fxmem = off
		} else {
			ch.fxmem = on
		}
	}
}

func effectArpeggio(l *layer, ch *moduleChannel, v *activeChannel, param uint8, period uint32) uint32 {
	if l.tick == 0 {
		ch.fxmem = 0
	}
	if v == nil {
		return period
	}
	var semitones uint8
	switch ch.fxmem {
	case 0:
		ch.fxmem = 1
		return period
	case 1:
		ch.fxmem = 2
		semitones = param >> 4
	default:
		ch.fxmem = 0
		semitones = param & 0xF
	}
	return linearPitchSlideUp(period, uint32(semitones)*16, l.flags.Contains(masfile.FlagLinearFreq))
}

// effectRetrigger restarts the sample every x ticks.
// fxmem stores the countdown plus one; zero means "not armed yet".
func effectRetrigger(ch *moduleChannel, v *activeChannel, param uint8) {
	if ch.fxmem == 0 {
		ch.fxmem = param&0xF + 1
		return
	}
	ch.fxmem--
	if ch.fxmem != 1 {
		return
	}
	ch.fxmem = param&0xF + 1

	vol := int(ch.volume)
	switch arg := param >> 4; {
	case arg == 0 || arg == 8:
	case arg <= 5:
		vol -= 1 << (arg - 1)
	case arg == 6:
		vol = (vol * 171) >> 8
	case arg == 7:
		vol >>= 1
	case arg <= 0xD:
		vol += 1 << (arg - 9)
	case arg == 0xE:
		vol = (vol * 192) >> 7
	default:
		vol <<= 1
	}
	ch.volume = uint8(clamp(vol, 0, 64))

	if v != nil {
		v.flags |= voiceStart
	}
}

func (e *Engine) effectTempo(l *layer, param uint8) {
	switch {
	case param < 0x10:
		if l.tick != 0 {
			e.setBPM(l, uint8(clampMin(int(l.bpm)-int(param), 32)))
		}
	case param < 0x20:
		if l.tick != 0 {
			e.setBPM(l, uint8(clampMax(int(l.bpm)+int(param&0xF), 255)))
		}
	default:
		if l.tick == 0 {
			e.setBPM(l, param)
		}
	}
}

func (e *Engine) seekEnvelopes(l *layer, v *activeChannel, pos uint16) {
	inst := l.module.Instrument(v.inst)
	if inst == nil {
		return
	}
	v.envNodeVol, v.envCountVol = seekEnvelope(inst.VolumeEnvelope, pos)
	v.envNodePan, v.envCountPan = seekEnvelope(inst.PanningEnvelope, pos)
	v.envNodePitch, v.envCountPitch = seekEnvelope(inst.PitchEnvelope, pos)
}

func (e *Engine) effectExtended(l *layer, ch *moduleChannel, v *activeChannel, index int, param uint8) {
	x := param & 0xF
	tick := l.tick

	switch param >> 4 {
	case 0x0:
		if tick == 0 {
			ch.volume = min(ch.volume+x, 64)
		}

	case 0x1:
		if tick == 0 {
			ch.volume = uint8(clampMin(int(ch.volume)-int(x), 0))
		}

	case 0x2:
		if x == 0 {
			return
		}
		if tick == 0 {
			ch.fxmem = x
			return
		}
		ch.fxmem--
		if ch.fxmem == 0 {
			ch.fxmem = x
			if v != nil {
				v.flags |= voiceStart
			}
		}

	case 0x6:
		if tick == 0 {
			l.finePatternDelay = x
		}

	case 0x7:
		if tick != 0 {
			return
		}
		switch {
		case x <= 2:
			e.pastNotes(l, index, x)
		case x <= 6:
			ch.nna = masfile.NewNoteAction(x - 3)
		case x <= 8 && v != nil:
			if x == 8 {
				v.flags |= voiceVolEnv
			} else {
				v.flags &^= voiceVolEnv
			}
		}

	case 0x8:
		ch.panning = x << 4

	case 0xB:
		if tick != 0 {
			return
		}
		if x == 0 {
			l.loopRow = l.row
			l.loopCursor = l.rowStart
			return
		}
		if l.loopTimes == 0 {
			l.loopTimes = x
			l.loopJump = true
		} else {
			l.loopTimes--
			if l.loopTimes != 0 {
				l.loopJump = true
			}
		}

	case 0xC:
		if tick == x {
			ch.volume = 0
		}

	case 0xD:
		if tick < x {
			e.fx.noteDelay = x
		}

	case 0xE:
		if tick == 0 && l.patternDelay == 0 {
			l.patternDelay = x + 1
		}

	case 0xF:
		if tick == 0 {
			e.emit(Event{Kind: EventSongMessage, Layer: l.id, Param: x | uint8(l.id)<<4})
		}
	}
}

// pastNotes applies a cut (0), note-off (1) or fade (2) to the
// background voices started by the track.
func (e *Engine) pastNotes(l *layer, index int, action uint8) {
	for i := range e.voices {
		v := &e.voices[i]
		if v.kind != voiceBackground || v.owner() != l.owner || int(v.parent) != index {
			continue
		}
		switch action {
		case 0:
			e.mixers[i].stop()
			v.kind = voiceDisabled
		case 1:
			v.flags &^= voiceKeyOn
		case 2:
			v.flags |= voiceFade
		}
	}
}
