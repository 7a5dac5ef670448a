package mas

// allocVoice picks a voice for a new note or sound effect.
//
// The first disabled voice wins. Otherwise the quietest background voice
// is evicted. Reserved, foreground and effect voices are never handed out.
// Returns noChannel when nothing qualifies.
func (e *Engine) allocVoice() uint8 {
	best := uint8(noChannel)
	bestVol := 256
	for i := range e.voices {
		v := &e.voices[i]
		switch v.kind {
		case voiceDisabled:
			return uint8(i)
		case voiceBackground:
			if int(v.fvol) < bestVol {
				best = uint8(i)
				bestVol = int(v.fvol)
			}
		}
	}
	return best
}

// SetVoiceReserved excludes a voice from the pool (or returns it back).
//
// A reserved voice is stopped and never allocated until it is released.
// Out of range indexes are ignored.
func (e *Engine) SetVoiceReserved(voice int, reserved bool) {
	if voice < 0 || voice >= len(e.voices) {
		return
	}
	v := &e.voices[voice]
	if reserved {
		e.detachVoice(uint8(voice))
		if v.flags.Contains(voiceEffect) {
			e.dropEffectSlot(voice)
		}
		*v = activeChannel{kind: voiceReserved}
		e.mixers[voice].stop()
		return
	}
	if v.kind == voiceReserved {
		v.kind = voiceDisabled
	}
}

// detachVoice drops the track reference to the voice, if any.
func (e *Engine) detachVoice(voice uint8) {
	v := &e.voices[voice]
	if v.kind != voiceForeground {
		return
	}
	l := &e.layers[LayerMain]
	if v.flags.Contains(voiceSub) {
		l = &e.layers[LayerJingle]
	}
	if int(v.parent) < len(l.channels) && l.channels[v.parent].alloc == voice {
		l.channels[v.parent].alloc = noChannel
	}
}
