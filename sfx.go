package mas

const numEffectSlots = 16

// EffectHandle identifies a playing sound effect.
//
// The low byte is the slot index plus one, the high byte is a generation
// counter; a zero handle is never valid. Handles of finished effects
// become stale and all operations on them are silent no-ops.
type EffectHandle uint16

// Effect describes a sound effect to play.
type Effect struct {
	// ID is the bank sample index.
	ID int

	// Rate is the playback rate multiplier in 6.10 fixed point (1024 = normal).
	Rate uint32

	// Handle, when it refers to a live effect, makes PlayEffect reuse
	// its voice instead of allocating a new one.
	Handle EffectHandle

	Volume  uint8
	Panning uint8
}

type effectSlot struct {
	// voice is the voice index plus one; zero marks a free slot.
	voice      uint8
	generation uint8
}

type sfxState struct {
	slots   [numEffectSlots]effectSlot
	used    uint16
	counter uint8

	// master is the effects volume multiplier (0-1024).
	master uint32
}

// reset frees every slot. The generation counter keeps running
// so the old handles stay stale.
func (s *sfxState) reset() {
	s.slots = [numEffectSlots]effectSlot{}
	s.used = 0
}

func (s *sfxState) clearSlot(slot int) {
	s.slots[slot] = effectSlot{}
	s.used &^= 1 << slot
}

// dropEffectSlot frees the slot bound to the voice, making its handle stale.
func (e *Engine) dropEffectSlot(voice int) {
	for slot := range e.sfx.slots {
		if e.sfx.used&(1<<slot) != 0 && int(e.sfx.slots[slot].voice) == voice+1 {
			e.sfx.clearSlot(slot)
		}
	}
}

// resolveHandle maps a handle to its slot and voice.
// ok is false for stale or malformed handles.
func (e *Engine) resolveHandle(h EffectHandle) (slot int, voice int, ok bool) {
	slot = int(h&0xFF) - 1
	if slot < 0 || slot >= numEffectSlots {
		return 0, 0, false
	}
	s := e.sfx.slots[slot]
	if s.generation != uint8(h>>8) {
		return 0, 0, false
	}
	voice = int(s.voice) - 1
	if voice < 0 || voice >= len(e.voices) {
		return 0, 0, false
	}
	return slot, voice, true
}

// PlaySample plays a bank sample at its default rate, full volume and center panning.
func (e *Engine) PlaySample(id int) EffectHandle {
	return e.PlayEffect(Effect{ID: id, Rate: 1024, Volume: 255, Panning: 128})
}

// PlayEffect starts a sound effect and returns its handle.
//
// A zero handle is returned when the sample does not exist or
// there is no free slot or voice.
func (e *Engine) PlayEffect(fx Effect) EffectHandle {
	sample := e.bank.Sample(fx.ID)
	if sample == nil {
		return 0
	}

	handle := fx.Handle
	slot, voice, ok := e.resolveHandle(handle)
	if !ok {
		slot = e.freeSlot()
		if slot < 0 {
			return 0
		}
		alloc := e.allocVoice()
		if alloc == noChannel {
			return 0
		}
		voice = int(alloc)
		generation := e.sfx.counter
		e.sfx.counter++
		e.sfx.slots[slot] = effectSlot{voice: alloc + 1, generation: generation}
		e.sfx.used |= 1 << slot
		handle = EffectHandle(uint16(generation)<<8 | uint16(slot+1))
	}

	v := &e.voices[voice]
	v.fvol = 200
	v.kind = voiceCustom
	v.flags = voiceEffect

	m := &e.mixers[voice]
	m.sample = sample
	m.freq = uint32((uint64(fx.Rate) * uint64(sample.DefaultFrequency)) >> 10)
	m.read = 0
	m.vol = e.effectVolume(fx.Volume)
	m.pan = fx.Panning
	if e.config.VolumeRamping {
		m.cvol = m.vol
	}

	return handle
}

func (e *Engine) freeSlot() int {
	for i := 0; i < numEffectSlots; i++ {
		if e.sfx.used&(1<<i) == 0 {
			return i
		}
	}
	return -1
}

func (e *Engine) effectVolume(v uint8) uint8 {
	return uint8((uint32(v) * e.sfx.master) >> 10)
}

// SetEffectsVolume sets the effects master volume in [0, 1024].
// It applies to the effects started or changed afterwards.
func (e *Engine) SetEffectsVolume(v int) {
	e.sfx.master = uint32(clamp(v, 0, 1024))
}

// EffectActive reports whether the handle refers to a live effect.
func (e *Engine) EffectActive(h EffectHandle) bool {
	_, _, ok := e.resolveHandle(h)
	return ok
}

func (e *Engine) SetEffectVolume(h EffectHandle, v uint8) {
	if _, voice, ok := e.resolveHandle(h); ok {
		e.mixers[voice].vol = e.effectVolume(v)
	}
}

func (e *Engine) SetEffectPanning(h EffectHandle, pan uint8) {
	if _, voice, ok := e.resolveHandle(h); ok {
		e.mixers[voice].pan = pan
	}
}

// SetEffectRate sets the effect playback rate in Hz.
func (e *Engine) SetEffectRate(h EffectHandle, hz uint32) {
	if _, voice, ok := e.resolveHandle(h); ok {
		e.mixers[voice].freq = hz
	}
}

// ScaleEffectRate multiplies the effect rate by a 6.10 fixed point factor.
func (e *Engine) ScaleEffectRate(h EffectHandle, factor uint32) {
	if _, voice, ok := e.resolveHandle(h); ok {
		m := &e.mixers[voice]
		m.freq = uint32((uint64(m.freq) * uint64(factor)) >> 10)
	}
}

// CancelEffect stops the effect immediately.
// It returns false if the handle was stale.
func (e *Engine) CancelEffect(h EffectHandle) bool {
	slot, voice, ok := e.resolveHandle(h)
	if !ok {
		return false
	}
	v := &e.voices[voice]
	v.kind = voiceBackground
	v.fvol = 0
	e.sfx.clearSlot(slot)
	e.mixers[voice].stop()
	return true
}

// ReleaseEffect lets the effect play to the end without a handle.
// Its voice becomes evictable.
func (e *Engine) ReleaseEffect(h EffectHandle) {
	slot, voice, ok := e.resolveHandle(h)
	if !ok {
		return
	}
	e.voices[voice].kind = voiceBackground
	e.sfx.clearSlot(slot)
}

// CancelAllEffects stops every sound effect and invalidates all handles.
func (e *Engine) CancelAllEffects() {
	e.sfx.reset()
	for i := range e.voices {
		if e.voices[i].flags.Contains(voiceEffect) {
			e.voices[i] = activeChannel{}
			e.mixers[i].stop()
		}
	}
}

// retireEffectVoice returns a finished effect voice to the pool.
// Voices that were taken over in the meantime (reserved ones) are left alone.
func (e *Engine) retireEffectVoice(voice int) {
	v := &e.voices[voice]
	if v.kind != voiceCustom && v.kind != voiceBackground {
		return
	}
	v.kind = voiceDisabled
	v.flags = 0
}

// UpdateEffects frees the voices of effects that finished playing.
// Frame calls it automatically.
func (e *Engine) UpdateEffects() {
	for slot := 0; slot < numEffectSlots; slot++ {
		if e.sfx.used&(1<<slot) == 0 {
			continue
		}
		voice := int(e.sfx.slots[slot].voice) - 1
		if voice >= 0 && voice < len(e.voices) && e.mixers[voice].sample != nil {
			continue
		}
		if voice >= 0 && voice < len(e.voices) {
			e.retireEffectVoice(voice)
		}
		e.sfx.clearSlot(slot)
	}

	// Released effects have no slot; free them once they are silent.
	for i := range e.voices {
		v := &e.voices[i]
		if v.kind == voiceBackground && v.flags.Contains(voiceEffect) && e.mixers[i].sample == nil {
			v.kind = voiceDisabled
			v.flags = 0
		}
	}
}
