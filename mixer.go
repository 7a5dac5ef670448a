package mas

// SamplesPerFrame returns the number of stereo samples Frame produces.
func (e *Engine) SamplesPerFrame() int { return e.samplesPerFrame }

// Produce fills out with interleaved 16-bit stereo samples.
//
// Main layer ticks run in between mixed chunks at the exact sample
// they are due, so the output does not depend on len(out).
func (e *Engine) Produce(out []int16) {
	for len(out) >= 2 {
		chunk := min(len(out), len(e.mixBuf)) / 2
		for i := range e.layers {
			l := &e.layers[i]
			for l.playing && l.clock.due() {
				e.processTick(l)
				l.clock.tickDone()
			}
			if l.playing {
				chunk = l.clock.budget(chunk)
			}
		}

		e.mix(out[:chunk*2])

		for i := range e.layers {
			if l := &e.layers[i]; l.playing {
				l.clock.advanceSamples(chunk)
			}
		}
		out = out[chunk*2:]
	}
}

// Frame runs one periodic update: jingle ticks, one frame of mixing
// into the back buffer and the sound effect sweep.
func (e *Engine) Frame() {
	for i := range e.layers {
		l := &e.layers[i]
		for n := l.clock.advanceFrame(); n > 0 && l.playing; n-- {
			e.processTick(l)
		}
	}
	e.Produce(e.back)
	e.UpdateEffects()
}

// SwapBuffers exchanges the front and back buffers.
// Call it at the output buffer boundary, after Frame.
func (e *Engine) SwapBuffers() {
	e.front, e.back = e.back, e.front
}

// FrontBuffer returns the last completed frame.
// The slice is reused after the next SwapBuffers.
func (e *Engine) FrontBuffer() []int16 { return e.front }

func (e *Engine) mix(out []int16) {
	acc := e.mixBuf[:len(out)]
	clear(acc)
	for i := range e.mixers {
		m := &e.mixers[i]
		if m.sample != nil {
			e.mixChannel(m, acc)
		}
	}
	for i, v := range acc {
		out[i] = saturate16(v >> 8)
	}
}

func (e *Engine) mixChannel(m *mixerChannel, acc []int32) {
	data := m.sample.Data
	end := uint64(len(data)) << 12
	loopLen := uint64(m.sample.LoopLength) << 12
	if loopLen > end {
		loopLen = end
	}
	step := (uint64(m.freq) << 12) / uint64(e.config.SampleRate)
	ramping := e.config.VolumeRamping

	for i := 0; i < len(acc); i += 2 {
		if m.read >= end {
			if loopLen == 0 {
				m.stop()
				return
			}
			m.read = end - loopLen + (m.read-end)%loopLen
		}

		vol := m.vol
		if ramping {
			switch {
			case m.cvol < m.vol:
				m.cvol++
			case m.cvol > m.vol:
				m.cvol--
			}
			vol = m.cvol
		}

		s := int32(data[m.read>>12]) * int32(vol)
		acc[i] += s * int32(255-m.pan)
		acc[i+1] += s * int32(m.pan)
		m.read += step
	}
}
