package mas

import (
	"github.com/quasilyte/mas/internal/masdb"
	"github.com/quasilyte/mas/masfile"
)

// processEnvelope advances the envelope by one tick.
//
// It returns the envelope value multiplied by 64 and whether
// the volume fade is allowed to run.
func processEnvelope(env *masfile.Envelope, count *uint16, node *uint8, keyOn bool) (int, bool) {
	last := len(env.Nodes) - 1
	if int(*node) > last {
		*node = uint8(last)
		*count = 0
	}
	n := env.Nodes[*node]
	value := int(n.Base) * 64

	if *count == 0 {
		switch {
		case *node == env.LoopEnd:
			*node = env.LoopStart
			return value, true
		case keyOn && *node == env.SustainEnd:
			*node = env.SustainStart
			return value, false
		case int(*node) == last:
			return value, true
		}
	} else {
		value += (int(n.Delta) * int(*count)) >> 3
	}

	*count++
	if *count >= n.Range {
		*count = 0
		*node++
	}
	return value, true
}

// seekEnvelope moves the envelope cursor to the given tick.
func seekEnvelope(env *masfile.Envelope, pos uint16) (uint8, uint16) {
	if env == nil || len(env.Nodes) == 0 {
		return 0, 0
	}
	last := len(env.Nodes) - 1
	for i, n := range env.Nodes {
		if i == last {
			return uint8(i), 0
		}
		if pos < n.Range {
			return uint8(i), pos
		}
		pos -= n.Range
	}
	return uint8(last), 0
}

func hasNodes(env *masfile.Envelope) bool {
	return env != nil && len(env.Nodes) != 0
}

func (e *Engine) runEnvelopes(l *layer, v *activeChannel, period uint32) uint32 {
	inst := l.module.Instrument(v.inst)
	if inst == nil {
		return period
	}
	keyOn := v.flags.Contains(voiceKeyOn)

	if inst.EnvFlags.Contains(masfile.EnvelopeVolumeExists) && v.flags.Contains(voiceVolEnv) && hasNodes(inst.VolumeEnvelope) {
		value, fadeAllowed := processEnvelope(inst.VolumeEnvelope, &v.envCountVol, &v.envNodeVol, keyOn)
		if fadeAllowed && !keyOn {
			v.flags |= voiceFade
		}
		e.fx.afvol = (e.fx.afvol * value) >> 12
	} else if !keyOn {
		v.flags |= voiceFade | voiceEnvEnd
		if l.flags.Contains(masfile.FlagXMMode) {
			v.fade = 0
		}
	}

	if inst.EnvFlags.Contains(masfile.EnvelopePanningExists) && hasNodes(inst.PanningEnvelope) {
		value, _ := processEnvelope(inst.PanningEnvelope, &v.envCountPan, &v.envNodePan, keyOn)
		e.fx.panplus += (value >> 4) - 128
	}

	if env := inst.PitchEnvelope; inst.EnvFlags.Contains(masfile.EnvelopePitchExists) && hasNodes(env) && !env.Filter {
		value, _ := processEnvelope(env, &v.envCountPitch, &v.envNodePitch, keyOn)
		slide := (value >> 3) - 256
		linear := l.flags.Contains(masfile.FlagLinearFreq)
		if slide < 0 {
			period = linearPitchSlideDown(period, uint32(-slide), linear)
		} else {
			period = linearPitchSlideUp(period, uint32(slide), linear)
		}
	}

	if v.flags.Contains(voiceFade) {
		v.fade = uint16(clampMin(int(v.fade)-int(inst.Fadeout), 0))
		if v.fade == 0 {
			// A fully faded note is over even if its envelope still runs.
			v.flags |= voiceEnvEnd
		}
	}

	return period
}

func autoVibrato(l *layer, v *activeChannel, info *masfile.SampleInfo, period uint32) uint32 {
	if info.VibratoRate == 0 {
		return period
	}
	depth := clampMax(uint32(v.avibDepth)+uint32(info.VibratoRate), 32768)
	v.avibDepth = uint16(depth)
	v.avibPos += info.VibratoSpeed

	slide := (int(masdb.FineSine[v.avibPos]) * int(info.VibratoDepth) * int(depth)) >> 23
	linear := l.flags.Contains(masfile.FlagLinearFreq)
	if slide >= 0 {
		return pitchSlideUp(period, uint32(slide), linear)
	}
	return pitchSlideDown(period, uint32(-slide), linear)
}

// updateVoice pushes the voice state into its mixer channel.
// The voice is retired when it becomes inaudible for good.
func (e *Engine) updateVoice(l *layer, index uint8, period uint32) uint32 {
	v := &e.voices[index]
	m := &e.mixers[index]

	var info *masfile.SampleInfo
	if v.sample != 0 {
		info = l.module.Sample(v.sample)
	}

	startMix := true
	if v.inst != 0 {
		period = e.runEnvelopes(l, v, period)
		if v.sample == 0 {
			startMix = false
		} else if info != nil {
			period = autoVibrato(l, v, info, period)
		}
	}

	if startMix && v.flags.Contains(voiceStart) {
		v.flags &^= voiceStart
		if info != nil {
			m.sample = e.bank.SampleData(info)
			m.read = uint64(e.fx.sampleOffset) << (8 + 12)
			if e.config.VolumeRamping {
				m.cvol = 0
			}
		}
	}

	vol := e.voicePitchVolume(l, v, info, period, m)

	if vol == 0 {
		silent := e.config.VolumeRamping && v.kind == voiceBackground && v.volume == 0 && m.cvol == 0
		ended := v.flags.Contains(voiceEnvEnd) && (!v.flags.Contains(voiceKeyOn) || v.fade == 0)
		if silent || ended {
			e.retireVoice(l, index)
			return period
		}
	}
	if m.sample == nil {
		e.retireVoice(l, index)
		return period
	}

	m.vol = uint8(vol)
	m.pan = uint8(clamp(int(v.panning)+e.fx.panplus, 0, 255))
	return period
}

func (e *Engine) voicePitchVolume(l *layer, v *activeChannel, info *masfile.SampleInfo, period uint32, m *mixerChannel) int {
	if info == nil {
		v.fvol = 0
		return 0
	}

	linear := l.flags.Contains(masfile.FlagLinearFreq)
	hz := periodToHz(period, uint32(info.Frequency)<<2, linear, l.flags.Contains(masfile.FlagOldMode))
	if l.id == LayerMain {
		hz = uint32((uint64(hz) * uint64(e.masterPitch)) >> 10)
	}
	m.freq = hz

	inst := l.module.Instrument(v.inst)
	if inst == nil {
		v.fvol = 0
		return 0
	}

	vol := uint64(info.GlobalVolume) * uint64(inst.GlobalVolume) * uint64(clampMin(e.fx.afvol, 0))
	gv := uint64(l.globalVolume)
	if l.flags.Contains(masfile.FlagXMMode) {
		gv <<= 1
	}
	vol = (vol * gv) >> 10
	vol = (vol * uint64(v.fade)) >> 10
	vol = (vol * uint64(l.volume)) >> 19
	vol = clampMax(vol, 255)

	v.fvol = uint8(vol)
	return int(vol)
}

func (e *Engine) retireVoice(l *layer, index uint8) {
	v := &e.voices[index]
	e.mixers[index].stop()
	if v.kind == voiceForeground && int(v.parent) < len(l.channels) && l.channels[v.parent].alloc == index {
		l.channels[v.parent].alloc = noChannel
	}
	v.kind = voiceDisabled
}
