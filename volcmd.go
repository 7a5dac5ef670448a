package mas

import (
	"github.com/quasilyte/mas/internal/masdb"
	"github.com/quasilyte/mas/masfile"
)

// tickVars hold the per-tick modifiers produced by row commands.
type tickVars struct {
	sampleOffset uint8
	volplus      int
	noteDelay    uint8
	panplus      int
	afvol        int
}

func (e *Engine) processVolcmd(l *layer, ch *moduleChannel, v *activeChannel, period uint32) uint32 {
	if l.flags.Contains(masfile.FlagXMMode) {
		return e.processVolcmdXM(l, ch, v, period)
	}
	return e.processVolcmdIT(l, ch, v, period)
}

// slideNibbles updates the low or high nibble of a memory slot.
// A zero delta reads the stored one instead.
func slideNibbles(mem *uint8, delta uint8, high bool) uint8 {
	if high {
		if delta == 0 {
			return *mem >> 4
		}
		*mem = delta<<4 | *mem&0x0F
		return delta
	}
	if delta == 0 {
		return *mem & 0x0F
	}
	*mem = *mem&0xF0 | delta
	return delta
}

func (e *Engine) processVolcmdXM(l *layer, ch *moduleChannel, v *activeChannel, period uint32) uint32 {
	vc := ch.volcmd
	tick := l.tick

	switch {
	case vc < 0x10:
		// Empty.

	case vc <= 0x50:
		if tick == 0 {
			ch.volume = vc - 0x10
		}

	case vc < 0x60:
		// Unused.

	case vc < 0x80:
		if tick == 0 {
			return period
		}
		mem := &ch.memory[masdb.MemXMVolcmdVolumeSlide]
		if vc < 0x70 {
			d := slideNibbles(mem, vc-0x60, false)
			ch.volume = uint8(clampMin(int(ch.volume)-int(d), 0))
		} else {
			d := slideNibbles(mem, vc-0x70, true)
			ch.volume = clampMax(ch.volume+d, 64)
		}

	case vc < 0xA0:
		if tick != 0 {
			return period
		}
		mem := &ch.memory[masdb.MemXMVolcmdFineSlide]
		if vc < 0x90 {
			d := slideNibbles(mem, vc-0x80, false)
			ch.volume = uint8(clampMin(int(ch.volume)-int(d), 0))
		} else {
			d := slideNibbles(mem, vc-0x90, true)
			ch.volume = clampMax(ch.volume+d, 64)
		}

	case vc < 0xC0:
		if tick == 0 {
			return period
		}
		if vc < 0xB0 {
			if speed := (vc - 0xA0) << 2; speed != 0 {
				ch.vibspd = speed
			}
		} else {
			if depth := (vc - 0xB0) << 3; depth != 0 {
				ch.vibdep = depth
			}
		}
		return doVibrato(l, ch, period)

	case vc < 0xD0:
		if tick != 0 {
			return period
		}
		pan := (vc - 0xC0) << 4
		if pan == 240 {
			pan = 255
		}
		ch.panning = pan

	case vc < 0xF0:
		if tick == 0 {
			return period
		}
		mem := &ch.memory[masdb.MemXMVolcmdPanningSlide]
		if vc < 0xE0 {
			d := slideNibbles(mem, vc-0xD0, true)
			ch.panning = uint8(clampMin(int(ch.panning)-int(d)<<2, 0))
		} else {
			d := slideNibbles(mem, vc-0xE0, false)
			ch.panning = uint8(clampMax(int(ch.panning)+int(d)<<2, 255))
		}

	default:
		if tick == 0 {
			return period
		}
		if speed := (vc - 0xF0) << 4; speed != 0 {
			ch.memory[masdb.MemXMVolcmdGlissando] = speed
		}
		return e.glissandoTo(l, ch, v, ch.memory[masdb.MemXMVolcmdGlissando], period)
	}

	return period
}

func (e *Engine) processVolcmdIT(l *layer, ch *moduleChannel, v *activeChannel, period uint32) uint32 {
	vc := ch.volcmd
	tick := l.tick
	mem := &ch.memory[masdb.MemITVolcmd]

	recall := func(x uint8) uint8 {
		if x == 0 {
			return *mem
		}
		*mem = x
		return x
	}

	switch {
	case vc <= 64:
		if tick == 0 {
			ch.volume = vc
		}

	case vc <= 84:
		if tick != 0 {
			return period
		}
		if vc < 75 {
			ch.volume = clampMax(ch.volume+recall(vc-65), 64)
		} else {
			ch.volume = uint8(clampMin(int(ch.volume)-int(recall(vc-75)), 0))
		}

	case vc <= 104:
		if tick == 0 {
			return period
		}
		if vc < 95 {
			ch.volume = clampMax(ch.volume+recall(vc-85), 64)
		} else {
			ch.volume = uint8(clampMin(int(ch.volume)-int(recall(vc-95)), 0))
		}

	case vc <= 124:
		if tick == 0 {
			return period
		}
		linear := l.flags.Contains(masfile.FlagLinearFreq)
		porta := &ch.memory[masdb.MemITPorta]
		var next uint32
		if vc >= 115 {
			if speed := (vc - 115) << 2; speed != 0 {
				*porta = speed
			}
			next = pitchSlideUp(ch.period, uint32(*porta), linear)
		} else {
			if speed := (vc - 105) << 2; speed != 0 {
				*porta = speed
			}
			next = pitchSlideDown(ch.period, uint32(*porta), linear)
		}
		delta := int64(next) - int64(ch.period)
		ch.period = next
		return shiftPeriod(period, delta)

	case vc <= 192:
		if tick == 0 {
			ch.panning = uint8(clampMax(int(vc-128)<<2, 255))
		}

	case vc <= 202:
		if tick == 0 {
			return period
		}
		speed := masdb.GlissandoVolcmdSpeeds[vc-193]
		if l.flags.Contains(masfile.FlagLinkGxx) {
			if speed == 0 {
				speed = ch.memory[masdb.MemITPorta]
			}
			ch.memory[masdb.MemITPorta] = speed
		} else if speed == 0 {
			speed = ch.memory[masdb.MemGlissando]
		}
		ch.memory[masdb.MemGlissando] = speed
		return e.glissandoTo(l, ch, v, speed, period)

	case vc <= 212:
		if tick == 0 {
			return period
		}
		if speed := (vc - 203) << 2; speed != 0 {
			ch.vibspd = speed
		}
		return doVibrato(l, ch, period)
	}

	return period
}

// shiftPeriod applies a slide delta without wrapping below zero.
func shiftPeriod(period uint32, delta int64) uint32 {
	return uint32(clampMin(int64(period)+delta, 0))
}
