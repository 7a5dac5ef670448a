package mas

import (
	"github.com/quasilyte/mas/internal/masdb"
)

// maxPeriod is the upper clip of every slide (1.0 in 11.21 fixed point).
const maxPeriod = 1 << (16 + 5)

// Amiga period to Hz dividers.
// The plain one inverts AmigaPeriodTable exactly (C-5 at tuning T plays T Hz);
// modules converted from MOD use the PAL clock.
const (
	amigaDivider    = (1712 * 8 * masdb.AmigaPeriodScale) >> 5
	amigaDividerPAL = 56750314
)

// periodFor converts a note into a playback period.
//
// With linear frequencies the period is a 16.16 frequency ratio and tuning is ignored.
// With Amiga periods the value is inversely proportional to the pitch;
// tuning is the sample C-5 rate in Hz.
func periodFor(note uint8, tuning uint32, linear bool) uint32 {
	if int(note) >= len(masdb.LinearNoteTable) {
		note = uint8(len(masdb.LinearNoteTable) - 1)
	}
	if linear {
		return masdb.LinearNoteTable[note]
	}
	period := (masdb.AmigaPeriodTable[note%12] * masdb.AmigaPeriodScale) >> (note / 12)
	if tuning != 0 {
		period /= tuning
	}
	return period
}

// periodToHz converts a period into the mixer frequency.
func periodToHz(period, c5rate uint32, linear, palClock bool) uint32 {
	if linear {
		return uint32((uint64(period>>8) * uint64(c5rate)) >> 8)
	}
	if period == 0 {
		return 0
	}
	if palClock {
		return amigaDividerPAL / period
	}
	return amigaDivider / period
}

// psu multiplies the period by 2^(v/192).
func psu(period, v uint32) uint32 {
	p := uint64(period)
	for v >= 192 {
		p *= 2
		v -= 192
	}
	p += ((p >> 5) * uint64(masdb.LinearSlideUpTable[v])) >> (16 - 5)
	if p > maxPeriod {
		return maxPeriod
	}
	return uint32(p)
}

// psd multiplies the period by 2^(-v/192).
// The result can reach zero but never wraps.
func psd(period, v uint32) uint32 {
	p := uint64(period)
	for v > 256 {
		p >>= 1
		v -= 192
	}
	return uint32(((p >> 5) * uint64(masdb.LinearSlideDownTable[v])) >> (16 - 5))
}

func amigaSlideUp(period, delta uint32) uint32 {
	if delta > period {
		return 0
	}
	return period - delta
}

func amigaSlideDown(period, delta uint32) uint32 {
	return clampMax(period+delta, maxPeriod)
}

// pitchSlideUp raises the pitch by v (1/64 semitone steps in linear mode).
func pitchSlideUp(period, v uint32, linear bool) uint32 {
	if linear {
		return psu(period, v)
	}
	return amigaSlideUp(period, v<<4)
}

// pitchSlideDown lowers the pitch by v.
func pitchSlideDown(period, v uint32, linear bool) uint32 {
	if linear {
		return psd(period, v)
	}
	return amigaSlideDown(period, v<<4)
}

// finePitchSlideUp is a low resolution slide; v is in [0, 15].
func finePitchSlideUp(period, v uint32, linear bool) uint32 {
	v &= 0xF
	if linear {
		p := uint64(period)
		p += ((p >> 5) * uint64(masdb.FineLinearSlideUpTable[v])) >> (16 - 5)
		return uint32(clampMax(p, maxPeriod))
	}
	return amigaSlideUp(period, v<<2)
}

func finePitchSlideDown(period, v uint32, linear bool) uint32 {
	v &= 0xF
	if linear {
		p := uint64(period)
		return uint32(((p >> 5) * uint64(masdb.FineLinearSlideDownTable[v])) >> (16 - 5))
	}
	return amigaSlideDown(period, v<<2)
}

// linearPitchSlideUp always applies a ratio, even to Amiga periods.
// Amiga periods shrink as the pitch grows, so the tables are swapped there.
func linearPitchSlideUp(period, v uint32, linear bool) uint32 {
	if linear {
		return psu(period, v)
	}
	return psd(period, v)
}

func linearPitchSlideDown(period, v uint32, linear bool) uint32 {
	if linear {
		return psd(period, v)
	}
	return psu(period, v)
}
