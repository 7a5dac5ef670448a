package xmdb

import (
	"github.com/quasilyte/mas/internal/masdb"
	"github.com/quasilyte/mas/masfile"
	"github.com/quasilyte/mas/xmfile"
)

// Effect is an engine effect command.
type Effect struct {
	Op  uint8
	Arg uint8
}

// ConvertNote maps an XM note (1-96 or key-off) to the engine note.
// XM C-4 becomes C-5, the note that plays a sample at its base rate.
func ConvertNote(note uint8) (uint8, bool) {
	switch {
	case note == 0:
		return 0, false
	case note == xmfile.NoteKeyOff:
		return masfile.NoteOff, true
	case note > xmfile.NoteKeyOff:
		return 0, false
	default:
		return note - 1 + 12, true
	}
}

// ConvertVolume maps the XM volume column byte.
// The engine runs XM volume commands natively, so the value is kept as is.
func ConvertVolume(v uint8) (uint8, bool) {
	if v < 0x10 || (v > 0x50 && v < 0x60) {
		return 0, false
	}
	return v, true
}

// ConvertEffect translates the XM effect column into an engine effect.
// Effects the engine has no use for are reported as absent.
func ConvertEffect(n xmfile.PatternNote) (Effect, bool) {
	arg := n.EffectParameter

	switch n.EffectType {
	case 0x00:
		if arg == 0 {
			return Effect{}, false
		}
		return Effect{Op: masdb.EffectArpeggio, Arg: arg}, true

	case 0x01:
		return Effect{Op: masdb.EffectPortamentoUp, Arg: min(arg, 0xDF)}, true

	case 0x02:
		return Effect{Op: masdb.EffectPortamentoDown, Arg: min(arg, 0xDF)}, true

	case 0x03:
		return Effect{Op: masdb.EffectGlissando, Arg: arg}, true

	case 0x04:
		return Effect{Op: masdb.EffectVibrato, Arg: arg}, true

	case 0x05:
		return Effect{Op: masdb.EffectPortaVolume, Arg: slideArg(arg)}, true

	case 0x06:
		return Effect{Op: masdb.EffectVibratoVolume, Arg: slideArg(arg)}, true

	case 0x07:
		return Effect{Op: masdb.EffectTremolo, Arg: arg}, true

	case 0x08:
		return Effect{Op: masdb.EffectSetPanning, Arg: arg}, true

	case 0x09:
		return Effect{Op: masdb.EffectSampleOffset, Arg: arg}, true

	case 0x0A:
		return Effect{Op: masdb.EffectVolumeSlide, Arg: slideArg(arg)}, true

	case 0x0B:
		return Effect{Op: masdb.EffectPositionJump, Arg: arg}, true

	case 0x0C:
		return Effect{Op: masdb.EffectSetVolume, Arg: arg}, true

	case 0x0D:
		// The row number is stored as BCD.
		return Effect{Op: masdb.EffectPatternBreak, Arg: (arg>>4)*10 + arg&0xF}, true

	case 0x0E:
		return convertExtended(arg)

	case 0x0F:
		switch {
		case arg == 0:
			return Effect{}, false
		case arg < 0x20:
			return Effect{Op: masdb.EffectSetSpeed, Arg: arg}, true
		default:
			return Effect{Op: masdb.EffectTempo, Arg: arg}, true
		}

	case 'G' - 'A' + 10:
		return Effect{Op: masdb.EffectGlobalVolume, Arg: arg}, true

	case 'H' - 'A' + 10:
		return Effect{Op: masdb.EffectGlobalVolumeSlide, Arg: slideArg(arg)}, true

	case 'K' - 'A' + 10:
		return Effect{Op: masdb.EffectKeyOff, Arg: arg}, true

	case 'L' - 'A' + 10:
		return Effect{Op: masdb.EffectEnvelopePos, Arg: arg}, true

	case 'P' - 'A' + 10:
		return Effect{Op: masdb.EffectPanningSlide, Arg: slideArg(arg)}, true

	case 'R' - 'A' + 10:
		return Effect{Op: masdb.EffectRetrigger, Arg: arg}, true

	case 'T' - 'A' + 10:
		return Effect{Op: masdb.EffectOldTremor, Arg: arg}, true

	case 'X' - 'A' + 10:
		switch arg >> 4 {
		case 1:
			return Effect{Op: masdb.EffectPortamentoUp, Arg: 0xE0 | arg&0xF}, true
		case 2:
			return Effect{Op: masdb.EffectPortamentoDown, Arg: 0xE0 | arg&0xF}, true
		}
	}

	return Effect{}, false
}

func convertExtended(arg uint8) (Effect, bool) {
	x := arg & 0xF
	switch arg >> 4 {
	case 0x1:
		return Effect{Op: masdb.EffectPortamentoUp, Arg: 0xF0 | x}, true
	case 0x2:
		return Effect{Op: masdb.EffectPortamentoDown, Arg: 0xF0 | x}, true
	case 0x6:
		return Effect{Op: masdb.EffectExtended, Arg: 0xB0 | x}, true
	case 0x8:
		return Effect{Op: masdb.EffectExtended, Arg: 0x80 | x}, true
	case 0x9:
		return Effect{Op: masdb.EffectExtended, Arg: 0x20 | x}, true
	case 0xA:
		return Effect{Op: masdb.EffectExtended, Arg: 0x00 | x}, true
	case 0xB:
		return Effect{Op: masdb.EffectExtended, Arg: 0x10 | x}, true
	case 0xC:
		return Effect{Op: masdb.EffectExtended, Arg: 0xC0 | x}, true
	case 0xD:
		return Effect{Op: masdb.EffectExtended, Arg: 0xD0 | x}, true
	case 0xE:
		return Effect{Op: masdb.EffectExtended, Arg: 0xE0 | x}, true
	}
	// Glissando control, waveforms and finetune are not supported.
	return Effect{}, false
}

// slideArg drops the down speed when both are set; the up slide wins in XM.
func slideArg(arg uint8) uint8 {
	if arg&0xF0 != 0 {
		return arg & 0xF0
	}
	return arg
}
