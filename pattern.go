package mas

import (
	"github.com/quasilyte/mas/masfile"
)

// readPattern decodes one row of the current pattern.
//
// Only the fields present in the stream are updated, the rest of
// the track state carries over from the previous rows.
// It returns false if the row is corrupt: a track index beyond the
// layer channels or a read past the pattern data. The cursor is left
// untouched in that case.
func (l *layer) readPattern() bool {
	data := l.pattern
	pos := l.cursor
	l.rowStart = pos

	next := func() (uint8, bool) {
		if pos >= len(data) {
			return 0, false
		}
		b := data[pos]
		pos++
		return b, true
	}

	numInstruments := len(l.module.Instruments)
	oldMode := l.flags.Contains(masfile.FlagOldMode)

	var update uint32
	for {
		b, ok := next()
		if !ok {
			return false
		}
		if b&0x7F == 0 {
			break
		}
		index := int(b&0x7F) - 1
		if index >= l.numChannels {
			return false
		}
		update |= 1 << index
		ch := &l.channels[index]

		if b&0x80 != 0 {
			if ch.cflags, ok = next(); !ok {
				return false
			}
		}
		cflags := ch.cflags

		var flags uint8
		if cflags&masfile.FieldNote != 0 {
			note, ok := next()
			if !ok {
				return false
			}
			switch note {
			case masfile.NoteCut:
				flags |= chanNoteCut
			case masfile.NoteOff:
				flags |= chanNoteOff
			default:
				ch.pnoter = note
			}
		}

		if cflags&masfile.FieldInstrument != 0 {
			inst, ok := next()
			if !ok {
				return false
			}
			if flags&(chanNoteCut|chanNoteOff) == 0 {
				if int(inst) > numInstruments {
					inst = 0
				}
				if ch.inst != inst {
					if oldMode {
						flags |= chanStart
					}
					flags |= chanNewInstr
				}
				ch.inst = inst
			}
		}

		if cflags&masfile.FieldVolcmd != 0 {
			if ch.volcmd, ok = next(); !ok {
				return false
			}
		}

		if cflags&masfile.FieldEffect != 0 {
			if ch.effect, ok = next(); !ok {
				return false
			}
			if ch.param, ok = next(); !ok {
				return false
			}
		}

		ch.flags = flags | cflags>>4
	}

	l.cursor = pos
	l.updateMask = update
	return true
}
