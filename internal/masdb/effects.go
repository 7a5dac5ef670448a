package masdb

// Effect numbers follow the IT letter order (A=1 ... Z=26).
// XM-only effects are appended after Z.
const (
	EffectNone = iota
	EffectSetSpeed
	EffectPositionJump
	EffectPatternBreak
	EffectVolumeSlide
	EffectPortamentoDown
	EffectPortamentoUp
	EffectGlissando
	EffectVibrato
	EffectTremor
	EffectArpeggio
	EffectVibratoVolume
	EffectPortaVolume
	EffectChannelVolume
	EffectChannelVolumeSlide
	EffectSampleOffset
	EffectPanningSlide
	EffectRetrigger
	EffectTremolo
	EffectExtended
	EffectTempo
	EffectFineVibrato
	EffectGlobalVolume
	EffectGlobalVolumeSlide
	EffectSetPanning
	EffectPanbrello
	EffectMidiMacro
	EffectSetVolume
	EffectKeyOff
	EffectEnvelopePos
	EffectOldTremor

	NumEffects
)

// Effect memory slots. Slot 0 is shared by every glissando source
// (effect G, effect L and the volume column).
const (
	MemGlissando = 0

	MemXMVolumeSlide       = 1
	MemXMPortaDown         = 2
	MemXMPortaUp           = 3
	MemXMTremorIT          = 4
	MemXMVibratoVolume     = 5
	MemXMPortaVolume       = 6
	MemXMSampleOffset      = 7
	MemXMPanningSlide      = 8
	MemXMRetrigger         = 9
	MemXMTremolo           = 10
	MemXMGlobalVolumeSlide = 11
	MemXMTremor            = 12

	// Volume column memory overlaps the effect slots in XM mode.
	MemXMVolcmdPanningSlide = 7
	MemXMVolcmdVolumeSlide  = 12
	MemXMVolcmdFineSlide    = 13
	MemXMVolcmdGlissando    = 14

	MemITVolumeSlide        = 1
	MemITPorta              = 2
	MemITTremor             = 3
	MemITArpeggio           = 4
	MemITChannelVolumeSlide = 5
	MemITSampleOffset       = 6
	MemITPanningSlide       = 7
	MemITRetrigger          = 8
	MemITTremolo            = 9
	MemITExtended           = 10
	MemITTempo              = 11
	MemITGlobalVolumeSlide  = 12
	MemITPanbrello          = 13
	MemITVolcmd             = 14

	NumMemorySlots = 15
)

// NoMemory marks effects whose parameter is used as is.
const NoMemory = -1

// XMEffectMemory maps an effect number to its memory slot in XM mode.
var XMEffectMemory = [NumEffects]int8{
	EffectVolumeSlide:       MemXMVolumeSlide,
	EffectPortamentoDown:    MemXMPortaDown,
	EffectPortamentoUp:      MemXMPortaUp,
	EffectTremor:            MemXMTremorIT,
	EffectVibratoVolume:     MemXMVibratoVolume,
	EffectPortaVolume:       MemXMPortaVolume,
	EffectSampleOffset:      MemXMSampleOffset,
	EffectPanningSlide:      MemXMPanningSlide,
	EffectRetrigger:         MemXMRetrigger,
	EffectTremolo:           MemXMTremolo,
	EffectGlobalVolumeSlide: MemXMGlobalVolumeSlide,
	EffectOldTremor:         MemXMTremor,

	EffectNone:          NoMemory,
	EffectSetSpeed:      NoMemory,
	EffectPositionJump:  NoMemory,
	EffectPatternBreak:  NoMemory,
	EffectGlissando:     NoMemory,
	EffectVibrato:       NoMemory,
	EffectArpeggio:      NoMemory,
	EffectChannelVolume: NoMemory,

	EffectChannelVolumeSlide: NoMemory,
	EffectExtended:           NoMemory,
	EffectTempo:              NoMemory,
	EffectFineVibrato:        NoMemory,
	EffectGlobalVolume:       NoMemory,
	EffectSetPanning:         NoMemory,
	EffectPanbrello:          NoMemory,
	EffectMidiMacro:          NoMemory,
	EffectSetVolume:          NoMemory,
	EffectKeyOff:             NoMemory,
	EffectEnvelopePos:        NoMemory,
}

// ITEffectMemory maps an effect number to its memory slot in IT mode.
// Porta up and down share a slot.
var ITEffectMemory = [NumEffects]int8{
	EffectVolumeSlide:        MemITVolumeSlide,
	EffectPortamentoDown:     MemITPorta,
	EffectPortamentoUp:       MemITPorta,
	EffectTremor:             MemITTremor,
	EffectArpeggio:           MemITArpeggio,
	EffectVibratoVolume:      MemITVolumeSlide,
	EffectPortaVolume:        MemITVolumeSlide,
	EffectChannelVolumeSlide: MemITChannelVolumeSlide,
	EffectSampleOffset:       MemITSampleOffset,
	EffectPanningSlide:       MemITPanningSlide,
	EffectRetrigger:          MemITRetrigger,
	EffectTremolo:            MemITTremolo,
	EffectExtended:           MemITExtended,
	EffectTempo:              MemITTempo,
	EffectGlobalVolumeSlide:  MemITGlobalVolumeSlide,
	EffectPanbrello:          MemITPanbrello,

	EffectNone:          NoMemory,
	EffectSetSpeed:      NoMemory,
	EffectPositionJump:  NoMemory,
	EffectPatternBreak:  NoMemory,
	EffectGlissando:     NoMemory,
	EffectVibrato:       NoMemory,
	EffectChannelVolume: NoMemory,
	EffectFineVibrato:   NoMemory,
	EffectGlobalVolume:  NoMemory,
	EffectSetPanning:    NoMemory,
	EffectMidiMacro:     NoMemory,
	EffectSetVolume:     NoMemory,
	EffectKeyOff:        NoMemory,
	EffectEnvelopePos:   NoMemory,
	EffectOldTremor:     NoMemory,
}

// GlissandoVolcmdSpeeds translates IT volume column G0..G9 into slide speeds.
var GlissandoVolcmdSpeeds = [10]uint8{0, 1, 4, 8, 16, 32, 64, 96, 128, 255}

// MemorySlot returns the effect memory slot for the effect or NoMemory.
func MemorySlot(effect uint8, xmMode bool) int {
	if int(effect) >= NumEffects {
		return NoMemory
	}
	if xmMode {
		return int(XMEffectMemory[effect])
	}
	return int(ITEffectMemory[effect])
}
