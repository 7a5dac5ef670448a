package mas

import (
	"github.com/quasilyte/mas/internal/masdb"
	"github.com/quasilyte/mas/masfile"
)

// noChannel is a voice index sentinel.
const noChannel = 255

const (
	mainChannels   = masfile.MaxChannels
	jingleChannels = 4
)

// Module channel flags.
// The low nibble mirrors the row flags stored in the pattern stream.
const (
	chanStart      = 1 << 0
	chanDefaultVol = 1 << 1
	chanHasVolcmd  = 1 << 2
	chanHasEffect  = 1 << 3
	chanNewInstr   = 1 << 4
	chanNoteOff    = 1 << 6
	chanNoteCut    = 1 << 7
)

// moduleChannel is the persistent state of a single pattern track.
type moduleChannel struct {
	alloc uint8

	cflags uint8
	flags  uint8

	pnoter uint8
	note   uint8
	inst   uint8
	volcmd uint8
	effect uint8
	param  uint8

	volume  uint8
	cvolume uint8
	panning uint8
	period  uint32

	nna masfile.NewNoteAction

	fxmem     uint8
	tremorOff bool

	vibspd uint8
	vibdep uint8
	vibpos uint8

	memory [masdb.NumMemorySlots]uint8
}

func (ch *moduleChannel) reset() {
	*ch = moduleChannel{alloc: noChannel}
}

type voiceType uint8

// The order matters: the allocator never evicts voices above voiceBackground.
const (
	voiceDisabled voiceType = iota
	voiceReserved
	voiceBackground
	voiceForeground
	voiceCustom
)

type voiceFlags uint8

const (
	voiceKeyOn voiceFlags = 1 << iota
	voiceFade
	voiceStart
	voiceUpdated
	voiceEnvEnd
	voiceVolEnv
	voiceSub
	voiceEffect
)

func (f voiceFlags) Contains(v voiceFlags) bool { return f&v != 0 }

// layerMask selects the flags that identify the voice owner.
const layerMask = voiceSub | voiceEffect

// activeChannel is a voice: a mixer slot owned by a track or a sound effect.
type activeChannel struct {
	period uint32
	fade   uint16

	envCountVol   uint16
	envCountPan   uint16
	envCountPitch uint16
	envNodeVol    uint8
	envNodePan    uint8
	envNodePitch  uint8

	avibDepth uint16
	avibPos   uint8

	// fvol is the final volume; the allocator evicts the quietest background voice.
	fvol uint8

	kind   voiceType
	flags  voiceFlags
	parent uint8
	inst   uint8
	sample uint8

	volume  uint8
	panning uint8
}

// owner reports the layer a music voice belongs to.
// Sound effect voices never match a layer.
func (v *activeChannel) owner() voiceFlags {
	return v.flags & layerMask
}

// mixerChannel is the state read by the sample mixer.
type mixerChannel struct {
	// sample is nil when the channel is stopped.
	sample *masfile.Sample

	// read is the sample cursor with 12 fractional bits.
	read uint64

	// freq is the playback rate in Hz.
	freq uint32

	vol uint8
	pan uint8

	// cvol is the ramped volume used when volume ramping is enabled.
	cvol uint8
}

func (m *mixerChannel) stop() {
	m.sample = nil
}
