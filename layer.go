package mas

import (
	"github.com/quasilyte/mas/masfile"
)

// Layer selects one of the two independent playback layers.
type Layer int

const (
	// LayerMain plays the background music.
	LayerMain Layer = iota

	// LayerJingle plays short songs on top of the main layer.
	// It has at most 4 channels and ignores the tempo and pitch multipliers.
	LayerJingle
)

func (l Layer) String() string {
	switch l {
	case LayerMain:
		return "main"
	case LayerJingle:
		return "jingle"
	default:
		return "?"
	}
}

// PlayMode controls what happens when the order list ends.
type PlayMode int

const (
	// PlayLoop restarts from the module repeat position.
	PlayLoop PlayMode = iota

	// PlayOnce stops the layer and reports EventSongFinished.
	PlayOnce
)

// layer is the sequencer state of a playing module.
type layer struct {
	id    Layer
	owner voiceFlags

	module *masfile.Module
	mode   PlayMode
	flags  masfile.Flags

	channels    []moduleChannel
	numChannels int
	updateMask  uint32

	clock tickClock

	valid   bool
	playing bool

	// volume is the layer volume multiplier (0-1024).
	volume uint32

	globalVolume uint8
	speed        uint8
	bpm          uint8

	position int
	rows     int
	row      int
	tick     uint8
	pattern  []byte
	cursor   int
	rowStart int

	patternDelay     uint8
	finePatternDelay uint8

	patternJump uint8
	jumpRow     uint8

	loopJump   bool
	loopCursor int
	loopRow    int
	loopTimes  uint8
}

func (e *Engine) startLayer(l *layer, m *masfile.Module, mode PlayMode) {
	l.module = m
	l.mode = mode
	l.numChannels = min(m.NumChannels, cap(l.channels))
	l.channels = l.channels[:l.numChannels]
	e.resetChannels(l)

	l.flags = m.Flags
	l.globalVolume = m.GlobalVolume
	l.speed = m.InitialSpeed
	l.patternJump = 255
	l.jumpRow = 0
	l.loopJump = false

	for i := range l.channels {
		ch := &l.channels[i]
		if i < len(m.ChannelVolume) {
			ch.cvolume = m.ChannelVolume[i]
		}
		if i < len(m.ChannelPanning) {
			ch.panning = m.ChannelPanning[i]
		}
	}

	l.playing = true
	l.valid = true
	l.clock.reset()
	e.setBPM(l, m.InitialTempo)
	e.setPosition(l, 0)
}

func (e *Engine) stopLayer(l *layer) {
	l.playing = false
	l.valid = false
	e.resetChannels(l)
}

// resetChannels clears the tracks and releases every voice of the layer.
func (e *Engine) resetChannels(l *layer) {
	for i := range l.channels {
		l.channels[i].reset()
	}
	for i := range e.voices {
		v := &e.voices[i]
		if v.kind == voiceDisabled || v.kind == voiceReserved || v.owner() != l.owner {
			continue
		}
		*v = activeChannel{}
		e.mixers[i].stop()
	}
}

// suspend silences the layer voices while keeping their state.
func (e *Engine) suspend(l *layer) {
	for i := range e.voices {
		v := &e.voices[i]
		if v.kind == voiceDisabled || v.kind == voiceReserved || v.owner() != l.owner {
			continue
		}
		e.mixers[i].freq = 0
		e.mixers[i].vol = 0
	}
}

func (e *Engine) setBPM(l *layer, bpm uint8) {
	bpm = clamp(bpm, 32, 255)
	l.bpm = bpm
	scale := uint32(1024)
	if l.id == LayerMain {
		scale = e.masterTempo
	}
	l.clock.setTempo(uint32(bpm), scale)
}

// setPosition moves the layer to the given order entry.
// Skip markers are passed over, the end of the order list either
// stops the layer or wraps it to the repeat position.
func (e *Engine) setPosition(l *layer, position int) {
	m := l.module
	for iterations := 0; ; iterations++ {
		if iterations > 2*masfile.MaxOrders+2 {
			e.songError(l, "order list has no playable entries")
			return
		}
		if position >= m.NumOrders || position >= len(m.Sequence) || m.Sequence[position] == masfile.SequenceEnd {
			if l.mode == PlayOnce {
				e.logger.Debug("song finished", "layer", l.id)
				e.stopLayer(l)
				e.emit(Event{Kind: EventSongFinished, Layer: l.id})
				return
			}
			position = int(m.RepeatPosition)
			continue
		}
		if m.Sequence[position] == masfile.SequenceSkip {
			position++
			continue
		}
		break
	}

	index := int(m.Sequence[position])
	if index >= len(m.Patterns) {
		e.songError(l, "order refers to a missing pattern")
		return
	}
	p := &m.Patterns[index]
	l.position = position
	l.pattern = p.Data
	l.rows = p.Rows
	l.tick = 0
	l.row = 0
	l.finePatternDelay = 0
	l.patternDelay = 0
	l.cursor = 0
	l.loopCursor = 0
	l.loopRow = 0
	l.loopTimes = 0
}

// fastForward skips rows of the current pattern without running any effects.
func (e *Engine) fastForward(l *layer, rows int) {
	if rows == 0 || rows > l.rows-1 {
		return
	}
	l.row = rows
	for i := 0; i < rows; i++ {
		if !l.readPattern() {
			e.songError(l, "corrupt pattern data")
			return
		}
	}
}

func (e *Engine) songError(l *layer, reason string) {
	e.logger.Warn("module playback failed",
		"reason", reason,
		"layer", l.id,
		"position", l.position,
		"row", l.row)
	e.stopLayer(l)
	e.emit(Event{Kind: EventSongError, Layer: l.id})
}

// processTick runs one sequencer tick of the layer.
func (e *Engine) processTick(l *layer) {
	if !l.playing {
		return
	}

	if l.patternDelay == 0 && l.tick == 0 {
		if !l.readPattern() {
			e.songError(l, "corrupt pattern data")
			return
		}
	}

	for i := 0; i < l.numChannels; i++ {
		if l.updateMask&(1<<i) == 0 {
			continue
		}
		if l.tick == 0 {
			e.updateChannelT0(l, i)
		} else {
			e.updateChannelTN(l, i)
		}
		if !l.playing {
			return
		}
	}

	for i := range e.voices {
		v := &e.voices[i]
		if v.kind != voiceDisabled && v.kind != voiceReserved && v.owner() == l.owner {
			if !v.flags.Contains(voiceUpdated) {
				e.fx.afvol = int(v.volume)
				e.fx.panplus = 0
				e.updateVoice(l, uint8(i), v.period)
			}
		}
		v.flags &^= voiceUpdated
	}

	e.advanceRow(l)
}

func (e *Engine) advanceRow(l *layer) {
	if int(l.tick)+1 < int(l.speed)+int(l.finePatternDelay) {
		l.tick++
		return
	}
	l.finePatternDelay = 0

	if l.patternDelay != 0 {
		l.patternDelay--
		if l.patternDelay != 0 {
			l.tick = 0
			return
		}
	}

	l.tick = 0

	if l.patternJump != 255 {
		position := int(l.patternJump)
		row := int(l.jumpRow)
		l.patternJump = 255
		l.jumpRow = 0
		e.setPosition(l, position)
		if row != 0 && l.playing {
			e.fastForward(l, row)
		}
		return
	}

	if l.loopJump {
		l.loopJump = false
		l.row = l.loopRow
		l.cursor = l.loopCursor
		return
	}

	if l.row+1 >= l.rows {
		e.setPosition(l, l.position+1)
		return
	}
	l.row++
}
