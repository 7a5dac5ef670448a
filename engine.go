package mas

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/quasilyte/mas/masfile"
)

// MaxVoices is the upper bound of Config.NumVoices.
const MaxVoices = 32

var (
	ErrInvalidConfig = errors.New("invalid engine config")
	ErrUnknownModule = errors.New("unknown module")
)

// Config configures the engine.
//
// These settings can't be changed after the engine is created.
type Config struct {
	// SampleRate is the output rate in Hz.
	// If you're using Ebitengine, it's the same value that
	// was used to create an audio context.
	//
	// A zero value will assume a sample rate of 44100.
	SampleRate int

	// FrameRate is the rate of Frame calls per second.
	// It paces the jingle layer and defines SamplesPerFrame.
	//
	// A zero value means 59.737 (the GBA refresh rate).
	FrameRate float64

	// NumVoices is the size of the voice pool shared by
	// both layers and sound effects.
	//
	// A zero value means 16. Values above MaxVoices are rejected.
	NumVoices int

	// VolumeRamping smooths volume changes and keeps cut notes
	// fading out on a background voice instead of clicking.
	VolumeRamping bool

	// Logger receives song errors (Warn) and playback state changes (Debug).
	//
	// A nil value means slog.Default().
	Logger *slog.Logger
}

// Engine plays modules from a sound bank and mixes sound effects on top.
//
// The engine is single-threaded. Use Stream when the audio device pulls
// samples from another goroutine.
type Engine struct {
	bank   *masfile.Bank
	config Config
	logger *slog.Logger

	layers [2]layer
	voices []activeChannel
	mixers []mixerChannel

	sfx sfxState

	// 6.10 fixed point multipliers of the main layer.
	masterTempo uint32
	masterPitch uint32

	eventHandler func(ev Event)

	fx tickVars

	samplesPerFrame int
	front           []int16
	back            []int16
	mixBuf          []int32
}

// Info contains the engine pool sizes and its approximate memory usage.
type Info struct {
	NumVoices       int
	SampleRate      int
	SamplesPerFrame int

	// MemoryUsage approximates the engine state size in bytes.
	// The sound bank is not included.
	MemoryUsage uint
}

// NewEngine allocates an engine that plays modules and samples of the bank.
func NewEngine(bank *masfile.Bank, config Config) (*Engine, error) {
	if bank == nil {
		return nil, fmt.Errorf("%w: nil bank", ErrInvalidConfig)
	}
	applyConfigDefaults(&config)

	if config.NumVoices < 0 || config.NumVoices > MaxVoices {
		return nil, fmt.Errorf("%w: %d voices requested (max %d)", ErrInvalidConfig, config.NumVoices, MaxVoices)
	}
	if config.SampleRate < 1000 || config.SampleRate > 192000 {
		return nil, fmt.Errorf("%w: unsupported sample rate %d", ErrInvalidConfig, config.SampleRate)
	}
	if config.FrameRate < 1 || config.FrameRate > float64(config.SampleRate) {
		return nil, fmt.Errorf("%w: unsupported frame rate %g", ErrInvalidConfig, config.FrameRate)
	}

	spf := int(math.Round(float64(config.SampleRate) / config.FrameRate))
	e := &Engine{
		bank:            bank,
		config:          config,
		logger:          config.Logger,
		voices:          make([]activeChannel, config.NumVoices),
		mixers:          make([]mixerChannel, config.NumVoices),
		masterTempo:     1024,
		masterPitch:     1024,
		samplesPerFrame: spf,
		front:           make([]int16, 2*spf),
		back:            make([]int16, 2*spf),
		mixBuf:          make([]int32, 2*spf),
	}
	e.sfx.master = 1024

	e.layers[LayerMain] = layer{
		id:       LayerMain,
		channels: make([]moduleChannel, 0, mainChannels),
		clock:    &sampleClock{sampleRate: uint64(config.SampleRate)},
		volume:   1024,
	}
	e.layers[LayerJingle] = layer{
		id:       LayerJingle,
		owner:    voiceSub,
		channels: make([]moduleChannel, 0, jingleChannels),
		clock:    &frameClock{frameRate: config.FrameRate},
		volume:   1024,
	}

	return e, nil
}

func applyConfigDefaults(config *Config) {
	if config.SampleRate == 0 {
		config.SampleRate = 44100
	}
	if config.FrameRate == 0 {
		config.FrameRate = 59.737
	}
	if config.NumVoices == 0 {
		config.NumVoices = 16
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
}

// Info returns the engine pool sizes and memory usage.
func (e *Engine) Info() Info {
	return Info{
		NumVoices:       len(e.voices),
		SampleRate:      e.config.SampleRate,
		SamplesPerFrame: e.samplesPerFrame,
		MemoryUsage:     engineSize(e),
	}
}

// Start plays the bank module on the main layer.
// A module that is already playing is replaced.
func (e *Engine) Start(moduleID int, mode PlayMode) error {
	return e.start(&e.layers[LayerMain], moduleID, mode)
}

// StartJingle plays the bank module once on the jingle layer.
// The jingle layer has 4 channels: a module that writes to a higher
// channel stops the layer with EventSongError.
func (e *Engine) StartJingle(moduleID int) error {
	return e.start(&e.layers[LayerJingle], moduleID, PlayOnce)
}

func (e *Engine) start(l *layer, moduleID int, mode PlayMode) error {
	m := e.bank.Module(moduleID)
	if m == nil {
		return fmt.Errorf("%w: id %d (the bank has %d modules)", ErrUnknownModule, moduleID, e.bank.NumModules())
	}
	e.logger.Debug("start module", "layer", l.id, "module", moduleID, "mode", mode)
	e.startLayer(l, m, mode)
	return nil
}

// Stop stops the main layer and frees its voices.
func (e *Engine) Stop() { e.stop(&e.layers[LayerMain]) }

// StopJingle stops the jingle layer and frees its voices.
func (e *Engine) StopJingle() { e.stop(&e.layers[LayerJingle]) }

func (e *Engine) stop(l *layer) {
	if l.valid {
		e.logger.Debug("stop module", "layer", l.id)
	}
	e.stopLayer(l)
}

// Pause suspends the main layer keeping its state.
func (e *Engine) Pause() { e.pause(&e.layers[LayerMain]) }

// Resume continues the main layer after Pause.
func (e *Engine) Resume() { e.resume(&e.layers[LayerMain]) }

func (e *Engine) PauseJingle() { e.pause(&e.layers[LayerJingle]) }

func (e *Engine) ResumeJingle() { e.resume(&e.layers[LayerJingle]) }

func (e *Engine) pause(l *layer) {
	if !l.valid {
		return
	}
	l.playing = false
	e.suspend(l)
}

func (e *Engine) resume(l *layer) {
	if !l.valid {
		return
	}
	l.playing = true
}

// IsActive reports whether the main layer is playing.
func (e *Engine) IsActive() bool { return e.layers[LayerMain].playing }

// IsJingleActive reports whether the jingle layer is playing.
func (e *Engine) IsJingleActive() bool { return e.layers[LayerJingle].playing }

// IsPaused reports whether the main layer has a module that is paused.
func (e *Engine) IsPaused() bool {
	l := &e.layers[LayerMain]
	return l.valid && !l.playing
}

// SetModuleVolume sets the main layer volume in [0, 1024].
func (e *Engine) SetModuleVolume(v int) {
	e.layers[LayerMain].volume = uint32(clamp(v, 0, 1024))
}

// SetJingleVolume sets the jingle layer volume in [0, 1024].
func (e *Engine) SetJingleVolume(v int) {
	e.layers[LayerJingle].volume = uint32(clamp(v, 0, 1024))
}

// SetTempo sets the main layer tempo multiplier (6.10 fixed point, [512, 2048]).
func (e *Engine) SetTempo(tempo int) {
	e.masterTempo = uint32(clamp(tempo, 512, 2048))
	if l := &e.layers[LayerMain]; l.valid {
		e.setBPM(l, l.bpm)
	}
}

// SetPitch sets the main layer pitch multiplier (6.10 fixed point, [512, 2048]).
func (e *Engine) SetPitch(pitch int) {
	e.masterPitch = uint32(clamp(pitch, 512, 2048))
}

// Position returns the main layer order list position.
func (e *Engine) Position() int { return e.layers[LayerMain].position }

// Row returns the main layer pattern row.
func (e *Engine) Row() int { return e.layers[LayerMain].row }

// Tick returns the main layer tick within the row.
func (e *Engine) Tick() int { return int(e.layers[LayerMain].tick) }

// SetPosition moves the main layer to the order list position.
func (e *Engine) SetPosition(position int) {
	l := &e.layers[LayerMain]
	if !l.valid || position < 0 {
		return
	}
	l.patternJump = 255
	l.jumpRow = 0
	l.loopJump = false
	e.setPosition(l, position)
}
