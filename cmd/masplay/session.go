package main

import (
	"fmt"
	"log/slog"

	"github.com/quasilyte/mas"
	"github.com/quasilyte/mas/masfile"
	"github.com/urfave/cli"
)

// session is a playing bank shared by all backends.
//
// The engine is accessed through the stream lock: audio players
// read the stream from their own goroutines.
type session struct {
	logger *slog.Logger
	stream *mas.Stream
	bank   *masfile.Bank
	info   mas.Info

	// events receives engine events without blocking the mixer.
	events chan mas.Event

	filename   string
	nextSample int

	// 6.10 fixed point multipliers.
	tempo int
	pitch int
}

type sessionStatus struct {
	Position     int
	Row          int
	Tick         int
	Paused       bool
	Active       bool
	JingleActive bool
}

func newSession(c *cli.Context, logger *slog.Logger) (*session, error) {
	bank, err := loadBank(c.Args())
	if err != nil {
		return nil, fmt.Errorf("load bank: %w", err)
	}

	engine, err := mas.NewEngine(bank, mas.Config{
		SampleRate:    c.Int("rate"),
		NumVoices:     c.Int("voices"),
		VolumeRamping: !c.Bool("no-ramping"),
		Logger:        logger,
	})
	if err != nil {
		return nil, err
	}

	s := &session{
		logger:   logger,
		bank:     bank,
		info:     engine.Info(),
		events:   make(chan mas.Event, 16),
		filename: c.Args().Get(0),
		tempo:    clamp(c.Int("tempo"), 512, 2048),
		pitch:    clamp(c.Int("pitch"), 512, 2048),
	}
	engine.SetEventHandler(func(ev mas.Event) {
		select {
		case s.events <- ev:
		default:
		}
	})

	mode := mas.PlayLoop
	if c.Bool("once") {
		mode = mas.PlayOnce
	}
	engine.SetTempo(s.tempo)
	engine.SetPitch(s.pitch)
	if err := engine.Start(0, mode); err != nil {
		return nil, err
	}

	s.stream = mas.NewStream(engine)

	logger.Info("bank loaded",
		"modules", bank.NumModules(),
		"samples", bank.NumSamples(),
		"voices", s.info.NumVoices,
		"memory", s.info.MemoryUsage)

	return s, nil
}

// drainEvents logs the pending events and reports whether the song is over.
func (s *session) drainEvents() bool {
	finished := false
	for {
		select {
		case ev := <-s.events:
			s.logger.Info("engine event", "kind", ev.Kind, "layer", ev.Layer, "param", ev.Param)
			if ev.Layer == mas.LayerMain && (ev.Kind == mas.EventSongFinished || ev.Kind == mas.EventSongError) {
				finished = true
			}
		default:
			return finished
		}
	}
}

func (s *session) status() sessionStatus {
	var st sessionStatus
	s.stream.Do(func(e *mas.Engine) {
		st = sessionStatus{
			Position:     e.Position(),
			Row:          e.Row(),
			Tick:         e.Tick(),
			Paused:       e.IsPaused(),
			Active:       e.IsActive(),
			JingleActive: e.IsJingleActive(),
		}
	})
	return st
}

func (s *session) togglePause() {
	s.stream.Do(func(e *mas.Engine) {
		if e.IsPaused() {
			e.Resume()
		} else {
			e.Pause()
		}
	})
}

// playSample plays the next bank sample as a sound effect.
func (s *session) playSample() {
	if s.bank.NumSamples() == 0 {
		return
	}
	id := s.nextSample % s.bank.NumSamples()
	s.nextSample++
	var h mas.EffectHandle
	s.stream.Do(func(e *mas.Engine) {
		h = e.PlaySample(id)
	})
	s.logger.Debug("play sample", "id", id, "handle", h)
}

func (s *session) cancelEffects() {
	s.stream.Do(func(e *mas.Engine) {
		e.CancelAllEffects()
	})
}

func (s *session) playJingle() {
	if s.bank.NumModules() < 2 {
		return
	}
	var err error
	s.stream.Do(func(e *mas.Engine) {
		err = e.StartJingle(1)
	})
	if err != nil {
		s.logger.Error("start jingle", "error", err)
	}
}

// adjust changes the tempo or pitch multiplier by delta.
func (s *session) adjust(tempo, pitch int) {
	s.stream.Do(func(e *mas.Engine) {
		if tempo != 0 {
			s.tempo = clamp(s.tempo+tempo, 512, 2048)
			e.SetTempo(s.tempo)
		}
		if pitch != 0 {
			s.pitch = clamp(s.pitch+pitch, 512, 2048)
			e.SetPitch(s.pitch)
		}
	})
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
