package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/quasilyte/mas"
	"github.com/urfave/cli"
	"golang.org/x/term"
)

func newOtoPlayer(s *session) (*oto.Player, error) {
	op := &oto.NewContextOptions{
		SampleRate:   s.info.SampleRate,
		ChannelCount: 2,
		Format:       oto.FormatSignedInt16LE,
	}

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, err
	}
	<-ready

	return ctx.NewPlayer(s.stream), nil
}

// runHeadless plays the module through oto until it ends or the process is interrupted.
func runHeadless(c *cli.Context, logger *slog.Logger) error {
	s, err := newSession(c, logger)
	if err != nil {
		return err
	}

	player, err := newOtoPlayer(s)
	if err != nil {
		return err
	}
	defer player.Close()
	player.Play()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	// The progress line is only useful when a human is watching.
	interactive := term.IsTerminal(int(os.Stdout.Fd()))

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-sig:
			logger.Info("interrupted")
			return nil
		case <-ticker.C:
			if s.drainEvents() {
				logger.Info("song finished", "file", s.filename)
				return nil
			}
			if interactive {
				st := s.status()
				fmt.Printf("\rposition %03d row %03d", st.Position, st.Row)
			}
		}
	}
}

// runRaw renders the module into a file without an audio device.
func runRaw(c *cli.Context, logger *slog.Logger) error {
	out := c.String("out")
	if out == "" {
		return fmt.Errorf("raw backend requires --out option")
	}
	seconds := c.Float64("seconds")
	if seconds <= 0 {
		return fmt.Errorf("raw backend requires a positive --seconds value")
	}

	s, err := newSession(c, logger)
	if err != nil {
		return err
	}

	f, err := os.Create(out)
	if err != nil {
		return err
	}
	defer f.Close()

	total := int64(seconds*float64(s.info.SampleRate)) * 4
	written := int64(0)
	buf := make([]byte, 4096)
	for written < total {
		n, _ := s.stream.Read(buf[:min(int64(len(buf)), total-written)])
		if _, err := f.Write(buf[:n]); err != nil {
			return err
		}
		written += int64(n)
		if s.drainEvents() {
			break
		}
	}

	var active bool
	s.stream.Do(func(e *mas.Engine) {
		active = e.IsActive()
	})
	logger.Info("render completed", "file", out, "bytes", written, "still_playing", active)
	return nil
}
