package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/urfave/cli"
)

const (
	frameTime  = time.Second / 30
	logHeight  = 8
	helpHeight = 2
)

// runTUI plays the module through oto and draws the player state with tcell.
// Logs are captured into a buffer shown below the status.
func runTUI(c *cli.Context, level slog.Level) error {
	logs := newLogBuffer(logHeight)
	logger := slog.New(&logBufferHandler{buffer: logs, level: level})

	s, err := newSession(c, logger)
	if err != nil {
		return err
	}

	player, err := newOtoPlayer(s)
	if err != nil {
		return err
	}
	defer player.Close()

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("failed to initialize terminal: %v", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("failed to initialize terminal: %v", err)
	}
	defer screen.Fini()
	screen.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite))
	screen.Clear()

	player.Play()

	keys := make(chan *tcell.EventKey, 8)
	go func() {
		for {
			switch ev := screen.PollEvent().(type) {
			case nil:
				close(keys)
				return
			case *tcell.EventKey:
				keys <- ev
			case *tcell.EventResize:
				screen.Sync()
			}
		}
	}()

	ticker := time.NewTicker(frameTime)
	defer ticker.Stop()
	finished := false
	for {
		select {
		case ev, ok := <-keys:
			if !ok || !handleKey(s, ev) {
				return nil
			}
		case <-ticker.C:
			if s.drainEvents() {
				finished = true
			}
			drawTUI(screen, s, logs, finished)
		}
	}
}

// handleKey returns false when the player should quit.
func handleKey(s *session, ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return false
	case tcell.KeyUp:
		s.adjust(64, 0)
	case tcell.KeyDown:
		s.adjust(-64, 0)
	case tcell.KeyRight:
		s.adjust(0, 64)
	case tcell.KeyLeft:
		s.adjust(0, -64)
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q':
			return false
		case ' ':
			s.togglePause()
		case 'e':
			s.playSample()
		case 'c':
			s.cancelEffects()
		case 'j':
			s.playJingle()
		}
	}
	return true
}

func drawTUI(screen tcell.Screen, s *session, logs *logBuffer, finished bool) {
	screen.Clear()
	st := s.status()

	state := "playing"
	switch {
	case finished:
		state = "finished"
	case st.Paused:
		state = "paused"
	}

	title := tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	plain := tcell.StyleDefault
	dim := tcell.StyleDefault.Foreground(tcell.ColorGray)

	drawText(screen, 0, 0, title, "masplay: "+s.filename)
	drawText(screen, 0, 2, plain, fmt.Sprintf("state    %s", state))
	drawText(screen, 0, 3, plain, fmt.Sprintf("position %03d  row %03d  tick %02d", st.Position, st.Row, st.Tick))
	drawText(screen, 0, 4, plain, fmt.Sprintf("tempo    %d  pitch %d", s.tempo, s.pitch))
	jingle := "idle"
	if st.JingleActive {
		jingle = "playing"
	}
	drawText(screen, 0, 5, plain, fmt.Sprintf("jingle   %s", jingle))
	drawText(screen, 0, 6, plain, fmt.Sprintf("voices   %d  rate %d Hz", s.info.NumVoices, s.info.SampleRate))

	drawText(screen, 0, 8, dim, "SPACE pause  e sample  c cancel effects  j jingle")
	drawText(screen, 0, 8+helpHeight-1, dim, "UP/DOWN tempo  LEFT/RIGHT pitch  q quit")

	for i, line := range logs.recent() {
		drawText(screen, 0, 8+helpHeight+1+i, dim, line)
	}

	screen.Show()
}

func drawText(screen tcell.Screen, x, y int, style tcell.Style, text string) {
	width, _ := screen.Size()
	for _, r := range text {
		if x >= width {
			return
		}
		screen.SetContent(x, y, r, nil, style)
		x++
	}
}

// logBuffer is a fixed size ring of formatted log lines.
type logBuffer struct {
	mu    sync.Mutex
	lines []string
	index int
	count int
}

func newLogBuffer(size int) *logBuffer {
	return &logBuffer{lines: make([]string, size)}
}

func (b *logBuffer) add(line string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lines[b.index] = line
	b.index = (b.index + 1) % len(b.lines)
	if b.count < len(b.lines) {
		b.count++
	}
}

// recent returns the buffered lines, oldest first.
func (b *logBuffer) recent() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	result := make([]string, 0, b.count)
	for i := 0; i < b.count; i++ {
		result = append(result, b.lines[(b.index-b.count+i+len(b.lines))%len(b.lines)])
	}
	return result
}

// logBufferHandler is a slog.Handler that captures logs to a logBuffer.
type logBufferHandler struct {
	buffer *logBuffer
	level  slog.Level
	attrs  []slog.Attr
}

func (h *logBufferHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *logBufferHandler) Handle(_ context.Context, record slog.Record) error {
	var b strings.Builder
	b.WriteString(record.Time.Format("15:04:05"))
	b.WriteByte(' ')
	b.WriteString(record.Level.String())
	b.WriteByte(' ')
	b.WriteString(record.Message)
	write := func(a slog.Attr) bool {
		fmt.Fprintf(&b, " %s=%v", a.Key, a.Value)
		return true
	}
	for _, a := range h.attrs {
		write(a)
	}
	record.Attrs(write)
	h.buffer.add(b.String())
	return nil
}

func (h *logBufferHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &clone
}

func (h *logBufferHandler) WithGroup(_ string) slog.Handler {
	return h
}
