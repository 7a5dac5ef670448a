package main

import (
	"fmt"
	"image/color"
	"log/slog"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"github.com/urfave/cli"
	"golang.design/x/clipboard"
	"golang.org/x/image/font/basicfont"
)

// runWindow plays the bank using Ebitengine audio player.
func runWindow(c *cli.Context, logger *slog.Logger) error {
	s, err := newSession(c, logger)
	if err != nil {
		return err
	}

	// You can have multiple players, but only one audio context.
	audioContext := audio.NewContext(s.info.SampleRate)
	player, err := audioContext.NewPlayer(s.stream)
	if err != nil {
		return err
	}
	player.Play()

	g := &game{
		session: s,
		player:  player,
	}
	if err := clipboard.Init(); err != nil {
		logger.Warn("clipboard is not available", "error", err)
	} else {
		g.clipboard = true
	}

	ebiten.SetWindowTitle("masplay")
	return ebiten.RunGame(g)
}

type game struct {
	session   *session
	player    *audio.Player
	done      bool
	clipboard bool
}

func (g *game) Update() error {
	if g.session.drainEvents() {
		g.done = true
	}

	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeySpace):
		g.session.togglePause()
	case inpututil.IsKeyJustPressed(ebiten.KeyE):
		g.session.playSample()
	case inpututil.IsKeyJustPressed(ebiten.KeyC):
		g.session.cancelEffects()
	case inpututil.IsKeyJustPressed(ebiten.KeyJ):
		g.session.playJingle()
	case inpututil.IsKeyJustPressed(ebiten.KeyP):
		g.copyPosition()
	case inpututil.IsKeyJustPressed(ebiten.KeyUp):
		g.session.adjust(64, 0)
	case inpututil.IsKeyJustPressed(ebiten.KeyDown):
		g.session.adjust(-64, 0)
	case inpututil.IsKeyJustPressed(ebiten.KeyRight):
		g.session.adjust(0, 64)
	case inpututil.IsKeyJustPressed(ebiten.KeyLeft):
		g.session.adjust(0, -64)
	case inpututil.IsKeyJustPressed(ebiten.KeyEscape):
		return ebiten.Termination
	}

	return nil
}

// copyPosition puts the current song position into the clipboard,
// handy for reporting a playback bug at the exact row.
func (g *game) copyPosition() {
	if !g.clipboard {
		return
	}
	st := g.session.status()
	pos := fmt.Sprintf("%s order %d row %d", g.session.filename, st.Position, st.Row)
	clipboard.Write(clipboard.FmtText, []byte(pos))
	g.session.logger.Info("position copied", "position", pos)
}

type statusToken struct {
	name    string
	enabled bool
}

var (
	labelColor = color.RGBA{190, 190, 190, 255}
	offColor   = color.RGBA{120, 120, 120, 255}
	onColor    = color.RGBA{0, 220, 90, 255}
)

func drawStatusLine(screen *ebiten.Image, x, baselineY int, label string, tokens []statusToken) {
	face := basicfont.Face7x13
	text.Draw(screen, label, face, x, baselineY, labelColor)
	cursorX := x + text.BoundString(face, label).Dx() + 6
	for _, token := range tokens {
		c := offColor
		if token.enabled {
			c = onColor
		}
		text.Draw(screen, token.name, face, cursorX, baselineY, c)
		cursorX += text.BoundString(face, token.name).Dx() + 8
	}
}

func (g *game) Draw(screen *ebiten.Image) {
	st := g.session.status()
	state := "Playing"
	switch {
	case g.done:
		state = "Finished"
	case st.Paused:
		state = "Paused"
	}
	ebitenutil.DebugPrint(screen, fmt.Sprintf(
		"%s %s...\n\nposition %03d row %03d tick %02d\ntempo %d pitch %d\n\n"+
			"SPACE pause  E sample  C cancel effects  J jingle  P copy position\nUP/DOWN tempo  LEFT/RIGHT pitch  ESC quit",
		state, g.session.filename, st.Position, st.Row, st.Tick, g.session.tempo, g.session.pitch))

	drawStatusLine(screen, 8, 470, "layers", []statusToken{
		{name: "main", enabled: st.Active},
		{name: "jingle", enabled: st.JingleActive},
	})
}

func (g *game) Layout(_, _ int) (int, int) {
	return 640, 480
}
