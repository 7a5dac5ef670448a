package main

import (
	"errors"
	"log/slog"
	"os"

	"github.com/urfave/cli"
)

// masplay converts XM modules into a sound bank and plays them.
//
// The first module is played on the main layer, the second one
// (if any) is available as a jingle. A prebuilt bank made by
// the convert command can be played instead of XM files.

func main() {
	app := cli.NewApp()
	app.Name = "masplay"
	app.Description = "Tracker module player"
	app.Usage = "masplay [options] <XM file> [jingle XM file] | <bank.msl>"
	app.Version = "1.0.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "backend",
			Usage: "Audio output: window, headless, tui or raw",
			Value: "window",
		},
		cli.IntFlag{
			Name:  "rate",
			Usage: "Output sample rate in Hz",
			Value: 44100,
		},
		cli.IntFlag{
			Name:  "voices",
			Usage: "Number of mixer voices",
			Value: 16,
		},
		cli.BoolFlag{
			Name:  "once",
			Usage: "Stop at the end of the song instead of looping",
		},
		cli.BoolFlag{
			Name:  "no-ramping",
			Usage: "Disable the volume ramping",
		},
		cli.IntFlag{
			Name:  "tempo",
			Usage: "Tempo multiplier (1024 = normal)",
			Value: 1024,
		},
		cli.IntFlag{
			Name:  "pitch",
			Usage: "Pitch multiplier (1024 = normal)",
			Value: 1024,
		},
		cli.StringFlag{
			Name:  "out",
			Usage: "Output file for the raw backend (16-bit stereo PCM)",
		},
		cli.Float64Flag{
			Name:  "seconds",
			Usage: "Duration to render with the raw backend",
			Value: 30,
		},
		cli.BoolFlag{
			Name:  "verbose",
			Usage: "Enable debug logging",
		},
	}
	app.Commands = []cli.Command{convertCommand}
	app.Action = runPlayer

	err := app.Run(os.Args)
	if err != nil {
		slog.Error("Error running player", "error", err)
		os.Exit(1)
	}
}

func runPlayer(c *cli.Context) error {
	if c.NArg() == 0 {
		cli.ShowAppHelp(c)
		return errors.New("no module path provided")
	}

	level := logLevel(c.Bool("verbose"))

	switch backend := c.String("backend"); backend {
	case "window":
		return runWindow(c, newLogger(level))
	case "headless":
		return runHeadless(c, newLogger(level))
	case "tui":
		return runTUI(c, level)
	case "raw":
		return runRaw(c, newLogger(level))
	default:
		return errors.New("unknown backend: " + backend)
	}
}

func logLevel(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

func newLogger(level slog.Level) *slog.Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return slog.New(handler)
}
