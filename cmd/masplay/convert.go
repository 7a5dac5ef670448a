package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/quasilyte/mas/masfile"
	"github.com/quasilyte/mas/xmconv"
	"github.com/quasilyte/mas/xmfile"
	"github.com/urfave/cli"
)

// bankExt is the extension of the prebuilt sound banks.
const bankExt = ".msl"

var convertCommand = cli.Command{
	Name:      "convert",
	Usage:     "Convert XM modules into a sound bank",
	ArgsUsage: "<XM file>...",
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:  "out, o",
			Usage: "Output bank file",
			Value: "bank" + bankExt,
		},
	},
	Action: runConvert,
}

func runConvert(c *cli.Context) error {
	if c.NArg() == 0 {
		return errors.New("no module path provided")
	}
	logger := newLogger(logLevel(c.GlobalBool("verbose")))

	modules := make([]*xmfile.Module, 0, c.NArg())
	for _, filename := range c.Args() {
		data, err := os.ReadFile(filename)
		if err != nil {
			return fmt.Errorf("read XM file: %w", err)
		}
		m, err := xmfile.NewParser(xmfile.ParserConfig{NeedStrings: true}).ParseFromBytes(data)
		if err != nil {
			return fmt.Errorf("parse %s: %w", filename, err)
		}
		logger.Debug("module parsed",
			"file", filename,
			"name", m.Name,
			"channels", m.NumChannels,
			"patterns", len(m.Patterns),
			"instruments", len(m.Instruments))
		modules = append(modules, m)
	}

	data, err := xmconv.EncodeBank(modules...)
	if err != nil {
		return err
	}
	out := c.String("out")
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return err
	}
	logger.Info("bank written", "file", out, "modules", len(modules), "bytes", len(data))
	return nil
}

// loadBank opens a prebuilt bank or converts the XM files on the fly.
func loadBank(filenames []string) (*masfile.Bank, error) {
	if len(filenames) == 1 && strings.EqualFold(filepath.Ext(filenames[0]), bankExt) {
		data, err := os.ReadFile(filenames[0])
		if err != nil {
			return nil, fmt.Errorf("read bank: %w", err)
		}
		return masfile.OpenBank(data)
	}

	files := make([][]byte, 0, len(filenames))
	for _, filename := range filenames {
		data, err := os.ReadFile(filename)
		if err != nil {
			return nil, fmt.Errorf("read XM file: %w", err)
		}
		files = append(files, data)
	}
	return xmconv.LoadBank(files...)
}
