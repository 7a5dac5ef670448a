package xmconv

import (
	"fmt"

	"github.com/quasilyte/mas/masfile"
	"github.com/quasilyte/mas/xmfile"
)

// EncodeBank converts the XM modules and serializes them as a sound bank.
// Module IDs follow the argument order.
//
// Module samples are stored at the bank level, so they can be played
// as sound effects too. Sample IDs follow the module order.
func EncodeBank(modules ...*xmfile.Module) ([]byte, error) {
	b := masfile.NewBankBuilder()
	for i, m := range modules {
		spec, err := Convert(m)
		if err != nil {
			return nil, fmt.Errorf("module[%d]: %w", i, err)
		}
		for j := range spec.Samples {
			info := &spec.Samples[j]
			info.BankID = uint16(b.AddSample(*info.Embedded))
			info.Embedded = nil
		}
		if _, err := b.AddModule(spec); err != nil {
			return nil, fmt.Errorf("module[%d]: %w", i, err)
		}
	}
	return b.Bytes(), nil
}

// LoadBank parses the XM files and opens a bank made of them.
func LoadBank(files ...[]byte) (*masfile.Bank, error) {
	modules := make([]*xmfile.Module, len(files))
	for i, data := range files {
		// Every module needs its own parser: parsed modules share the parser memory.
		m, err := xmfile.NewParser(xmfile.ParserConfig{}).ParseFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("parse module[%d]: %w", i, err)
		}
		modules[i] = m
	}
	data, err := EncodeBank(modules...)
	if err != nil {
		return nil, err
	}
	return masfile.OpenBank(data)
}
