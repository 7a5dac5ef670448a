package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/quasilyte/mas/masfile"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadPrebuiltBank(t *testing.T) {
	b := masfile.NewBankBuilder()
	b.AddSample(masfile.Sample{Data: []int8{1, 2, 3}, DefaultFrequency: 8363})
	filename := filepath.Join(t.TempDir(), "sounds.MSL")
	require.NoError(t, os.WriteFile(filename, b.Bytes(), 0o644))

	bank, err := loadBank([]string{filename})
	require.NoError(t, err)
	assert.Equal(t, 1, bank.NumSamples())
	assert.Equal(t, 0, bank.NumModules())
}

func TestLoadBankErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := loadBank([]string{filepath.Join(dir, "missing.xm")})
	assert.ErrorIs(t, err, os.ErrNotExist)

	garbage := filepath.Join(dir, "garbage.msl")
	require.NoError(t, os.WriteFile(garbage, []byte("not a bank"), 0o644))
	_, err = loadBank([]string{garbage})
	var formatErr *masfile.FormatError
	assert.ErrorAs(t, err, &formatErr)
}
