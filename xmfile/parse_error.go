package xmfile

import (
	"fmt"
)

// ParseError describes a malformed XM file.
type ParseError struct {
	// Stage names the part of the file being parsed,
	// like "pattern[3].header" or "instrument[0].sample[1]".
	Stage string

	Message string

	Offset int
}

func (e *ParseError) Error() string {
	if e.Stage == "" {
		return fmt.Sprintf("%s (offset=%d)", e.Message, e.Offset)
	}
	return fmt.Sprintf("%s: %s (offset=%d)", e.Stage, e.Message, e.Offset)
}
