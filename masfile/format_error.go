package masfile

import (
	"fmt"
)

// FormatError describes a malformed bank.
type FormatError struct {
	// Stage names the bank part being validated,
	// like "header" or "module[2].pattern[0]".
	Stage string

	Message string

	Offset int
}

func (e *FormatError) Error() string {
	if e.Stage == "" {
		return fmt.Sprintf("%s (offset=%d)", e.Message, e.Offset)
	}
	return fmt.Sprintf("%s: %s (offset=%d)", e.Stage, e.Message, e.Offset)
}
