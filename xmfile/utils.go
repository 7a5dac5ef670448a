package xmfile

import (
	"bytes"
)

// trimString converts a fixed size XM text field.
// The field ends at the first NUL byte; trackers pad names with spaces too.
func trimString(data []byte) string {
	if i := bytes.IndexByte(data, 0); i != -1 {
		data = data[:i]
	}
	return string(bytes.TrimRight(data, " "))
}
