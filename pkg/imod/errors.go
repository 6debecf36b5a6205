package imod

import (
	"fmt"

	"imodkit/pkg/binio"
)

// TruncatedInputError reports that the stream ended before a fixed-size
// field could be read. Decoding always aborts on it.
type TruncatedInputError = binio.TruncatedInputError

// FormatError reports a tag or structural value that the grammar does not
// allow at the current position.
type FormatError struct {
	Offset int
	Tag    string
	Msg    string
}

func (e *FormatError) Error() string {
	if e.Tag != "" {
		return fmt.Sprintf("imod: format error at offset %d (tag %q): %s", e.Offset, e.Tag, e.Msg)
	}
	return fmt.Sprintf("imod: format error at offset %d: %s", e.Offset, e.Msg)
}

// ValidationError is returned by setters when a caller-supplied value is
// outside the documented range. Decoded values are never validated.
type ValidationError struct {
	Field string
	Value any
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("imod: invalid %s %v: %s", e.Field, e.Value, e.Msg)
}
