package imod

import (
	"golang.org/x/text/encoding/charmap"
)

// Name and label fields are single-byte strings. Latin-1 maps every byte to
// exactly one rune and back, so decoded names re-encode to the same bytes.

func decodeText(b []byte) string {
	s, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(s)
}

func encodeText(s string) ([]byte, error) {
	return charmap.ISO8859_1.NewEncoder().Bytes([]byte(s))
}

func textLen(s string) (int, error) {
	b, err := encodeText(s)
	if err != nil {
		return 0, err
	}
	return len(b), nil
}
