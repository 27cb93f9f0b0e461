package spec

import (
	"fmt"
	"unicode/utf8"

	verr "github.com/pgen-dev/pgen/error"
)

// Decode converts a UTF-8 byte buffer into the code point sequence every
// downstream component indexes into. It fails on the first malformed code
// unit, reporting its byte offset.
func Decode(src []byte) ([]rune, error) {
	cps := make([]rune, 0, len(src))
	for off := 0; off < len(src); {
		r, size := utf8.DecodeRune(src[off:])
		if r == utf8.RuneError && size <= 1 {
			return nil, &verr.SpecError{
				Cause:  synErrInvalidUTF8,
				Detail: fmt.Sprintf("byte offset %v", off),
			}
		}
		cps = append(cps, r)
		off += size
	}
	return cps, nil
}
