package driver

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/ardnew/axififo/pkg"
)

// MaxWriteLen is the number of payload bytes a single write considers.
// Bytes beyond it are dropped.
const MaxWriteLen = 31

// MaxReadLen is the length of an encoded read line.
const MaxReadLen = len("READ_DATA: 0x00000000\n")

// EncodeRead formats a READ_DATA sample as a report line.
func EncodeRead(v uint32) string {
	return fmt.Sprintf("READ_DATA: 0x%08X\n", v)
}

// DecodeWrite parses a write payload into a register value.
//
// The payload is cut to [MaxWriteLen] bytes and at the first NUL. What
// remains must be an unsigned integer literal with an optional leading '+'
// and at most one trailing newline. The base follows C conventions: "0x" or
// "0X" selects hexadecimal, a leading "0" octal, anything else decimal.
// Failures wrap [pkg.ErrInvalidFormat].
func DecodeWrite(input []byte) (uint32, error) {
	if len(input) > MaxWriteLen {
		input = input[:MaxWriteLen]
	}
	if i := bytes.IndexByte(input, 0); i >= 0 {
		input = input[:i]
	}

	v, err := parseUint32(string(input))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", pkg.ErrInvalidFormat, input)
	}
	return v, nil
}

// parseUint32 parses s as an auto-base unsigned 32-bit literal.
func parseUint32(s string) (uint32, error) {
	s = strings.TrimPrefix(s, "+")
	s = strings.TrimSuffix(s, "\n")

	base := 10
	switch {
	case len(s) > 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') && isHexDigit(s[2]):
		base, s = 16, s[2:]
	case len(s) > 1 && s[0] == '0':
		base, s = 8, s[1:]
	}

	// ParseUint rejects signs; with an explicit base it also rejects
	// underscores and further prefixes.
	v, err := strconv.ParseUint(s, base, 32)
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}

func isHexDigit(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}
