package spec

import (
	"bytes"
	"strconv"

	"fortio.org/safecast"
)

// parseValue reads one result value starting at pos, bounded by end.
// The grammar is tried in a fixed order: true/false, a decimal integer, an
// exception name, a character literal.
func parseValue(path string, data []byte, pos, end int) (Expectation, error) {
	fail := func(at int, reason string) (Expectation, error) {
		return Expectation{}, &ParseError{Path: path, Offset: at, Reason: reason}
	}

	for pos < end && (data[pos] == ' ' || data[pos] == '\t') {
		pos++
	}
	if pos >= end {
		return fail(pos, "missing result value")
	}

	rest := data[pos:end]
	switch c := data[pos]; {
	case c == 't':
		if bytes.HasPrefix(rest, []byte("true")) {
			return Expectation{Kind: KindBoolean, Value: 1, Offset: pos}, nil
		}
		return fail(pos, "expected true")
	case c == 'f':
		if bytes.HasPrefix(rest, []byte("false")) {
			return Expectation{Kind: KindBoolean, Value: 0, Offset: pos}, nil
		}
		return fail(pos, "expected false")
	case c == '-' || c == '+' || isDigit(c):
		return parseInteger(path, data, pos, end)
	case c == '!':
		j := pos
		for j < end && isExceptionByte(data[j]) {
			j++
		}
		return Expectation{Kind: KindException, Text: string(data[pos:j]), Offset: pos}, nil
	case c == '\'':
		return parseChar(path, data, pos, end)
	default:
		return fail(pos, "unrecognized result value")
	}
}

func parseInteger(path string, data []byte, pos, end int) (Expectation, error) {
	j := pos
	if data[j] == '-' || data[j] == '+' {
		j++
	}
	digits := j
	for j < end && isDigit(data[j]) {
		j++
	}
	if j == digits {
		return Expectation{}, &ParseError{Path: path, Offset: pos, Reason: "expected digits"}
	}
	wide, err := strconv.ParseInt(string(data[pos:j]), 10, 64)
	if err != nil {
		return Expectation{}, &ParseError{Path: path, Offset: pos, Reason: "integer out of range"}
	}
	v, err := safecast.Conv[int32](wide)
	if err != nil {
		return Expectation{}, &ParseError{Path: path, Offset: pos, Reason: "integer out of range"}
	}
	return Expectation{Kind: KindInteger, Value: v, Offset: pos}, nil
}

func parseChar(path string, data []byte, pos, end int) (Expectation, error) {
	fail := func(at int, reason string) (Expectation, error) {
		return Expectation{}, &ParseError{Path: path, Offset: at, Reason: reason}
	}
	char := func(b byte) (Expectation, error) {
		return Expectation{Kind: KindChar, Value: int32(b), Offset: pos}, nil
	}

	p := pos + 1
	if p >= end {
		return fail(p, "unterminated character literal")
	}
	if data[p] != '\\' {
		return char(data[p])
	}
	p++
	if p >= end {
		return fail(p, "unterminated escape sequence")
	}
	switch data[p] {
	case 'n':
		return char('\n')
	case 'r':
		return char('\r')
	case 't':
		return char('\t')
	case '\'':
		return char('\'')
	case '"':
		return char('"')
	case '\\':
		return char('\\')
	case 'x':
		if p+2 >= end {
			return fail(p, "short hex escape")
		}
		hi, ok := hexValue(data[p+1])
		if !ok {
			return fail(p+1, "invalid hex digit")
		}
		lo, ok := hexValue(data[p+2])
		if !ok {
			return fail(p+2, "invalid hex digit")
		}
		return char(hi<<4 | lo)
	default:
		return fail(p, "unknown escape sequence")
	}
}

func isDigit(c byte) bool { return '0' <= c && c <= '9' }

// isExceptionByte is the character class an exception name is munched from.
func isExceptionByte(c byte) bool {
	return c == '!' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func hexValue(c byte) (byte, bool) {
	switch {
	case '0' <= c && c <= '9':
		return c - '0', true
	case 'a' <= c && c <= 'f':
		return 10 + c - 'a', true
	case 'A' <= c && c <= 'F':
		return 10 + c - 'A', true
	}
	return 0, false
}
