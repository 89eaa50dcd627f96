package spec

import (
	"bytes"
	"fmt"
	"slices"
)

const (
	// ExecuteMarker introduces a single-line header of '='-separated results.
	ExecuteMarker = "//@execute "
	// StackTraceMarker introduces and delimits stack-trace header blocks.
	StackTraceMarker = "//@stacktrace"
)

// Parse extracts the ordered expectations from a header.
//
// A *ParseError means the header is unusable and the batch must stop.
// ErrInvalidSpec means only this test fails.
func Parse(h Header) ([]Expectation, error) {
	data := h.Data
	switch {
	case bytes.HasPrefix(data, []byte(ExecuteMarker)):
		return parseExecute(h)
	case bytes.HasPrefix(data, []byte(StackTraceMarker)):
		return parseStackTrace(h)
	default:
		return nil, &ParseError{Path: h.Path, Offset: 0, Reason: ErrInvalidSpec.Error()}
	}
}

// parseExecute handles the "//@execute " form. Only the first line is examined.
func parseExecute(h Header) ([]Expectation, error) {
	data := h.Data
	end := bytes.IndexByte(data, '\n')
	if end < 0 {
		if h.Truncated {
			return nil, &ParseError{
				Path:   h.Path,
				Offset: len(data),
				Reason: fmt.Sprintf("directive line does not fit in %d bytes", len(data)),
			}
		}
		end = len(data)
	}

	starts := trailerStarts(data[:end])
	exps := make([]Expectation, 0, len(starts))
	for _, start := range starts {
		exp, err := parseValue(h.Path, data, start, end)
		if err != nil {
			return nil, err
		}
		exps = append(exps, exp)
	}
	slices.Reverse(exps)
	return exps, nil
}

// trailerStarts scans line from right to left and returns the offset following
// each '=' separator, rightmost first. Offset 0 is never a separator.
func trailerStarts(line []byte) []int {
	var starts []int
	for p := len(line) - 1; p > 0; p-- {
		if line[p] != '=' || quotedEquals(line, p) {
			continue
		}
		starts = append(starts, p+1)
	}
	return starts
}

// quotedEquals reports whether the '=' at p is the body of a '=' char literal.
func quotedEquals(line []byte, p int) bool {
	return line[p-1] == '\'' && p+1 < len(line) && line[p+1] == '\''
}

// parseStackTrace handles the "//@stacktrace" form. The whole header is scanned
// from the end; each marker's block extends to the marker after it.
func parseStackTrace(h Header) ([]Expectation, error) {
	data := h.Data
	if h.Truncated {
		return nil, &ParseError{
			Path:   h.Path,
			Offset: len(data),
			Reason: fmt.Sprintf("stacktrace spec does not fit in %d bytes", len(data)),
		}
	}

	marker := []byte(StackTraceMarker)
	var exps []Expectation
	prev := len(data)
	for p := len(data) - len(marker); p > 0; p-- {
		if data[p] != '/' || !bytes.HasPrefix(data[p:], marker) {
			continue
		}
		q := p + len(marker)
		switch {
		case q < len(data) && data[q] == '=':
			exp, err := parseValue(h.Path, data, q+1, prev)
			if err != nil {
				return nil, err
			}
			exps = append(exps, exp)
		case q == len(data):
			exps = append(exps, Expectation{Kind: KindStackTrace, Offset: q})
		case data[q] == '\n':
			exps = append(exps, Expectation{
				Kind:   KindStackTrace,
				Text:   string(data[q+1 : prev]),
				Offset: q + 1,
			})
		default:
			return nil, ErrInvalidSpec
		}
		prev = p
	}
	slices.Reverse(exps)
	return exps, nil
}
