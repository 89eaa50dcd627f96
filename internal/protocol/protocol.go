// Package protocol implements the line-oriented progress protocol spoken on
// stdout between the harness and a progress consumer.
//
// Every protocol line starts with "##":
//
//	##>N          N more tests are expected
//	##+name       test name begins
//	##-ok         the open test passed
//	##-fail: msg  the open test failed with msg
package protocol

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
)

const (
	prefixTotal = "##>"
	prefixBegin = "##+"
	prefixEnd   = "##-"
	okMarker    = "ok"
	failMarker  = "fail:"
)

// Kind identifies a decoded protocol line.
type Kind uint8

const (
	// KindTotal announces Count more tests.
	KindTotal Kind = iota + 1
	// KindBegin opens test Name.
	KindBegin
	// KindPass closes the open test successfully.
	KindPass
	// KindFail closes the open test with Diagnostic.
	KindFail
)

func (k Kind) String() string {
	switch k {
	case KindTotal:
		return "total"
	case KindBegin:
		return "begin"
	case KindPass:
		return "pass"
	case KindFail:
		return "fail"
	default:
		return "unknown"
	}
}

// Event is one decoded protocol line.
type Event struct {
	Kind       Kind
	Count      int
	Name       string
	Diagnostic string
}

// Writer emits protocol lines. Each line is written with a single call to the
// underlying writer so lines from one Writer never interleave.
type Writer struct {
	mu  sync.Mutex
	out io.Writer
	err error
}

// NewWriter creates a Writer on w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{out: w}
}

// Total announces n tests.
func (w *Writer) Total(n int) { w.line(prefixTotal + strconv.Itoa(n)) }

// Begin opens a test.
func (w *Writer) Begin(name string) { w.line(prefixBegin + oneLine(name)) }

// Pass closes the open test successfully.
func (w *Writer) Pass() { w.line(prefixEnd + okMarker) }

// Fail closes the open test with a diagnostic.
func (w *Writer) Fail(diagnostic string) {
	w.line(prefixEnd + failMarker + " " + oneLine(diagnostic))
}

// Err returns the first write error, if any.
func (w *Writer) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

func (w *Writer) line(s string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return
	}
	if _, err := io.WriteString(w.out, s+"\n"); err != nil {
		w.err = fmt.Errorf("protocol write: %w", err)
	}
}

// oneLine keeps a payload on a single protocol line.
func oneLine(s string) string {
	if !strings.ContainsAny(s, "\r\n") {
		return s
	}
	return strings.NewReplacer("\r", `\r`, "\n", `\n`).Replace(s)
}

// ParseLine decodes one line without its terminator. ok is false for lines
// that are not protocol lines; consumers ignore those.
func ParseLine(line string) (Event, bool) {
	line = strings.TrimSuffix(line, "\r")
	if len(line) < 4 || !strings.HasPrefix(line, "##") {
		return Event{}, false
	}
	switch {
	case strings.HasPrefix(line, prefixTotal):
		n, err := strconv.Atoi(strings.TrimSpace(line[len(prefixTotal):]))
		if err != nil || n < 0 {
			return Event{}, false
		}
		return Event{Kind: KindTotal, Count: n}, true
	case strings.HasPrefix(line, prefixBegin):
		return Event{Kind: KindBegin, Name: line[len(prefixBegin):]}, true
	case strings.HasPrefix(line, prefixEnd+okMarker):
		return Event{Kind: KindPass}, true
	case strings.HasPrefix(line, prefixEnd):
		msg := line[len(prefixEnd):]
		if rest, found := strings.CutPrefix(msg, failMarker); found {
			msg = strings.TrimPrefix(rest, " ")
		}
		return Event{Kind: KindFail, Diagnostic: msg}, true
	default:
		return Event{}, false
	}
}

// Reader decodes protocol events from a stream, skipping non-protocol lines.
type Reader struct {
	sc *bufio.Scanner
}

// NewReader creates a Reader on r.
func NewReader(r io.Reader) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &Reader{sc: sc}
}

// Next returns the next protocol event. It returns io.EOF at the end of input.
func (r *Reader) Next() (Event, error) {
	for r.sc.Scan() {
		if evt, ok := ParseLine(r.sc.Text()); ok {
			return evt, nil
		}
	}
	if err := r.sc.Err(); err != nil {
		return Event{}, fmt.Errorf("protocol read: %w", err)
	}
	return Event{}, io.EOF
}
