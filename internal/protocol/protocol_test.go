package protocol

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestWriter_Lines(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.Total(2)
	w.Begin("tests/a.mj")
	w.Pass()
	w.Begin("tests/b.mj")
	w.Fail("run 0: expected 5, got \"\"")
	if err := w.Err(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "##>2\n##+tests/a.mj\n##-ok\n##+tests/b.mj\n##-fail: run 0: expected 5, got \"\"\n"
	if buf.String() != want {
		t.Errorf("expected %q, got %q", want, buf.String())
	}
}

func TestWriter_EscapesNewlines(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.Fail("line one\nline two\r\n")
	want := "##-fail: line one\\nline two\\r\\n\n"
	if buf.String() != want {
		t.Errorf("expected %q, got %q", want, buf.String())
	}
}

type failingWriter struct{ n int }

func (f *failingWriter) Write(p []byte) (int, error) {
	f.n++
	return 0, errors.New("closed")
}

func TestWriter_StickyError(t *testing.T) {
	fw := &failingWriter{}
	w := NewWriter(fw)
	w.Begin("x")
	w.Pass()
	if w.Err() == nil {
		t.Fatal("expected write error")
	}
	if fw.n != 1 {
		t.Errorf("expected writes to stop after the first error, got %d attempts", fw.n)
	}
}

func TestParseLine(t *testing.T) {
	tests := []struct {
		line string
		ok   bool
		want Event
	}{
		{"##>12", true, Event{Kind: KindTotal, Count: 12}},
		{"##>x", false, Event{}},
		{"##+tests/a.mj", true, Event{Kind: KindBegin, Name: "tests/a.mj"}},
		{"##-ok", true, Event{Kind: KindPass}},
		{"##-okay", true, Event{Kind: KindPass}},
		{"##-fail: run 1: boom", true, Event{Kind: KindFail, Diagnostic: "run 1: boom"}},
		{"##-fail:boom", true, Event{Kind: KindFail, Diagnostic: "boom"}},
		{"##-crashed", true, Event{Kind: KindFail, Diagnostic: "crashed"}},
		{"##-fail: x\r", true, Event{Kind: KindFail, Diagnostic: "x"}},
		{"##-", false, Event{}},
		{"##", false, Event{}},
		{"hello world", false, Event{}},
		{"#+ab", false, Event{}},
		{"##?foo", false, Event{}},
	}
	for _, tt := range tests {
		got, ok := ParseLine(tt.line)
		if ok != tt.ok {
			t.Errorf("%q: expected ok=%v, got %v", tt.line, tt.ok, ok)
			continue
		}
		if got != tt.want {
			t.Errorf("%q: expected %+v, got %+v", tt.line, tt.want, got)
		}
	}
}

func TestReader_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.Total(1)
	buf.WriteString("noise from somewhere\n")
	w.Begin("t.mj")
	w.Fail("bad\nthing")

	r := NewReader(strings.NewReader(buf.String()))
	var kinds []Kind
	var last Event
	for {
		evt, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		kinds = append(kinds, evt.Kind)
		last = evt
	}
	if len(kinds) != 3 || kinds[0] != KindTotal || kinds[1] != KindBegin || kinds[2] != KindFail {
		t.Fatalf("unexpected event kinds %v", kinds)
	}
	if last.Diagnostic != `bad\nthing` {
		t.Errorf("expected escaped diagnostic, got %q", last.Diagnostic)
	}
}

func TestKindString(t *testing.T) {
	if KindFail.String() != "fail" || Kind(0).String() != "unknown" {
		t.Errorf("unexpected kind names %q %q", KindFail, Kind(0))
	}
}
