package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"

	"testexec/internal/protocol"
)

func noColor(t *testing.T) {
	t.Helper()
	saved := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = saved })
}

func render(t *testing.T, mode Mode, indent int, input string) (string, bool) {
	t.Helper()
	var buf bytes.Buffer
	p := NewPlain(&buf, mode, indent)
	p.Start()
	if err := Consume(protocol.NewReader(strings.NewReader(input)), p); err != nil {
		t.Fatalf("consume: %v", err)
	}
	ok := p.Finish()
	return buf.String(), ok
}

func TestPlain_Lines(t *testing.T) {
	noColor(t)
	input := "##>2\n##+a.mj\n##-ok\nstray output\n##+b.mj\n##-fail: run 0: boom\n"
	got, ok := render(t, ModeLines, 0, input)
	want := "a.mj...ok\nb.mj...failed\nb.mj: run 0: boom\n1 of 2 passed 1 failed\n"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
	if ok {
		t.Error("expected failure status")
	}
}

func TestPlain_CharacterGroups(t *testing.T) {
	noColor(t)
	var in strings.Builder
	in.WriteString("##>12\n")
	for i := 0; i < 12; i++ {
		in.WriteString("##+t\n##-ok\n")
	}
	got, ok := render(t, ModeCharacter, 0, in.String())
	want := "oooooooooo oo 12 of 12\n12 of 12 passed\n"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
	if !ok {
		t.Error("expected success")
	}
}

func TestPlain_CharacterFifty(t *testing.T) {
	noColor(t)
	var in strings.Builder
	for i := 0; i < 50; i++ {
		in.WriteString("##+t\n##-ok\n")
	}
	got, _ := render(t, ModeCharacter, 0, in.String())
	group := strings.Repeat("o", 10) + " "
	want := strings.Repeat(group, 5) + "50 of 50\n50 of 50 passed\n"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestPlain_Summary(t *testing.T) {
	noColor(t)
	got, ok := render(t, ModeSummary, 4, "##+a\n##-ok\n")
	if got != "##+\n##-ok\n" || !ok {
		t.Errorf("unexpected summary %q ok=%v", got, ok)
	}

	got, ok = render(t, ModeSummary, 0, "##+a\n##-fail: x\n##+b\n##-fail: y\n")
	if got != "##+\n##-fail 2 failed\n" || ok {
		t.Errorf("unexpected summary %q ok=%v", got, ok)
	}
}

func TestPlain_UnterminatedAndAbrupt(t *testing.T) {
	noColor(t)
	got, ok := render(t, ModeLines, 0, "##+a\n##+b\n")
	if ok {
		t.Error("expected failure")
	}
	for _, want := range []string{"a: unterminated test case\n", "b: abrupt output end\n", "0 of 2 passed 2 failed\n"} {
		if !strings.Contains(got, want) {
			t.Errorf("expected %q in %q", want, got)
		}
	}
}

func TestPlain_Indent(t *testing.T) {
	noColor(t)
	got, _ := render(t, ModeLines, 2, "##+a\n##-ok\n")
	if got != "  a...ok\n  1 of 1 passed\n" {
		t.Errorf("unexpected indented output %q", got)
	}
}

func TestPlain_InlineEndsWithCount(t *testing.T) {
	noColor(t)
	got, ok := render(t, ModeInline, 0, "##>1\n##+a\n##-ok\n")
	if !ok {
		t.Error("expected success")
	}
	if !strings.HasSuffix(got, "1 of 1 passed\n") {
		t.Errorf("unexpected inline output %q", got)
	}
	if !strings.Contains(got, "\b \b") {
		t.Errorf("expected inline output to rewrite its line, got %q", got)
	}
}

func TestParseMode(t *testing.T) {
	tests := map[string]Mode{"": ModeCharacter, "i": ModeInline, "lines": ModeLines, "S": ModeSummary}
	for in, want := range tests {
		got, err := ParseMode(in)
		if err != nil || got != want {
			t.Errorf("%q: expected %v, got %v (%v)", in, want, got, err)
		}
	}
	if _, err := ParseMode("x"); err == nil {
		t.Error("expected an error for an unknown mode")
	}
}

func TestTally(t *testing.T) {
	var tl Tally
	tl.Apply(protocol.Event{Kind: protocol.KindTotal, Count: 3})
	tl.Apply(protocol.Event{Kind: protocol.KindPass})
	st := tl.Apply(protocol.Event{Kind: protocol.KindFail, Diagnostic: "bad"})
	if st.Finished != unknownName {
		t.Errorf("expected unknown test name, got %q", st.Finished)
	}
	if tl.Done() != 2 || tl.Total() != 3 || tl.OK() {
		t.Errorf("unexpected tally %+v", tl)
	}
	if tl.Finish() != nil {
		t.Error("expected nothing open")
	}
}
