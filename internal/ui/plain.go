package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"testexec/internal/protocol"
)

// Mode selects a plain-text rendering.
type Mode uint8

const (
	// ModeCharacter prints o or X per test.
	ModeCharacter Mode = iota + 1
	// ModeInline keeps one status line that is rewritten in place.
	ModeInline
	// ModeLines prints one line per test.
	ModeLines
	// ModeSummary prints a single protocol-shaped result for the whole stream.
	ModeSummary
)

// String returns the flag spelling of m.
func (m Mode) String() string {
	switch m {
	case ModeCharacter:
		return "character"
	case ModeInline:
		return "inline"
	case ModeLines:
		return "lines"
	case ModeSummary:
		return "summary"
	default:
		return "unknown"
	}
}

// ParseMode accepts a mode name or its first letter.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "c", "character":
		return ModeCharacter, nil
	case "i", "inline":
		return ModeInline, nil
	case "l", "lines":
		return ModeLines, nil
	case "s", "summary":
		return ModeSummary, nil
	default:
		return 0, fmt.Errorf("invalid mode %q (expected inline|character|lines|summary)", s)
	}
}

var (
	passColor = color.New(color.FgGreen)
	failColor = color.New(color.FgRed)
)

// Plain renders a protocol stream as text.
type Plain struct {
	w      io.Writer
	mode   Mode
	indent string
	tally  Tally

	// column counts bytes on the current line that Inline mode may erase.
	column int
}

// NewPlain creates a renderer. Summary mode ignores indent.
func NewPlain(w io.Writer, mode Mode, indent int) *Plain {
	if mode == ModeSummary || indent < 0 {
		indent = 0
	}
	return &Plain{w: w, mode: mode, indent: strings.Repeat(" ", indent)}
}

// Tally exposes the counters.
func (p *Plain) Tally() *Tally { return &p.tally }

// Start writes the preamble.
func (p *Plain) Start() {
	if p.mode != ModeInline {
		p.raw(p.indent)
	}
	if p.mode == ModeSummary {
		p.out("##+\n")
	}
}

// Handle renders one event.
func (p *Plain) Handle(evt protocol.Event) {
	st := p.tally.Apply(evt)
	if st.Forced != nil {
		p.failed(*st.Forced)
	}
	switch {
	case st.Begun != "":
		p.begun(st.Begun)
	case st.Finished != "" && st.Passed:
		p.passed()
	case st.Finished != "":
		p.failed(Failure{Name: st.Finished, Error: st.Err})
	}
}

// Finish closes the stream and reports whether everything passed.
func (p *Plain) Finish() bool {
	if f := p.tally.Finish(); f != nil {
		p.failed(*f)
	}
	t := &p.tally
	switch p.mode {
	case ModeInline:
		p.clear()
		p.passedCount()
		p.raw("\n")
	case ModeSummary:
		if t.OK() {
			p.out("##-ok\n")
		} else {
			p.out(fmt.Sprintf("##-fail %d failed\n", t.Failed))
		}
	default:
		if p.mode == ModeCharacter {
			if done := t.Done(); done%50 != 0 {
				if done%10 != 0 {
					p.out(" ")
				}
				p.count(done)
				p.newline()
			}
		}
		for _, f := range t.Failures {
			p.failure(f)
		}
		p.passedCount()
		p.raw("\n")
	}
	return t.OK()
}

func (p *Plain) begun(name string) {
	switch p.mode {
	case ModeLines:
		p.out(name + "...")
	case ModeInline:
		p.clear()
		p.passedCount()
		p.out(" | " + name)
	}
}

func (p *Plain) passed() {
	switch p.mode {
	case ModeInline:
		p.clear()
		p.passedCount()
		p.out(" | ")
	case ModeCharacter:
		p.colored(passColor, "o")
		p.space()
	case ModeLines:
		p.colored(passColor, "ok")
		p.newline()
	}
}

func (p *Plain) failed(f Failure) {
	switch p.mode {
	case ModeInline:
		p.clear()
		if p.tally.Failed == 1 {
			p.newline()
		}
		p.failure(f)
	case ModeCharacter:
		p.colored(failColor, "X")
		p.space()
	case ModeLines:
		p.colored(failColor, "failed")
		p.newline()
	}
}

// space groups character output in tens and prints a count every fifty.
func (p *Plain) space() {
	done := p.tally.Done()
	if done%10 == 0 {
		p.out(" ")
	}
	if done%50 == 0 {
		p.count(done)
		p.newline()
	}
}

func (p *Plain) failure(f Failure) {
	p.colored(failColor, f.Name)
	p.out(": " + f.Error)
	p.newline()
}

func (p *Plain) count(n int) {
	p.out(fmt.Sprintf("%d of %d", n, p.tally.Total()))
}

func (p *Plain) passedCount() {
	t := &p.tally
	p.count(t.Passed)
	p.out(" ")
	if t.Passed > 0 {
		p.colored(passColor, "passed")
	} else {
		p.out("passed")
	}
	if t.Failed > 0 {
		p.out(" ")
		p.colored(failColor, fmt.Sprintf("%d failed", t.Failed))
	}
}

// clear erases the current inline line with backspaces.
func (p *Plain) clear() {
	if p.column > 0 {
		p.raw(strings.Repeat("\b \b", p.column))
	}
	p.column = 0
}

func (p *Plain) newline() {
	p.raw("\n" + p.indent)
	p.column = 0
}

func (p *Plain) colored(c *color.Color, s string) {
	p.raw(c.Sprint(s))
	p.column += len(s)
}

func (p *Plain) out(s string) {
	p.raw(s)
	p.column += len(s)
}

func (p *Plain) raw(s string) {
	_, _ = io.WriteString(p.w, s)
}
