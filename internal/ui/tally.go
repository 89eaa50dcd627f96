package ui

import "testexec/internal/protocol"

const (
	reasonUnterminated = "unterminated test case"
	reasonAbrupt       = "abrupt output end"
	unknownName        = "<unknown>"
)

// Failure is a failed test as seen by a consumer.
type Failure struct {
	Name  string
	Error string
}

// Tally folds protocol events into counters. It tolerates malformed streams:
// a begin while a test is open fails the open one, and an end without a begin
// is attributed to an unknown test.
type Tally struct {
	Expected int
	Passed   int
	Failed   int
	Current  string
	Failures []Failure

	open bool
}

// Step describes what one event did to the tally.
type Step struct {
	Begun    string
	Finished string
	Passed   bool
	Err      string

	// Forced is set for a failure the consumer synthesized.
	Forced *Failure
}

// Apply records evt and reports what changed.
func (t *Tally) Apply(evt protocol.Event) Step {
	var st Step
	switch evt.Kind {
	case protocol.KindTotal:
		if evt.Count > 0 {
			t.Expected += evt.Count
		}
	case protocol.KindBegin:
		if t.open {
			f := t.fail(reasonUnterminated)
			st.Forced = &f
		}
		t.Current, t.open = evt.Name, true
		st.Begun = evt.Name
	case protocol.KindPass:
		st.Finished, st.Passed = t.name(), true
		t.Passed++
		t.Current, t.open = "", false
	case protocol.KindFail:
		st.Finished, st.Err = t.name(), evt.Diagnostic
		t.fail(evt.Diagnostic)
	}
	return st
}

// Finish fails a test left open at the end of input. It returns the
// synthesized failure, if any.
func (t *Tally) Finish() *Failure {
	if !t.open {
		return nil
	}
	f := t.fail(reasonAbrupt)
	return &f
}

// Done is the number of finished tests.
func (t *Tally) Done() int { return t.Passed + t.Failed }

// Total is the announced total, or the finished count when that is larger.
func (t *Tally) Total() int { return max(t.Done(), t.Expected) }

// OK reports whether nothing failed.
func (t *Tally) OK() bool { return t.Failed == 0 }

func (t *Tally) name() string {
	if !t.open {
		return unknownName
	}
	return t.Current
}

func (t *Tally) fail(reason string) Failure {
	f := Failure{Name: t.name(), Error: reason}
	t.Failed++
	t.Failures = append(t.Failures, f)
	t.Current, t.open = "", false
	return f
}
