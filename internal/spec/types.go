package spec

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Kind discriminates the variants of Expectation.
type Kind uint8

const (
	// KindInteger expects a 4-byte integer result on stdout.
	KindInteger Kind = iota + 1
	// KindBoolean expects true (1) or false (0) as the integer result.
	KindBoolean
	// KindChar expects a character ordinal as the integer result.
	KindChar
	// KindException expects stderr to begin with an exception name.
	KindException
	// KindStackTrace expects stderr to begin with a recorded trace body.
	KindStackTrace
)

// String returns the string representation of Kind.
func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindBoolean:
		return "boolean"
	case KindChar:
		return "char"
	case KindException:
		return "exception"
	case KindStackTrace:
		return "stacktrace"
	default:
		return "unknown"
	}
}

// Expectation is the parsed outcome expected from one sub-case.
type Expectation struct {
	Kind Kind

	// Value is the expected integer result for value kinds.
	Value int32

	// Text is the expected stderr prefix for exception and stack-trace kinds.
	Text string

	// Offset is the byte offset of the value within the header.
	Offset int
}

// IsValue reports whether the expectation compares an integer result.
func (e Expectation) IsValue() bool {
	switch e.Kind {
	case KindInteger, KindBoolean, KindChar:
		return true
	default:
		return false
	}
}

// String renders the expectation the way it appears in diagnostics.
func (e Expectation) String() string {
	if e.IsValue() {
		return fmt.Sprintf("%d", e.Value)
	}
	return e.Text
}

// TestSpec holds the expectations for one compiled test binary.
type TestSpec struct {
	// SourcePath is the annotated source file the header was read from.
	SourcePath string

	// BinaryPath is the executable derived from SourcePath.
	BinaryPath string

	// Expectations are ordered by sub-case index.
	Expectations []Expectation

	// FailureReason is set by the first harness-level failure and never replaced.
	FailureReason string
}

// New returns a TestSpec for sourcePath whose binary lives in exeDir.
func New(exeDir, sourcePath string) *TestSpec {
	return &TestSpec{
		SourcePath: sourcePath,
		BinaryPath: BinaryPath(exeDir, sourcePath),
	}
}

// Fail records reason unless a failure was already recorded.
func (s *TestSpec) Fail(reason string) {
	if s.FailureReason == "" {
		s.FailureReason = reason
	}
}

// Failed reports whether a failure has been recorded.
func (s *TestSpec) Failed() bool {
	return s.FailureReason != ""
}

// BinaryPath derives the executable for sourcePath: the base name with its
// extension removed, placed in exeDir.
func BinaryPath(exeDir, sourcePath string) string {
	base := filepath.Base(sourcePath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(exeDir, base)
}
