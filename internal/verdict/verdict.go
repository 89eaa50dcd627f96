// Package verdict decides whether one run of a subject binary matched its
// expectation.
package verdict

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"testexec/internal/runner"
	"testexec/internal/spec"
)

// maxDiagnostic is the longest diagnostic kept, in bytes.
const maxDiagnostic = 1023

// Mismatch describes a failed run. Its message is meant for a human reading the
// progress report.
type Mismatch struct {
	Run     int
	Message string
}

func (m *Mismatch) Error() string { return m.Message }

// Classify compares the outcome of run number idx against exp and returns nil on a
// match or a *Mismatch otherwise. It has no side effects.
func Classify(idx int, out *runner.Outcome, exp spec.Expectation) error {
	switch {
	case out.Signaled:
		return mismatch(idx, "unexpected signal %d", int(out.Signal))
	case !out.Exited:
		return mismatch(idx, "unexpected termination")
	case exp.IsValue():
		return classifyValue(idx, out, exp)
	default:
		return classifyText(idx, out, exp)
	}
}

// classifyValue requires exactly four bytes on stdout holding the expected integer
// and nothing on stderr.
func classifyValue(idx int, out *runner.Outcome, exp spec.Expectation) error {
	outLen, errLen := len(out.Stdout), len(out.Stderr)
	got := Result(out.Stdout)
	switch {
	case outLen == 4 && errLen == 0 && got == exp.Value:
		return nil
	case outLen == 4 && errLen == 0:
		return mismatch(idx, "expected %d, got %d", exp.Value, got)
	case outLen == 0:
		return mismatch(idx, "expected %d, got %q", exp.Value, cString(out.Stderr))
	default:
		return mismatch(idx, "expected %d, got %d (%d bytes), %q", exp.Value, got, outLen, cString(out.Stderr))
	}
}

// classifyText requires an empty stdout and a stderr that begins with the
// expected text.
func classifyText(idx int, out *runner.Outcome, exp spec.Expectation) error {
	outLen, errLen := len(out.Stdout), len(out.Stderr)
	want := exp.Text
	switch {
	case outLen == 0 && errLen >= len(want) && bytes.HasPrefix(out.Stderr, []byte(want)):
		return nil
	case outLen == 4 && errLen == 0:
		return mismatch(idx, "expected %s, got %d", want, Result(out.Stdout))
	case outLen == 0:
		return mismatch(idx, "expected %q = %d, got %q", want, len(want), cString(out.Stderr))
	default:
		return mismatch(idx, "expected %q, got %d (%d bytes), %q", want, Result(out.Stdout), outLen, cString(out.Stderr))
	}
}

// Result decodes the integer a subject writes to stdout: the first four bytes in
// native byte order, zero-padded when fewer were written.
func Result(stdout []byte) int32 {
	var buf [4]byte
	copy(buf[:], stdout)
	return int32(binary.NativeEndian.Uint32(buf[:]))
}

// Encode is the inverse of Result.
func Encode(v int32) []byte {
	buf := make([]byte, 4)
	binary.NativeEndian.PutUint32(buf, uint32(v))
	return buf
}

// cString returns b up to its first NUL byte.
func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

// mismatch builds a diagnostic. Captured stream text is always passed through
// %q, so a diagnostic never carries raw quotes or control bytes.
func mismatch(idx int, format string, args ...any) *Mismatch {
	msg := fmt.Sprintf("run %d: ", idx) + fmt.Sprintf(format, args...)
	if len(msg) > maxDiagnostic {
		msg = msg[:maxDiagnostic]
	}
	return &Mismatch{Run: idx, Message: msg}
}
