package report

import (
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/zeebo/blake3"

	"testexec/internal/harness"
)

func sampleState(t *testing.T, binary string) *harness.BatchState {
	t.Helper()
	s := harness.NewBatchState(3)
	s.Record(harness.TestResult{SourcePath: "t/a.mj", BinaryPath: binary, Verdict: harness.VerdictPass, Expected: 2, Runs: 2})
	s.Record(harness.TestResult{
		SourcePath: "t/b.mj",
		BinaryPath: filepath.Join(t.TempDir(), "missing"),
		Verdict:    harness.VerdictFail,
		Diagnostic: "not executable",
		Expected:   1,
		Duration:   1500 * time.Millisecond,
	})
	return s
}

func TestNew(t *testing.T) {
	bin := filepath.Join(t.TempDir(), "a")
	if err := os.WriteFile(bin, []byte("subject"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	r := New("bin", time.Now().Add(-time.Second), sampleState(t, bin), errors.New("invalid input spec @ 0"))

	if _, err := ulid.ParseStrict(r.RunID); err != nil {
		t.Errorf("expected a ULID run id, got %q: %v", r.RunID, err)
	}
	if r.Total != 3 || r.Completed != 2 || r.Passed != 1 || r.Failed != 1 {
		t.Errorf("unexpected counters %+v", r)
	}
	if r.Fatal != "invalid input spec @ 0" {
		t.Errorf("expected fatal message, got %q", r.Fatal)
	}
	if len(r.Tests) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(r.Tests))
	}
	sum := blake3.Sum256([]byte("subject"))
	if r.Tests[0].Digest != hex.EncodeToString(sum[:]) {
		t.Errorf("unexpected digest %q", r.Tests[0].Digest)
	}
	if r.Tests[1].Digest != "" {
		t.Errorf("expected no digest for a missing binary, got %q", r.Tests[1].Digest)
	}
	if r.Duration < time.Second {
		t.Errorf("expected duration of at least 1s, got %v", r.Duration)
	}
}

func TestWriteRead(t *testing.T) {
	for _, name := range []string{"results.mp", "results.yaml", "results.yml"} {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "out", name)
			orig := New("bin", time.Now(), sampleState(t, "nowhere"), nil)

			if err := Write(path, orig); err != nil {
				t.Fatalf("write: %v", err)
			}
			got, err := Read(path)
			if err != nil {
				t.Fatalf("read: %v", err)
			}
			if got.RunID != orig.RunID || got.Passed != 1 || got.Failed != 1 {
				t.Errorf("unexpected record %+v", got)
			}
			if !got.Started.Equal(orig.Started) {
				t.Errorf("expected start %v, got %v", orig.Started, got.Started)
			}
			if len(got.Tests) != 2 || got.Tests[1].Diagnostic != "not executable" {
				t.Errorf("unexpected entries %+v", got.Tests)
			}
			if got.Tests[1].Duration != 1500*time.Millisecond {
				t.Errorf("expected 1.5s, got %v", got.Tests[1].Duration)
			}

			entries, err := os.ReadDir(filepath.Dir(path))
			if err != nil {
				t.Fatalf("readdir: %v", err)
			}
			if len(entries) != 1 {
				t.Errorf("expected only the record to remain, got %d files", len(entries))
			}
		})
	}
}

func TestFormatFor(t *testing.T) {
	tests := map[string]Format{
		"r.yaml":    FormatYAML,
		"r.YML":     FormatYAML,
		"r.mp":      FormatMsgpack,
		"r.msgpack": FormatMsgpack,
		"r":         FormatMsgpack,
	}
	for path, want := range tests {
		if got := FormatFor(path); got != want {
			t.Errorf("%s: expected %d, got %d", path, want, got)
		}
	}
}

func TestRead_Missing(t *testing.T) {
	if _, err := Read(filepath.Join(t.TempDir(), "none.mp")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}
