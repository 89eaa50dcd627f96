// Package report persists the outcome of a batch as a results record.
//
// Records are msgpack by default; a .yaml or .yml path selects YAML.
package report

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/vmihailenco/msgpack/v5"
	"github.com/zeebo/blake3"
	"gopkg.in/yaml.v3"

	"testexec/internal/harness"
	"testexec/internal/observ"
)

// schemaVersion is bumped when the record layout changes.
const schemaVersion uint16 = 1

// Report is a finished batch.
type Report struct {
	Schema   uint16        `msgpack:"schema" yaml:"schema"`
	RunID    string        `msgpack:"run_id" yaml:"run_id"`
	ExeDir   string        `msgpack:"exe_dir" yaml:"exe_dir"`
	Started  time.Time     `msgpack:"started" yaml:"started"`
	Duration time.Duration `msgpack:"duration" yaml:"duration"`

	Total     int `msgpack:"total" yaml:"total"`
	Completed int `msgpack:"completed" yaml:"completed"`
	Passed    int `msgpack:"passed" yaml:"passed"`
	Failed    int `msgpack:"failed" yaml:"failed"`

	// Fatal holds the error that aborted the batch, if any.
	Fatal string `msgpack:"fatal,omitempty" yaml:"fatal,omitempty"`

	Tests   []TestEntry    `msgpack:"tests" yaml:"tests"`
	Timings *observ.Report `msgpack:"timings,omitempty" yaml:"timings,omitempty"`
}

// TestEntry is one test of the batch.
type TestEntry struct {
	Source     string        `msgpack:"source" yaml:"source"`
	Binary     string        `msgpack:"binary" yaml:"binary"`
	Digest     string        `msgpack:"digest,omitempty" yaml:"digest,omitempty"`
	Verdict    string        `msgpack:"verdict" yaml:"verdict"`
	Diagnostic string        `msgpack:"diagnostic,omitempty" yaml:"diagnostic,omitempty"`
	Expected   int           `msgpack:"expected" yaml:"expected"`
	Runs       int           `msgpack:"runs" yaml:"runs"`
	Kills      int           `msgpack:"kills,omitempty" yaml:"kills,omitempty"`
	Duration   time.Duration `msgpack:"duration" yaml:"duration"`
}

// New builds a report from the batch state. fatal may be nil.
func New(exeDir string, started time.Time, state *harness.BatchState, fatal error) *Report {
	c := state.Counts()
	r := &Report{
		Schema:    schemaVersion,
		RunID:     ulid.Make().String(),
		ExeDir:    exeDir,
		Started:   started.UTC(),
		Duration:  time.Since(started),
		Total:     c.Total,
		Completed: c.Completed,
		Passed:    c.Passed,
		Failed:    c.Failed,
	}
	if fatal != nil {
		r.Fatal = fatal.Error()
	}
	for _, res := range state.Results() {
		r.Tests = append(r.Tests, TestEntry{
			Source:     res.SourcePath,
			Binary:     res.BinaryPath,
			Digest:     Digest(res.BinaryPath),
			Verdict:    string(res.Verdict),
			Diagnostic: res.Diagnostic,
			Expected:   res.Expected,
			Runs:       res.Runs,
			Kills:      res.Kills,
			Duration:   res.Duration,
		})
	}
	return r
}

// Digest returns the blake3 hex digest of the file at path, or "" when it
// cannot be read.
func Digest(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	h := blake3.New()
	if _, err := io.Copy(h, f); err != nil {
		return ""
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Format is a record encoding.
type Format uint8

const (
	FormatMsgpack Format = iota + 1
	FormatYAML
)

// FormatFor picks the encoding from the file extension.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatMsgpack
	}
}

// Write stores r at path, replacing any previous record atomically.
func Write(path string, r *Report) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".results-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(f.Name())
		}
	}()

	switch FormatFor(path) {
	case FormatYAML:
		enc := yaml.NewEncoder(f)
		enc.SetIndent(2)
		if err = enc.Encode(r); err != nil {
			return fmt.Errorf("encode results: %w", err)
		}
		if err = enc.Close(); err != nil {
			return fmt.Errorf("encode results: %w", err)
		}
	default:
		if err = msgpack.NewEncoder(f).Encode(r); err != nil {
			return fmt.Errorf("encode results: %w", err)
		}
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), path)
}

// Read loads a record written by Write.
func Read(path string) (*Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r Report
	switch FormatFor(path) {
	case FormatYAML:
		err = yaml.NewDecoder(f).Decode(&r)
	default:
		err = msgpack.NewDecoder(f).Decode(&r)
	}
	if err != nil {
		return nil, fmt.Errorf("decode results %s: %w", path, err)
	}
	if r.Schema != schemaVersion {
		return nil, errors.New("results record has an unsupported schema")
	}
	return &r, nil
}
