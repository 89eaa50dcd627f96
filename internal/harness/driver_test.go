package harness

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"testexec/internal/verdict"
)

type fixture struct {
	t      *testing.T
	srcDir string
	exeDir string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("/bin/sh not available")
	}
	root := t.TempDir()
	f := &fixture{t: t, srcDir: filepath.Join(root, "src"), exeDir: filepath.Join(root, "bin")}
	for _, dir := range []string{f.srcDir, f.exeDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}
	return f
}

// source writes a test source and returns its path.
func (f *fixture) source(name, header string) string {
	f.t.Helper()
	path := filepath.Join(f.srcDir, name)
	if err := os.WriteFile(path, []byte(header), 0o644); err != nil {
		f.t.Fatalf("write source: %v", err)
	}
	return path
}

// binary writes the subject for a source named name.mj.
func (f *fixture) binary(name, body string) {
	f.t.Helper()
	path := filepath.Join(f.exeDir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o600); err != nil {
		f.t.Fatalf("write binary: %v", err)
	}
}

// printInt is a shell command writing v the way a subject returns a result.
func printInt(v int32) string {
	var b strings.Builder
	b.WriteString("printf '")
	for _, c := range verdict.Encode(v) {
		fmt.Fprintf(&b, "\\%03o", c)
	}
	b.WriteString("'")
	return b.String()
}

func (f *fixture) run(cfg Config, tests ...string) (*BatchState, string, error) {
	f.t.Helper()
	var out bytes.Buffer
	d := New(cfg, &out, nil)
	state, err := d.Run(context.Background(), tests)
	return state, out.String(), err
}

func TestDriver_MixedBatch(t *testing.T) {
	f := newFixture(t)
	pass := f.source("pass.mj", "//@execute main()=3\nbody\n")
	f.binary("pass", printInt(3))
	wrong := f.source("wrong.mj", "//@execute main()=5\n")
	f.binary("wrong", "exit 0")
	missing := filepath.Join(f.srcDir, "absent.mj")
	invalid := f.source("invalid.mj", "//@stacktrace\n//@stacktrace: oops\n")
	nobin := f.source("nobin.mj", "//@execute main()=1\n")

	state, out, err := f.run(DefaultConfig(f.exeDir), pass, wrong, missing, invalid, nobin)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := strings.Join([]string{
		"##>5",
		"##+" + pass, "##-ok",
		"##+" + wrong, `##-fail: run 0: expected 5, got ""`,
		"##+" + missing, "##-fail: cannot open",
		"##+" + invalid, "##-fail: invalid test case spec",
		"##+" + nobin, "##-fail: not executable",
	}, "\n") + "\n"
	if out != want {
		t.Errorf("protocol mismatch\nexpected:\n%s\ngot:\n%s", want, out)
	}

	c := state.Counts()
	if c.Total != 5 || c.Completed != 5 || c.Passed != 1 || c.Failed != 4 {
		t.Errorf("unexpected counts %+v", c)
	}
	if state.ExitCode() != ExitFailed {
		t.Errorf("expected exit code %d, got %d", ExitFailed, state.ExitCode())
	}
	failures := state.Failures()
	if len(failures) != 4 || failures[0].Path != wrong || failures[3].Path != nobin {
		t.Errorf("unexpected failure order %+v", failures)
	}
}

func TestDriver_AllPass(t *testing.T) {
	f := newFixture(t)
	a := f.source("a.mj", "//@execute main()=true\n")
	f.binary("a", printInt(1))
	b := f.source("b.mj", "//@execute main()=!Boom\n")
	f.binary("b", "printf '!Boom\\n' >&2; exit 1")

	state, _, err := f.run(DefaultConfig(f.exeDir), a, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.ExitCode() != ExitOK {
		t.Errorf("expected exit code 0, got %d (%+v)", state.ExitCode(), state.Failures())
	}
}

func TestDriver_ArgumentCountPerSubCase(t *testing.T) {
	f := newFixture(t)
	src := f.source("args.mj", "//@execute main(a)=0=1=2\n")
	f.binary("args", fmt.Sprintf("case $# in 0) %s;; 1) %s;; *) %s;; esac", printInt(0), printInt(1), printInt(2)))

	state, out, err := f.run(DefaultConfig(f.exeDir), src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "##-ok") {
		t.Errorf("expected pass, got %q", out)
	}
	res := state.Results()[0]
	if res.Expected != 3 || res.Runs != 3 {
		t.Errorf("expected 3 of 3 runs, got %d of %d", res.Runs, res.Expected)
	}
}

func TestDriver_FirstFailureStopsTest(t *testing.T) {
	f := newFixture(t)
	src := f.source("stop.mj", "//@execute main()=7=7=7\n")
	f.binary("stop", fmt.Sprintf("if [ $# -eq 1 ]; then %s; else %s; fi", printInt(8), printInt(7)))

	state, out, err := f.run(DefaultConfig(f.exeDir), src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "##-fail: run 1: expected 7, got 8") {
		t.Errorf("expected run 1 failure, got %q", out)
	}
	if res := state.Results()[0]; res.Runs != 2 {
		t.Errorf("expected sub-case 2 to be skipped, got %d runs", res.Runs)
	}
}

func TestDriver_FatalStopsBatch(t *testing.T) {
	f := newFixture(t)
	good := f.source("good.mj", "//@execute main()=1\n")
	f.binary("good", printInt(1))
	bad := f.source("bad.mj", "// plain comment\n")
	later := f.source("later.mj", "//@execute main()=1\n")
	f.binary("later", printInt(1))

	state, out, err := f.run(DefaultConfig(f.exeDir), good, bad, later)
	if !IsFatal(err) {
		t.Fatalf("expected fatal error, got %v", err)
	}
	if !strings.Contains(err.Error(), "invalid input spec @ 0") {
		t.Errorf("unexpected fatal message %q", err.Error())
	}
	if strings.Contains(out, later) {
		t.Errorf("expected no test after the fatal one, got %q", out)
	}
	if c := state.Counts(); c.Completed != 1 || c.Passed != 1 {
		t.Errorf("unexpected counts %+v", c)
	}
}

func TestDriver_WatchdogKillsHang(t *testing.T) {
	f := newFixture(t)
	src := f.source("hang.mj", "//@execute main()=1=2\n")
	f.binary("hang", "while :; do :; done")

	cfg := DefaultConfig(f.exeDir)
	cfg.Timeout = 100 * time.Millisecond
	cfg.Tick = 20 * time.Millisecond

	start := time.Now()
	state, out, err := f.run(cfg, src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if time.Since(start) > 10*time.Second {
		t.Errorf("watchdog took too long: %v", time.Since(start))
	}
	if !strings.Contains(out, "##-fail: run 0: unexpected signal 9") {
		t.Errorf("expected signal 9 failure, got %q", out)
	}
	res := state.Results()[0]
	if res.Runs != 1 || res.Kills != 1 {
		t.Errorf("expected one killed run, got runs=%d kills=%d", res.Runs, res.Kills)
	}
}

func TestDriver_Cancelled(t *testing.T) {
	f := newFixture(t)
	src := f.source("a.mj", "//@execute main()=1\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	_, err := New(DefaultConfig(f.exeDir), &out, nil).Run(ctx, []string{src})
	if err == nil {
		t.Fatal("expected cancellation error")
	}
	if IsFatal(err) {
		t.Errorf("cancellation must not be fatal, got %v", err)
	}
}
