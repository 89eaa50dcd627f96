// Package runner spawns a compiled test binary once per sub-case and captures a
// bounded prefix of what it writes to stdout and stderr.
package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"
)

const (
	// DefaultStdoutCap is the most stdout bytes kept per run.
	DefaultStdoutCap = 100
	// DefaultStderrCap is the most stderr bytes kept per run.
	DefaultStderrCap = 1024
	// DefaultPlaceholder is the content of every synthetic argument.
	DefaultPlaceholder = "a"
	// DefaultFileMode is applied to a binary before its first run.
	DefaultFileMode os.FileMode = 0o744

	// drainGrace bounds the single read when a grandchild still holds a pipe open.
	drainGrace = 50 * time.Millisecond
)

var (
	// ErrNotExecutable means the binary's permission bits could not be set.
	ErrNotExecutable = errors.New("not executable")
	// ErrPipeStdout means the stdout pipe could not be created.
	ErrPipeStdout = errors.New("couldn't pipe stdout")
	// ErrPipeStderr means the stderr pipe could not be created.
	ErrPipeStderr = errors.New("couldn't pipe stderr")
	// ErrSpawn means the child process could not be started.
	ErrSpawn = errors.New("couldn't spawn")
)

// Config controls how a subject binary is invoked.
type Config struct {
	StdoutCap   int
	StderrCap   int
	Placeholder string
	FileMode    os.FileMode
}

// DefaultConfig returns the stock invocation settings.
func DefaultConfig() Config {
	return Config{
		StdoutCap:   DefaultStdoutCap,
		StderrCap:   DefaultStderrCap,
		Placeholder: DefaultPlaceholder,
		FileMode:    DefaultFileMode,
	}
}

// Guard is told about each child for exactly as long as the runner waits on it.
type Guard interface {
	// Arm starts supervising p.
	Arm(p *os.Process)
	// Disarm stops supervising and reports whether the guard killed the child.
	Disarm() bool
}

// Runner executes sub-cases strictly one at a time.
type Runner struct {
	cfg   Config
	guard Guard
}

// New creates a Runner. A nil guard disables supervision.
func New(cfg Config, guard Guard) *Runner {
	if cfg.StdoutCap <= 0 {
		cfg.StdoutCap = DefaultStdoutCap
	}
	if cfg.StderrCap <= 0 {
		cfg.StderrCap = DefaultStderrCap
	}
	if cfg.FileMode == 0 {
		cfg.FileMode = DefaultFileMode
	}
	return &Runner{cfg: cfg, guard: guard}
}

// Prepare marks binaryPath executable. It is called once per test, before the
// first sub-case.
func (r *Runner) Prepare(binaryPath string) error {
	if err := os.Chmod(binaryPath, r.cfg.FileMode); err != nil {
		return fmt.Errorf("%w: %v", ErrNotExecutable, err)
	}
	return nil
}

// Argv builds the argument vector for a run: the binary followed by argCount
// copies of placeholder.
func Argv(binaryPath string, argCount int, placeholder string) []string {
	argv := make([]string, 0, argCount+1)
	argv = append(argv, binaryPath)
	for i := 0; i < argCount; i++ {
		argv = append(argv, placeholder)
	}
	return argv
}

// RunOnce runs binaryPath with argCount positional arguments, an empty
// environment, and stdout/stderr connected to fresh pipes. After the child
// exits, each pipe is read exactly once; anything past the caps is dropped.
func (r *Runner) RunOnce(ctx context.Context, binaryPath string, argCount int) (*Outcome, error) {
	outR, outW, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPipeStdout, err)
	}
	defer outR.Close()

	errR, errW, err := os.Pipe()
	if err != nil {
		outW.Close()
		return nil, fmt.Errorf("%w: %v", ErrPipeStderr, err)
	}
	defer errR.Close()

	argv := Argv(binaryPath, argCount, r.cfg.Placeholder)
	cmd := exec.CommandContext(ctx, execPath(binaryPath), argv[1:]...)
	cmd.Args[0] = binaryPath
	cmd.Env = []string{}
	cmd.Stdout = outW
	cmd.Stderr = errW

	started := time.Now()
	startErr := cmd.Start()
	// the child holds its own copies; EOF needs ours gone
	outW.Close()
	errW.Close()
	if startErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrSpawn, startErr)
	}

	if r.guard != nil {
		r.guard.Arm(cmd.Process)
	}
	waitErr := cmd.Wait()
	timedOut := false
	if r.guard != nil {
		timedOut = r.guard.Disarm()
	}

	var exitErr *exec.ExitError
	if waitErr != nil && !errors.As(waitErr, &exitErr) {
		return nil, fmt.Errorf("wait: %w", waitErr)
	}

	out := &Outcome{
		Pid:      cmd.Process.Pid,
		Duration: time.Since(started),
		TimedOut: timedOut,
		Stdout:   readOnce(outR, r.cfg.StdoutCap),
		Stderr:   readOnce(errR, r.cfg.StderrCap),
	}
	out.setStatus(cmd.ProcessState)
	return out, nil
}

// readOnce performs a single bounded read. Short reads are not retried.
func readOnce(f *os.File, capacity int) []byte {
	buf := make([]byte, capacity)
	_ = f.SetReadDeadline(time.Now().Add(drainGrace))
	n, _ := f.Read(buf)
	return buf[:n]
}

// execPath keeps a bare file name from being resolved through $PATH.
func execPath(binaryPath string) string {
	if filepath.Base(binaryPath) == binaryPath {
		return "." + string(filepath.Separator) + binaryPath
	}
	return binaryPath
}

// Outcome is everything the classifier needs to know about one run.
type Outcome struct {
	Pid int

	// Exited is set for a normal termination, with ExitCode holding the status.
	Exited   bool
	ExitCode int

	// Signaled is set when the child was terminated by Signal.
	Signaled bool
	Signal   syscall.Signal

	// Stdout and Stderr are the captured prefixes of each stream.
	Stdout []byte
	Stderr []byte

	// TimedOut is set when the watchdog killed the child.
	TimedOut bool

	Duration   time.Duration
	UserTime   time.Duration
	SystemTime time.Duration
}

func (o *Outcome) setStatus(state *os.ProcessState) {
	if state == nil {
		return
	}
	o.UserTime = state.UserTime()
	o.SystemTime = state.SystemTime()
	if ws, ok := state.Sys().(syscall.WaitStatus); ok {
		switch {
		case ws.Signaled():
			o.Signaled = true
			o.Signal = ws.Signal()
		case ws.Exited():
			o.Exited = true
			o.ExitCode = ws.ExitStatus()
		}
		return
	}
	o.Exited = state.Exited()
	o.ExitCode = state.ExitCode()
}
