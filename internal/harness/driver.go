package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"testexec/internal/observ"
	"testexec/internal/protocol"
	"testexec/internal/runner"
	"testexec/internal/spec"
	"testexec/internal/trace"
	"testexec/internal/verdict"
	"testexec/internal/watchdog"
)

// Config holds the batch settings.
type Config struct {
	// ExeDir holds the compiled subject binaries.
	ExeDir string

	// HeaderCap is how many bytes of each test source are examined.
	HeaderCap int

	Runner runner.Config

	Timeout time.Duration
	Tick    time.Duration
}

// DefaultConfig returns the stock settings for binaries in exeDir.
func DefaultConfig(exeDir string) Config {
	return Config{
		ExeDir:    exeDir,
		HeaderCap: spec.DefaultHeaderCap,
		Runner:    runner.DefaultConfig(),
		Timeout:   watchdog.DefaultTimeout,
		Tick:      watchdog.DefaultTick,
	}
}

// Driver runs a batch of tests.
type Driver struct {
	cfg    Config
	proto  *protocol.Writer
	dog    *watchdog.Watchdog
	runner *runner.Runner
	timer  *observ.Timer
	state  *BatchState
}

// New creates a Driver that reports protocol lines to out. timer may be nil.
func New(cfg Config, out io.Writer, timer *observ.Timer) *Driver {
	dog := watchdog.New(cfg.Timeout, cfg.Tick)
	return &Driver{
		cfg:    cfg,
		proto:  protocol.NewWriter(out),
		dog:    dog,
		runner: runner.New(cfg.Runner, dog),
		timer:  timer,
	}
}

// Watchdog exposes the batch watchdog.
func (d *Driver) Watchdog() *watchdog.Watchdog { return d.dog }

// Run executes tests in order and returns the final state. A *FatalError stops
// the batch early; the returned state still covers the tests that finished.
func (d *Driver) Run(ctx context.Context, tests []string) (*BatchState, error) {
	d.state = NewBatchState(len(tests))

	ctx, span := trace.StartSpan(ctx, trace.ScopeBatch, "batch")
	span.WithExtra("tests", strconv.Itoa(len(tests)))

	tracer := trace.FromContext(ctx)
	d.dog.OnKill = func(pid int) {
		trace.Point(tracer, trace.ScopeRun, "watchdog kill", "pid "+strconv.Itoa(pid), span.ID())
	}

	g, gctx := errgroup.WithContext(ctx)
	dogCtx, stopDog := context.WithCancel(gctx)
	g.Go(func() error {
		return d.dog.Run(dogCtx)
	})
	g.Go(func() error {
		defer stopDog()
		return d.runAll(gctx, tests)
	})
	err := g.Wait()

	c := d.state.Counts()
	span.WithExtra("passed", strconv.Itoa(c.Passed)).
		WithExtra("failed", strconv.Itoa(c.Failed))
	if err != nil {
		span.End(err.Error())
	} else {
		span.End("")
	}
	return d.state, err
}

func (d *Driver) runAll(ctx context.Context, tests []string) error {
	d.proto.Total(len(tests))
	for _, path := range tests {
		if err := ctx.Err(); err != nil {
			return err
		}
		res, err := d.runTest(ctx, path)
		if err != nil {
			return err
		}
		d.state.Record(res)
		if res.Passed() {
			d.proto.Pass()
		} else {
			d.proto.Fail(res.Diagnostic)
		}
	}
	return d.proto.Err()
}

// runTest takes one test source through read, parse and execute. Only a fatal
// header error is returned; everything else is recorded in the result.
func (d *Driver) runTest(ctx context.Context, path string) (TestResult, error) {
	ctx, span := trace.StartSpan(ctx, trace.ScopeTest, path)
	d.proto.Begin(path)

	ts := spec.New(d.cfg.ExeDir, path)
	res := TestResult{
		SourcePath: ts.SourcePath,
		BinaryPath: ts.BinaryPath,
		Started:    time.Now(),
	}

	if err := d.load(ts); err != nil {
		span.End(err.Error())
		return res, &FatalError{Path: path, Err: err}
	}
	if !ts.Failed() {
		res.Expected = len(ts.Expectations)
		d.execute(ctx, ts, &res)
	}

	res.Duration = time.Since(res.Started)
	res.Verdict = VerdictPass
	if ts.Failed() {
		res.Verdict = VerdictFail
		res.Diagnostic = ts.FailureReason
	}
	span.WithExtra("verdict", string(res.Verdict)).
		WithExtra("runs", strconv.Itoa(res.Runs)).
		End(res.Diagnostic)
	return res, nil
}

// load reads and parses the header into ts. Only a *spec.ParseError is
// returned.
func (d *Driver) load(ts *spec.TestSpec) error {
	idx := d.timer.Begin("read")
	h, err := spec.ReadHeader(ts.SourcePath, d.cfg.HeaderCap)
	d.timer.End(idx, ts.SourcePath)
	if err != nil {
		if errors.Is(err, spec.ErrCannotOpen) {
			ts.Fail(spec.ErrCannotOpen.Error())
		} else {
			ts.Fail(spec.ErrCannotRead.Error())
		}
		return nil
	}

	idx = d.timer.Begin("parse")
	exps, err := spec.Parse(h)
	d.timer.End(idx, ts.SourcePath)

	var pe *spec.ParseError
	switch {
	case errors.As(err, &pe):
		return pe
	case errors.Is(err, spec.ErrInvalidSpec):
		ts.Fail(spec.ErrInvalidSpec.Error())
	case err != nil:
		ts.Fail(err.Error())
	default:
		ts.Expectations = exps
	}
	return nil
}

// execute runs each sub-case in index order and stops at the first failure.
func (d *Driver) execute(ctx context.Context, ts *spec.TestSpec, res *TestResult) {
	idx := d.timer.Begin("execute")
	defer func() { d.timer.End(idx, ts.SourcePath) }()

	if err := d.runner.Prepare(ts.BinaryPath); err != nil {
		ts.Fail(runner.ErrNotExecutable.Error())
		return
	}

	for i, exp := range ts.Expectations {
		_, span := trace.StartSpan(ctx, trace.ScopeRun, fmt.Sprintf("run %d", i))
		span.WithExtra("expect", exp.String())

		out, err := d.runner.RunOnce(ctx, ts.BinaryPath, i)
		if err != nil {
			span.End(err.Error())
			ts.Fail(fmt.Sprintf("run %d: %v", i, err))
			return
		}
		res.Runs++
		if out.TimedOut {
			res.Kills++
		}
		span.WithExtra("pid", strconv.Itoa(out.Pid)).
			WithExtra("stdout", strconv.Itoa(len(out.Stdout))).
			WithExtra("stderr", strconv.Itoa(len(out.Stderr)))

		if err := verdict.Classify(i, out, exp); err != nil {
			span.End(err.Error())
			ts.Fail(err.Error())
			return
		}
		span.End("ok")
	}
}
