package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"testexec/internal/harness"
	"testexec/internal/version"
)

const usageLine = "testexec [flags] <exe-dir> <test>..."

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   usageLine,
		Short: "Run compiled language tests against their annotated sources",
		Long: `testexec runs each compiled test binary once per expectation found in the
header of its source file and reports progress as ##+/##- lines on stdout.`,
		Version:       version.Plain(),
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ArbitraryArgs,
		RunE:          runBatch,
	}

	root.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	root.PersistentFlags().String("trace", "", "trace output file (default stderr, .ndjson selects NDJSON)")
	root.PersistentFlags().String("trace-level", "off", "trace level (off|error|batch|test|debug)")
	root.PersistentFlags().String("trace-mode", "stream", "trace storage (stream|ring|both)")
	root.PersistentFlags().Int("trace-ring-size", 4096, "events kept by the ring buffer")

	addRunFlags(root)
	root.AddCommand(newProgressCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func main() {
	os.Exit(execute(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// execute runs the CLI and maps the outcome to a process exit status.
func execute(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return harness.ExitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil {
			fmt.Fprintf(stderr, "testexec: %v\n", ee.err)
		}
		return ee.code
	}
	fmt.Fprintf(stderr, "testexec: %v\n", err)
	return harness.ExitUsage
}

// exitError carries a process exit status out of a command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

func usageError(format string, args ...any) error {
	return &exitError{code: harness.ExitUsage, err: fmt.Errorf(format, args...)}
}

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
