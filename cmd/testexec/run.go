package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"testexec/internal/config"
	"testexec/internal/harness"
	"testexec/internal/observ"
	"testexec/internal/report"
)

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "settings file (default: nearest "+config.FileName+")")
	cmd.Flags().Duration("timeout", 0, "watchdog deadline per child process")
	cmd.Flags().Duration("tick", 0, "watchdog tick interval")
	cmd.Flags().Int("stdout-cap", 0, "stdout bytes captured per run")
	cmd.Flags().Int("stderr-cap", 0, "stderr bytes captured per run")
	cmd.Flags().Int("spec-cap", 0, "header bytes read from each test source")
	cmd.Flags().Bool("summary", false, "print a batch summary on stderr")
	cmd.Flags().String("results", "", "write a results record (.yaml/.yml for YAML, msgpack otherwise)")
	cmd.Flags().Bool("timings", false, "print per-phase timings on stderr")
}

func runBatch(cmd *cobra.Command, args []string) error {
	if len(args) < 2 {
		return usageError("usage: %s", usageLine)
	}
	if err := applyColor(cmd, cmd.ErrOrStderr()); err != nil {
		return err
	}
	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	summary, err := cmd.Flags().GetBool("summary")
	if err != nil {
		return fmt.Errorf("failed to get summary flag: %w", err)
	}
	resultsPath, err := cmd.Flags().GetString("results")
	if err != nil {
		return fmt.Errorf("failed to get results flag: %w", err)
	}
	timings, err := cmd.Flags().GetBool("timings")
	if err != nil {
		return fmt.Errorf("failed to get timings flag: %w", err)
	}

	tracer, cleanup, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	exeDir := args[0]
	tests, err := expandTestArgs(args[1:])
	if err != nil {
		return usageError("%v", err)
	}

	cfg := harness.Config{
		ExeDir:    exeDir,
		HeaderCap: settings.SpecCap,
		Runner:    settings.RunnerConfig(),
		Timeout:   settings.Timeout,
		Tick:      settings.Tick,
	}
	var timer *observ.Timer
	if timings || resultsPath != "" {
		timer = observ.NewTimer()
	}

	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()
	started := time.Now()
	state, runErr := harness.New(cfg, stdout, timer).Run(cmd.Context(), tests)

	var fatal *harness.FatalError
	if errors.As(runErr, &fatal) {
		fmt.Fprintln(stdout, fatal.Error())
		dumpRing(stderr, tracer)
	}

	if summary {
		if err := harness.WriteSummary(stderr, state.Counts(), state.Failures()); err != nil {
			return fmt.Errorf("write summary: %w", err)
		}
	}
	if timings {
		printTimings(stderr, timer)
	}
	if resultsPath != "" {
		var abort error
		if fatal != nil {
			abort = fatal
		}
		rec := report.New(exeDir, started, state, abort)
		if timer != nil {
			rep := timer.Report()
			rec.Timings = &rep
		}
		if err := report.Write(resultsPath, rec); err != nil {
			return fmt.Errorf("write results: %w", err)
		}
	}

	switch {
	case fatal != nil:
		return &exitError{code: fatal.Status()}
	case runErr != nil:
		return &exitError{code: harness.ExitFailed, err: runErr}
	case state.ExitCode() != harness.ExitOK:
		return &exitError{code: state.ExitCode()}
	}
	return nil
}

// loadSettings layers command-line flags over the settings file.
func loadSettings(cmd *cobra.Command) (config.Settings, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return config.Settings{}, fmt.Errorf("failed to get config flag: %w", err)
	}
	var s config.Settings
	if path != "" {
		s, err = config.Load(path)
	} else {
		s, err = config.Discover(".")
	}
	if err != nil {
		return config.Settings{}, usageError("%v", err)
	}

	flags := cmd.Flags()
	durations := []struct {
		name string
		dest *time.Duration
	}{
		{"timeout", &s.Timeout},
		{"tick", &s.Tick},
	}
	for _, d := range durations {
		if !flags.Changed(d.name) {
			continue
		}
		if *d.dest, err = flags.GetDuration(d.name); err != nil {
			return config.Settings{}, fmt.Errorf("failed to get %s flag: %w", d.name, err)
		}
	}
	caps := []struct {
		name string
		dest *int
	}{
		{"stdout-cap", &s.StdoutCap},
		{"stderr-cap", &s.StderrCap},
		{"spec-cap", &s.SpecCap},
	}
	for _, c := range caps {
		if !flags.Changed(c.name) {
			continue
		}
		if *c.dest, err = flags.GetInt(c.name); err != nil {
			return config.Settings{}, fmt.Errorf("failed to get %s flag: %w", c.name, err)
		}
	}

	if err := s.Validate(); err != nil {
		return config.Settings{}, usageError("%v", err)
	}
	return s, nil
}
