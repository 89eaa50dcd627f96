// Package config loads harness settings from an optional testexec.toml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"fortio.org/safecast"
	"github.com/BurntSushi/toml"

	"testexec/internal/runner"
	"testexec/internal/spec"
	"testexec/internal/watchdog"
)

// FileName is the settings file looked up from the working directory upward.
const FileName = "testexec.toml"

// Settings are the effective harness limits.
type Settings struct {
	// Path is the file the settings came from; empty for defaults.
	Path string

	Timeout time.Duration
	Tick    time.Duration

	StdoutCap int
	StderrCap int
	SpecCap   int

	Placeholder string
	FileMode    os.FileMode
}

// Defaults returns the built-in settings.
func Defaults() Settings {
	return Settings{
		Timeout:     watchdog.DefaultTimeout,
		Tick:        watchdog.DefaultTick,
		StdoutCap:   runner.DefaultStdoutCap,
		StderrCap:   runner.DefaultStderrCap,
		SpecCap:     spec.DefaultHeaderCap,
		Placeholder: runner.DefaultPlaceholder,
		FileMode:    runner.DefaultFileMode,
	}
}

// Validate rejects settings the harness cannot run with.
func (s Settings) Validate() error {
	switch {
	case s.Timeout <= 0:
		return fmt.Errorf("timeout must be positive, got %v", s.Timeout)
	case s.Tick <= 0:
		return fmt.Errorf("tick must be positive, got %v", s.Tick)
	case s.Tick > s.Timeout:
		return fmt.Errorf("tick %v exceeds timeout %v", s.Tick, s.Timeout)
	case s.StdoutCap <= 0:
		return fmt.Errorf("stdout_cap must be positive, got %d", s.StdoutCap)
	case s.StderrCap <= 0:
		return fmt.Errorf("stderr_cap must be positive, got %d", s.StderrCap)
	case s.SpecCap <= 0:
		return fmt.Errorf("spec_cap must be positive, got %d", s.SpecCap)
	case s.FileMode&0o100 == 0:
		return fmt.Errorf("file_mode %04o does not let the owner execute", s.FileMode)
	}
	return nil
}

// RunnerConfig returns the subprocess settings.
func (s Settings) RunnerConfig() runner.Config {
	return runner.Config{
		StdoutCap:   s.StdoutCap,
		StderrCap:   s.StderrCap,
		Placeholder: s.Placeholder,
		FileMode:    s.FileMode,
	}
}

type fileConfig struct {
	Limits limitsTable `toml:"limits"`
	Exec   execTable   `toml:"exec"`
}

type limitsTable struct {
	Timeout   string `toml:"timeout"`
	Tick      string `toml:"tick"`
	StdoutCap int64  `toml:"stdout_cap"`
	StderrCap int64  `toml:"stderr_cap"`
	SpecCap   int64  `toml:"spec_cap"`
}

type execTable struct {
	Placeholder string `toml:"placeholder"`
	FileMode    string `toml:"file_mode"`
}

// Find walks up from startDir looking for FileName.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Discover loads the nearest FileName above startDir, or the defaults when
// there is none.
func Discover(startDir string) (Settings, error) {
	path, ok, err := Find(startDir)
	if err != nil {
		return Settings{}, err
	}
	if !ok {
		return Defaults(), nil
	}
	return Load(path)
}

// Load reads path on top of the defaults. Keys that are absent keep their
// default value.
func Load(path string) (Settings, error) {
	var cfg fileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Settings{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Settings{}, fmt.Errorf("%s: unknown key %s", path, undecoded[0])
	}

	s := Defaults()
	s.Path = path

	if meta.IsDefined("limits", "timeout") {
		if s.Timeout, err = parseDuration(cfg.Limits.Timeout); err != nil {
			return Settings{}, fmt.Errorf("%s: [limits].timeout: %w", path, err)
		}
	}
	if meta.IsDefined("limits", "tick") {
		if s.Tick, err = parseDuration(cfg.Limits.Tick); err != nil {
			return Settings{}, fmt.Errorf("%s: [limits].tick: %w", path, err)
		}
	}
	caps := []struct {
		key  string
		val  int64
		dest *int
	}{
		{"stdout_cap", cfg.Limits.StdoutCap, &s.StdoutCap},
		{"stderr_cap", cfg.Limits.StderrCap, &s.StderrCap},
		{"spec_cap", cfg.Limits.SpecCap, &s.SpecCap},
	}
	for _, c := range caps {
		if !meta.IsDefined("limits", c.key) {
			continue
		}
		n, err := safecast.Conv[int](c.val)
		if err != nil {
			return Settings{}, fmt.Errorf("%s: [limits].%s: %w", path, c.key, err)
		}
		*c.dest = n
	}
	if meta.IsDefined("exec", "placeholder") {
		s.Placeholder = cfg.Exec.Placeholder
	}
	if meta.IsDefined("exec", "file_mode") {
		if s.FileMode, err = ParseFileMode(cfg.Exec.FileMode); err != nil {
			return Settings{}, fmt.Errorf("%s: [exec].file_mode: %w", path, err)
		}
	}

	if err := s.Validate(); err != nil {
		return Settings{}, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

func parseDuration(s string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	return d, nil
}

// ParseFileMode parses an octal permission string such as "0744".
func ParseFileMode(s string) (os.FileMode, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0o")
	v, err := strconv.ParseUint(s, 8, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid file mode %q", s)
	}
	if v > 0o777 {
		return 0, fmt.Errorf("file mode %q has bits outside 0777", s)
	}
	return os.FileMode(v), nil
}
