package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaults(t *testing.T) {
	s := Defaults()
	if s.Timeout != 5*time.Second || s.Tick != time.Second {
		t.Errorf("unexpected timing defaults %v/%v", s.Timeout, s.Tick)
	}
	if s.StdoutCap != 100 || s.StderrCap != 1024 || s.SpecCap != 16384 {
		t.Errorf("unexpected caps %d/%d/%d", s.StdoutCap, s.StderrCap, s.SpecCap)
	}
	if s.FileMode != 0o744 || s.Placeholder != "a" {
		t.Errorf("unexpected exec defaults %v %q", s.FileMode, s.Placeholder)
	}
	if err := s.Validate(); err != nil {
		t.Errorf("defaults must validate: %v", err)
	}
}

func TestLoad_Partial(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `
[limits]
timeout = "2s"
stderr_cap = 4096

[exec]
file_mode = "0755"
`)
	s, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Timeout != 2*time.Second {
		t.Errorf("expected timeout 2s, got %v", s.Timeout)
	}
	if s.StderrCap != 4096 {
		t.Errorf("expected stderr cap 4096, got %d", s.StderrCap)
	}
	if s.StdoutCap != 100 || s.Tick != time.Second || s.Placeholder != "a" {
		t.Errorf("expected untouched keys to keep defaults, got %+v", s)
	}
	if s.FileMode != 0o755 {
		t.Errorf("expected mode 0755, got %04o", s.FileMode)
	}
	if s.Path != path {
		t.Errorf("expected path %q, got %q", path, s.Path)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"bad duration", "[limits]\ntimeout = \"soon\"\n", "[limits].timeout"},
		{"zero cap", "[limits]\nstdout_cap = 0\n", "stdout_cap must be positive"},
		{"tick above timeout", "[limits]\ntimeout = \"1s\"\ntick = \"2s\"\n", "exceeds timeout"},
		{"bad mode", "[exec]\nfile_mode = \"rwx\"\n", "[exec].file_mode"},
		{"no owner exec", "[exec]\nfile_mode = \"0644\"\n", "does not let the owner execute"},
		{"unknown key", "[limits]\nretries = 3\n", "unknown key"},
		{"syntax", "[limits\n", "failed to parse TOML"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), tt.body)
			_, err := Load(path)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestDiscover_WalksUp(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "[exec]\nplaceholder = \"x\"\n")
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	s, err := Discover(nested)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Placeholder != "x" {
		t.Errorf("expected placeholder from parent config, got %q", s.Placeholder)
	}
}

func TestParseFileMode(t *testing.T) {
	tests := map[string]os.FileMode{"0744": 0o744, "755": 0o755, "0o700": 0o700}
	for in, want := range tests {
		got, err := ParseFileMode(in)
		if err != nil || got != want {
			t.Errorf("%q: expected %04o, got %04o (%v)", in, want, got, err)
		}
	}
	if _, err := ParseFileMode("1777"); err == nil {
		t.Error("expected sticky bit to be rejected")
	}
}
