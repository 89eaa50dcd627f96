package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExpandTestArgs(t *testing.T) {
	root := t.TempDir()
	for _, rel := range []string{"b/z.mj", "b/a.mj", "b/deep/m.mj", "c/one.mj"} {
		path := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, nil, 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	args := []string{
		filepath.Join(root, "c/one.mj"),
		filepath.Join(root, "b/**/*.mj"),
		filepath.Join(root, "none/*.mj"),
	}
	got, err := expandTestArgs(args)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{
		filepath.Join(root, "c/one.mj"),
		filepath.Join(root, "b/a.mj"),
		filepath.Join(root, "b/deep/m.mj"),
		filepath.Join(root, "b/z.mj"),
		filepath.Join(root, "none/*.mj"),
	}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("arg %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestExpandTestArgs_Invalid(t *testing.T) {
	if _, err := expandTestArgs([]string{"tests/[.mj"}); err == nil {
		t.Error("expected an invalid pattern error")
	}
}

func TestReadUIMode(t *testing.T) {
	if m, err := readUIMode("ON"); err != nil || m != uiModeOn {
		t.Errorf("expected on, got %v (%v)", m, err)
	}
	if m, err := readUIMode(" never "); err != nil || m != uiModeOff {
		t.Errorf("expected off, got %v (%v)", m, err)
	}
	if !shouldUseTUI(uiModeOn, nil) || shouldUseTUI(uiModeOff, os.Stdout) {
		t.Error("explicit modes must ignore the terminal")
	}
	if _, err := readUIMode("sometimes"); err == nil {
		t.Error("expected error")
	}
	if shouldUseTUI(uiModeAuto, os.Stderr) && !isTerminal(os.Stderr) {
		t.Error("auto must follow terminal detection")
	}
}
