package version

import (
	"testing"

	"github.com/fatih/color"
)

func TestPlain(t *testing.T) {
	orig := Version
	t.Cleanup(func() { Version = orig })

	Version = "  1.2.3 "
	if got := Plain(); got != "1.2.3" {
		t.Errorf("expected 1.2.3, got %q", got)
	}
	Version = ""
	if got := Plain(); got != "dev" {
		t.Errorf("expected dev, got %q", got)
	}
}

func TestPretty(t *testing.T) {
	orig, origNoColor := Version, color.NoColor
	t.Cleanup(func() { Version, color.NoColor = orig, origNoColor })
	color.NoColor = true

	tests := map[string]string{
		"0.1.0-dev":            "0.1.0-dev",
		"1.2.3":                "1.2.3",
		"1.2.3-rc.1+build.123": "1.2.3-rc.1+build.123",
		"nightly":              "nightly",
	}
	for in, want := range tests {
		Version = in
		if got := Pretty(); got != want {
			t.Errorf("%q: expected %q, got %q", in, want, got)
		}
	}
}
