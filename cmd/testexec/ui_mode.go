package main

import (
	"fmt"
	"io"
	"strings"
)

// uiMode picks between the Bubble Tea view and the plain renderers for the
// progress subcommand.
type uiMode string

const (
	uiModeAuto uiMode = "auto"
	uiModeOn   uiMode = "on"
	uiModeOff  uiMode = "off"
)

// uiModeAliases mirrors the spellings accepted by --color.
var uiModeAliases = map[string]uiMode{
	"":       uiModeAuto,
	"auto":   uiModeAuto,
	"on":     uiModeOn,
	"always": uiModeOn,
	"off":    uiModeOff,
	"never":  uiModeOff,
}

func readUIMode(value string) (uiMode, error) {
	if m, ok := uiModeAliases[strings.ToLower(strings.TrimSpace(value))]; ok {
		return m, nil
	}
	return "", fmt.Errorf("invalid --ui value %q (expected auto|on|off)", value)
}

// shouldUseTUI resolves auto against out: the view needs a terminal to draw on.
func shouldUseTUI(mode uiMode, out io.Writer) bool {
	if mode == uiModeAuto {
		return isTerminal(out)
	}
	return mode == uiModeOn
}
