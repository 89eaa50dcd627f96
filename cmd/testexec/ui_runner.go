package main

import (
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"testexec/internal/protocol"
	"testexec/internal/ui"
)

// runProgressWithUI renders the stream on a Bubble Tea view. Input is not
// read from the terminal because stdin carries the protocol.
func runProgressWithUI(title string, in io.Reader, out io.Writer) (*ui.Tally, error) {
	events := make(chan protocol.Event, 256)
	readErr := make(chan error, 1)

	go func() {
		readErr <- ui.Forward(protocol.NewReader(in), events)
	}()

	model := ui.NewProgressModel(title, events)
	program := tea.NewProgram(model, tea.WithOutput(out), tea.WithInput(nil))
	_, uiErr := program.Run()
	if uiErr != nil {
		return model.Tally(), uiErr
	}
	return model.Tally(), <-readErr
}
