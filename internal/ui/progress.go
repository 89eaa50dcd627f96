package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"testexec/internal/protocol"
)

// recentLimit is how many finished tests stay on screen.
const recentLimit = 8

const (
	statusRunning = "running"
	statusOK      = "ok"
	statusFailed  = "failed"
)

// ProgressModel is a Bubble Tea view of a protocol stream.
type ProgressModel struct {
	title   string
	events  <-chan protocol.Event
	spinner spinner.Model
	prog    progress.Model
	tally   Tally
	recent  []testItem
	width   int
	done    bool
}

type testItem struct {
	name   string
	status string
	err    string
}

type eventMsg protocol.Event
type doneMsg struct{}

// NewProgressModel returns a model fed by events. Closing the channel ends
// the program.
func NewProgressModel(title string, events <-chan protocol.Event) *ProgressModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 76

	return &ProgressModel{
		title:   title,
		events:  events,
		spinner: sp,
		prog:    prog,
		width:   80,
	}
}

// Tally exposes the counters.
func (m *ProgressModel) Tally() *Tally { return &m.tally }

func (m *ProgressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenForEvent())
}

func (m *ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		cmd := m.applyEvent(protocol.Event(msg))
		return m, tea.Batch(cmd, m.listenForEvent())
	case doneMsg:
		if f := m.tally.Finish(); f != nil {
			m.finish(f.Name, statusFailed, f.Error)
		}
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.prog.Width = msg.Width - 4
		}
		return m, nil
	case progress.FrameMsg:
		progressModel, cmd := m.prog.Update(msg)
		m.prog = progressModel.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *ProgressModel) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	header := fmt.Sprintf("%s (%d of %d)", m.title, m.tally.Done(), m.tally.Total())
	if m.done {
		header = "done: " + header
	} else {
		header = m.spinner.View() + " " + header
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")

	nameWidth := max(m.width-12-4, 20)
	for _, item := range m.recent {
		status := styleStatus(item.status).Render(fmt.Sprintf("%8s", item.status))
		line := "  " + status + " " + truncate(item.name, nameWidth)
		if item.err != "" {
			line += "\n           " + truncate(item.err, nameWidth)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.done {
		b.WriteString(m.prog.ViewAs(1.0))
	} else {
		b.WriteString(m.prog.View())
	}
	b.WriteString("\n")

	counts := fmt.Sprintf("%d passed", m.tally.Passed)
	if m.tally.Failed > 0 {
		counts += ", " + styleStatus(statusFailed).Render(fmt.Sprintf("%d failed", m.tally.Failed))
	}
	b.WriteString(counts)
	b.WriteString("\n")
	return b.String()
}

func (m *ProgressModel) listenForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *ProgressModel) applyEvent(ev protocol.Event) tea.Cmd {
	st := m.tally.Apply(ev)
	if st.Forced != nil {
		m.finish(st.Forced.Name, statusFailed, st.Forced.Error)
	}
	switch {
	case st.Begun != "":
		m.push(testItem{name: st.Begun, status: statusRunning})
	case st.Finished != "" && st.Passed:
		m.finish(st.Finished, statusOK, "")
	case st.Finished != "":
		m.finish(st.Finished, statusFailed, st.Err)
	}

	total := m.tally.Total()
	if total == 0 {
		return nil
	}
	return m.prog.SetPercent(float64(m.tally.Done()) / float64(total))
}

// finish updates the running row for name, or appends one.
func (m *ProgressModel) finish(name, status, err string) {
	for i := len(m.recent) - 1; i >= 0; i-- {
		if m.recent[i].name == name && m.recent[i].status == statusRunning {
			m.recent[i].status, m.recent[i].err = status, err
			return
		}
	}
	m.push(testItem{name: name, status: status, err: err})
}

func (m *ProgressModel) push(item testItem) {
	m.recent = append(m.recent, item)
	if len(m.recent) > recentLimit {
		m.recent = m.recent[len(m.recent)-recentLimit:]
	}
}

func styleStatus(status string) lipgloss.Style {
	switch status {
	case statusOK:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	case statusFailed:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	case statusRunning:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	}
}

func truncate(value string, width int) string {
	if width <= 0 {
		return value
	}
	if runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width-3, "...")
}
