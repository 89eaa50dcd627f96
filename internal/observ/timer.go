package observ

import (
	"fmt"
	"sync"
	"time"
)

// Phase records the duration of one step of one test.
type Phase struct {
	Name  string
	Start time.Time
	Dur   time.Duration
	Note  string
}

// Timer tracks phases across a batch. Phases with the same name are
// aggregated in Summary.
type Timer struct {
	mu     sync.Mutex
	phases []Phase
}

// NewTimer creates a new empty Timer.
func NewTimer() *Timer { return &Timer{phases: make([]Phase, 0, 8)} }

// Begin starts a new phase and returns its index.
func (t *Timer) Begin(name string) int {
	if t == nil {
		return -1
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.phases = append(t.phases, Phase{Name: name, Start: time.Now()})
	return len(t.phases) - 1
}

// End finishes a phase by its index.
func (t *Timer) End(idx int, note string) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if idx < 0 || idx >= len(t.phases) {
		return
	}
	p := &t.phases[idx]
	p.Dur = time.Since(p.Start)
	p.Note = note
}

// Summary returns a human-readable table of per-name totals.
func (t *Timer) Summary() string {
	report := t.Report()
	out := "timings:\n"
	for _, p := range report.Totals {
		out += fmt.Sprintf("  %-10s %5d x %9.2f ms", p.Name, p.Count, p.DurationMS)
		if p.Slowest != "" {
			out += fmt.Sprintf("  (slowest %.2f ms: %s)", p.MaxMS, p.Slowest)
		}
		out += "\n"
	}
	out += fmt.Sprintf("  %-10s %17.2f ms\n", "total", report.TotalMS)
	return out
}

// PhaseReport is one recorded phase in serializable form.
type PhaseReport struct {
	Name       string  `json:"name" yaml:"name" msgpack:"name"`
	DurationMS float64 `json:"duration_ms" yaml:"duration_ms" msgpack:"duration_ms"`
	Note       string  `json:"note,omitempty" yaml:"note,omitempty" msgpack:"note,omitempty"`
}

// TotalReport aggregates all phases sharing a name.
type TotalReport struct {
	Name       string  `json:"name" yaml:"name" msgpack:"name"`
	Count      int     `json:"count" yaml:"count" msgpack:"count"`
	DurationMS float64 `json:"duration_ms" yaml:"duration_ms" msgpack:"duration_ms"`
	MaxMS      float64 `json:"max_ms" yaml:"max_ms" msgpack:"max_ms"`
	Slowest    string  `json:"slowest,omitempty" yaml:"slowest,omitempty" msgpack:"slowest,omitempty"`
}

// Report holds the aggregated timer data.
type Report struct {
	TotalMS float64       `json:"total_ms" yaml:"total_ms" msgpack:"total_ms"`
	Phases  []PhaseReport `json:"phases" yaml:"phases" msgpack:"phases"`
	Totals  []TotalReport `json:"totals" yaml:"totals" msgpack:"totals"`
}

// Report lists every phase and the per-name totals, in first-seen order.
func (t *Timer) Report() Report {
	if t == nil {
		return Report{}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.phases) == 0 {
		return Report{}
	}
	report := Report{
		Phases: make([]PhaseReport, len(t.phases)),
	}
	index := make(map[string]int)
	maxDur := make(map[string]time.Duration)
	var total time.Duration
	for i, phase := range t.phases {
		total += phase.Dur
		report.Phases[i] = PhaseReport{
			Name:       phase.Name,
			DurationMS: durationToMillis(phase.Dur),
			Note:       phase.Note,
		}
		j, ok := index[phase.Name]
		if !ok {
			j = len(report.Totals)
			index[phase.Name] = j
			report.Totals = append(report.Totals, TotalReport{Name: phase.Name})
		}
		tot := &report.Totals[j]
		tot.Count++
		tot.DurationMS += durationToMillis(phase.Dur)
		if phase.Dur >= maxDur[phase.Name] {
			maxDur[phase.Name] = phase.Dur
			tot.MaxMS = durationToMillis(phase.Dur)
			tot.Slowest = phase.Note
		}
	}
	report.TotalMS = durationToMillis(total)
	return report
}

func durationToMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
