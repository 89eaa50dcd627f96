package main

import (
	"fmt"
	"io"

	"testexec/internal/observ"
)

func printTimings(out io.Writer, timer *observ.Timer) {
	if out == nil || timer == nil {
		return
	}
	if len(timer.Report().Phases) == 0 {
		fmt.Fprintln(out, "timings: nothing ran")
		return
	}
	fmt.Fprint(out, timer.Summary())
}
