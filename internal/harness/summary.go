package harness

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

var (
	okColor   = color.New(color.FgGreen)
	failColor = color.New(color.FgRed)
)

// WriteSummary prints the end-of-batch line followed by one line per failure.
func WriteSummary(w io.Writer, c Counts, failures []Failure) error {
	if c.Failed == 0 && c.Completed == c.Total {
		_, err := fmt.Fprintf(w, "%d of %d %s\n", c.Completed, c.Total, okColor.Sprint("ok"))
		return err
	}

	failed := fmt.Sprint(c.Failed)
	if c.Failed > 0 {
		failed = failColor.Sprint(c.Failed)
	}
	if _, err := fmt.Fprintf(w, "%d of %d [%s/%s] completed (%.2f%% passed)\n",
		c.Completed, c.Total, okColor.Sprint(c.Passed), failed, c.PassRate()); err != nil {
		return err
	}
	for _, f := range failures {
		if _, err := fmt.Fprintf(w, "%s: %s\n", failColor.Sprint(f.Path), f.Diagnostic); err != nil {
			return err
		}
	}
	return nil
}
