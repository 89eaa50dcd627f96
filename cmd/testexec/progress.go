package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"testexec/internal/harness"
	"testexec/internal/protocol"
	"testexec/internal/ui"
)

func newProgressCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "progress",
		Short: "Render a ##+/##- progress stream read from stdin",
		Args:  cobra.NoArgs,
		RunE:  runProgress,
	}
	cmd.Flags().String("mode", "character", "output mode (inline|character|lines|summary)")
	cmd.Flags().Int("indent", 0, "indent every output line by N spaces")
	cmd.Flags().String("ui", "auto", "interactive view (auto|on|off)")
	return cmd
}

func runProgress(cmd *cobra.Command, args []string) error {
	modeStr, err := cmd.Flags().GetString("mode")
	if err != nil {
		return fmt.Errorf("failed to get mode flag: %w", err)
	}
	indent, err := cmd.Flags().GetInt("indent")
	if err != nil {
		return fmt.Errorf("failed to get indent flag: %w", err)
	}
	uiStr, err := cmd.Flags().GetString("ui")
	if err != nil {
		return fmt.Errorf("failed to get ui flag: %w", err)
	}

	mode, err := ui.ParseMode(modeStr)
	if err != nil {
		return usageError("%v", err)
	}
	uiSel, err := readUIMode(uiStr)
	if err != nil {
		return usageError("%v", err)
	}

	out := cmd.OutOrStdout()
	if err := applyColor(cmd, out); err != nil {
		return err
	}

	var tally *ui.Tally
	if mode != ui.ModeSummary && shouldUseTUI(uiSel, out) {
		tally, err = runProgressWithUI("tests", cmd.InOrStdin(), out)
		if err != nil {
			return &exitError{code: harness.ExitFailed, err: err}
		}
	} else {
		plain := ui.NewPlain(out, mode, indent)
		plain.Start()
		if err := ui.Consume(protocol.NewReader(cmd.InOrStdin()), plain); err != nil {
			plain.Finish()
			return &exitError{code: harness.ExitFailed, err: err}
		}
		plain.Finish()
		tally = plain.Tally()
	}

	if !tally.OK() {
		return &exitError{code: harness.ExitFailed}
	}
	return nil
}
