package commands

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/cachedprop/errors"
	"github.com/teranos/cachedprop/generate"
	"github.com/teranos/cachedprop/logger"
)

// CheckCmd verifies generated files are up to date without writing
var CheckCmd = &cobra.Command{
	Use:   "check [files or packages...]",
	Short: "Check that generated files are up to date",
	Long: `Regenerate every annotated input in memory and compare with the files on
disk. Exits non-zero when an output is missing, stale, generated under an
incompatible naming convention, edited by hand, or when an input fails.`,
	RunE: runCheck,
}

func init() {
	CheckCmd.Flags().IntP("concurrency", "j", 0, "Files to check in parallel (default from config)")
}

func runCheck(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	log := logger.ComponentLogger("check")
	opts := generateOptions(cmd)

	files, err := generate.Resolve(cmd.Context(), args, opts, log)
	if err != nil {
		return err
	}

	result, err := generate.New(opts, log).Check(cmd.Context(), files)
	if err != nil {
		return err
	}

	if result.UpToDate {
		fmt.Fprintf(out, "%s %d generated file(s) up to date\n", pterm.Green("✓"), result.Checked)
		return nil
	}

	for _, p := range result.Problems {
		if p.Kind == generate.ProblemFailed {
			printFailure(out, p.Input, p.Err)
			continue
		}
		fmt.Fprintf(out, "%s %s: %s\n", pterm.Red("✗"), display(p.Output), p.Kind)
	}
	fmt.Fprintf(out, "  %s run cachedprop generate\n", pterm.LightCyan("hint:"))
	return errors.Wrapf(errReported, "%d generated file(s) out of date", len(result.Problems))
}
