package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pterm/pterm"

	"github.com/teranos/cachedprop/generate"
	"github.com/teranos/cachedprop/rewrite"
)

// printFailure prints the diagnostics of one failed file, one per line as
// file:line:col: Decl: message, followed by any hints
func printFailure(w io.Writer, input string, err error) {
	diags := rewrite.DiagnosticsOf(err)
	if len(diags) == 0 {
		fmt.Fprintf(w, "%s %s: %v\n", pterm.Red("✗"), display(input), err)
		return
	}
	for _, d := range diags {
		d.Pos.Filename = display(d.Pos.Filename)
		fmt.Fprintf(w, "%s %s\n", pterm.Red("✗"), d.Error())
		for _, hint := range d.Hints() {
			fmt.Fprintf(w, "  %s %s\n", pterm.LightCyan("hint:"), hint)
		}
	}
}

// printSummary prints one line per written or failed file and a total
func printSummary(w io.Writer, summary *generate.Summary) {
	for _, f := range summary.Files {
		switch f.Status {
		case generate.StatusWritten:
			fmt.Fprintf(w, "%s Generated %s\n", pterm.Green("✓"), display(f.Output))
		case generate.StatusFailed:
			printFailure(w, f.Input, f.Err)
		}
	}

	line := fmt.Sprintf("%d written, %d unchanged, %d failed in %s",
		summary.Count(generate.StatusWritten),
		summary.Count(generate.StatusUnchanged),
		summary.Count(generate.StatusFailed),
		summary.Duration.Round(time.Millisecond))
	if summary.Count(generate.StatusFailed) > 0 {
		fmt.Fprintln(w, pterm.Yellow(line))
	} else {
		fmt.Fprintln(w, pterm.Gray(line))
	}
}

// display shortens a path relative to the working directory when possible
func display(path string) string {
	wd, err := os.Getwd()
	if err != nil {
		return path
	}
	rel, err := filepath.Rel(wd, path)
	if err != nil || len(rel) >= len(path) {
		return path
	}
	return rel
}
