package commands

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/cachedprop/errors"
	"github.com/teranos/cachedprop/generate"
	"github.com/teranos/cachedprop/logger"
)

// GenerateCmd writes generated files for annotated inputs
var GenerateCmd = &cobra.Command{
	Use:   "generate [files or packages...]",
	Short: "Generate cached property code",
	Long: `Transform every annotated input file and write <name>_cachedprop.go next
to it. Arguments ending in .go are files; anything else is a package pattern
such as ./... (default: the current package).

A file with any annotation problem gets no output. Its problems are printed
as file:line:col diagnostics and the command exits non-zero.`,
	RunE: runGenerate,
}

func init() {
	GenerateCmd.Flags().String("manifest", "", "Write a YAML manifest of generated declarations to this file")
	GenerateCmd.Flags().IntP("concurrency", "j", 0, "Files to transform in parallel (default from config)")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	log := logger.ComponentLogger("generate")
	opts := generateOptions(cmd)

	files, err := generate.Resolve(cmd.Context(), args, opts, log)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Fprintln(out, pterm.Gray("No annotated files found"))
		return nil
	}

	summary, err := generate.New(opts, log).Run(cmd.Context(), files)
	if err != nil {
		return err
	}
	printSummary(out, summary)

	manifest, _ := cmd.Flags().GetString("manifest")
	if manifest == "" {
		manifest = cfg.Generate.Manifest
	}
	if manifest != "" {
		if err := generate.WriteManifest(manifest, summary); err != nil {
			return err
		}
		fmt.Fprintf(out, "%s Wrote manifest %s\n", pterm.Green("✓"), manifest)
	}

	if summary.Count(generate.StatusFailed) > 0 {
		return errors.Wrapf(errReported, "%d file(s) failed", summary.Count(generate.StatusFailed))
	}
	return nil
}
