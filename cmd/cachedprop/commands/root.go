// Package commands implements the cachedprop command line.
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/cachedprop/config"
	"github.com/teranos/cachedprop/errors"
	"github.com/teranos/cachedprop/generate"
	"github.com/teranos/cachedprop/logger"
)

// errReported marks failures whose details were already printed
var errReported = errors.New("failure already reported")

// cfg is the configuration loaded before any subcommand runs
var cfg *config.Config

// RootCmd is the cachedprop command
var RootCmd = &cobra.Command{
	Use:   "cachedprop",
	Short: "Generate cached properties for Go structs",
	Long: `cachedprop adds memoized ("cached") properties to Go struct types.

Annotate a struct with the properties it caches and each computing method
with //cachedprop:property, in a file built only under the cachedprop tag:

  //go:build cachedprop

  //cachedprop:struct {Area float64}
  type Shape struct { Width, Height float64 }

  //cachedprop:property
  func (s *Shape) Area() float64 { return s.Width * s.Height }

cachedprop generate writes shape_cachedprop.go next to the input. Area then
returns the cached value when present, PrefetchArea computes and caches it,
and the original computation lives on as cachedPropertyMethodArea.

Examples:
  cachedprop generate ./...      # Generate for every package below here
  cachedprop check ./...         # Fail if any output is out of date
  cachedprop watch               # Regenerate on change
  cachedprop init                # Write a default cachedprop.toml`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		noColor, _ := cmd.Flags().GetBool("no-color")
		if noColor {
			pterm.DisableColor()
		}

		loaded, err := config.Load()
		if err != nil {
			return err
		}
		if err := loaded.Validate(); err != nil {
			return errors.Wrapf(err, "invalid configuration %s", loaded.Path)
		}
		cfg = loaded

		verbosity, _ := cmd.Flags().GetCount("verbose")
		jsonLogs, _ := cmd.Flags().GetBool("json-logs")
		if err := logger.Initialize(jsonLogs || cfg.Log.JSON, verbosity); err != nil {
			return errors.Wrap(err, "failed to initialize logger")
		}
		logger.Debugw("Logger initialized", "level", logger.LevelName(verbosity))

		if cfg.Path != "" {
			logger.Debugw("Loaded configuration", logger.FieldFile, cfg.Path)
			unknown, err := config.UnknownKeys(cfg.Path)
			if err != nil {
				return err
			}
			for _, key := range unknown {
				logger.Warnw("Unknown configuration key", logger.FieldFile, cfg.Path, "key", key)
			}
		}
		return nil
	},
}

func init() {
	RootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv)")
	RootCmd.PersistentFlags().Bool("json-logs", false, "Write logs as JSON")
	RootCmd.PersistentFlags().Bool("no-color", false, "Disable colored output")

	RootCmd.AddCommand(GenerateCmd)
	RootCmd.AddCommand(CheckCmd)
	RootCmd.AddCommand(WatchCmd)
	RootCmd.AddCommand(InitCmd)
	RootCmd.AddCommand(VersionCmd)
}

// Execute runs the command line and returns the process exit code
func Execute(ctx context.Context) int {
	if err := RootCmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errReported) {
			printError(RootCmd.ErrOrStderr(), err)
		}
		return 1
	}
	return 0
}

// generateOptions maps the configuration onto generator options
func generateOptions(cmd *cobra.Command) generate.Options {
	opts := generate.Options{
		BuildTag:      cfg.Generate.BuildTag,
		OutputSuffix:  cfg.Generate.OutputSuffix,
		RuntimeImport: cfg.Generate.RuntimeImport,
		Concurrency:   cfg.Generate.Concurrency,
	}
	if n, _ := cmd.Flags().GetInt("concurrency"); n > 0 {
		opts.Concurrency = n
	}
	return opts
}

func printError(w io.Writer, err error) {
	fmt.Fprintf(w, "%s %v\n", pterm.Red("✗"), err)
	for _, hint := range errors.GetAllHints(err) {
		fmt.Fprintf(w, "  %s %s\n", pterm.LightCyan("hint:"), hint)
	}
}
