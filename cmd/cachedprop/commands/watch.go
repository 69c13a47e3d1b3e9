package commands

import (
	"fmt"
	"path/filepath"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/cachedprop/generate"
	"github.com/teranos/cachedprop/logger"
)

// WatchCmd regenerates inputs as they change
var WatchCmd = &cobra.Command{
	Use:   "watch [dirs...]",
	Short: "Regenerate on change",
	Long: `Generate once for the given directories (default: the current directory),
then watch them and regenerate each annotated file when it is saved.
Stop with Ctrl-C.`,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	log := logger.ComponentLogger("watch")
	opts := generateOptions(cmd)
	gen := generate.New(opts, log)

	dirs := args
	if len(dirs) == 0 {
		dirs = []string{"."}
	}

	var patterns []string
	for _, dir := range dirs {
		if filepath.IsAbs(dir) {
			patterns = append(patterns, dir)
			continue
		}
		patterns = append(patterns, "./"+filepath.ToSlash(filepath.Clean(dir)))
	}
	files, err := generate.Resolve(cmd.Context(), patterns, opts, log)
	if err != nil {
		return err
	}
	if len(files) > 0 {
		summary, err := gen.Run(cmd.Context(), files)
		if err != nil {
			return err
		}
		printSummary(out, summary)
	}

	w, err := generate.NewWatcher(gen, dirs, cfg.Watch.Debounce(), log)
	if err != nil {
		return err
	}
	defer w.Close()

	w.OnGenerate(func(s *generate.Summary) {
		printSummary(out, s)
	})

	fmt.Fprintf(out, "%s Watching %d director(ies), Ctrl-C to stop\n", pterm.LightCyan("●"), len(dirs))
	return w.Run(cmd.Context())
}
