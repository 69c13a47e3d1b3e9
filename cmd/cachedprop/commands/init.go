package commands

import (
	"fmt"
	"path/filepath"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/cachedprop/config"
)

// InitCmd writes a default configuration file
var InitCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Write a default cachedprop.toml",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "."
		if len(args) == 1 {
			dir = args[0]
		}
		force, _ := cmd.Flags().GetBool("force")

		path := filepath.Join(dir, config.FileName)
		if err := config.WriteDefault(path, force); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s Wrote %s\n", pterm.Green("✓"), path)
		return nil
	},
}

func init() {
	InitCmd.Flags().Bool("force", false, "Overwrite an existing file (the old one is kept as .back)")
}
