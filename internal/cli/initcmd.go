package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/agentflight/flightrec/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a default .flightrec.yaml configuration",
	Long: `Initialize a directory for flightrec by writing a default
.flightrec.yaml and creating the configured log directory.

Refuses to overwrite an existing configuration file.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		basePath := "."
		if len(args) > 0 {
			basePath = args[0]
		}
		absPath, err := filepath.Abs(basePath)
		if err != nil {
			return fmt.Errorf("resolving path: %w", err)
		}

		written, err := config.WriteDefault(absPath)
		if err != nil {
			return fmt.Errorf("initializing: %w", err)
		}

		logDir := filepath.Dir(config.Default().ResolveLogPath(absPath))
		if err := os.MkdirAll(logDir, 0o755); err != nil {
			return fmt.Errorf("creating log directory: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Created:\n  %s\n  %s%c\n", written, logDir, filepath.Separator)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
