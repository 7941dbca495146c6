package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// SetVersionInfo sets the version information injected via ldflags.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

var rootCmd = &cobra.Command{
	Use:   "flightrec",
	Short: "Flight recorder for multi-agent workflows",
	Long: `flightrec instruments multi-stage, multi-agent workflows by capturing
lifecycle, performance, and error events into an append-only JSONL log,
and reconstructs per-agent statistics and a chronological timeline from
that log after (or during) execution.

Hook commands are called by the agent framework around each agent, model,
and tool invocation; analyze commands turn the resulting log into reports.`,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("flightrec %s\ncommit: %s\nbuilt:  %s\n", appVersion, appCommit, appDate)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
