package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentflight/flightrec/internal/analyzer"
	"github.com/agentflight/flightrec/internal/report"
)

var summaryExecutionID string

var summaryCmd = &cobra.Command{
	Use:   "summary [log-file]",
	Short: "Print the roll-up of one workflow run",
	Long: `Compute the execution summary for a single workflow run: wall-clock
span, event count, and per-agent invocation breakdown.

By default the most recent run in the log is summarized; pass
--execution to select a specific execution_id.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := LogPath
		if len(args) > 0 {
			path = args[0]
		}
		if path == "" {
			return fmt.Errorf("no log file given and none configured")
		}

		a := analyzer.New()
		events, malformed, err := a.Load(path)
		if err != nil {
			return fmt.Errorf("loading %s: %w", path, err)
		}
		if len(events) == 0 {
			return fmt.Errorf("no events found in %s", path)
		}

		s := a.ExecutionSummary(events, summaryExecutionID)
		if s.EventCount == 0 {
			return fmt.Errorf("no events for execution %s in %s", summaryExecutionID, path)
		}

		fmt.Fprint(cmd.OutOrStdout(), report.RenderSummary(s))
		if malformed > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "Warning: %d malformed record(s) skipped.\n", malformed)
		}
		return nil
	},
}

func init() {
	summaryCmd.Flags().StringVar(&summaryExecutionID, "execution", "", "execution_id to summarize (default: latest run)")
	rootCmd.AddCommand(summaryCmd)
}
