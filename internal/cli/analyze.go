package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentflight/flightrec/internal/analyzer"
)

var (
	analyzeJSON bool
	analyzeSlow float64
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [log-file]",
	Short: "Analyze an event log and print the execution report",
	Long: `Parse a JSONL event log and print aggregate per-agent statistics
and data-quality counters.

Malformed lines are skipped and counted, never fatal; the count is
surfaced in the report. The log file defaults to the configured stream.`,
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
		a.SlowAgentSeconds = analyzeSlow
		if analyzeSlow == 0 && Cfg != nil {
			a.SlowAgentSeconds = Cfg.Report.SlowAgentSeconds
		}

		analysis, err := a.Analyze(path)
		if err != nil {
			return fmt.Errorf("analyzing %s: %w", path, err)
		}

		if analyzeJSON {
			out := struct {
				Stats            map[string]*agentStatsJSON `json:"agents"`
				EventCount       int                        `json:"event_count"`
				MalformedCount   int                        `json:"malformed_count"`
				UnknownDurations int                        `json:"unknown_durations"`
			}{
				Stats:            make(map[string]*agentStatsJSON, len(analysis.Stats)),
				EventCount:       len(analysis.Events),
				MalformedCount:   analysis.MalformedCount,
				UnknownDurations: analysis.UnknownDurations,
			}
			for name, s := range analysis.Stats {
				j := &agentStatsJSON{
					Calls:     s.Calls,
					LLMCalls:  s.LLMCalls,
					ToolCalls: s.ToolCalls,
					Errors:    s.Errors,
				}
				if s.HasTimings() {
					j.AvgSeconds = ptr(s.Avg())
					j.MinSeconds = ptr(s.Min())
					j.MaxSeconds = ptr(s.Max())
				}
				out.Stats[name] = j
			}
			data, err := json.MarshalIndent(out, "", "  ")
			if err != nil {
				return fmt.Errorf("formatting analysis as JSON: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		}

		fmt.Fprint(cmd.OutOrStdout(), analysis.Report)
		return nil
	},
}

// agentStatsJSON is the machine-readable stats shape. Timing fields are
// omitted entirely when no samples exist, mirroring the report's
// "no timing data" marker.
type agentStatsJSON struct {
	Calls      int      `json:"calls"`
	LLMCalls   int      `json:"llm_calls"`
	ToolCalls  int      `json:"tool_calls"`
	Errors     int      `json:"errors,omitempty"`
	AvgSeconds *float64 `json:"avg_seconds,omitempty"`
	MinSeconds *float64 `json:"min_seconds,omitempty"`
	MaxSeconds *float64 `json:"max_seconds,omitempty"`
}

func ptr(v float64) *float64 { return &v }

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "Output statistics as JSON")
	analyzeCmd.Flags().Float64Var(&analyzeSlow, "slow", 0, "Mark agents with avg execution time above this many seconds")
	rootCmd.AddCommand(analyzeCmd)
}
