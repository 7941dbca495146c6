package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentflight/flightrec/internal/hooks"
)

var hookCmd = &cobra.Command{
	Use:   "hook",
	Short: "Record a workflow lifecycle event",
	Long: `Record one lifecycle event from the agent framework.

Each subcommand reads a JSON payload from stdin and appends the
corresponding event to the durable stream. Hook commands never fail the
calling workflow: recorder errors degrade to console-only output and the
command still exits 0. Only an unparsable payload is reported, and even
then the exit code stays 0 so instrumentation cannot break a run.`,
}

// runHook wraps a hook handler so that failures are reported to stderr but
// never propagate as a non-zero exit.
func runHook(fn func() error) error {
	if Adapter == nil {
		fmt.Fprintln(os.Stderr, "flightrec: recorder not initialized, event dropped")
		return nil
	}
	if err := fn(); err != nil {
		fmt.Fprintf(os.Stderr, "flightrec: hook input ignored: %v\n", err)
	}
	return nil
}

var hookBeforeAgentCmd = &cobra.Command{
	Use:   "before-agent",
	Short: "Record an agent_start event",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHook(func() error {
			in, err := hooks.ParseStdin[hooks.BeforeAgentInput](cmd.InOrStdin())
			if err != nil {
				return err
			}
			Adapter.BeforeAgent(in.AgentName, in.InvocationID, in.StateKeys)
			return nil
		})
	},
}

var hookAfterAgentCmd = &cobra.Command{
	Use:   "after-agent",
	Short: "Record an agent_complete or agent_error event",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHook(func() error {
			in, err := hooks.ParseStdin[hooks.AfterAgentInput](cmd.InOrStdin())
			if err != nil {
				return err
			}
			Adapter.AfterAgent(in.AgentName, in.InvocationID, in.Result, errFromString(in.Error))
			return nil
		})
	},
}

var hookBeforeModelCmd = &cobra.Command{
	Use:   "before-model",
	Short: "Record an llm_call event",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHook(func() error {
			in, err := hooks.ParseStdin[hooks.BeforeModelInput](cmd.InOrStdin())
			if err != nil {
				return err
			}
			Adapter.BeforeModel(in.AgentName, in.InvocationID, in.Prompt)
			return nil
		})
	},
}

var hookAfterModelCmd = &cobra.Command{
	Use:   "after-model",
	Short: "Record an llm_response event",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHook(func() error {
			in, err := hooks.ParseStdin[hooks.AfterModelInput](cmd.InOrStdin())
			if err != nil {
				return err
			}
			Adapter.AfterModel(in.AgentName, in.InvocationID, in.Response, errFromString(in.Error))
			return nil
		})
	},
}

var hookBeforeToolCmd = &cobra.Command{
	Use:   "before-tool",
	Short: "Record a tool_call event",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHook(func() error {
			in, err := hooks.ParseStdin[hooks.BeforeToolInput](cmd.InOrStdin())
			if err != nil {
				return err
			}
			Adapter.BeforeTool(in.AgentName, in.InvocationID, in.ToolName, in.Arguments)
			return nil
		})
	},
}

var hookAfterToolCmd = &cobra.Command{
	Use:   "after-tool",
	Short: "Record a tool_result event",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHook(func() error {
			in, err := hooks.ParseStdin[hooks.AfterToolInput](cmd.InOrStdin())
			if err != nil {
				return err
			}
			Adapter.AfterTool(in.AgentName, in.InvocationID, in.ToolName, in.Result, errFromString(in.Error))
			return nil
		})
	},
}

var hookSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Record an execution_summary event for the current run",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHook(func() error {
			Adapter.Summary()
			// The summary closes the run; the next hook event starts a
			// fresh execution.
			Rec.StartExecution()
			return nil
		})
	},
}

// errFromString converts a framework-supplied error message into an error
// value, or nil when the message is empty.
func errFromString(msg string) error {
	if msg == "" {
		return nil
	}
	return errors.New(msg)
}

func init() {
	hookCmd.AddCommand(
		hookBeforeAgentCmd,
		hookAfterAgentCmd,
		hookBeforeModelCmd,
		hookAfterModelCmd,
		hookBeforeToolCmd,
		hookAfterToolCmd,
		hookSummaryCmd,
	)
	rootCmd.AddCommand(hookCmd)
}
