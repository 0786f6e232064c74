package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zinc-sig/robotharness/cmd/helpers"
	"github.com/zinc-sig/robotharness/internal/history"
)

func newHistoryCmd(g *globalFlags) *cobra.Command {
	var filter history.Filter

	cmd := &cobra.Command{
		Use:   "history [flags]",
		Short: "List recorded runs",
		Long: `List runs recorded in the history database as JSON lines, newest first.
Recording is enabled with --history-db or ROBOT_HISTORY_DB.`,
		Example: `  robotharness --history-db runs.db history --limit 5
  robotharness --history-db runs.db history --suite echo --status mismatch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := g.requireHistory()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			runs, err := store.List(cmd.Context(), filter)
			if err != nil {
				return err
			}
			for _, run := range runs {
				if err := helpers.OutputJSON(cmd.OutOrStdout(), run); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&filter.Limit, "limit", 20, "Maximum number of runs to list (0 for all)")
	cmd.Flags().StringVar(&filter.Script, "script", "", "Only runs of this script path")
	cmd.Flags().StringVar(&filter.Suite, "suite", "", "Only runs of this suite")
	cmd.Flags().StringVar(&filter.Status, "status", "", "Only runs with this status")

	cmd.AddCommand(newHistoryShowCmd(g))
	return cmd
}

func newHistoryShowCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:     "show <run-id>",
		Short:   "Print one recorded run",
		Example: `  robotharness --history-db runs.db history show 0b6f3c1e-5d2a-4c8e-9a57-2f1d8e4b7c90`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := g.requireHistory()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			run, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return helpers.OutputJSON(cmd.OutOrStdout(), run)
		},
	}
}

// requireHistory is openHistory for commands that cannot work without one.
func (g *globalFlags) requireHistory() (*history.Store, error) {
	store, err := g.openHistory()
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}
	if store == nil {
		return nil, errors.New("no history database configured (use --history-db or ROBOT_HISTORY_DB)")
	}
	return store, nil
}
