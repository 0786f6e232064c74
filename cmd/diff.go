package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/zinc-sig/robotharness/cmd/config"
	"github.com/zinc-sig/robotharness/cmd/helpers"
	"github.com/zinc-sig/robotharness/internal/output"
	"github.com/zinc-sig/robotharness/internal/runner"
)

type diffOptions struct {
	expected string
	actual   string
	output   string
	common   config.CommonFlags
	context  config.ContextConfig
	webhook  config.WebhookConfig
}

func newDiffCmd(g *globalFlags) *cobra.Command {
	o := &diffOptions{}

	cmd := &cobra.Command{
		Use:   "diff -e <expected> -a <actual> [-o <diff-out>] [--score <value>]",
		Short: "Compare an expected and an actual script transcript",
		Long: `Compare two script transcripts, for example the artifacts written by
"run", and report success or mismatch as JSON. On a mismatch the unified diff
is written to the --output file when one is given.`,
		Example: `  robotharness diff -e out/expected.txt -a out/actual.txt
  robotharness diff -e out/expected.txt -a out/actual.txt -o out/diff.txt --score 100`,
		Args: cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			o.common.ScoreSet = cmd.Flags().Changed("score")
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return diffScripts(cmd, o)
		},
	}

	cmd.Flags().StringVarP(&o.expected, "expected", "e", "", "Expected script transcript (required)")
	cmd.Flags().StringVarP(&o.actual, "actual", "a", "", "Actual script transcript (required)")
	cmd.Flags().StringVarP(&o.output, "output", "o", "", "Write the unified diff here on mismatch")
	_ = cmd.MarkFlagRequired("expected")
	_ = cmd.MarkFlagRequired("actual")
	cmd.Flags().BoolVarP(&o.common.Verbose, "verbose", "v", false, "Print the diff to stderr")
	cmd.Flags().IntVar(&o.common.Score, "score", 0, "Optional score integer (reported if the transcripts match)")
	helpers.SetupContextFlags(cmd, &o.context)
	helpers.SetupWebhookFlags(cmd, &o.webhook)
	return cmd
}

func diffScripts(cmd *cobra.Command, o *diffOptions) error {
	start := time.Now()

	expected, err := os.ReadFile(o.expected)
	if err != nil {
		return fmt.Errorf("failed to read expected file: %w", err)
	}
	actual, err := os.ReadFile(o.actual)
	if err != nil {
		return fmt.Errorf("failed to read actual file: %w", err)
	}

	ctxData, err := helpers.BuildContext(&o.context)
	if err != nil {
		return err
	}
	hook, err := helpers.NewWebhookClient(&o.webhook, o.common.Verbose, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	result := &runner.Result{
		Status:   runner.StatusSuccess,
		Expected: string(expected),
		Actual:   string(actual),
	}
	if result.Expected != result.Actual {
		result.Status = runner.StatusMismatch
		result.Diff = runner.UnifiedDiff(result.Expected, result.Actual, o.expected, o.actual)
		if o.output != "" {
			if err := os.MkdirAll(filepath.Dir(o.output), 0o755); err != nil {
				return fmt.Errorf("failed to create diff directory: %w", err)
			}
			if err := os.WriteFile(o.output, []byte(result.Diff), 0o644); err != nil {
				return fmt.Errorf("failed to write diff: %w", err)
			}
		}
		if o.common.Verbose {
			fmt.Fprint(cmd.ErrOrStderr(), result.Diff)
		}
	}
	result.ExecutionTime = time.Since(start)

	res := output.New(result, output.Options{
		RunID:    uuid.NewString(),
		Expected: o.expected,
		Actual:   o.actual,
		Diff:     o.output,
		ScoreSet: o.common.ScoreSet,
		Score:    o.common.Score,
		Context:  ctxData,
	})
	return helpers.OutputJSONAndWebhook(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), res, hook)
}
