package cmd

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/zinc-sig/robotharness/cmd/config"
	"github.com/zinc-sig/robotharness/cmd/helpers"
	"github.com/zinc-sig/robotharness/internal/output"
	"github.com/zinc-sig/robotharness/internal/runner"
	"github.com/zinc-sig/robotharness/internal/upload"
)

type runOptions struct {
	script    string
	control   string
	common    config.CommonFlags
	artifacts config.ArtifactConfig
	context   config.ContextConfig
	webhook   config.WebhookConfig
	upload    config.UploadConfig
}

func newRunCmd(g *globalFlags) *cobra.Command {
	o := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run -s <script> [flags]",
		Short: "Run one robot script and report the outcome",
		Long: `Run a robot script with no client code: the robot plays both sides of the
script on its own. The outcome (success, mismatch, failed or timeout) is
printed as JSON together with timing, optional score and context.`,
		Example: `  robotharness run -s scripts/self.rpt -t 10s
  robotharness run -s scripts/self.rpt -x out/expected.txt -a out/actual.txt --diff-out out/diff.txt
  robotharness run -s scripts/self.rpt --score 10 --context-kv student=alice
  robotharness run -s scripts/self.rpt --upload-provider minio -a runs/42/actual.txt`,
		Args: cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			o.common.ScoreSet = cmd.Flags().Changed("score")
			timeout, err := helpers.ParseTimeout(o.common.TimeoutStr)
			if err != nil {
				return err
			}
			o.common.Timeout = timeout
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScript(cmd, g, o)
		},
	}

	cmd.Flags().StringVarP(&o.script, "script", "s", "", "Path of the robot script (required)")
	_ = cmd.MarkFlagRequired("script")
	helpers.SetupControlFlag(cmd, &o.control)
	helpers.SetupCommonFlags(cmd, &o.common)
	helpers.SetupDryRunFlag(cmd, &o.common)
	helpers.SetupArtifactFlags(cmd, &o.artifacts)
	helpers.SetupContextFlags(cmd, &o.context)
	helpers.SetupWebhookFlags(cmd, &o.webhook)
	helpers.SetupUploadFlags(cmd, &o.upload)
	return cmd
}

func runScript(cmd *cobra.Command, g *globalFlags, o *runOptions) error {
	ctx := cmd.Context()
	stderr := cmd.ErrOrStderr()
	verbose := o.common.Verbose || o.common.DryRun

	ctxData, err := helpers.BuildContext(&o.context)
	if err != nil {
		return err
	}

	hook, err := helpers.NewWebhookClient(&o.webhook, verbose, stderr)
	if err != nil {
		return err
	}

	var provider upload.Provider
	var uploadConf map[string]any
	if !o.common.DryRun {
		provider, uploadConf, err = helpers.SetupUploadProvider(&o.upload)
		if err != nil {
			return err
		}
	}

	artifacts, err := helpers.ResolveArtifacts(&o.artifacts, provider != nil)
	if err != nil {
		return err
	}
	defer artifacts.Cleanup()

	if verbose {
		helpers.PrintContextInfo(stderr, ctxData, o.common.DryRun)
		if provider != nil {
			helpers.PrintUploadInfo(stderr, provider, uploadConf, artifacts)
		}
	}

	eng, err := newEngine(o.control)
	if err != nil {
		return fmt.Errorf("failed to create robot engine: %w", err)
	}

	result, err := runner.Execute(ctx, eng, &runner.Config{
		Script:       o.script,
		Timeout:      o.common.Timeout,
		ExpectedFile: artifacts.Expected,
		ActualFile:   artifacts.Actual,
		DiffFile:     artifacts.Diff,
		Verbose:      o.common.Verbose,
		DryRun:       o.common.DryRun,
		Log:          stderr,
	})
	if err != nil {
		return fmt.Errorf("failed to execute script: %w", err)
	}

	if provider != nil {
		progress := stderr
		if !o.common.Verbose {
			progress = nil
		}
		if err := upload.UploadAll(ctx, provider, artifacts.Uploads(), progress); err != nil {
			return err
		}
	}

	opts := output.Options{
		RunID:    uuid.NewString(),
		Script:   o.script,
		Timeout:  o.common.Timeout,
		ScoreSet: o.common.ScoreSet,
		Score:    o.common.Score,
		Context:  ctxData,
	}
	if !o.common.DryRun {
		opts.Expected = artifacts.Remote(artifacts.Expected)
		opts.Actual = artifacts.Remote(artifacts.Actual)
		opts.Diff = artifacts.Remote(artifacts.Diff)
	}
	res := output.New(result, opts)

	if !o.common.DryRun {
		if err := record(cmd, g, "", res); err != nil {
			return err
		}
	}

	return helpers.OutputJSONAndWebhook(ctx, cmd.OutOrStdout(), stderr, res, hook)
}

// record stores res in the history database when one is configured.
func record(cmd *cobra.Command, g *globalFlags, suite string, results ...*output.Result) error {
	store, err := g.openHistory()
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	if store == nil {
		return nil
	}
	defer func() { _ = store.Close() }()

	for _, res := range results {
		if err := store.Record(cmd.Context(), res, suite); err != nil {
			return err
		}
	}
	return nil
}
