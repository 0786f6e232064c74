package cmd

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/zinc-sig/robotharness/cmd/config"
	"github.com/zinc-sig/robotharness/cmd/helpers"
	"github.com/zinc-sig/robotharness/internal/output"
	"github.com/zinc-sig/robotharness/internal/suite"
	"github.com/zinc-sig/robotharness/robot"
)

type suiteOptions struct {
	manifest  string
	control   string
	parallel  int
	artifacts string
	verbose   bool
	context   config.ContextConfig
	webhook   config.WebhookConfig
}

func newSuiteCmd(g *globalFlags) *cobra.Command {
	o := &suiteOptions{}

	cmd := &cobra.Command{
		Use:   "suite -f <manifest> [flags]",
		Short: "Run every script of a suite manifest",
		Long: `Run the scripts listed in a YAML suite manifest and print one JSON result
per script, in manifest order. Each script gets its own robot session; up to
--parallel scripts run at once.`,
		Example: `  robotharness suite -f echo.yaml
  robotharness suite -f echo.yaml --parallel 4 --artifacts out/`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSuite(cmd, g, o)
		},
	}

	cmd.Flags().StringVarP(&o.manifest, "file", "f", "", "Suite manifest (required)")
	_ = cmd.MarkFlagRequired("file")
	cmd.Flags().IntVar(&o.parallel, "parallel", 1, "Maximum number of scripts running at once")
	cmd.Flags().StringVar(&o.artifacts, "artifacts", "", "Directory receiving expected, actual and diff files per script")
	cmd.Flags().BoolVarP(&o.verbose, "verbose", "v", false, "Show execution details on stderr")
	helpers.SetupControlFlag(cmd, &o.control)
	helpers.SetupContextFlags(cmd, &o.context)
	helpers.SetupWebhookFlags(cmd, &o.webhook)
	return cmd
}

func runSuite(cmd *cobra.Command, g *globalFlags, o *suiteOptions) error {
	ctx := cmd.Context()
	stderr := cmd.ErrOrStderr()

	m, err := suite.Load(o.manifest)
	if err != nil {
		return err
	}

	// The manifest address applies unless --control was given
	addr := o.control
	if m.Control != "" && !cmd.Flags().Changed("control") {
		addr = m.Control
	}

	ctxData, err := helpers.BuildContext(&o.context)
	if err != nil {
		return err
	}
	hook, err := helpers.NewWebhookClient(&o.webhook, o.verbose, stderr)
	if err != nil {
		return err
	}

	opts := suite.Options{
		Parallel:  o.parallel,
		Artifacts: o.artifacts,
		Verbose:   o.verbose,
		Log:       stderr,
	}
	if o.verbose {
		var mu sync.Mutex
		opts.Done = func(oc suite.Outcome) {
			mu.Lock()
			defer mu.Unlock()
			fmt.Fprintf(stderr, "[SUITE] %s: %s (%d ms)\n", oc.Entry.Name, oc.Result.Status, oc.Result.ExecutionTime.Milliseconds())
		}
	}

	outcomes, err := suite.Run(ctx, m, func() (robot.Engine, error) {
		return newEngine(addr)
	}, opts)
	if err != nil {
		return fmt.Errorf("suite %s failed: %w", m.Name, err)
	}

	results := make([]*output.Result, len(outcomes))
	for i, oc := range outcomes {
		opts := output.Options{
			RunID:    uuid.NewString(),
			Script:   oc.Script,
			Timeout:  oc.Timeout,
			ScoreSet: oc.Entry.Score != nil,
			Context:  ctxData,
		}
		if oc.Entry.Score != nil {
			opts.Score = *oc.Entry.Score
		}
		if o.artifacts != "" {
			opts.Expected, opts.Actual, opts.Diff = suite.ArtifactPaths(o.artifacts, oc.Entry.Name)
		}
		results[i] = output.New(oc.Result, opts)
	}

	if err := record(cmd, g, m.Name, results...); err != nil {
		return err
	}

	for _, res := range results {
		if err := helpers.OutputJSONAndWebhook(ctx, cmd.OutOrStdout(), stderr, res, hook); err != nil {
			return err
		}
	}
	return nil
}
