package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/leapstack-labs/buster/internal/apperr"
	"github.com/leapstack-labs/buster/internal/cli/config"
	"github.com/leapstack-labs/buster/internal/cli/output"
	"github.com/leapstack-labs/buster/internal/deploy"
	"github.com/leapstack-labs/buster/internal/discovery"
	"github.com/leapstack-labs/buster/internal/pipeline"
	"github.com/leapstack-labs/buster/pkg/core"
	"github.com/spf13/cobra"
)

// ValidateOptions holds options for the validate command.
type ValidateOptions struct {
	Watch bool
}

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	opts := &ValidateOptions{}

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check model files without deploying",
		Long: `Run discovery, parsing and validation for every project and report the
result. Nothing is sent to the API.

With --watch the check re-runs whenever a model file changes.`,
		Example: `  # Check once
  buster validate --path ./semantic

  # Keep checking while editing
  buster validate --watch`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.Watch {
				ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
				defer stop()
				return runValidateWatch(ctx, cmd)
			}
			return runValidate(cmd.Context(), nil, deploy.ValidationOnly())
		},
	}

	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "Re-run on file changes until interrupted")
	cmd.Flags().StringSlice("include", nil, "Include pattern (repeatable, overrides buster.yml)")
	cmd.Flags().StringSlice("exclude", nil, "Exclude pattern (repeatable, overrides buster.yml)")

	return cmd
}

// runValidate checks every project once. finder may carry a cache shared
// across runs.
func runValidate(ctx context.Context, finder *discovery.Finder, strategy deploy.Strategy) error {
	cfg := config.GetConfig(ctx)
	logger := config.GetLogger(ctx)
	r := output.FromContext(ctx)

	res, err := pipeline.Run(ctx, pipeline.Options{
		Root:     cfg.Path,
		Project:  cfg.Project,
		Include:  cfg.Include,
		Exclude:  cfg.Exclude,
		DryRun:   true,
		Strategy: strategy,
		Finder:   finder,
		Logger:   logger,
	})
	if res != nil {
		if rerr := renderResult(r, res, cfg.Verbose, true); rerr != nil {
			return rerr
		}
	}
	if err != nil {
		return err
	}
	return validationFailures(res)
}

// validationFailures reports models the strategy rejected after pre-flight.
func validationFailures(res *core.DeploymentResult) error {
	if res == nil || len(res.Failures) == 0 {
		return nil
	}
	verr := &apperr.DeploymentValidationError{}
	for _, f := range res.Failures {
		for _, msg := range f.Errors {
			verr.Failures = append(verr.Failures, fmt.Sprintf("%s: %s", f.File, msg))
		}
	}
	return verr
}

func runValidateWatch(ctx context.Context, cmd *cobra.Command) error {
	cfg := config.GetConfig(ctx)
	logger := config.GetLogger(ctx)
	r := output.FromContext(ctx)

	cache := discovery.NewCache(0)
	finder := discovery.NewFinder(cache, logger)
	check := func() {
		if err := runValidate(ctx, finder, deploy.ValidationOnly()); err != nil {
			r.Errorf("Error: %v\n", err)
		}
	}

	check()
	r.Printf("Watching %s for changes (Ctrl+C to stop)...\n", cfg.Path)

	w := discovery.NewWatcher(cfg.Path, cache, logger)
	err := w.Run(ctx, func(paths []string) {
		logger.Info("model files changed", slog.Int("files", len(paths)))
		_, _ = cmd.OutOrStdout().Write([]byte("\n"))
		check()
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
