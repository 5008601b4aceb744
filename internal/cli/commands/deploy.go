package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/buster/internal/api"
	"github.com/leapstack-labs/buster/internal/apperr"
	"github.com/leapstack-labs/buster/internal/cli/config"
	"github.com/leapstack-labs/buster/internal/cli/output"
	"github.com/leapstack-labs/buster/internal/deploy"
	"github.com/leapstack-labs/buster/internal/pipeline"
	"github.com/leapstack-labs/buster/internal/report"
	"github.com/leapstack-labs/buster/internal/state"
	"github.com/leapstack-labs/buster/pkg/core"
	"github.com/spf13/cobra"
)

// NewDeployCommand creates the deploy command.
func NewDeployCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Deploy semantic models to Buster",
		Long: `Discover, validate and deploy the semantic model files of every project
declared in buster.yml.

Every file is checked before anything is sent. A single invalid file or a
remaining {{TODO}} marker stops the deployment.`,
		Example: `  # Deploy every project under the current directory
  buster deploy

  # Show what would be deployed without calling the API
  buster deploy --dry-run --verbose

  # Deploy one project and skip legacy models
  buster deploy --path ./semantic --project warehouse --exclude "legacy/**"`,
		RunE: runDeploy,
	}

	cmd.Flags().Bool("dry-run", false, "Validate and show what would be deployed without calling the API")
	cmd.Flags().Bool("interactive", false, "Ask for confirmation before deploying")
	cmd.Flags().String("api-url", "", "Buster API base URL")
	cmd.Flags().Duration("timeout", 0, "HTTP timeout per request")
	cmd.Flags().Int("retries", 0, "Attempts per deployment request")
	cmd.Flags().Duration("retry-delay", 0, "Delay between attempts")
	cmd.Flags().StringSlice("include", nil, "Include pattern (repeatable, overrides buster.yml)")
	cmd.Flags().StringSlice("exclude", nil, "Exclude pattern (repeatable, overrides buster.yml)")
	cmd.Flags().Bool("history", true, "Record live deployments in the local state database")

	return cmd
}

func runDeploy(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg := config.GetConfig(ctx)
	logger := config.GetLogger(ctx)
	r := output.FromContext(ctx)

	strategy, err := deployStrategy(cfg, logger)
	if err != nil {
		return err
	}

	opts := pipeline.Options{
		Root:     cfg.Path,
		Project:  cfg.Project,
		Include:  cfg.Include,
		Exclude:  cfg.Exclude,
		DryRun:   cfg.DryRun,
		Strategy: strategy,
		APIURL:   cfg.APIURL,
		Logger:   logger,
	}

	if cfg.Interactive && !cfg.DryRun {
		if !output.IsTerminal(cmd.InOrStdin()) {
			return &apperr.ConfigurationError{
				Message: "--interactive requires a terminal",
				Hint:    "drop --interactive when running in CI",
			}
		}
		opts.Confirm = confirmer(cmd.InOrStdin(), r)
	}

	if cfg.History && !cfg.DryRun {
		store, err := state.Open(cfg.StatePath)
		if err != nil {
			logger.Warn("deployment history disabled", slog.String("path", cfg.StatePath), slog.String("error", err.Error()))
		} else {
			defer func() { _ = store.Close() }()
			opts.Recorder = store
		}
	}

	res, err := pipeline.Run(ctx, opts)
	if errors.Is(err, pipeline.ErrCancelled) {
		r.Println("Deployment cancelled.")
		return nil
	}
	if res != nil {
		if rerr := renderResult(r, res, cfg.Verbose, cfg.DryRun); rerr != nil {
			return rerr
		}
	}
	if err != nil {
		return err
	}
	if names := failedModels(res); len(names) > 0 {
		return &apperr.DeploymentError{Models: names}
	}
	return nil
}

// deployStrategy builds the strategy chain for the configured mode.
func deployStrategy(cfg *config.Config, logger *slog.Logger) (deploy.Strategy, error) {
	if cfg.DryRun {
		return deploy.Compose(deploy.ValidationOnly(), deploy.DryRun(logger)), nil
	}
	if cfg.APIKey == "" {
		return nil, &apperr.ConfigurationError{
			Message: "no API key configured",
			Hint:    "set BUSTER_API_KEY (or add it to .env), or use --dry-run",
		}
	}
	client, err := api.NewClient(api.Options{
		BaseURL: cfg.APIURL,
		APIKey:  cfg.APIKey,
		Timeout: cfg.Timeout,
		Logger:  logger,
	})
	if err != nil {
		return nil, err
	}
	return deploy.Compose(
		deploy.ValidationOnly(),
		deploy.Retryable(deploy.Live(client), cfg.Retries, cfg.RetryDelay),
	), nil
}

func renderResult(r *output.Renderer, res *core.DeploymentResult, verbose, dryRun bool) error {
	if r.Mode() == output.ModeJSON {
		return r.JSON(res)
	}
	r.Println(report.Format(res, report.FormatOptions{
		Verbose: verbose,
		DryRun:  dryRun,
		Styles:  r.Styles(),
	}))
	return nil
}

func failedModels(res *core.DeploymentResult) []string {
	if res == nil {
		return nil
	}
	names := make([]string, 0, len(res.Failures))
	for _, f := range res.Failures {
		names = append(names, f.ModelName)
	}
	return names
}

// confirmer asks on in before the first request is sent.
func confirmer(in io.Reader, r *output.Renderer) func(int) (bool, error) {
	return func(models int) (bool, error) {
		r.Printf("Deploy %d model(s)? [y/N] ", models)
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return false, fmt.Errorf("failed to read confirmation: %w", err)
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true, nil
		default:
			return false, nil
		}
	}
}
