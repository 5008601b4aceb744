// Package pipeline runs a deployment end to end: load the project config,
// discover model files, parse and validate them, resolve defaults, build
// one request per project and hand it to a deployment strategy.
//
// Every file is checked before anything is sent. If any file fails or still
// carries a TODO marker, Run returns the partial result together with a
// DeploymentValidationError and no request is made.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/buster/internal/apperr"
	"github.com/leapstack-labs/buster/internal/cascade"
	"github.com/leapstack-labs/buster/internal/config"
	"github.com/leapstack-labs/buster/internal/deploy"
	"github.com/leapstack-labs/buster/internal/discovery"
	"github.com/leapstack-labs/buster/internal/parser"
	"github.com/leapstack-labs/buster/internal/report"
	"github.com/leapstack-labs/buster/internal/state"
	"github.com/leapstack-labs/buster/internal/transform"
	"github.com/leapstack-labs/buster/pkg/core"
)

// Recorder persists a finished deployment.
type Recorder interface {
	RecordDeployment(ctx context.Context, d *state.Deployment, models []state.DeployedModelRecord) error
}

// Options configures Run.
type Options struct {
	// Root is the directory searched for buster.yml.
	Root string
	// Project selects one project; empty deploys every declared project.
	Project string
	// Include and Exclude override the project patterns when non-empty.
	Include []string
	Exclude []string

	DryRun   bool
	Strategy deploy.Strategy
	Recorder Recorder
	Finder   *discovery.Finder
	// APIURL is stored with recorded deployments.
	APIURL string
	// ValidationExitCode is the exit code of a pre-flight failure.
	ValidationExitCode int
	// Confirm, when set, is asked once after pre-flight checks pass and
	// before any request is sent. Returning false cancels the run.
	Confirm func(models int) (bool, error)
	Logger  *slog.Logger
}

// ErrCancelled is returned when Confirm declines the deployment.
var ErrCancelled = errors.New("deployment cancelled")

// projectBatch is one project's models ready to send.
type projectBatch struct {
	config *core.ResolvedConfig
	models []core.DeployModel
	files  map[string]string
}

// parsedFile caches one file's outcome so it is read once per run.
type parsedFile struct {
	todo   bool
	result *parser.ParseResult
}

type runner struct {
	opts    Options
	logger  *slog.Logger
	baseDir string

	parsed   map[string]*parsedFile
	reported map[string]bool
	excluded map[string]bool

	preflight *core.DeploymentResult
}

// Run executes the pipeline.
func Run(ctx context.Context, opts Options) (*core.DeploymentResult, error) {
	if opts.Strategy == nil {
		return nil, errors.New("pipeline: a deployment strategy is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.Finder == nil {
		opts.Finder = discovery.NewFinder(nil, logger)
	}

	loaded, err := config.Load(opts.Root, logger)
	if err != nil {
		return nil, err
	}

	projects, err := selectProjects(loaded.Config, opts)
	if err != nil {
		return nil, err
	}

	r := &runner{
		opts:      opts,
		logger:    logger,
		baseDir:   filepath.Dir(loaded.ConfigPath),
		parsed:    make(map[string]*parsedFile),
		reported:  make(map[string]bool),
		excluded:  make(map[string]bool),
		preflight: core.NewDeploymentResult(),
	}
	logger.Debug("loaded project config", slog.String("path", loaded.ConfigPath), slog.Int("projects", len(projects)))

	batches := make([]*projectBatch, 0, len(projects))
	for _, rc := range projects {
		batch, err := r.prepare(rc)
		if err != nil {
			return nil, err
		}
		batches = append(batches, batch)
	}

	if len(r.preflight.Failures) > 0 || len(r.preflight.Todos) > 0 {
		return r.preflight, r.validationError()
	}

	if opts.Confirm != nil {
		total := 0
		for _, b := range batches {
			total += len(b.models)
		}
		ok, err := opts.Confirm(total)
		if err != nil {
			return r.preflight, err
		}
		if !ok {
			return r.preflight, ErrCancelled
		}
	}

	results := []*core.DeploymentResult{r.preflight}
	for _, batch := range batches {
		if len(batch.models) == 0 {
			logger.Info("no models to deploy", slog.String("project", batch.config.ProjectName))
			continue
		}
		res, err := r.deploy(ctx, batch)
		if err != nil {
			return report.Merge(results), err
		}
		results = append(results, res)
	}

	return report.Merge(results), nil
}

func selectProjects(cfg *core.ProjectConfig, opts Options) ([]*core.ResolvedConfig, error) {
	ro := config.ResolveOptions{Include: opts.Include, Exclude: opts.Exclude}
	if opts.Project != "" {
		rc, err := config.Resolve(cfg, ro, opts.Project)
		if err != nil {
			return nil, err
		}
		return []*core.ResolvedConfig{rc}, nil
	}
	return config.ResolveAll(cfg, ro)
}

// prepare discovers, parses, validates and transforms one project's files.
func (r *runner) prepare(rc *core.ResolvedConfig) (*projectBatch, error) {
	files, err := r.opts.Finder.Discover(rc, r.baseDir, true)
	if err != nil {
		return nil, fmt.Errorf("project %s: %w", rc.ProjectName, err)
	}
	filtered, err := discovery.Filter(files, rc.Exclude, r.baseDir)
	if err != nil {
		return nil, fmt.Errorf("project %s: %w", rc.ProjectName, err)
	}
	for _, ex := range filtered.Excluded {
		if !r.excluded[ex.File] {
			r.excluded[ex.File] = true
			r.preflight.Excluded = append(r.preflight.Excluded, ex)
		}
	}

	r.logger.Info("discovered model files",
		slog.String("project", rc.ProjectName),
		slog.Int("included", len(filtered.Included)),
		slog.Int("excluded", len(filtered.Excluded)))

	batch := &projectBatch{config: rc, files: make(map[string]string)}
	defaults := rc.Defaults()

	for _, file := range filtered.Included {
		rel := r.rel(file)
		pf, err := r.parse(file)
		if err != nil {
			return nil, err
		}

		if pf.todo {
			r.once(rel, func() {
				r.preflight.Todos = append(r.preflight.Todos, core.TodoFile{File: rel})
			})
			continue
		}

		for _, perr := range pf.result.Errors {
			r.fail(rel, perr.ModelName, perr.Messages())
		}

		for _, model := range pf.result.Models {
			if v := parser.Validate(model); !v.Valid {
				r.fail(rel, model.Name, v.Errors)
				continue
			}

			dm, err := transform.ToDeployModel(cascade.Resolve(model, defaults))
			if err != nil {
				var verr *apperr.ModelValidationError
				if !errors.As(err, &verr) {
					return nil, err
				}
				r.fail(rel, model.Name, []string{verr.Message})
				continue
			}

			if first, dup := batch.files[dm.Name]; dup {
				r.fail(rel, model.Name, []string{fmt.Sprintf("duplicate model name %q (already defined in %s)", dm.Name, first)})
				continue
			}

			batch.models = append(batch.models, *dm)
			batch.files[dm.Name] = rel
		}
	}
	return batch, nil
}

// parse reads and parses file at most once per run.
func (r *runner) parse(file string) (*parsedFile, error) {
	if pf, ok := r.parsed[file]; ok {
		return pf, nil
	}

	content, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read model file: %w", err)
	}

	pf := &parsedFile{todo: parser.HasTodoMarker(content)}
	if !pf.todo {
		pf.result = parser.ParseContent(r.rel(file), content)
	}
	r.parsed[file] = pf
	r.logger.Debug("parsed model file", slog.String("file", r.rel(file)), slog.Bool("todo", pf.todo))
	return pf, nil
}

// fail records a failure for file unless one was already recorded.
func (r *runner) fail(file, model string, errs []string) {
	r.once(file+"\x00"+model, func() {
		r.preflight.Failures = append(r.preflight.Failures, core.FailedModel{
			File:      file,
			ModelName: model,
			Errors:    errs,
		})
	})
}

func (r *runner) once(key string, fn func()) {
	if r.reported[key] {
		return
	}
	r.reported[key] = true
	fn()
}

func (r *runner) validationError() error {
	verr := &apperr.DeploymentValidationError{Code: r.opts.ValidationExitCode}
	for _, f := range r.preflight.Failures {
		for _, msg := range f.Errors {
			verr.Failures = append(verr.Failures, fmt.Sprintf("%s: %s", f.File, msg))
		}
	}
	for _, t := range r.preflight.Todos {
		verr.Todos = append(verr.Todos, t.File)
	}
	return verr
}

// deploy sends one project's batch and converts the response.
func (r *runner) deploy(ctx context.Context, batch *projectBatch) (*core.DeploymentResult, error) {
	req := &core.DeployRequest{Models: batch.models}
	r.logger.Info("deploying project",
		slog.String("project", batch.config.ProjectName),
		slog.Int("models", len(req.Models)),
		slog.Bool("dry_run", r.opts.DryRun))

	resp, err := r.opts.Strategy(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		r.logger.Warn("deployment request failed",
			slog.String("project", batch.config.ProjectName),
			slog.String("error", err.Error()))
		resp = failAll(req, err)
	}

	res := toResult(resp, batch)
	r.record(ctx, batch, res)
	return res, nil
}

func failAll(req *core.DeployRequest, err error) *core.DeployResponse {
	resp := &core.DeployResponse{}
	for _, m := range req.Models {
		resp.Failures = append(resp.Failures, core.DeployFailure{Name: m.Name, Errors: []string{err.Error()}})
	}
	resp.Summarize()
	return resp
}

func toResult(resp *core.DeployResponse, batch *projectBatch) *core.DeploymentResult {
	res := core.NewDeploymentResult()
	deployed := func(list []core.DeploySuccess) []core.DeployedModel {
		out := make([]core.DeployedModel, 0, len(list))
		for _, s := range list {
			out = append(out, core.DeployedModel{
				File:       batch.files[s.Name],
				ModelName:  s.Name,
				DataSource: s.DataSource,
			})
		}
		return out
	}
	res.Success = deployed(resp.Success)
	res.Updated = deployed(resp.Updated)
	res.NoChange = deployed(resp.NoChange)
	for _, f := range resp.Failures {
		res.Failures = append(res.Failures, core.FailedModel{
			File:      batch.files[f.Name],
			ModelName: f.Name,
			Errors:    f.Errors,
		})
	}
	res.Docs = resp.Docs
	return res
}

// record stores a live deployment. Failures to record are logged only since
// the deployment itself already happened.
func (r *runner) record(ctx context.Context, batch *projectBatch, res *core.DeploymentResult) {
	if r.opts.Recorder == nil || r.opts.DryRun {
		return
	}

	yml := make(map[string]string, len(batch.models))
	for _, m := range batch.models {
		yml[m.Name] = m.YmlFile
	}

	var records []state.DeployedModelRecord
	add := func(list []core.DeployedModel, status state.ModelStatus) {
		for _, m := range list {
			records = append(records, state.DeployedModelRecord{
				ModelName:  m.ModelName,
				File:       m.File,
				DataSource: m.DataSource,
				Status:     status,
				YmlFile:    yml[m.ModelName],
			})
		}
	}
	add(res.Success, state.ModelStatusSuccess)
	add(res.Updated, state.ModelStatusUpdated)
	add(res.NoChange, state.ModelStatusNoChange)
	for _, f := range res.Failures {
		msg := ""
		if len(f.Errors) > 0 {
			msg = f.Errors[0]
		}
		records = append(records, state.DeployedModelRecord{
			ModelName:  f.ModelName,
			File:       f.File,
			DataSource: batch.config.DataSourceName,
			Status:     state.ModelStatusFailed,
			YmlFile:    yml[f.ModelName],
			Error:      msg,
		})
	}

	d := &state.Deployment{
		Project:       batch.config.ProjectName,
		APIURL:        r.opts.APIURL,
		SuccessCount:  len(res.Success),
		UpdatedCount:  len(res.Updated),
		NoChangeCount: len(res.NoChange),
		FailureCount:  len(res.Failures),
	}
	if err := r.opts.Recorder.RecordDeployment(ctx, d, records); err != nil {
		r.logger.Warn("failed to record deployment history",
			slog.String("project", batch.config.ProjectName),
			slog.String("error", err.Error()))
	}
}

// rel returns file relative to the project root with forward slashes.
func (r *runner) rel(file string) string {
	rel, err := filepath.Rel(r.baseDir, file)
	if err != nil {
		return filepath.ToSlash(file)
	}
	return filepath.ToSlash(rel)
}
