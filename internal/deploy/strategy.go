// Package deploy holds the interchangeable ways a deployment request can be
// carried out: simulated, sent to the service, checked offline, retried or
// chained.
package deploy

import (
	"context"
	"log/slog"

	"github.com/leapstack-labs/buster/pkg/core"
)

// Strategy turns a deployment request into a response.
//
// Expected per-model failures are reported in the response. A non-nil error
// means the whole request could not be carried out.
type Strategy func(ctx context.Context, req *core.DeployRequest) (*core.DeployResponse, error)

// Deployer sends a request to the remote service.
type Deployer interface {
	Deploy(ctx context.Context, req *core.DeployRequest) (*core.DeployResponse, error)
}

// DryRun marks every model as deployed without any I/O.
func DryRun(logger *slog.Logger) Strategy {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return func(_ context.Context, req *core.DeployRequest) (*core.DeployResponse, error) {
		resp := newResponse()
		for _, m := range req.Models {
			logger.Info("dry run: would deploy model",
				slog.String("model", m.Name),
				slog.String("data_source", m.DataSourceName),
				slog.String("target", target(m)))
			resp.Success = append(resp.Success, success(m))
		}
		resp.Summarize()
		return resp, nil
	}
}

// Live forwards the request to client and returns its response unchanged.
func Live(client Deployer) Strategy {
	return func(ctx context.Context, req *core.DeployRequest) (*core.DeployResponse, error) {
		return client.Deploy(ctx, req)
	}
}

// ValidationOnly re-checks that every model is complete enough to deploy.
// Complete models are reported as successes.
func ValidationOnly() Strategy {
	return func(_ context.Context, req *core.DeployRequest) (*core.DeployResponse, error) {
		resp := newResponse()
		for _, m := range req.Models {
			if errs := checkModel(m); len(errs) > 0 {
				resp.Failures = append(resp.Failures, core.DeployFailure{Name: m.Name, Errors: errs})
				continue
			}
			resp.Success = append(resp.Success, success(m))
		}
		resp.Summarize()
		return resp, nil
	}
}

// Compose runs strategies in order and stops at the first one that errors or
// reports a failure. Otherwise the last response is returned.
func Compose(strategies ...Strategy) Strategy {
	return func(ctx context.Context, req *core.DeployRequest) (*core.DeployResponse, error) {
		resp := newResponse()
		for _, s := range strategies {
			var err error
			resp, err = s(ctx, req)
			if err != nil {
				return nil, err
			}
			if resp.HasFailures() {
				return resp, nil
			}
		}
		return resp, nil
	}
}

func checkModel(m core.DeployModel) []string {
	var errs []string
	if m.Name == "" {
		errs = append(errs, "Model name is required")
	}
	if m.DataSourceName == "" {
		errs = append(errs, "Data source name is required")
	}
	if m.Schema == "" {
		errs = append(errs, "Schema is required")
	}
	if len(m.Columns) == 0 {
		errs = append(errs, "Model must have at least one column")
	}
	return errs
}

func newResponse() *core.DeployResponse {
	return &core.DeployResponse{
		Success:  []core.DeploySuccess{},
		Updated:  []core.DeploySuccess{},
		NoChange: []core.DeploySuccess{},
		Failures: []core.DeployFailure{},
	}
}

func success(m core.DeployModel) core.DeploySuccess {
	return core.DeploySuccess{
		Name:       m.Name,
		DataSource: m.DataSourceName,
		Schema:     m.Schema,
		Database:   core.Deref(m.Database),
	}
}

func target(m core.DeployModel) string {
	if db := core.Deref(m.Database); db != "" {
		return db + "." + m.Schema + "." + m.Name
	}
	return m.Schema + "." + m.Name
}
