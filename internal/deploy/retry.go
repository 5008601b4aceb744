package deploy

import (
	"context"
	"errors"
	"time"

	"github.com/leapstack-labs/buster/pkg/core"
	"github.com/sethvargo/go-retry"
)

// Retryable wraps s so that a request which errors is attempted up to
// maxAttempts times with a fixed delay between attempts. When every attempt
// errors, the last error is reported as a failure for each model in the
// request instead of being returned. Responses that report per-model
// failures are not retried.
func Retryable(s Strategy, maxAttempts int, delay time.Duration) Strategy {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return func(ctx context.Context, req *core.DeployRequest) (*core.DeployResponse, error) {
		backoff := retry.WithMaxRetries(uint64(maxAttempts-1), constant(delay))

		var lastErr error
		resp, err := retry.DoValue(ctx, backoff, func(ctx context.Context) (*core.DeployResponse, error) {
			r, err := s(ctx, req)
			if err != nil {
				lastErr = err
				return nil, retry.RetryableError(err)
			}
			return r, nil
		})
		if err == nil {
			return resp, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return nil, err
		}
		if lastErr == nil {
			lastErr = err
		}
		return failAll(req, lastErr), nil
	}
}

// constant is a fixed backoff that also accepts a zero delay.
func constant(d time.Duration) retry.Backoff {
	if d < 0 {
		d = 0
	}
	return retry.BackoffFunc(func() (time.Duration, bool) {
		return d, false
	})
}

func failAll(req *core.DeployRequest, err error) *core.DeployResponse {
	resp := newResponse()
	for _, m := range req.Models {
		resp.Failures = append(resp.Failures, core.DeployFailure{
			Name:   m.Name,
			Errors: []string{err.Error()},
		})
	}
	resp.Summarize()
	return resp
}
