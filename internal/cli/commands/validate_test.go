package commands

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/leapstack-labs/buster/internal/apperr"
	"github.com/leapstack-labs/buster/internal/cli/config"
	"github.com/leapstack-labs/buster/internal/cli/output"
	"github.com/leapstack-labs/buster/internal/testutil"
	"github.com/leapstack-labs/buster/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	t.Run("valid project", func(t *testing.T) {
		root := writeProject(t, map[string]string{"buster.yml": projectConfig, "orders.yml": ordersModel})
		out, err := execute(t, NewValidateCommand(), testConfig(root), output.ModeText)
		require.NoError(t, err)
		assert.Contains(t, out, "Models validated: 1")
	})

	t.Run("invalid model", func(t *testing.T) {
		root := writeProject(t, map[string]string{
			"buster.yml": projectConfig,
			"orders.yml": "name: orders\n",
		})
		cfg := testConfig(root)
		cfg.Verbose = true
		out, err := execute(t, NewValidateCommand(), cfg, output.ModeText)
		var verr *apperr.DeploymentValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, out, "Model must have at least one dimension or measure")
		assert.Contains(t, out, "orders.yml")
	})

	t.Run("missing config", func(t *testing.T) {
		_, err := execute(t, NewValidateCommand(), testConfig(t.TempDir()), output.ModeText)
		assert.Equal(t, apperr.ExitConfiguration, apperr.ExitCode(err))
	})
}

func TestValidate_StrategyFailuresExitNonZero(t *testing.T) {
	root := writeProject(t, map[string]string{"buster.yml": projectConfig, "orders.yml": ordersModel})
	rejectAll := func(_ context.Context, req *core.DeployRequest) (*core.DeployResponse, error) {
		resp := &core.DeployResponse{}
		for _, m := range req.Models {
			resp.Failures = append(resp.Failures, core.DeployFailure{Name: m.Name, Errors: []string{"Model has no columns"}})
		}
		resp.Summarize()
		return resp, nil
	}

	out := &syncBuffer{}
	ctx := config.WithConfig(context.Background(), testConfig(root))
	ctx = context.WithValue(ctx, config.LoggerKey(), testutil.NewTestLogger(t))
	ctx = output.WithRenderer(ctx, output.NewRenderer(out, &syncBuffer{}, output.ModeText, true))

	err := runValidate(ctx, nil, rejectAll)
	var verr *apperr.DeploymentValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"orders.yml: Model has no columns"}, verr.Failures)
	assert.Equal(t, apperr.ExitFailure, apperr.ExitCode(err))
	assert.Contains(t, out.String(), "Model has no columns")
}

func TestValidate_Watch(t *testing.T) {
	root := writeProject(t, map[string]string{"buster.yml": projectConfig, "orders.yml": ordersModel})
	model := filepath.Join(root, "orders.yml")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := &syncBuffer{}
	done := make(chan error, 1)
	go func() {
		_, err := executeWith(t, ctx, NewValidateCommand(), testConfig(root), output.ModeText, out, &syncBuffer{}, "--watch")
		done <- err
	}()

	// Touch the model until the watcher has picked up a change.
	require.Eventually(t, func() bool {
		if !strings.Contains(out.String(), "Watching") {
			return false
		}
		_ = os.WriteFile(model, []byte(ordersModel+"  - name: total\n"), 0o600)
		return strings.Count(out.String(), "Deployment Summary") >= 2
	}, 10*time.Second, 100*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}
