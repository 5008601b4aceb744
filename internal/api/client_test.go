package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/leapstack-labs/buster/internal/testutil"
	"github.com/leapstack-labs/buster/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	r.Post(DeployPath, handler)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_Deploy(t *testing.T) {
	var gotAuth string
	var gotReq core.DeployRequest

	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"success": [{"name": "orders", "dataSource": "postgres"}],
			"updated": [],
			"noChange": [{"name": "customers", "dataSource": "postgres"}],
			"failures": [{"name": "payments", "errors": ["duplicate key value violates unique constraint"]}],
			"summary": {"totalModels": 3, "successCount": 1, "updateCount": 0, "noChangeCount": 1, "failureCount": 1}
		}`)
	})

	client, err := NewClient(Options{BaseURL: srv.URL + "/", APIKey: "secret", Logger: testutil.NewTestLogger(t)})
	require.NoError(t, err)

	req := &core.DeployRequest{Models: []core.DeployModel{{
		Name:           "orders",
		DataSourceName: "postgres",
		Schema:         "public",
		SQLDefinition:  "SELECT * FROM public.orders",
		YmlFile:        "name: orders\n",
	}}}
	resp, err := client.Deploy(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "Bearer secret", gotAuth)
	require.Len(t, gotReq.Models, 1)
	assert.Equal(t, "name: orders\n", gotReq.Models[0].YmlFile)
	assert.Equal(t, "SELECT * FROM public.orders", gotReq.Models[0].SQLDefinition)

	require.Len(t, resp.Success, 1)
	assert.Equal(t, "postgres", resp.Success[0].DataSource)
	assert.Len(t, resp.NoChange, 1)
	require.Len(t, resp.Failures, 1)
	assert.Equal(t, "payments", resp.Failures[0].Name)
	assert.Equal(t, 3, resp.Summary.TotalModels)
}

func TestClient_Deploy_StatusError(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, strings.Repeat("x", 2000), http.StatusUnauthorized)
	})

	client, err := NewClient(Options{BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = client.Deploy(context.Background(), &core.DeployRequest{})
	require.Error(t, err)

	var serr *StatusError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, http.StatusUnauthorized, serr.StatusCode)
	assert.Len(t, serr.Body, maxErrorBody)
	assert.Contains(t, err.Error(), "401 Unauthorized")
}

func TestClient_Deploy_Timeout(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	})

	client, err := NewClient(Options{BaseURL: srv.URL, Timeout: 20 * time.Millisecond})
	require.NoError(t, err)

	_, err = client.Deploy(context.Background(), &core.DeployRequest{})
	require.Error(t, err)
}

func TestClient_Deploy_BadJSON(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "not json")
	})

	client, err := NewClient(Options{BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = client.Deploy(context.Background(), &core.DeployRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode deploy response")
}

func TestNewClient_RequiresBaseURL(t *testing.T) {
	_, err := NewClient(Options{})
	require.Error(t, err)
}
