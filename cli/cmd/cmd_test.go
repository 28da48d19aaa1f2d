package cmd

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crownpoint-data/pos-sync/cli/internal/config"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cfg = config.Default()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestSyncCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/sync", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"completed","results":{"Checks":{"status":"success","records_published":12}}}`))
	}))
	defer srv.Close()

	out, err := execute(t, "sync", "--poller-url", srv.URL, "--endpoints", "Checks")
	require.NoError(t, err)
	assert.Contains(t, out, `"records_published": 12`)
}

func TestSyncCommandServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"days_back must be between 1 and 365"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := execute(t, "sync", "--poller-url", srv.URL, "--days-back", "400")
	assert.Error(t, err)
}

func TestHealthCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/healthz", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"healthy"}`))
	}))
	defer srv.Close()

	out, err := execute(t, "health", "--poller-url", srv.URL, "--processor-url", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "poller")
	assert.Contains(t, out, "processor")
	assert.Contains(t, out, "healthy")
}

func TestHealthCommandUnreachable(t *testing.T) {
	_, err := execute(t, "health",
		"--poller-url", "http://127.0.0.1:1",
		"--processor-url", "http://127.0.0.1:1")
	assert.Error(t, err)
}
