package main

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/ceo-assistant/internal/auth"
	"github.com/fyrsmithlabs/ceo-assistant/internal/demo"
	"github.com/fyrsmithlabs/ceo-assistant/internal/model"
)

func TestMainIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	// Keep the real user config out of the test.
	t.Setenv("HOME", t.TempDir())
	t.Setenv("CEO_SERVER_HTTP_PORT", "8084")
	t.Setenv("CEO_SERVER_HTTP_HOST", "127.0.0.1")
	t.Setenv("CEO_STORAGE_PROVIDER", "memory")
	t.Setenv("CEO_STORAGE_SEED_DEMO", "true")
	t.Setenv("CEO_LOG_LEVEL", "error")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- run(ctx, "")
	}()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://127.0.0.1:8084/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 50*time.Millisecond)

	req, err := http.NewRequest(http.MethodGet, "http://127.0.0.1:8084/api/tasks", nil)
	require.NoError(t, err)
	req.Header.Set(auth.HeaderUserID, demo.UserID)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var tasks []model.Task
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&tasks))
	assert.Len(t, tasks, 3)

	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shutdown in time")
	}
}

func TestRun_InvalidConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("CEO_STORAGE_PROVIDER", "postgres")

	err := run(context.Background(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported storage provider")
}
