package server

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/LouYuanbo1/vizcapture/internal/config"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestServeVisualizationDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, IndexFile), []byte("<div id=voxels></div>"), 0o600))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "processed_data"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "processed_data", "uniform.json"), []byte(`{"binary_file":"uniform.bin"}`), 0o600))

	log, _ := test.NewNullLogger()
	srv, err := Listen(dir, config.Server{Host: "127.0.0.1", Port: 0}, log)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	get := func(path string) (int, string) {
		resp, err := client.Get(srv.BaseURL().JoinPath(path).String())
		require.NoError(t, err)
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return resp.StatusCode, string(body)
	}

	status, body := get(IndexFile)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "voxels")

	status, body = get("processed_data/uniform.json")
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"binary_file":"uniform.bin"}`, body)

	status, _ = get("processed_data/missing.json")
	assert.Equal(t, http.StatusNotFound, status)

	cancel()
	require.NoError(t, <-done)
}

func TestListenRequiresIndex(t *testing.T) {
	log, _ := test.NewNullLogger()
	_, err := Listen(t.TempDir(), config.Server{Host: "127.0.0.1"}, log)
	require.Error(t, err)
	assert.Contains(t, err.Error(), IndexFile)
}
