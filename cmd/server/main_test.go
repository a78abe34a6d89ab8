package main

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_MissingConfigFile(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml")})

	err := cmd.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.yaml")
}

func TestRootCmd_RejectsArguments(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"serve"})

	assert.Error(t, cmd.ExecuteContext(context.Background()))
}

func TestServe_StopsWhenContextEnds(t *testing.T) {
	cfg := testConfig()
	cfg.Server.Listen = "127.0.0.1:0"

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	assert.NoError(t, serve(ctx, cfg))
}

func TestServe_UnknownProvider(t *testing.T) {
	cfg := testConfig()
	cfg.Store.Provider = "ftp"

	assert.Error(t, serve(context.Background(), cfg))
}
