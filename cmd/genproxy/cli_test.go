package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/liuzl/genproxy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cliConfig(t *testing.T, upstream http.HandlerFunc) *ProxyConfig {
	t.Helper()
	up := httptest.NewServer(upstream)
	t.Cleanup(up.Close)
	t.Setenv(defaultAPIKeyEnv, "env-key")
	cfg := DefaultConfig()
	cfg.Upstream.BaseURL = up.URL
	return cfg
}

func TestRunGenerateText(t *testing.T) {
	cfg := cliConfig(t, jsonUpstream(http.StatusOK, `{"candidates":[{"content":{"parts":[{"text":"hello there"}]}}]}`))

	var stdout, stderr bytes.Buffer
	err := runGenerate(context.Background(), &stdout, &stderr, cfg, "say hello", generateFlags{preferText: true})
	require.NoError(t, err)
	assert.Equal(t, "hello there\n", stdout.String())
	assert.Empty(t, stderr.String())
}

func TestRunGenerateImageToFile(t *testing.T) {
	cfg := cliConfig(t, jsonUpstream(http.StatusOK,
		`{"candidates":[{"content":{"parts":[{"inlineData":{"mimeType":"image/png","data":"aGVsbG8="}}]}}]}`))

	dir := t.TempDir()
	ref := filepath.Join(dir, "ref.webp")
	require.NoError(t, os.WriteFile(ref, []byte("ref"), 0o600))
	out := filepath.Join(dir, "out.png")

	var stdout, stderr bytes.Buffer
	err := runGenerate(context.Background(), &stdout, &stderr, cfg, "a cat", generateFlags{
		model:  "nano-banana-pro-preview",
		images: []string{ref},
		output: out,
	})
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
	assert.Contains(t, stdout.String(), "wrote "+out)
}

func TestRunGenerateMissingImageFile(t *testing.T) {
	cfg := cliConfig(t, jsonUpstream(http.StatusOK, `{}`))

	err := runGenerate(context.Background(), io.Discard, io.Discard, cfg, "a cat", generateFlags{
		images: []string{filepath.Join(t.TempDir(), "missing.png")},
	})
	assert.ErrorContains(t, err, "failed to read image")
}

func TestRunGenerateVideoWaits(t *testing.T) {
	var polls atomic.Int32
	cfg := cliConfig(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if strings.HasSuffix(r.URL.Path, ":predictLongRunning") {
			io.WriteString(w, `{"name":"operations/7"}`)
			return
		}
		if polls.Add(1) < 3 {
			io.WriteString(w, `{"name":"operations/7","done":false}`)
			return
		}
		io.WriteString(w, `{"name":"operations/7","done":true}`)
	})

	var stdout, stderr bytes.Buffer
	err := runGenerate(context.Background(), &stdout, &stderr, cfg, "waves", generateFlags{
		model:    "veo-3",
		wait:     true,
		interval: time.Millisecond,
	})
	require.NoError(t, err)
	assert.Equal(t, int32(3), polls.Load())
	assert.Equal(t, `{"name":"operations/7","done":true}`+"\n", stdout.String())
	assert.Contains(t, stderr.String(), "operations/7")
}

func TestWaitForOperationFailure(t *testing.T) {
	cfg := cliConfig(t, jsonUpstream(http.StatusOK, `{"done":true,"error":{"message":"quota"}}`))
	p := genproxy.NewPoller(cfg.Options()...)

	var stdout bytes.Buffer
	err := waitForOperation(context.Background(), &stdout, p, "operations/1", "k", time.Millisecond)
	assert.EqualError(t, err, "operation operations/1 failed: quota")
	assert.NotEmpty(t, stdout.String())
}

func TestWaitForOperationCancelled(t *testing.T) {
	cfg := cliConfig(t, jsonUpstream(http.StatusOK, `{"done":false}`))
	p := genproxy.NewPoller(cfg.Options()...)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := waitForOperation(ctx, io.Discard, p, "operations/1", "k", 5*time.Millisecond)
	assert.Error(t, err)
}

func TestOperationCommand(t *testing.T) {
	cfg := cliConfig(t, jsonUpstream(http.StatusOK, `{"name":"operations/5","done":false}`))
	t.Setenv(baseURLEnv, cfg.Upstream.BaseURL)

	var stdout bytes.Buffer
	root := newRootCmd()
	root.SetOut(&stdout)
	root.SetArgs([]string{"--env-file", "", "operation", "operations/5"})
	require.NoError(t, root.Execute())
	assert.Equal(t, `{"name":"operations/5","done":false}`+"\n", stdout.String())
}
