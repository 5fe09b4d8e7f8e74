package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/component-playground/internal/config"
	"github.com/sakif/component-playground/internal/logging"
	sqliteRepo "github.com/sakif/component-playground/internal/repository/sqlite"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Chdir(t.TempDir())
	cfg, err := config.Load(config.New(), "")
	require.NoError(t, err)
	cfg.Database.Path = sqliteRepo.MemoryPath
	return cfg
}

func newTestServer(t *testing.T, cfg *config.Config) *httptest.Server {
	t.Helper()
	s, err := New(context.Background(), cfg, logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

// noRedirect returns redirects to the caller instead of following them.
var noRedirect = &http.Client{
	CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
}

func TestServer_Routes(t *testing.T) {
	ts := newTestServer(t, testConfig(t))

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{name: "playground page", method: http.MethodGet, path: "/", status: http.StatusOK},
		{name: "preview page", method: http.MethodGet, path: "/preview?type=card", status: http.StatusOK},
		{name: "embedded script", method: http.MethodGet, path: "/static/app.js", status: http.StatusOK},
		{name: "missing asset", method: http.MethodGet, path: "/static/nope.js", status: http.StatusNotFound},
		{name: "render", method: http.MethodPost, path: "/api/render", body: `{"componentType":"badge","source":"export default function ComponentDemo() { return Badge('x'); }"}`, status: http.StatusOK},
		{name: "samples", method: http.MethodGet, path: "/api/samples", status: http.StatusOK},
		{name: "sample", method: http.MethodGet, path: "/api/samples/button", status: http.StatusOK},
		{name: "bindings", method: http.MethodGet, path: "/api/bindings", status: http.StatusOK},
		{name: "snippets", method: http.MethodGet, path: "/api/snippets", status: http.StatusOK},
		{name: "websocket needs upgrade", method: http.MethodGet, path: "/ws/preview", status: http.StatusUpgradeRequired},
		{name: "login disabled", method: http.MethodGet, path: "/auth/github/login", status: http.StatusNotFound},
		{name: "me disabled", method: http.MethodGet, path: "/api/me", status: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, ts.URL+tt.path, bytes.NewBufferString(tt.body))
			require.NoError(t, err)
			res, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer res.Body.Close()

			body, _ := io.ReadAll(res.Body)
			assert.Equal(t, tt.status, res.StatusCode, string(body))
		})
	}
}

func TestServer_SnippetRoundTrip(t *testing.T) {
	ts := newTestServer(t, testConfig(t))

	res, err := http.Post(ts.URL+"/api/snippets", "application/json",
		bytes.NewBufferString(`{"name":"Hello","componentType":"text","source":"export default function ComponentDemo() { return Text('hi'); }"}`))
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusCreated, res.StatusCode)

	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&created))

	res, err = http.Get(ts.URL + "/api/snippets/" + created.ID + "/preview")
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var preview struct {
		Result struct {
			Kind string `json:"kind"`
		} `json:"result"`
		HTML string `json:"html"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&preview))
	assert.Equal(t, "output", preview.Result.Kind)
	assert.Contains(t, preview.HTML, "hi")
}

func TestServer_AuthRoutes(t *testing.T) {
	cfg := testConfig(t)
	cfg.Auth.JWTSecret = "server-test-secret-123"
	cfg.Auth.GitHubClientID = "client"
	cfg.Auth.GitHubClientSecret = "secret"
	ts := newTestServer(t, cfg)

	res, err := noRedirect.Get(ts.URL + "/auth/github/login")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusTemporaryRedirect, res.StatusCode)
	assert.Contains(t, res.Header.Get("Location"), "github.com/login/oauth/authorize")

	res, err = http.Get(ts.URL + "/api/me")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

func TestServer_StaticDirOverride(t *testing.T) {
	cfg := testConfig(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.js"), []byte("// local"), 0o644))
	cfg.Server.StaticDir = dir
	ts := newTestServer(t, cfg)

	res, err := http.Get(ts.URL + "/static/app.js")
	require.NoError(t, err)
	defer res.Body.Close()
	body, _ := io.ReadAll(res.Body)
	assert.Equal(t, "// local", string(body))
}

func TestNewCore_SamplesFile(t *testing.T) {
	cfg := testConfig(t)
	path := filepath.Join(t.TempDir(), "samples.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tile:\n  source: \"export default function ComponentDemo() { return Box(); }\"\n"), 0o644))
	cfg.Server.SamplesFile = path

	core, err := NewCore(context.Background(), cfg, logging.Discard())
	require.NoError(t, err)
	defer core.Close()

	assert.Equal(t, []string{"tile"}, core.Samples.Types())
	_, hasTrack := core.Registry.Lookup("track")
	assert.False(t, hasTrack, "sessions add their own track binding")
}
