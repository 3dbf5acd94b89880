package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imposter-project/assetscheme/internal/adapter"
	"github.com/imposter-project/assetscheme/internal/config"
	"github.com/imposter-project/assetscheme/internal/registry"
	"github.com/imposter-project/assetscheme/internal/scheme"
)

func newTestServer(t *testing.T, chunkSize int, corsOrigins ...string) *httptest.Server {
	t.Helper()

	sourceDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(sourceDir, "assets"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(sourceDir, "overlay.html"), []byte("<html></html>"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(sourceDir, "assets", "logo.png"), []byte(strings.Repeat("p", 10000)), 0644))

	sourceURL := "file://" + filepath.ToSlash(sourceDir) + "/overlay.html"
	if !strings.HasPrefix(filepath.ToSlash(sourceDir), "/") {
		sourceURL = "file:///" + filepath.ToSlash(sourceDir) + "/overlay.html"
	}

	configDir := t.TempDir()
	source := fmt.Sprintf(`name: widget
browserId: 1
source:
  url: %s
  width: 640
  height: 480
  template: "<title>$(FILE)</title>w=$(WIDTH)"
  applyTemplate: true
`, sourceURL)
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "widget-source.yaml"), []byte(source), 0644))

	appConfig := &config.AppConfig{
		Host:        "127.0.0.1",
		Port:        "0",
		Scheme:      "asset",
		ChunkSize:   chunkSize,
		CORSOrigins: corsOrigins,
		Registry:    config.RegistryConfig{Driver: "memory"},
	}
	rt, err := adapter.Initialise(appConfig, configDir)
	require.NoError(t, err)

	srv := httptest.NewServer(NewServer(rt).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestServer_RootRendersTemplate(t *testing.T) {
	srv := newTestServer(t, 4096)

	for _, path := range []string{"/widget/", "/widget"} {
		resp, body := get(t, srv.URL+path)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "text/html", resp.Header.Get("Content-Type"))
		assert.Equal(t, "<title>overlay.html</title>w=640", body)
		assert.Equal(t, int64(len(body)), resp.ContentLength)
	}
}

func TestServer_ServesFileInChunks(t *testing.T) {
	for _, chunk := range []int{1, 333, 4096, 20000} {
		srv := newTestServer(t, chunk)
		resp, body := get(t, srv.URL+"/widget/assets/logo.png")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
		assert.Equal(t, int64(10000), resp.ContentLength)
		assert.Len(t, body, 10000, "chunk %d", chunk)
	}
}

func TestServer_HeadRequest(t *testing.T) {
	srv := newTestServer(t, 4096)
	resp, err := http.Head(srv.URL + "/widget/assets/logo.png")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(10000), resp.ContentLength)
}

func TestServer_Errors(t *testing.T) {
	srv := newTestServer(t, 4096)

	tests := []struct {
		name   string
		path   string
		status int
	}{
		{name: "missing file", path: "/widget/missing.png", status: http.StatusNotFound},
		{name: "unknown source", path: "/other/logo.png", status: http.StatusNotFound},
		{name: "no source", path: "/", status: http.StatusNotFound},
		{name: "query bypasses source root", path: "/widget/assets/logo.png?raw=1", status: http.StatusNotFound},
		{name: "invalid path characters", path: "/widget/bad%00name.png", status: http.StatusBadRequest},
		{name: "directory", path: "/widget/assets", status: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, _ := get(t, srv.URL+tt.path)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestServer_MethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, 4096)
	resp, err := http.Post(srv.URL+"/widget/", "text/plain", strings.NewReader("x"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestServer_Status(t *testing.T) {
	srv := newTestServer(t, 4096)
	resp, body := get(t, srv.URL+"/system/status")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var status struct {
		Status   string           `json:"status"`
		Instance string           `json:"instance"`
		Scheme   string           `json:"scheme"`
		Sources  []adapter.Source `json:"sources"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &status))
	assert.Equal(t, "ok", status.Status)
	assert.NotEmpty(t, status.Instance)
	assert.Equal(t, "asset", status.Scheme)
	assert.Equal(t, []adapter.Source{{Name: "widget", BrowserID: 1}}, status.Sources)
}

func TestServer_CORS(t *testing.T) {
	tests := []struct {
		name        string
		allowed     []string
		origin      string
		wantAllowed string
	}{
		{name: "disabled", allowed: nil, origin: "http://overlay.local", wantAllowed: ""},
		{name: "wildcard", allowed: []string{"*"}, origin: "http://overlay.local", wantAllowed: "*"},
		{name: "echo all", allowed: []string{"all"}, origin: "http://overlay.local", wantAllowed: "http://overlay.local"},
		{name: "listed", allowed: []string{"http://overlay.local"}, origin: "http://overlay.local", wantAllowed: "http://overlay.local"},
		{name: "not listed", allowed: []string{"http://other.local"}, origin: "http://overlay.local", wantAllowed: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, 4096, tt.allowed...)
			req, err := http.NewRequest(http.MethodGet, srv.URL+"/widget/", nil)
			require.NoError(t, err)
			req.Header.Set("Origin", tt.origin)

			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, tt.wantAllowed, resp.Header.Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestServer_CORSPreflight(t *testing.T) {
	srv := newTestServer(t, 4096, "*")

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/widget/data.json", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://overlay.local")
	req.Header.Set("Access-Control-Request-Headers", "X-Test")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "GET, HEAD, OPTIONS", resp.Header.Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "X-Test", resp.Header.Get("Access-Control-Allow-Headers"))

	req, err = http.NewRequest(http.MethodOptions, srv.URL+"/widget/data.json", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// countingFile is a file body that records how often it is closed.
type countingFile struct {
	io.Reader
	closes int
}

func (f *countingFile) Close() error {
	f.closes++
	return nil
}

// disconnectingWriter cancels the request context after the first body write.
type disconnectingWriter struct {
	*httptest.ResponseRecorder
	cancel context.CancelFunc
	writes int
}

func (w *disconnectingWriter) Write(p []byte) (int, error) {
	w.writes++
	w.cancel()
	return w.ResponseRecorder.Write(p)
}

func TestServer_ClientDisconnectCancelsHandler(t *testing.T) {
	reg := &registry.InMemoryProvider{}
	require.NoError(t, reg.InitRegistry())
	cfg := config.BrowserConfig{
		Name:      "widget",
		BrowserID: 1,
		Source: config.BrowserSourceSettings{
			URL: "file:///sources/widget/overlay.html", Width: 1, Height: 1, ApplyTemplate: true,
		},
	}

	var file *countingFile
	opener := func(path string) (io.ReadCloser, int64, error) {
		file = &countingFile{Reader: strings.NewReader(strings.Repeat("x", 100))}
		return file, 100, nil
	}

	rt := &adapter.Runtime{
		Config:   &config.AppConfig{Scheme: "asset", ChunkSize: 10},
		Registry: reg,
		Factory:  scheme.NewFactory(reg, scheme.WithFileOpener(opener)),
		Sources:  &adapter.SourceIndex{},
	}
	require.NoError(t, rt.Reload([]config.BrowserConfig{cfg}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/widget/big.txt", nil).WithContext(ctx)
	w := &disconnectingWriter{ResponseRecorder: httptest.NewRecorder(), cancel: cancel}

	NewServer(rt).Handler().ServeHTTP(w, req)

	require.NotNil(t, file)
	assert.Equal(t, 1, w.writes, "reading stops once the client has gone")
	assert.Equal(t, 10, w.Body.Len())
	assert.Equal(t, 1, file.closes)
}
