package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/imposter-project/assetscheme/internal/adapter"
	"github.com/imposter-project/assetscheme/internal/scheme"
	"github.com/imposter-project/assetscheme/internal/system"
	"github.com/imposter-project/assetscheme/pkg/logger"
)

const shutdownTimeout = 5 * time.Second

// Server serves browser sources over HTTP, driving a scheme handler for each
// request the way a browser engine would.
type Server struct {
	Addr        string
	Scheme      string
	ChunkSize   int
	CORSOrigins []string

	runtime *adapter.Runtime
}

var _ adapter.Adapter = (*Server)(nil)

// NewServer creates a server for the sources held by rt.
func NewServer(rt *adapter.Runtime) *Server {
	return &Server{
		Addr:        net.JoinHostPort(rt.Config.Host, rt.Config.Port),
		Scheme:      rt.Config.Scheme,
		ChunkSize:   rt.Config.ChunkSize,
		CORSOrigins: rt.Config.CORSOrigins,
		runtime:     rt,
	}
}

// Handler returns the HTTP handler, accepting cleartext HTTP/2 as well as HTTP/1.1.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/system/status", s.handleStatusRequest)
	mux.HandleFunc("/", s.handleAssetRequest)
	return h2c.NewHandler(mux, &http2.Server{})
}

// Start begins listening for HTTP requests and handles them until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.Addr,
		Handler: s.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("server is listening on %s...", s.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("error starting server: %w", err)
	case <-ctx.Done():
		logger.Infoln("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// handleAssetRequest maps /<source>/<path>?<query> onto <scheme>://<source>/<path>?<query>.
func (s *Server) handleAssetRequest(w http.ResponseWriter, r *http.Request) {
	if handleCORS(w, r, s.CORSOrigins) {
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	name, rest, ok := adapter.SplitSourcePath(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}
	browserID, ok := s.runtime.Sources.BrowserID(name)
	if !ok {
		logger.Debugf("no source named %s for %s", name, r.URL.Path)
		http.NotFound(w, r)
		return
	}

	req := scheme.URLRequest(adapter.SchemeURL(s.Scheme, name, rest, r.URL.RawQuery))
	handler := s.runtime.Factory.Create(scheme.BrowserID(browserID), nil, s.Scheme, req)
	if handler == nil {
		http.NotFound(w, r)
		return
	}
	defer handler.Cancel()

	callback := &scheme.SyncCallback{}
	if !handler.ProcessRequest(req, callback) {
		status := statusFor(handler.Err())
		http.Error(w, http.StatusText(status), status)
		return
	}

	headers := &scheme.ResponseHeaders{}
	length, _ := handler.GetResponseHeaders(headers)
	w.Header().Set("Content-Type", headers.MimeType)
	if length >= 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(length, 10))
	}
	w.WriteHeader(headers.Status)

	if r.Method == http.MethodHead {
		return
	}

	for {
		if err := r.Context().Err(); err != nil {
			logger.Debugf("client went away during %s: %v", req, err)
			handler.Cancel()
			return
		}
		_, more := handler.ReadResponse(w, s.ChunkSize, callback)
		if !more {
			break
		}
	}
	if callback.Cancelled() {
		logger.Warnf("response for %s was truncated", req)
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return http.StatusNotFound
	case errors.Is(err, scheme.ErrInvalidRequestURL), errors.Is(err, scheme.ErrInvalidPath):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// handleStatusRequest handles the /system/status endpoint
func (s *Server) handleStatusRequest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := struct {
		Status   string           `json:"status"`
		Instance string           `json:"instance"`
		Scheme   string           `json:"scheme"`
		Sources  []adapter.Source `json:"sources"`
	}{
		Status:   "ok",
		Instance: system.InstanceID(),
		Scheme:   s.Scheme,
		Sources:  s.runtime.Sources.List(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.Errorf("failed to write status response: %v", err)
	}
}
