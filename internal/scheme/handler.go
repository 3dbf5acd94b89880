package scheme

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/imposter-project/assetscheme/internal/config"
	"github.com/imposter-project/assetscheme/internal/mimetypes"
	"github.com/imposter-project/assetscheme/internal/template"
	"github.com/imposter-project/assetscheme/pkg/logger"
	"github.com/imposter-project/assetscheme/pkg/utils"
)

var (
	ErrInvalidRequestURL  = errors.New("invalid request url")
	ErrInvalidVirtualRoot = errors.New("invalid virtual root")
	ErrInvalidPath        = errors.New("invalid path")
	ErrReadFailed         = errors.New("read failed")
)

// wrappedAssetPlaceholder is logged instead of a path for rendered templates.
const wrappedAssetPlaceholder = "{wrapped asset}"

// Handler serves a single scheme request, either from a file on disk or from the
// browser's template rendered in memory. It owns its byte source exclusively and
// releases it exactly once: on exhaustion, on error or on Cancel.
//
// A Handler is not safe for concurrent use; the host serialises calls.
type Handler struct {
	id        string
	config    *config.BrowserConfig
	mimeTypes *mimetypes.Table
	open      FileOpener

	state           State
	uri             *url.URL
	resolvedPath    string
	isAssetWrapping bool
	styleInjection  string

	source    io.ReadCloser
	length    int64
	remaining int64
	complete  bool
	err       error
}

var _ ResourceHandler = (*Handler)(nil)

func newHandler(cfg *config.BrowserConfig, mimeTypes *mimetypes.Table, open FileOpener) *Handler {
	return &Handler{
		id:             uuid.NewString(),
		config:         cfg,
		mimeTypes:      mimeTypes,
		open:           open,
		state:          StateCreated,
		styleInjection: template.StyleFragment(cfg.Source.CSS),
		length:         -1,
		remaining:      -1,
	}
}

// ProcessRequest resolves the request and opens its byte source. It returns false
// if the request cannot be served; for open failures the callback is cancelled too.
func (h *Handler) ProcessRequest(req Request, callback Callback) bool {
	if req == nil || callback == nil {
		return false
	}
	if h.state != StateCreated {
		logger.Warnf("asset handler %s: process request called in state %s", h.id, h.state)
		return false
	}
	h.state = StateProcessing

	uri, err := url.Parse(req.URL())
	if err == nil && uri.Scheme == "" {
		err = errors.New("missing scheme")
	}
	if err == nil && uri.Opaque != "" {
		err = errors.New("opaque url has no path")
	}
	if err != nil {
		logger.Errorf("asset handler %s: unable to parse path %s", h.id, req.URL())
		h.fail(fmt.Errorf("%w: %v", ErrInvalidRequestURL, err))
		return false
	}
	h.uri = uri

	sourceURL, err := url.Parse(h.config.Source.URL)
	if err != nil || sourceURL.Path == "" || sourceURL.Path == "/" {
		logger.Errorf("asset handler %s: invalid url (this shouldn't happen) %s", h.id, h.config.Source.URL)
		h.fail(fmt.Errorf("%w: %s", ErrInvalidVirtualRoot, h.config.Source.URL))
		return false
	}

	rootDir, fileName, err := utils.SplitFilePath(utils.URLPathToFilePath(sourceURL.Path))
	if err != nil {
		logger.Errorf("asset handler %s: unable to create absolute path from %s and %s", h.id, sourceURL.Path, uri.Path)
		h.fail(fmt.Errorf("%w: %v", ErrInvalidPath, err))
		return false
	}

	if isRootPath(uri.Path) {
		h.isAssetWrapping = true
		rendered := template.Render(h.config.Source.Template, fileName, h.config.Source.Width, h.config.Source.Height)
		body := []byte(rendered)
		h.source = io.NopCloser(bytes.NewReader(body))
		h.length = int64(len(body))
	} else {
		h.isAssetWrapping = false

		resolved, err := h.resolve(rootDir, uri)
		if err != nil {
			logger.Errorf("asset handler %s: unable to create absolute path from %s and %s", h.id, rootDir, uri.Path)
			h.fail(fmt.Errorf("%w: %v", ErrInvalidPath, err))
			return false
		}
		h.resolvedPath = resolved

		source, length, err := h.open(resolved)
		if err != nil {
			if source != nil {
				_ = source.Close()
			}
			logger.Errorf("asset handler %s: process request of file %s failed; %v", h.id, resolved, err)
			h.fail(err)
			callback.Cancel()
			return false
		}
		h.source = source
		h.length = length
	}
	h.remaining = h.length

	logger.Debugf("asset handler %s: processed %s - wrapping:%t, path:%s, length:%d",
		h.id, uri.String(), h.isAssetWrapping, h.resolvedPath, h.length)
	callback.Continue()
	return true
}

// resolve maps a non-root request onto a filesystem path. A request carrying a
// query string is taken as-is; otherwise, when the source applies its template,
// the path is resolved against the directory of the source URL.
func (h *Handler) resolve(rootDir string, uri *url.URL) (string, error) {
	candidate := strings.TrimPrefix(uri.Path, "/")
	ignoringIntercept := uri.RawQuery != ""

	if !ignoringIntercept && h.config.Source.ApplyTemplate {
		return utils.JoinRelative(rootDir, candidate)
	}
	if err := utils.CheckPathChars(candidate); err != nil {
		return "", err
	}
	return filepath.FromSlash(candidate), nil
}

func isRootPath(p string) bool {
	return p == "" || p == "/"
}

// GetResponseHeaders reports a 200 response with the MIME type derived from the
// request path. It never redirects.
func (h *Handler) GetResponseHeaders(resp Response) (int64, string) {
	if resp == nil {
		return -1, ""
	}

	requestPath := ""
	if h.uri != nil {
		requestPath = h.uri.Path
	}

	resp.SetStatus(http.StatusOK)
	resp.SetMimeType(h.mimeTypes.ForPath(requestPath))
	resp.SetStatusText("OK")

	if h.state == StateProcessing {
		h.state = StateHeadersSent
	}
	return h.length, ""
}

// ReadResponse copies up to bytesToRead bytes of the body to w. The call that
// delivers the final bytes returns more=false along with them; the source is
// released at that point and later calls return (0, false). A non-positive
// bytesToRead ends the response early.
func (h *Handler) ReadResponse(w io.Writer, bytesToRead int, callback Callback) (int, bool) {
	if w == nil || h.source == nil || bytesToRead <= 0 {
		h.release()
		return 0, false
	}
	if h.complete {
		return 0, false
	}

	n := int64(bytesToRead)
	if n > h.remaining {
		n = h.remaining
	}
	if n < 0 {
		n = 0
	}

	copied, err := io.CopyN(w, h.source, n)
	if err != nil {
		what := h.resolvedPath
		if h.isAssetWrapping {
			what = wrappedAssetPlaceholder
		}
		logger.Errorf("asset handler %s: read response of file %s failed; %v", h.id, what, err)
		h.release()
		h.fail(fmt.Errorf("%w: %v", ErrReadFailed, err))
		if callback != nil {
			callback.Cancel()
		}
		return 0, false
	}

	h.state = StateStreaming
	h.remaining -= copied
	if h.remaining == 0 {
		h.complete = true
		h.release()
		h.state = StateCompleted
		logger.Tracef("asset handler %s: completed after %d bytes", h.id, h.length)
		return int(copied), false
	}
	return int(copied), true
}

// Cancel aborts the request, releasing the byte source if it is still open.
// It is safe to call any number of times.
func (h *Handler) Cancel() {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("asset handler %s: cancel recovered from %v", h.id, r)
		}
	}()

	h.release()
	if !h.state.Terminal() {
		logger.Debugf("asset handler %s: cancelled in state %s", h.id, h.state)
		h.state = StateCancelled
	}
}

func (h *Handler) CanGetCookie(*http.Cookie) bool {
	return true
}

func (h *Handler) CanSetCookie(*http.Cookie) bool {
	return true
}

// release closes the byte source once; later calls do nothing.
func (h *Handler) release() {
	if h.source == nil {
		return
	}
	source := h.source
	h.source = nil
	if err := source.Close(); err != nil {
		logger.Warnf("asset handler %s: failed to close source: %v", h.id, err)
	}
}

func (h *Handler) fail(err error) {
	h.err = err
	h.state = StateFailed
}

// ID returns the identifier used to correlate this handler's log lines.
func (h *Handler) ID() string { return h.id }

// State returns the current lifecycle state.
func (h *Handler) State() State { return h.state }

// Err returns the error that failed the request, if any.
func (h *Handler) Err() error { return h.err }

// ResolvedPath returns the file path served, empty for rendered templates.
func (h *Handler) ResolvedPath() string { return h.resolvedPath }

// IsAssetWrapping reports whether the request is served from the rendered template.
func (h *Handler) IsAssetWrapping() bool { return h.isAssetWrapping }

// Length returns the declared content length, or -1 before a source is opened.
func (h *Handler) Length() int64 { return h.length }

// Remaining returns the number of body bytes not yet read.
func (h *Handler) Remaining() int64 { return h.remaining }

// Complete reports whether the whole body has been read.
func (h *Handler) Complete() bool { return h.complete }

// StyleInjection returns the style element built from the source's CSS.
func (h *Handler) StyleInjection() string { return h.styleInjection }
