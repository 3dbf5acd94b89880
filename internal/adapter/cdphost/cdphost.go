package cdphost

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strconv"
	"strings"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/hashicorp/go-hclog"

	"github.com/imposter-project/assetscheme/internal/adapter"
	"github.com/imposter-project/assetscheme/internal/scheme"
	"github.com/imposter-project/assetscheme/pkg/logger"
)

// Host runs a headless Chrome with one tab per browser source. Chrome cannot
// intercept custom schemes, so each tab loads its source from an http origin
// whose requests are paused through the Fetch domain and answered by a scheme
// handler.
type Host struct {
	Origin    *url.URL
	Scheme    string
	ChunkSize int
	Headless  bool
	ExecPath  string

	runtime *adapter.Runtime
	log     hclog.Logger
}

var _ adapter.Adapter = (*Host)(nil)

// NewHost creates a host for the sources held by rt.
func NewHost(rt *adapter.Runtime) (*Host, error) {
	origin, err := url.Parse(rt.Config.CDP.Origin)
	if err != nil || origin.Scheme == "" || origin.Host == "" {
		return nil, fmt.Errorf("invalid cdp origin: %q", rt.Config.CDP.Origin)
	}
	return &Host{
		Origin:    origin,
		Scheme:    rt.Config.Scheme,
		ChunkSize: rt.Config.ChunkSize,
		Headless:  rt.Config.CDP.Headless,
		ExecPath:  rt.Config.CDP.ExecPath,
		runtime:   rt,
		log:       logger.Named("cdp"),
	}, nil
}

// Start launches the browser, opens a tab for every registered source and
// serves their requests until ctx is done.
func (h *Host) Start(ctx context.Context) error {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts, chromedp.Flag("headless", h.Headless))
	if h.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(h.ExecPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	if err := chromedp.Run(browserCtx); err != nil {
		return fmt.Errorf("failed to start browser: %w", err)
	}

	for _, source := range h.runtime.Sources.List() {
		tabCtx, cancelTab := chromedp.NewContext(browserCtx)
		defer cancelTab()
		if err := h.Attach(tabCtx, source.BrowserID); err != nil {
			return err
		}
		entry := h.base() + "/" + url.PathEscape(source.Name) + "/"
		h.log.Info("opening source", "name", source.Name, "browserId", source.BrowserID, "url", entry)
		if err := chromedp.Run(tabCtx, chromedp.Navigate(entry)); err != nil {
			h.log.Warn("failed to load source", "name", source.Name, "error", err)
		}
	}

	<-ctx.Done()
	return nil
}

// Attach enables request interception on the tab in ctx, answering requests for
// the origin with handlers bound to browserID.
func (h *Host) Attach(ctx context.Context, browserID int) error {
	chromedp.ListenTarget(ctx, func(ev interface{}) {
		if paused, ok := ev.(*fetch.EventRequestPaused); ok {
			go h.serve(ctx, browserID, paused)
		}
	})

	pattern := &fetch.RequestPattern{URLPattern: h.base() + "/*"}
	if err := chromedp.Run(ctx, fetch.Enable().WithPatterns([]*fetch.RequestPattern{pattern})); err != nil {
		return fmt.Errorf("failed to enable request interception: %w", err)
	}
	return nil
}

func (h *Host) base() string {
	return strings.TrimSuffix(h.Origin.String(), "/")
}

func (h *Host) serve(ctx context.Context, browserID int, ev *fetch.EventRequestPaused) {
	c := chromedp.FromContext(ctx)
	if c == nil || c.Target == nil {
		return
	}
	execCtx := cdp.WithExecutor(ctx, c.Target)

	action := h.respond(browserID, ev)
	if err := action.Do(execCtx); err != nil {
		h.log.Warn("failed to answer paused request", "url", ev.Request.URL, "error", err)
	}
}

// respond drives a handler for the paused request and returns the Fetch command
// that answers it.
func (h *Host) respond(browserID int, ev *fetch.EventRequestPaused) chromedp.Action {
	schemeURL, ok := TranslateURL(h.Origin, h.Scheme, ev.Request.URL)
	if !ok {
		return fetch.ContinueRequest(ev.RequestID)
	}

	req := scheme.URLRequest(schemeURL)
	handler := h.runtime.Factory.Create(scheme.BrowserID(browserID), nil, h.Scheme, req)
	if handler == nil {
		return fetch.ContinueRequest(ev.RequestID)
	}

	result, err := Drive(handler, req, h.ChunkSize)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fetch.FulfillRequest(ev.RequestID, 404).
			WithResponseHeaders(HeaderEntries("text/plain", 0)).
			WithResponsePhrase("Not Found")
	case err != nil:
		h.log.Debug("scheme handler failed", "url", schemeURL, "error", err)
		return fetch.FailRequest(ev.RequestID, network.ErrorReasonFailed)
	}

	return fetch.FulfillRequest(ev.RequestID, int64(result.Status)).
		WithResponseHeaders(HeaderEntries(result.MimeType, len(result.Body))).
		WithResponsePhrase(result.StatusText).
		WithBody(base64.StdEncoding.EncodeToString(result.Body))
}

// Result is a fully read handler response.
type Result struct {
	scheme.ResponseHeaders
	Body []byte
}

// Drive runs the handler lifecycle to completion, reading the body in chunkSize pieces.
func Drive(handler scheme.ResourceHandler, req scheme.Request, chunkSize int) (*Result, error) {
	defer handler.Cancel()

	callback := &scheme.SyncCallback{}
	if !handler.ProcessRequest(req, callback) {
		return nil, handlerErr(handler, "request could not be processed")
	}

	result := &Result{}
	length, _ := handler.GetResponseHeaders(&result.ResponseHeaders)

	var body bytes.Buffer
	if length > 0 {
		body.Grow(int(length))
	}
	for {
		_, more := handler.ReadResponse(&body, chunkSize, callback)
		if !more {
			break
		}
	}
	if callback.Cancelled() {
		return nil, handlerErr(handler, "response was cancelled")
	}
	result.Body = body.Bytes()
	return result, nil
}

func handlerErr(handler scheme.ResourceHandler, msg string) error {
	if h, ok := handler.(interface{ Err() error }); ok && h.Err() != nil {
		return h.Err()
	}
	return errors.New(msg)
}

// TranslateURL maps a request on origin, <origin>/<source>/<path>?<query>, onto
// the scheme URL <scheme>://<source>/<path>?<query>.
func TranslateURL(origin *url.URL, schemeName, raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != origin.Scheme || u.Host != origin.Host {
		return "", false
	}
	name, rest, ok := adapter.SplitSourcePath(u.Path)
	if !ok {
		return "", false
	}
	return adapter.SchemeURL(schemeName, name, rest, u.RawQuery), true
}

// HeaderEntries builds the response headers sent with a fulfilled request.
func HeaderEntries(mimeType string, length int) []*fetch.HeaderEntry {
	return []*fetch.HeaderEntry{
		{Name: "Content-Type", Value: mimeType},
		{Name: "Content-Length", Value: strconv.Itoa(length)},
		{Name: "Access-Control-Allow-Origin", Value: "*"},
	}
}
