package scheme

import (
	"io"
	"net/http"
)

// Browser identifies the browser instance a request originated from.
type Browser interface {
	Identifier() int
}

// Frame identifies the frame within a browser that issued a request.
type Frame interface {
	Identifier() int64
}

// Request is an intercepted request for a scheme URL.
type Request interface {
	URL() string
}

// Callback lets a handler tell the host whether processing continues or is abandoned.
type Callback interface {
	Continue()
	Cancel()
}

// Response receives the headers a handler reports.
type Response interface {
	SetStatus(code int)
	SetStatusText(text string)
	SetMimeType(mimeType string)
}

// ResourceHandler is the per-request contract a host drives, in order:
// ProcessRequest, GetResponseHeaders, then ReadResponse until it reports no more data.
// Cancel may be called at any point. Calls on one handler must not overlap.
type ResourceHandler interface {
	ProcessRequest(req Request, callback Callback) bool
	GetResponseHeaders(resp Response) (responseLength int64, redirectURL string)
	ReadResponse(w io.Writer, bytesToRead int, callback Callback) (bytesRead int, more bool)
	Cancel()
	CanGetCookie(cookie *http.Cookie) bool
	CanSetCookie(cookie *http.Cookie) bool
}

// URLRequest is a Request for a fixed URL.
type URLRequest string

func (r URLRequest) URL() string { return string(r) }

// BrowserID is a Browser with a fixed identifier.
type BrowserID int

func (b BrowserID) Identifier() int { return int(b) }

// FrameID is a Frame with a fixed identifier.
type FrameID int64

func (f FrameID) Identifier() int64 { return int64(f) }

// SyncCallback records the signal given by a handler, for hosts that drive
// handlers synchronously.
type SyncCallback struct {
	continued bool
	cancelled bool
}

func (c *SyncCallback) Continue() { c.continued = true }

func (c *SyncCallback) Cancel() { c.cancelled = true }

// Continued reports whether Continue was signalled.
func (c *SyncCallback) Continued() bool { return c.continued }

// Cancelled reports whether Cancel was signalled.
func (c *SyncCallback) Cancelled() bool { return c.cancelled }

// ResponseHeaders is a Response that keeps the reported values.
type ResponseHeaders struct {
	Status     int
	StatusText string
	MimeType   string
}

func (r *ResponseHeaders) SetStatus(code int) { r.Status = code }

func (r *ResponseHeaders) SetStatusText(text string) { r.StatusText = text }

func (r *ResponseHeaders) SetMimeType(mimeType string) { r.MimeType = mimeType }
