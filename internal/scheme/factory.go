package scheme

import (
	"github.com/imposter-project/assetscheme/internal/mimetypes"
	"github.com/imposter-project/assetscheme/internal/registry"
	"github.com/imposter-project/assetscheme/pkg/logger"
)

// noFrame is logged in place of a frame identifier when the request has no frame.
const noFrame = -1

// Factory creates a Handler for each request the host intercepts.
type Factory struct {
	registry  registry.Lookup
	mimeTypes *mimetypes.Table
	open      FileOpener
}

// FactoryOption configures a Factory.
type FactoryOption func(*Factory)

// WithMimeTypes sets the extension table used for response MIME types.
func WithMimeTypes(t *mimetypes.Table) FactoryOption {
	return func(f *Factory) { f.mimeTypes = t }
}

// WithFileOpener replaces the function used to open files on disk.
func WithFileOpener(open FileOpener) FactoryOption {
	return func(f *Factory) { f.open = open }
}

// NewFactory returns a Factory resolving browser configs through lookup.
func NewFactory(lookup registry.Lookup, opts ...FactoryOption) *Factory {
	f := &Factory{
		registry:  lookup,
		mimeTypes: mimetypes.New(),
		open:      OpenFile,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Create returns a handler bound to the browser's config, or nil when the request
// should fall back to default handling.
func (f *Factory) Create(browser Browser, frame Frame, schemeName string, req Request) *Handler {
	if browser == nil || req == nil {
		logger.Warnln("browser null - frame null: requested with null browser or request (rapidly opening and closing?)")
		return nil
	}

	cfg, ok := f.registry.Lookup(browser.Identifier())
	if !ok {
		frameID := int64(noFrame)
		if frame != nil {
			frameID = frame.Identifier()
		}
		logger.Warnf("browser %d - frame %d: %s scheme with request %s failed to locate browser config; defaulting",
			browser.Identifier(), frameID, schemeName, req.URL())
		return nil
	}
	return newHandler(cfg, f.mimeTypes, f.open)
}
