package config

// DefaultTemplate wraps the configured asset in a frame sized to the source.
const DefaultTemplate = `<html>
<head>
<style>html, body { margin: 0; padding: 0; overflow: hidden; }</style>
</head>
<body>
<iframe src="$(FILE)" width="$(WIDTH)" height="$(HEIGHT)" frameborder="0" scrolling="no"></iframe>
</body>
</html>`

// BrowserSourceSettings holds the per-source settings a browser instance is created with.
type BrowserSourceSettings struct {
	URL          string `yaml:"url" json:"url"`
	Width        int    `yaml:"width" json:"width"`
	Height       int    `yaml:"height" json:"height"`
	CSS          string `yaml:"css" json:"css,omitempty"`
	Template     string `yaml:"template" json:"template,omitempty"`
	TemplateFile string `yaml:"templateFile" json:"templateFile,omitempty"`
	// ApplyTemplate resolves non-root requests relative to the source URL's directory.
	ApplyTemplate bool `yaml:"applyTemplate" json:"applyTemplate"`
}

// BrowserConfig is the configuration bound to a single browser instance.
type BrowserConfig struct {
	Name      string                `yaml:"name" json:"name"`
	BrowserID int                   `yaml:"browserId" json:"browserId"`
	Source    BrowserSourceSettings `yaml:"source" json:"source"`

	// ConfigDir is the directory the config was loaded from.
	ConfigDir string `yaml:"-" json:"-"`
}
