package template

import (
	"strconv"
	"strings"
)

// Placeholder tokens recognised in browser source templates.
const (
	FileToken   = "$(FILE)"
	WidthToken  = "$(WIDTH)"
	HeightToken = "$(HEIGHT)"
)

// Render substitutes the file name and dimensions into a template.
// Tokens are replaced literally, in a fixed order: file, width, height.
func Render(template string, fileName string, width, height int) string {
	template = strings.ReplaceAll(template, FileToken, fileName)
	template = strings.ReplaceAll(template, WidthToken, strconv.Itoa(width))
	template = strings.ReplaceAll(template, HeightToken, strconv.Itoa(height))
	return template
}

// StyleFragment wraps CSS text in a style element for injection into a document.
func StyleFragment(css string) string {
	return "<style>" + css + "</style>"
}
