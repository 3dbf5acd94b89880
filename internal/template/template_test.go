package template

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name     string
		template string
		fileName string
		width    int
		height   int
		want     string
	}{
		{
			name:     "title and width",
			template: "<title>$(FILE)</title>w=$(WIDTH)",
			fileName: "overlay.html",
			width:    640,
			height:   480,
			want:     "<title>overlay.html</title>w=640",
		},
		{
			name:     "all tokens, repeated",
			template: "$(FILE) $(WIDTH)x$(HEIGHT) $(FILE) $(HEIGHT)",
			fileName: "a.png",
			width:    1920,
			height:   1080,
			want:     "a.png 1920x1080 a.png 1080",
		},
		{
			name:     "tokens are case sensitive",
			template: "$(file) $(Width) $(HEIGHT)",
			fileName: "a.png",
			width:    1,
			height:   2,
			want:     "$(file) $(Width) 2",
		},
		{
			name:     "no tokens",
			template: "<html></html>",
			fileName: "a.png",
			width:    1,
			height:   2,
			want:     "<html></html>",
		},
		{
			name:     "file name is substituted before dimensions",
			template: "$(FILE)",
			fileName: "odd$(WIDTH).html",
			width:    7,
			height:   8,
			want:     "odd7.html",
		},
		{
			name:     "multi-byte file name",
			template: "<p>$(FILE)</p>",
			fileName: "übersicht.html",
			width:    1,
			height:   1,
			want:     "<p>übersicht.html</p>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Render(tt.template, tt.fileName, tt.width, tt.height)
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}

func TestStyleFragment(t *testing.T) {
	assert.Equal(t, "<style>body { color: red; }</style>", StyleFragment("body { color: red; }"))
	assert.Equal(t, "<style></style>", StyleFragment(""))
}
