package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xeipuuv/gojsonschema"
)

func TestValidateConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "widget-source.yaml"), []byte(`name: widget
source:
  url: file:///sources/widget/overlay.html
  width: 640
  height: 480
---
name: clock
source:
  url: file:///sources/clock/index.html
  width: ${env.CLOCK_WIDTH:-200}
  height: 100
`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.yaml"), []byte("ignored: true"), 0644))

	valid, ok := validateConfig(dir)
	assert.Equal(t, 1, valid)
	assert.True(t, ok)
}

func TestValidateConfig_Invalid(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad-source.yaml"), []byte(`name: bad name
source:
  url: file:///a.html
  width: 0
  colour: red
`), 0644))

	valid, ok := validateConfig(dir)
	assert.Equal(t, 0, valid)
	assert.False(t, ok)
}

func TestValidateFile_ReportsEachDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "two-source.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`name: ok
source:
  url: file:///a.html
  width: 1
  height: 1
---
name: missing-source
`), 0644))

	problems, err := validateFile(gojsonschema.NewStringLoader(sourceSchema), path)
	require.NoError(t, err)
	require.Len(t, problems, 1)
	assert.Contains(t, problems[0], "document 2")
}
