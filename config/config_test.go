package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 0, cfg.Workers)
}

func TestLoadFile(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "inkline.layout")
	defer teardown()

	path := filepath.Join(t.TempDir(), "inkline.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
output: out/notes.pdf
workers: 4
fonts:
  heading: ./Heading.ttf
debug:
  path: out/layout.yaml
  rawUnits: true
trace:
  inkline.layout: debug
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "out/notes.pdf", cfg.Output)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, "./Heading.ttf", cfg.Fonts["heading"])
	assert.Equal(t, Debug{Path: "out/layout.yaml", RawUnits: true}, cfg.Debug)
	assert.Equal(t, "debug", cfg.Trace["inkline.layout"])
	// 未覆盖的键保留默认值
	assert.Equal(t, "error", cfg.Trace["inkline.canvas"])
	cfg.ApplyTrace()
}

func TestParseRejectsBadInput(t *testing.T) {
	_, err := Parse([]byte("workers: -1\n"))
	assert.Error(t, err)
	_, err = Parse([]byte("wokers: 2\n"))
	assert.Error(t, err)
	_, err = Parse([]byte("trace:\n  inkline.inline: loud\n"))
	assert.Error(t, err)

	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
