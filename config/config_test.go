package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/reportcanvas/layout"
	"github.com/ByLCY/reportcanvas/storage"
)

func TestParseOverridesDefaults(t *testing.T) {
	cfg, err := Parse(strings.NewReader(`
storage:
  backend: redis
  redis:
    host: cache.internal
    db: 3
fonts:
  urlTemplate: https://fonts.example.com/{family}-{style}.ttf
layout:
  currencySymbol: "$"
log:
  level: debug
`))
	require.NoError(t, err)
	assert.Equal(t, storage.BackendRedis, cfg.Storage.Backend)
	assert.Equal(t, "cache.internal", cfg.Storage.Redis.Host)
	assert.Equal(t, 6379, cfg.Storage.Redis.Port)
	assert.Equal(t, 3, cfg.Storage.Redis.DB)
	assert.Equal(t, "fonts", cfg.Fonts.Dir)
	assert.Equal(t, "$", cfg.Layout.CurrencySymbol)
	assert.Equal(t, "en-US", cfg.Layout.Locale)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestParseEmptyKeepsDefaults(t *testing.T) {
	cfg, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParseRejectsBadInput(t *testing.T) {
	_, err := Parse(strings.NewReader("storage:\n  backend: mongo\n"))
	assert.Error(t, err)

	_, err = Parse(strings.NewReader("log:\n  level: loud\n"))
	assert.Error(t, err)

	_, err = Parse(strings.NewReader("unknownKey: 1\n"))
	assert.Error(t, err)
}

func TestLoadOptionalFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.yaml")
	cfg, err := Load(missing, true)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	_, err = Load(missing, false)
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "rc.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage:\n  backend: memory\n"), 0o644))
	cfg, err = Load(path, false)
	require.NoError(t, err)
	assert.Equal(t, storage.BackendMemory, cfg.Storage.Backend)
}

func TestLayoutOptions(t *testing.T) {
	cfg := Default()
	cfg.Layout.CurrencySymbol = "$"
	opts := cfg.LayoutOptions(nil)
	assert.Equal(t, layout.DefaultMargin, opts.Margin)
	require.NotNil(t, opts.Formatter)
	assert.Equal(t, "$1,235", opts.Formatter.Format(1234.6, layout.ColumnCurrency))
}
