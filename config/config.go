// Package config loads the YAML configuration shared by the CLI commands.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ByLCY/reportcanvas/layout"
	"github.com/ByLCY/reportcanvas/logging"
	"github.com/ByLCY/reportcanvas/storage"
)

// Config is the root of the YAML file.
type Config struct {
	Storage storage.Conf `yaml:"storage"`
	Fonts   Fonts        `yaml:"fonts"`
	Layout  Layout       `yaml:"layout"`
	Log     Log          `yaml:"log"`
}

// Fonts configures where font files are fetched from.
type Fonts struct {
	Dir string `yaml:"dir"`
	// URLTemplate may contain {family} and {style}.
	URLTemplate string `yaml:"urlTemplate"`
	// Fallback lists system fonts tried when a document font is unavailable.
	Fallback []string `yaml:"fallback"`
}

// Layout holds defaults for table-to-canvas conversion.
type Layout struct {
	Locale         string  `yaml:"locale"`
	CurrencySymbol string  `yaml:"currencySymbol"`
	FontFamily     string  `yaml:"fontFamily"`
	FontSize       float64 `yaml:"fontSize"`
	Margin         float64 `yaml:"margin"`
	TotalsLabel    string  `yaml:"totalsLabel"`
}

// Log configures the console logger.
type Log struct {
	Level string `yaml:"level"`
	Color bool   `yaml:"color"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Storage: storage.Conf{
			Backend: storage.BackendFile,
			Dir:     filepath.Join(".reportcanvas", "store"),
			Path:    filepath.Join(".reportcanvas", "store.db"),
			Redis:   storage.RedisConf{Host: "127.0.0.1", Port: 6379},
		},
		Fonts: Fonts{Dir: "fonts"},
		Layout: Layout{
			Locale:         "en-US",
			CurrencySymbol: "₱",
			FontFamily:     layout.DefaultFontFamily,
			FontSize:       layout.DefaultFontSize,
			Margin:         layout.DefaultMargin,
			TotalsLabel:    layout.DefaultTotalsLabel,
		},
		Log: Log{Level: "info", Color: true},
	}
}

// Load reads path on top of Default. A missing file is not an error when
// optional is true.
func Load(path string, optional bool) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) && optional {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("读取配置文件失败: %w", err)
	}
	if err := decode(bytes.NewReader(data), &cfg); err != nil {
		return cfg, fmt.Errorf("解析配置文件 %s 失败: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Parse decodes YAML on top of Default.
func Parse(r io.Reader) (Config, error) {
	cfg := Default()
	if err := decode(r, &cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func decode(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Validate checks values that would otherwise fail later at first use.
func (c Config) Validate() error {
	switch c.Storage.Backend {
	case "", storage.BackendMemory, storage.BackendFile, storage.BackendRedis, storage.BackendSQLite:
	default:
		return fmt.Errorf("未知的存储后端：%s", c.Storage.Backend)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Layout.FontSize < 0 || c.Layout.Margin < 0 {
		return fmt.Errorf("layout.fontSize 与 layout.margin 不能为负数")
	}
	return nil
}

// LayoutOptions builds layout options from the configuration.
func (c Config) LayoutOptions(m layout.TextMeasurer) layout.Options {
	return layout.Options{
		Measurer:    m,
		Formatter:   layout.NewFormatter(c.Layout.Locale, c.Layout.CurrencySymbol),
		FontFamily:  c.Layout.FontFamily,
		FontSize:    c.Layout.FontSize,
		Margin:      c.Layout.Margin,
		TotalsLabel: c.Layout.TotalsLabel,
	}
}
