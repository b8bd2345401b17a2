package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ByLCY/reportcanvas/config"
	"github.com/ByLCY/reportcanvas/drafts"
	"github.com/ByLCY/reportcanvas/editor"
	"github.com/ByLCY/reportcanvas/fonts"
	"github.com/ByLCY/reportcanvas/layout"
	"github.com/ByLCY/reportcanvas/logging"
	"github.com/ByLCY/reportcanvas/model"
	"github.com/ByLCY/reportcanvas/raster"
	canvasrenderer "github.com/ByLCY/reportcanvas/renderer/canvas"
	"github.com/ByLCY/reportcanvas/storage"
	"github.com/ByLCY/reportcanvas/templates"
)

const defaultConfigPath = "reportcanvas.yaml"

func main() {
	a := &app{}
	err := newRootCommand(a).Execute()
	a.close()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app 持有一次命令执行所需的全部依赖，在 PersistentPreRunE 中装配。
type app struct {
	configPath string
	backend    string
	logLevel   string

	cfg      config.Config
	logger   *slog.Logger
	store    storage.Storage
	fonts    *fonts.Registry
	renderer *canvasrenderer.Renderer
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "reportcanvas",
		Short:         "Lay out tabular reports onto canvas pages, manage templates and drafts, print to PDF",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd.Context())
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", defaultConfigPath, "YAML 配置文件")
	root.PersistentFlags().StringVar(&a.backend, "storage", "", "覆盖存储后端（memory|file|redis|sqlite）")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "覆盖日志级别（debug|info|warn|error）")

	root.AddCommand(
		newLayoutCommand(a),
		newPrintCommand(a),
		newThumbnailCommand(a),
		newTemplateCommand(a),
		newDraftCommand(a),
		newEditCommand(a),
	)
	return root
}

func (a *app) setup(ctx context.Context) error {
	cfg, err := config.Load(a.configPath, a.configPath == defaultConfigPath)
	if err != nil {
		return err
	}
	if a.backend != "" {
		cfg.Storage.Backend = storage.Backend(a.backend)
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	level, _ := logging.ParseLevel(cfg.Log.Level)
	a.logger = logging.NewConsole(os.Stderr, level, cfg.Log.Color)
	logging.SetLogger(a.logger)
	a.cfg = cfg

	if ctx == nil {
		ctx = context.Background()
	}
	if a.store, err = storage.Open(ctx, cfg.Storage); err != nil {
		return fmt.Errorf("打开存储失败: %w", err)
	}

	var sources []fonts.Source
	if cfg.Fonts.Dir != "" {
		sources = append(sources, fonts.DirSource{Dir: cfg.Fonts.Dir})
	}
	if cfg.Fonts.URLTemplate != "" {
		sources = append(sources, fonts.HTTPSource{URLTemplate: cfg.Fonts.URLTemplate})
	}
	a.fonts = fonts.NewRegistry(a.logger, sources...)
	a.renderer = canvasrenderer.NewRenderer(canvasrenderer.Options{
		Fonts:         a.fonts,
		FallbackFonts: cfg.Fonts.Fallback,
		Logger:        a.logger,
	})
	return nil
}

func (a *app) close() {
	if a.fonts != nil {
		a.fonts.Wait()
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("close storage failed", "err", err)
		}
		a.store = nil
	}
}

func (a *app) templates() *templates.Store {
	return templates.NewStore(a.store, templates.WithLogger(a.logger), templates.WithThumbnailer(a.renderer))
}

func (a *app) drafts() *drafts.Store { return drafts.NewStore(a.store, a.logger) }

// session 打开持久化的编辑会话；打印流程的页面尺寸变更作用于全部页面。
func (a *app) session(ctx context.Context) *editor.Session {
	return editor.Open(ctx, editor.Options{
		Storage: a.store,
		Fonts:   a.fonts,
		Images:  raster.Loader{},
		Logger:  a.logger,
		Notifier: editor.NotifierFunc(func(n editor.Notification) {
			level := slog.LevelInfo
			switch n.Level {
			case editor.LevelWarn:
				level = slog.LevelWarn
			case editor.LevelError:
				level = slog.LevelError
			}
			a.logger.Log(context.Background(), level, n.Message)
		}),
		SizeScope: editor.ScopeAllPages,
	})
}

// loadDocument 依次从文件、草稿或已保存的编辑会话读取要输出的文档。
func (a *app) loadDocument(ctx context.Context, path, draftKey string) (model.Document, string, error) {
	switch {
	case path != "":
		f, err := os.Open(path)
		if err != nil {
			return model.Document{}, "", err
		}
		defer f.Close()
		var doc model.Document
		if err := json.NewDecoder(f).Decode(&doc); err != nil {
			return model.Document{}, "", fmt.Errorf("解析文档 %s 失败: %w", path, err)
		}
		if err := doc.Validate(); err != nil {
			return model.Document{}, "", err
		}
		return doc, strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)), nil
	case draftKey != "":
		d, err := a.drafts().Load(ctx, draftKey)
		if err != nil {
			return model.Document{}, "", err
		}
		return d.Document(), d.Title, nil
	default:
		return a.session(ctx).Snapshot(), "", nil
	}
}

func readTable(path string) (layout.Table, error) {
	var t layout.Table
	f, err := os.Open(path)
	if err != nil {
		return t, err
	}
	defer f.Close()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.NewDecoder(f).Decode(&t)
	default:
		err = json.NewDecoder(f).Decode(&t)
	}
	if err != nil {
		return t, fmt.Errorf("解析表格 %s 失败: %w", path, err)
	}
	return t, nil
}

func writeOutput(path string, write func(io.Writer) error) error {
	if path == "" || path == "-" {
		return write(os.Stdout)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
