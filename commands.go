package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ByLCY/reportcanvas/drafts"
	"github.com/ByLCY/reportcanvas/layout"
	"github.com/ByLCY/reportcanvas/model"
	"github.com/ByLCY/reportcanvas/raster"
	"github.com/ByLCY/reportcanvas/renderer"
	"github.com/ByLCY/reportcanvas/templates"
)

func newLayoutCommand(a *app) *cobra.Command {
	var (
		output     string
		templateID string
		pdfPath    string
		saveDraft  bool
		edit       bool
	)
	cmd := &cobra.Command{
		Use:   "layout <table.json|table.yaml>",
		Short: "Paginate a table onto canvas pages",
		Example: `  reportcanvas layout budget.yaml -o out/budget.json
  reportcanvas layout budget.json --template default-report --pdf out/budget.pdf --draft`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			table, err := readTable(args[0])
			if err != nil {
				return err
			}
			opts := a.cfg.LayoutOptions(a.renderer)
			if templateID != "" {
				tpl, err := a.templates().Get(ctx, templateID)
				if err != nil {
					return err
				}
				opts.Template = &tpl
			}
			res, err := layout.ConvertTableToCanvas(table, opts)
			if err != nil {
				return fmt.Errorf("排版失败: %w", err)
			}
			if err := writeOutput(output, res.WriteJSON); err != nil {
				return err
			}
			a.logger.Info("layout done", "pages", res.Metadata.TotalPages, "rows", res.Metadata.TotalRows)

			doc := res.Document()
			if saveDraft {
				d, err := a.drafts().Save(ctx, model.PrintDraft{
					Title:         table.Title,
					Pages:         doc.Pages,
					Header:        doc.Header,
					Footer:        doc.Footer,
					HiddenColumns: table.HiddenColumns,
					Filters:       map[string]string{"source": filepath.Base(args[0])},
				})
				if err != nil {
					return err
				}
				a.logger.Info("draft saved", "key", d.Key)
			}
			if edit {
				s := a.session(ctx)
				if err := s.LoadDocument(doc); err != nil {
					return err
				}
				if err := s.Flush(ctx); err != nil {
					return err
				}
			}
			if pdfPath != "" {
				return a.print(cmd, doc, table.Title, pdfPath)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "-", "排版结果 JSON 输出路径（- 为标准输出）")
	cmd.Flags().StringVar(&templateID, "template", "", "合并到每一页的模板 id")
	cmd.Flags().StringVar(&pdfPath, "pdf", "", "同时输出 PDF")
	cmd.Flags().BoolVar(&saveDraft, "draft", false, "保存为可恢复的草稿")
	cmd.Flags().BoolVar(&edit, "edit", false, "载入编辑会话")
	return cmd
}

func newPrintCommand(a *app) *cobra.Command {
	var (
		output   string
		draftKey string
		title    string
	)
	cmd := &cobra.Command{
		Use:   "print [document.json]",
		Short: "Print every page with the shared header and footer to PDF",
		Long: `Print a document to PDF. The document is read from the given file, from a saved
draft (--draft), or from the stored editor session when neither is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, name, err := a.loadDocument(cmd.Context(), firstArg(args), draftKey)
			if err != nil {
				return err
			}
			if title == "" {
				title = name
			}
			return a.print(cmd, doc, title, output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "report.pdf", "PDF 输出路径")
	cmd.Flags().StringVar(&draftKey, "draft", "", "打印指定草稿")
	cmd.Flags().StringVar(&title, "title", "", "${title} 的取值")
	return cmd
}

func (a *app) print(cmd *cobra.Command, doc model.Document, title, path string) error {
	out, err := a.renderer.PrintAllPages(cmd.Context(), doc, renderer.PrintOptions{Title: title})
	if err != nil {
		return fmt.Errorf("渲染 PDF 失败: %w", err)
	}
	if err := writeOutput(path, func(w io.Writer) error {
		_, err := w.Write(out)
		return err
	}); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "已生成 PDF：%s（%d 页）\n", path, len(doc.Pages))
	return nil
}

func newThumbnailCommand(a *app) *cobra.Command {
	var (
		output   string
		draftKey string
		width    int
		height   int
		save     string
		category string
	)
	cmd := &cobra.Command{
		Use:   "thumbnail [document.json]",
		Short: "Rasterize the current page, optionally saving it as a template",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			doc, _, err := a.loadDocument(ctx, firstArg(args), draftKey)
			if err != nil {
				return err
			}
			if save != "" {
				tpl, err := a.templates().SaveFromDocument(ctx, doc, templates.Meta{Name: save, Category: category})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "已保存模板 %s（%s）\n", tpl.Name, tpl.ID)
			}
			if output == "" {
				return nil
			}
			src, err := a.renderer.CaptureThumbnail(ctx, doc, width, height)
			if err != nil {
				return err
			}
			_, data, err := raster.DataURL(src)
			if err != nil {
				return err
			}
			return writeOutput(output, func(w io.Writer) error {
				_, err := w.Write(data)
				return err
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "thumbnail.png", "PNG 输出路径（空字符串表示不输出）")
	cmd.Flags().StringVar(&draftKey, "draft", "", "使用指定草稿")
	cmd.Flags().IntVar(&width, "width", templates.ThumbnailWidth, "宽度（px）")
	cmd.Flags().IntVar(&height, "height", templates.ThumbnailHeight, "高度（px）")
	cmd.Flags().StringVar(&save, "save-template", "", "以该名称把当前页另存为模板")
	cmd.Flags().StringVar(&category, "category", "custom", "另存模板的分类")
	return cmd
}

func newTemplateCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "template", Short: "Manage canvas templates"}

	importCmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import templates written in the template DSL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			out, err := a.templates().Import(cmd.Context(), f, filepath.Dir(args[0]))
			if err != nil {
				return err
			}
			for _, t := range out {
				fmt.Fprintf(cmd.OutOrStdout(), "已导入 %s（%s）\n", t.Name, t.ID)
			}
			return nil
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List templates, seeding the built-in ones",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st := a.templates()
			if err := st.EnsureDefaults(cmd.Context()); err != nil {
				return err
			}
			list, err := st.List(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tPAGE\tDEFAULT\tUPDATED")
			for _, t := range list {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s %s\t%v\t%s\n", t.ID, t.Name, t.Category,
					t.Page.Size, t.Page.Orientation, t.IsDefault, time.UnixMilli(t.UpdatedAt).Format(time.DateTime))
			}
			return tw.Flush()
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a template (built-in templates are protected)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.templates().Delete(cmd.Context(), args[0])
		},
	}

	duplicateCmd := &cobra.Command{
		Use:   "duplicate <id>",
		Short: "Copy a template with fresh element ids",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.templates().Duplicate(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "已复制为 %s（%s）\n", t.Name, t.ID)
			return nil
		},
	}

	applyCmd := &cobra.Command{
		Use:   "apply <id>",
		Short: "Load a template into the stored editor session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			t, err := a.templates().Get(ctx, args[0])
			if err != nil {
				return err
			}
			s := a.session(ctx)
			if err := s.LoadTemplate(&t); err != nil {
				return err
			}
			return s.Flush(ctx)
		},
	}

	cmd.AddCommand(importCmd, listCmd, deleteCmd, duplicateCmd, applyCmd)
	return cmd
}

func newDraftCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "draft", Short: "Inspect saved print drafts"}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List drafts, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			list, err := a.drafts().List(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KEY\tTITLE\tPAGES\tHIDDEN\tSAVED")
			for _, d := range list {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", d.Key, d.Title, len(d.Pages),
					strings.Join(d.HiddenColumns, ","), time.UnixMilli(d.Timestamp).Format(time.DateTime))
			}
			return tw.Flush()
		},
	}

	showCmd := &cobra.Command{
		Use:   "show <key>",
		Short: "Print a draft as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.drafts().Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(d)
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <key>",
		Short: "Delete a draft",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.drafts().Delete(cmd.Context(), args[0])
		},
	}

	keyCmd := &cobra.Command{
		Use:   "key [column...]",
		Short: "Compute the draft key for filters (--filter k=v) and hidden columns",
		RunE: func(cmd *cobra.Command, args []string) error {
			filters, _ := cmd.Flags().GetStringToString("filter")
			fmt.Fprintln(cmd.OutOrStdout(), drafts.Key(filters, args))
			return nil
		},
	}
	keyCmd.Flags().StringToString("filter", nil, "筛选条件 key=value")

	cmd.AddCommand(listCmd, showCmd, deleteCmd, keyCmd)
	return cmd
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
