package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ByLCY/reportcanvas/interact"
	"github.com/ByLCY/reportcanvas/model"
	"github.com/ByLCY/reportcanvas/raster"
)

// newEditCommand 对已保存的编辑会话做单步修改，每个子命令结束前都会落盘。
func newEditCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "edit", Short: "Apply one edit to the stored editor session"}

	var section string
	imageCmd := &cobra.Command{
		Use:   "image <file>",
		Short: "Insert an image centered in the header, footer or current page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sec, err := model.ParseSection(section)
			if err != nil {
				return err
			}
			src, err := raster.Loader{BaseDir: filepath.Dir(args[0])}.Inline(filepath.Base(args[0]))
			if err != nil {
				return err
			}
			s := a.session(ctx)
			id, err := s.AddImage(ctx, src, sec)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return s.Flush(ctx)
		},
	}
	imageCmd.Flags().StringVar(&section, "section", string(model.SectionPage), "header|footer|page")

	var region model.Rect
	cropCmd := &cobra.Command{
		Use:   "crop <element-id>",
		Short: "Crop an image element to a region in its displayed coordinates",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s := a.session(ctx)
			e := interact.NewEngine(s, s, interact.Options{
				Clipboard: &interact.MemoryClipboard{},
				Cropper:   raster.Loader{},
				Logger:    a.logger,
			})
			e.BeginCrop(args[0])
			if e.Mode() != interact.ModeCropping {
				return fmt.Errorf("元素 %s 不存在或不是图片", args[0])
			}
			if err := e.ConfirmCrop(ctx, region); err != nil {
				return err
			}
			return s.Flush(ctx)
		},
	}
	cropCmd.Flags().Float64Var(&region.X, "x", 0, "左边距（px）")
	cropCmd.Flags().Float64Var(&region.Y, "y", 0, "上边距（px）")
	cropCmd.Flags().Float64Var(&region.Width, "width", 0, "宽度（px）")
	cropCmd.Flags().Float64Var(&region.Height, "height", 0, "高度（px）")

	var orientation string
	pageCmd := &cobra.Command{
		Use:   "page-size <A4|Short|Long>",
		Short: "Change the page size of every page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			size, err := model.ParsePageSize(args[0])
			if err != nil {
				return err
			}
			s := a.session(ctx)
			if err := s.ChangePageSize(size); err != nil {
				return err
			}
			if orientation != "" {
				o, err := model.ParseOrientation(orientation)
				if err != nil {
					return err
				}
				if err := s.ChangeOrientation(o); err != nil {
					return err
				}
			}
			return s.Flush(ctx)
		},
	}
	pageCmd.Flags().StringVar(&orientation, "orientation", "", "portrait|landscape")

	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Replace the session with a single blank page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s := a.session(cmd.Context())
			s.Reset()
			return s.Flush(cmd.Context())
		},
	}

	cmd.AddCommand(imageCmd, cropCmd, pageCmd, resetCmd)
	return cmd
}
