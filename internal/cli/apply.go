package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/UnendingLoop/Watermarker/internal/imageproc"
	"github.com/UnendingLoop/Watermarker/internal/mwlogger"
	"github.com/UnendingLoop/Watermarker/internal/service"
	"github.com/spf13/cobra"
	"github.com/wb-go/wbf/zlog"
)

func newApplyCmd() *cobra.Command {
	var (
		output string
		flags  markFlags
	)

	cmd := &cobra.Command{
		Use:   "apply <input>",
		Short: "Открыть изображение, наложить водяной знак и сохранить",
		Long: `Выполняет открытие, наложение водяного знака (--passes раз) и сохранение.
Формат результата определяется расширением -o, без расширения сохраняется PNG.
Без -o результат пишется рядом с исходником с суффиксом _watermarked.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(cmd, args[0], output, &flags)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "путь результата")
	bindMarkFlags(cmd, &flags)

	return cmd
}

func runApply(cmd *cobra.Command, input, output string, f *markFlags) error {
	appConfig, settings, err := prepare(cmd, f)
	if err != nil {
		return err
	}

	strg, err := openStorage(cmd.Context(), appConfig, f.export)
	if err != nil {
		return err
	}

	ctx := mwlogger.WithLogger(cmd.Context(), zlog.Logger.With().Str("cmd", "apply").Str("input", input).Logger())
	svc := service.NewImageService(settings, imageproc.NewWatermarker(settings), strg)

	if _, err := svc.Open(ctx, input); err != nil {
		return fmt.Errorf("open %s: %w", input, err)
	}
	for i := 0; i < f.passes; i++ {
		if _, err := svc.Watermark(ctx); err != nil {
			return fmt.Errorf("watermark pass %d: %w", i+1, err)
		}
	}

	if output == "" {
		output = imageproc.WatermarkedPath(input, "")
	}
	info, err := svc.Save(ctx, output)
	if err != nil {
		return fmt.Errorf("save %s: %w", output, err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: %dx%d, marks=%d\n", info.SavedTo, info.Width, info.Height, info.Marks)

	if f.export {
		key, err := svc.Export(ctx, strings.TrimPrefix(filepath.Ext(info.SavedTo), "."))
		if err != nil {
			return fmt.Errorf("export: %w", err)
		}
		fmt.Fprintf(out, "exported: %s\n", key)
	}

	return nil
}
