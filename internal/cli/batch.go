package cli

import (
	"fmt"
	"os"

	"github.com/UnendingLoop/Watermarker/internal/imageproc"
	"github.com/UnendingLoop/Watermarker/internal/mwlogger"
	"github.com/UnendingLoop/Watermarker/internal/storage"
	"github.com/UnendingLoop/Watermarker/internal/worker"
	"github.com/spf13/cobra"
	"github.com/wb-go/wbf/zlog"
)

const batchPrefix = "batch/"

func newBatchCmd() *cobra.Command {
	var (
		outputDir string
		workers   int
		flags     markFlags
	)

	cmd := &cobra.Command{
		Use:   "batch <input-dir>",
		Short: "Наложить водяной знак на все изображения каталога",
		Long: `Обрабатывает каждое изображение каталога (без вложенных) так же, как apply.
Результаты пишутся в -o (по умолчанию рядом с исходниками) с суффиксом _watermarked.
Файлы, которые не удалось обработать, пропускаются, а команда завершается с ошибкой.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, args[0], outputDir, workers, &flags)
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "каталог для результатов")
	cmd.Flags().IntVarP(&workers, "workers", "w", 4, "количество параллельных обработчиков")
	bindMarkFlags(cmd, &flags)

	return cmd
}

func runBatch(cmd *cobra.Command, inputDir, outputDir string, workers int, f *markFlags) error {
	appConfig, settings, err := prepare(cmd, f)
	if err != nil {
		return err
	}

	strg, err := openStorage(cmd.Context(), appConfig, f.export)
	if err != nil {
		return err
	}

	tasks, err := worker.CollectTasks(inputDir, outputDir)
	if err != nil {
		return fmt.Errorf("read %s: %w", inputDir, err)
	}
	if outputDir != "" {
		if err := os.MkdirAll(outputDir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", outputDir, err)
		}
	}

	ctx := mwlogger.WithLogger(cmd.Context(), zlog.Logger.With().Str("cmd", "batch").Str("dir", inputDir).Logger())
	pool := worker.Pool{
		Settings:     settings,
		Marker:       imageproc.NewWatermarker(settings),
		Storage:      strg,
		Retry:        storage.DefaultPutStrategy,
		Workers:      workers,
		Passes:       f.passes,
		ResultPrefix: batchPrefix,
	}

	out := cmd.OutOrStdout()
	failed := 0
	for _, r := range pool.Run(ctx, tasks) {
		if r.Err != nil {
			failed++
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", r.Task.Input, r.Err)
			continue
		}
		fmt.Fprintf(out, "%s: %dx%d\n", r.SavedTo, r.Width, r.Height)
		if r.Key != "" {
			fmt.Fprintf(out, "exported: %s\n", r.Key)
		}
	}

	// Ctrl-C: недоделанные файлы уже посчитаны в failed, но причину отдаем явно
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("batch interrupted, %d of %d images failed or not done: %w", failed, len(tasks), err)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d images failed", failed, len(tasks))
	}
	return nil
}
