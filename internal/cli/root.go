// Package cli provides the command line front-end: the same open -> watermark -> save
// flow as the preview server, driven by flags instead of buttons
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var version = "dev"

// SetVersion sets the version string printed by "watermark version".
func SetVersion(v string) {
	version = v
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watermark",
		Short: "Наложение полупрозрачного водяного знака на изображения",
		Long: `watermark открывает изображение, уменьшает его до ширины превью,
накладывает водяной знак в правый нижний угол и сохраняет результат.

Примеры:
  watermark apply photo.jpg -o photo_marked.png
  watermark apply photo.jpg -o out.jpg --passes 2 --opacity 0.5
  watermark apply photo.jpg --full-resolution --export`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().String("env-file", "./.env", "путь к .env файлу с настройками")
	cmd.PersistentFlags().String("log-level", "", "уровень логирования (debug, info, warn, error)")

	cmd.AddCommand(newApplyCmd(), newBatchCmd(), newVersionCmd())
	return cmd
}

// Execute runs the root command with ctx, args are taken from os.Args.
func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Показать версию",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "watermark %s\n", version)
		},
	}
}
