package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/UnendingLoop/Watermarker/internal/appconfig"
	"github.com/UnendingLoop/Watermarker/internal/model"
	"github.com/UnendingLoop/Watermarker/internal/service"
	"github.com/UnendingLoop/Watermarker/internal/storage"
	"github.com/spf13/cobra"
	"github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"
)

// флаги, общие для apply и batch
type markFlags struct {
	passes         int
	opacity        float64
	asset          string
	fallbackAsset  string
	previewWidth   int
	fullResolution bool
	export         bool
}

func bindMarkFlags(cmd *cobra.Command, f *markFlags) {
	d := model.DefaultSettings()
	cmd.Flags().IntVar(&f.passes, "passes", 1, "сколько раз наложить водяной знак")
	cmd.Flags().Float64Var(&f.opacity, "opacity", d.Opacity, "непрозрачность водяного знака (0..1)")
	cmd.Flags().StringVar(&f.asset, "asset", d.AssetPath, "файл водяного знака")
	cmd.Flags().StringVar(&f.fallbackAsset, "fallback-asset", d.FallbackAssetPath, "запасной файл водяного знака")
	cmd.Flags().IntVar(&f.previewWidth, "preview-width", d.PreviewWidth, "ширина рабочей копии в пикселях")
	cmd.Flags().BoolVar(&f.fullResolution, "full-resolution", false, "сохранять в исходном разрешении")
	cmd.Flags().BoolVar(&f.export, "export", false, "выгрузить результат в minio")
}

// prepare reads config, starts the logger and applies explicitly set flags over the config values.
func prepare(cmd *cobra.Command, f *markFlags) (*config.Config, model.Settings, error) {
	if f.passes < 0 {
		return nil, model.Settings{}, fmt.Errorf("%w: passes must not be negative", model.ErrInvalidSettings)
	}

	envFile, _ := cmd.Flags().GetString("env-file")
	appConfig, err := appconfig.New(envFile)
	if err != nil {
		return nil, model.Settings{}, fmt.Errorf("failed to load envs: %w", err)
	}

	zlog.InitConsole()
	level, _ := cmd.Flags().GetString("log-level")
	if level == "" {
		level = appConfig.GetString(appconfig.KeyLogLevel)
	}
	if level == "" {
		level = "warn"
	}
	if err := zlog.SetLevel(level); err != nil {
		return nil, model.Settings{}, fmt.Errorf("failed to init logger: %w", err)
	}

	settings, err := appconfig.Settings(appConfig)
	if err != nil {
		return nil, settings, err
	}
	// флаги перекрывают конфиг только если заданы явно
	flags := cmd.Flags()
	if flags.Changed("opacity") {
		settings.Opacity = f.opacity
	}
	if flags.Changed("asset") {
		settings.AssetPath = f.asset
	}
	if flags.Changed("fallback-asset") {
		settings.FallbackAssetPath = f.fallbackAsset
	}
	if flags.Changed("preview-width") {
		settings.PreviewWidth = f.previewWidth
	}
	if flags.Changed("full-resolution") {
		settings.SaveFullResolution = f.fullResolution
	}
	if err := settings.Validate(); err != nil {
		return nil, settings, err
	}

	return appConfig, settings, nil
}

// openStorage returns nil storage when export was not asked for.
func openStorage(ctx context.Context, appConfig *config.Config, export bool) (service.ImageStorage, error) {
	if !export {
		return nil, nil
	}

	strgOpts, err := appconfig.StorageOptions(appConfig)
	if err != nil {
		return nil, err
	}
	minioStrg, err := storage.NewImgStorage(ctx, strgOpts, retry.Strategy{Attempts: 3, Delay: 2 * time.Second, Backoff: 1})
	if err != nil {
		return nil, err
	}
	if minioStrg == nil {
		return nil, model.ErrExportDisabled
	}
	return minioStrg, nil
}
