// Package appconfig reads application settings from env and an optional .env file
package appconfig

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/UnendingLoop/Watermarker/internal/model"
	"github.com/UnendingLoop/Watermarker/internal/storage/miniostorage"
	"github.com/spf13/cast"
	"github.com/wb-go/wbf/config"
)

const (
	KeyPreviewWidth       = "PREVIEW_WIDTH"
	KeyAssetSize          = "ASSET_SIZE"
	KeyMargin             = "WATERMARK_MARGIN"
	KeyOpacity            = "WATERMARK_OPACITY"
	KeyAssetPath          = "WATERMARK_ASSET"
	KeyFallbackAssetPath  = "WATERMARK_FALLBACK_ASSET"
	KeyJPEGQuality        = "JPEG_QUALITY"
	KeySaveFullResolution = "SAVE_FULL_RESOLUTION"
	KeyMaxPixels          = "MAX_IMAGE_PIXELS"

	KeyMinioEndpoint = "MINIO_ENDPOINT"
	KeyMinioUser     = "MINIO_USER"
	KeyMinioPass     = "MINIO_PASS"
	KeyMinioSecure   = "MINIO_SECURE"
	KeyBucket        = "BUCKET_NAME"

	KeyAppPort  = "APP_PORT"
	KeyGinMode  = "GIN_MODE"
	KeyLogLevel = "LOG_LEVEL"
)

// Getter - все что нужно от конфига; *config.Config подходит
type Getter interface {
	GetString(key string) string
}

// New builds wbf-config over env. A missing envFile is not an error.
func New(envFile string) (*config.Config, error) {
	appConfig := config.New()
	appConfig.EnableEnv("")

	if envFile == "" {
		return appConfig, nil
	}
	if _, err := os.Stat(envFile); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return appConfig, nil
		}
		return nil, err
	}
	if err := appConfig.LoadEnvFiles(envFile); err != nil {
		return nil, fmt.Errorf("failed to load env file %q: %w", envFile, err)
	}
	return appConfig, nil
}

// Settings reads watermark settings, unset keys keep model.DefaultSettings values.
func Settings(cfg Getter) (model.Settings, error) {
	s := model.DefaultSettings()
	var err error

	if s.PreviewWidth, err = intValue(cfg, KeyPreviewWidth, s.PreviewWidth); err != nil {
		return s, err
	}
	if s.AssetSize, err = intValue(cfg, KeyAssetSize, s.AssetSize); err != nil {
		return s, err
	}
	if s.Margin, err = intValue(cfg, KeyMargin, s.Margin); err != nil {
		return s, err
	}
	if s.Opacity, err = floatValue(cfg, KeyOpacity, s.Opacity); err != nil {
		return s, err
	}
	if s.JPEGQuality, err = intValue(cfg, KeyJPEGQuality, s.JPEGQuality); err != nil {
		return s, err
	}
	if s.SaveFullResolution, err = boolValue(cfg, KeySaveFullResolution, s.SaveFullResolution); err != nil {
		return s, err
	}
	if s.MaxPixels, err = intValue(cfg, KeyMaxPixels, s.MaxPixels); err != nil {
		return s, err
	}
	s.AssetPath = stringValue(cfg, KeyAssetPath, s.AssetPath)
	s.FallbackAssetPath = stringValue(cfg, KeyFallbackAssetPath, s.FallbackAssetPath)

	return s, s.Validate()
}

// StorageOptions reads minio settings. Empty endpoint = export disabled.
func StorageOptions(cfg Getter) (miniostorage.Options, error) {
	secure, err := boolValue(cfg, KeyMinioSecure, false)
	if err != nil {
		return miniostorage.Options{}, err
	}

	return miniostorage.Options{
		Endpoint: stringValue(cfg, KeyMinioEndpoint, ""),
		User:     stringValue(cfg, KeyMinioUser, ""),
		Pass:     stringValue(cfg, KeyMinioPass, ""),
		Bucket:   stringValue(cfg, KeyBucket, miniostorage.DefaultBucket),
		Secure:   secure,
	}, nil
}

func stringValue(cfg Getter, key, def string) string {
	if v := strings.TrimSpace(cfg.GetString(key)); v != "" {
		return v
	}
	return def
}

func intValue(cfg Getter, key string, def int) (int, error) {
	v := strings.TrimSpace(cfg.GetString(key))
	if v == "" {
		return def, nil
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		return def, fmt.Errorf("%w: %s=%q: %w", model.ErrInvalidSettings, key, v, err)
	}
	return n, nil
}

func floatValue(cfg Getter, key string, def float64) (float64, error) {
	v := strings.TrimSpace(cfg.GetString(key))
	if v == "" {
		return def, nil
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return def, fmt.Errorf("%w: %s=%q: %w", model.ErrInvalidSettings, key, v, err)
	}
	return f, nil
}

func boolValue(cfg Getter, key string, def bool) (bool, error) {
	v := strings.TrimSpace(cfg.GetString(key))
	if v == "" {
		return def, nil
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return def, fmt.Errorf("%w: %s=%q: %w", model.ErrInvalidSettings, key, v, err)
	}
	return b, nil
}
