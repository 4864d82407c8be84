package model

import "fmt"

// Settings - все "магические" константы приложения в одном месте
type Settings struct {
	PreviewWidth       int     // ширина рабочей (превью) копии, 70% от 800
	AssetSize          int     // ватермарк ресайзится в квадрат AssetSize x AssetSize без сохранения пропорций
	Margin             int     // отступ от правого и нижнего края
	Opacity            float64 // множитель альфа-канала ватермарка, [0,1]
	AssetPath          string  // ватермарк с прозрачным фоном
	FallbackAssetPath  string  // используется если AssetPath отсутствует
	JPEGQuality        int
	SaveFullResolution bool // сохранять исходное разрешение вместо превью
	MaxPixels          int  // картинки больше w*h отвергаются до декодирования
}

const (
	DefaultPreviewWidth      = 560
	DefaultAssetSize         = 100
	DefaultMargin            = 10
	DefaultOpacity           = 0.3
	DefaultAssetPath         = "images/watermark_transparent.png"
	DefaultFallbackAssetPath = "images/watermark.png"
	DefaultJPEGQuality       = 95
	DefaultMaxPixels         = 178956970 // 2 * 1024*1024*1024/4/3
)

func DefaultSettings() Settings {
	return Settings{
		PreviewWidth:      DefaultPreviewWidth,
		AssetSize:         DefaultAssetSize,
		Margin:            DefaultMargin,
		Opacity:           DefaultOpacity,
		AssetPath:         DefaultAssetPath,
		FallbackAssetPath: DefaultFallbackAssetPath,
		JPEGQuality:       DefaultJPEGQuality,
		MaxPixels:         DefaultMaxPixels,
	}
}

func (s Settings) Validate() error {
	switch {
	case s.PreviewWidth <= 0:
		return fmt.Errorf("%w: preview width must be positive, got %d", ErrInvalidSettings, s.PreviewWidth)
	case s.AssetSize <= 0:
		return fmt.Errorf("%w: asset size must be positive, got %d", ErrInvalidSettings, s.AssetSize)
	case s.Margin < 0:
		return fmt.Errorf("%w: margin must not be negative, got %d", ErrInvalidSettings, s.Margin)
	case s.Opacity < 0 || s.Opacity > 1:
		return fmt.Errorf("%w: opacity must be within [0,1], got %v", ErrInvalidSettings, s.Opacity)
	case s.JPEGQuality < 1 || s.JPEGQuality > 100:
		return fmt.Errorf("%w: jpeg quality must be within [1,100], got %d", ErrInvalidSettings, s.JPEGQuality)
	case s.MaxPixels <= 0:
		return fmt.Errorf("%w: max pixels must be positive, got %d", ErrInvalidSettings, s.MaxPixels)
	case s.AssetPath == "" && s.FallbackAssetPath == "":
		return fmt.Errorf("%w: no watermark asset path configured", ErrInvalidSettings)
	}
	return nil
}
