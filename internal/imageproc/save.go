package imageproc

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"github.com/UnendingLoop/Watermarker/internal/model"
	"github.com/disintegration/imaging"
)

// WatermarkedSuffix - суффикс имени результата по умолчанию
const WatermarkedSuffix = "_watermarked"

// DefaultSaveExt добавляется к пути без расширения, как делает диалог сохранения
const DefaultSaveExt = ".png"

// WithDefaultExt appends DefaultSaveExt when the path has no extension.
func WithDefaultExt(path string) string {
	if filepath.Ext(path) == "" {
		return path + DefaultSaveExt
	}
	return path
}

// WatermarkedPath - путь результата по умолчанию: photo.jpg -> <dir>/photo_watermarked.jpg.
// Пустой dir = рядом с исходником. То, что не умеем кодировать (webp), уходит в png.
func WatermarkedPath(input, dir string) string {
	ext := filepath.Ext(input)
	base := strings.TrimSuffix(input, ext) + WatermarkedSuffix
	if dir != "" {
		base = filepath.Join(dir, filepath.Base(base))
	}
	if _, err := FormatFromPath(input); err != nil {
		return base + DefaultSaveExt
	}
	return base + ext
}

// FormatFromPath picks the encoder from the destination file extension.
func FormatFromPath(path string) (imaging.Format, error) {
	format, err := imaging.FormatFromFilename(path)
	if err != nil {
		return -1, fmt.Errorf("%w: %q", model.ErrUnsupportedFormat, filepath.Ext(path))
	}
	return format, nil
}

// ParseFormat accepts "png", ".jpg", "jpeg" and so on. Empty name means PNG.
func ParseFormat(name string) (imaging.Format, error) {
	if name == "" {
		return imaging.PNG, nil
	}
	format, err := imaging.FormatFromExtension(name)
	if err != nil {
		return -1, fmt.Errorf("%w: %q", model.ErrUnsupportedFormat, name)
	}
	return format, nil
}

// Encode encodes the buffer in memory. JPEG has no alpha, so the image is
// flattened over an opaque white background first.
func Encode(buf model.ImageBuffer, format imaging.Format, quality int) (*bytes.Buffer, int64, error) {
	if buf == nil {
		return nil, 0, model.ErrNoImage
	}

	var img image.Image = buf
	if format == imaging.JPEG {
		img = Flatten(buf, color.White)
	}

	var out bytes.Buffer
	if err := imaging.Encode(&out, img, format, imaging.JPEGQuality(quality)); err != nil {
		return nil, 0, fmt.Errorf("%w: %w", model.ErrEncode, err)
	}
	return &out, int64(out.Len()), nil
}

// Save encodes the buffer by the destination extension and writes it to disk.
// Returns the final path (with the default extension applied).
func Save(buf model.ImageBuffer, path string, quality int) (string, error) {
	if path == "" {
		return "", model.ErrCancelled
	}
	if buf == nil {
		return "", model.ErrNoImage
	}

	path = WithDefaultExt(path)
	format, err := FormatFromPath(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", model.ErrEncode, err)
	}

	// кодируем в память целиком, чтобы при ошибке энкодера не оставлять на диске битый файл
	data, _, err := Encode(buf, format, quality)
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(path, data.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("%w: %w", model.ErrWrite, err)
	}
	return path, nil
}

// Flatten composites the buffer over a solid background, result is fully opaque.
func Flatten(buf model.ImageBuffer, bg color.Color) model.ImageBuffer {
	b := buf.Bounds()
	canvas := imaging.New(b.Dx(), b.Dy(), bg)
	return imaging.Overlay(canvas, buf, image.Pt(0, 0), 1.0)
}
