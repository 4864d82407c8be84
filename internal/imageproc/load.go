package imageproc

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/UnendingLoop/Watermarker/internal/model"
	"github.com/disintegration/imaging"

	_ "golang.org/x/image/webp"
)

// расширения, которые принимает диалог открытия файла
var openExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
}

// IsOpenable reports whether the file extension passes the open-dialog filter.
func IsOpenable(path string) bool {
	return openExtensions[strings.ToLower(filepath.Ext(path))]
}

// Load reads an image file and normalizes it to RGBA with native dimensions.
// Images above model.DefaultMaxPixels are rejected.
func Load(path string) (model.ImageBuffer, error) {
	return LoadLimit(path, model.DefaultMaxPixels)
}

// LoadLimit is Load with an explicit pixel limit.
func LoadLimit(path string, maxPixels int) (model.ImageBuffer, error) {
	if path == "" {
		return nil, model.ErrCancelled
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrDecode, err)
	}
	defer closeFile(f)

	img, err := DecodeLimit(f, maxPixels)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return img, nil
}

// Decode decodes any registered raster format. GIF yields its first frame.
func Decode(r io.Reader) (model.ImageBuffer, error) {
	return DecodeLimit(r, model.DefaultMaxPixels)
}

// DecodeLimit checks the header dimensions against maxPixels before the pixel data
// is decoded, so a small file claiming a huge canvas is refused without allocating it.
// maxPixels <= 0 means model.DefaultMaxPixels.
func DecodeLimit(r io.Reader, maxPixels int) (model.ImageBuffer, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: nil reader provided", model.ErrDecode)
	}
	if maxPixels <= 0 {
		maxPixels = model.DefaultMaxPixels
	}

	// заголовок читаем через TeeReader, потом склеиваем прочитанное с остатком
	br := bufio.NewReader(r)
	var head bytes.Buffer
	cfg, _, err := image.DecodeConfig(io.TeeReader(br, &head))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrDecode, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: %w", model.ErrDecode, errors.New("image has zero size"))
	}
	if int64(cfg.Width)*int64(cfg.Height) > int64(maxPixels) {
		return nil, fmt.Errorf("%w: image is %dx%d, more than %d pixels", model.ErrDecode, cfg.Width, cfg.Height, maxPixels)
	}

	img, err := imaging.Decode(io.MultiReader(&head, br))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrDecode, err)
	}

	// палитра/grayscale/YCbCr/RGB -> NRGBA, непрозрачные картинки получают A=255
	buf := imaging.Clone(img)
	if buf.Bounds().Empty() {
		return nil, fmt.Errorf("%w: %w", model.ErrDecode, errors.New("image has zero size"))
	}
	return buf, nil
}

func closeFile(f io.Closer) {
	if err := f.Close(); err != nil {
		log.Println("Failed to close image file:", err)
	}
}
