package imageproc

import (
	"fmt"
	"math"

	"github.com/UnendingLoop/Watermarker/internal/model"
	"github.com/disintegration/imaging"
)

// MakePreview returns a new buffer scaled to targetWidth with the aspect ratio kept.
// The source buffer is left untouched.
func MakePreview(buf model.ImageBuffer, targetWidth int) (model.ImageBuffer, error) {
	if buf == nil {
		return nil, model.ErrNoImage
	}
	if targetWidth <= 0 {
		return nil, fmt.Errorf("preview width must be positive, got %d", targetWidth)
	}

	w, h := buf.Bounds().Dx(), buf.Bounds().Dy()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: empty image", model.ErrDecode)
	}

	return imaging.Resize(buf, targetWidth, PreviewHeight(w, h, targetWidth), imaging.Lanczos), nil
}

// PreviewHeight = round(h * targetWidth / w), но не меньше 1
func PreviewHeight(w, h, targetWidth int) int {
	newH := int(math.Round(float64(h) * float64(targetWidth) / float64(w)))
	if newH < 1 {
		newH = 1
	}
	return newH
}
