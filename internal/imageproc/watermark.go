// Package imageproc provides operations for images: loading, preview scaling, watermark application and saving.
package imageproc

import (
	"image"
	"math"

	"github.com/UnendingLoop/Watermarker/internal/model"
	"github.com/disintegration/imaging"
)

// Watermarker применяет ватермарк из конфига к рабочей картинке
type Watermarker struct {
	assetPath    string
	fallbackPath string
	assetSize    int
	opacity      float64
	margin       int
	cache        *AssetCache
}

func NewWatermarker(s model.Settings) *Watermarker {
	return &Watermarker{
		assetPath:    s.AssetPath,
		fallbackPath: s.FallbackAssetPath,
		assetSize:    s.AssetSize,
		opacity:      s.Opacity,
		margin:       s.Margin,
		cache:        &AssetCache{},
	}
}

// Apply loads (or reuses) the prepared asset and composites it onto a copy of target.
// A nil target is a no-op: (nil, nil) is returned and the asset is not touched.
func (w *Watermarker) Apply(target model.ImageBuffer) (model.ImageBuffer, error) {
	if target == nil {
		return nil, nil
	}

	asset, _, err := w.cache.Load(w.assetPath, w.fallbackPath, w.assetSize)
	if err != nil {
		return nil, err
	}

	return Apply(target, asset, w.opacity, w.margin), nil
}

// Offset - правый нижний угол с отступом margin по обеим осям.
// Если картинка меньше ватермарка+отступа, смещение уходит в минус и ватермарк частично/полностью за краем.
func Offset(target, asset image.Rectangle, margin int) image.Point {
	return image.Pt(
		target.Dx()-asset.Dx()-margin,
		target.Dy()-asset.Dy()-margin,
	)
}

// Apply pastes asset onto a copy of target at the bottom-right offset using the asset
// alpha scaled by opacity as the blend weight:
//
//	dst = dst*(1-a) + src*a   for R, G, B; dst alpha is kept as is
//
// Off-canvas parts of the asset are clipped. A nil target returns nil.
func Apply(target, asset model.ImageBuffer, opacity float64, margin int) model.ImageBuffer {
	if target == nil {
		return nil
	}

	out := imaging.Clone(target)
	if asset == nil {
		return out
	}

	off := Offset(out.Bounds(), asset.Bounds(), margin)
	placed := image.Rect(off.X, off.Y, off.X+asset.Bounds().Dx(), off.Y+asset.Bounds().Dy())
	area := placed.Intersect(out.Bounds())
	if area.Empty() {
		return out
	}

	mask := scaledAlpha(opacity)
	srcMin := asset.Bounds().Min

	for y := area.Min.Y; y < area.Max.Y; y++ {
		for x := area.Min.X; x < area.Max.X; x++ {
			si := asset.PixOffset(srcMin.X+x-off.X, srcMin.Y+y-off.Y)
			m := mask[asset.Pix[si+3]]
			if m == 0 {
				continue
			}

			di := out.PixOffset(x, y)
			out.Pix[di+0] = blend(out.Pix[di+0], asset.Pix[si+0], m)
			out.Pix[di+1] = blend(out.Pix[di+1], asset.Pix[si+1], m)
			out.Pix[di+2] = blend(out.Pix[di+2], asset.Pix[si+2], m)
		}
	}

	return out
}

// scaledAlpha - таблица A -> round(A*opacity)
func scaledAlpha(opacity float64) [256]uint8 {
	opacity = math.Max(0, math.Min(1, opacity))

	var lut [256]uint8
	for i := range lut {
		lut[i] = uint8(math.Round(float64(i) * opacity))
	}
	return lut
}

// blend = (dst*(255-m) + src*m) / 255 с округлением; m=0 -> dst, m=255 -> src
func blend(dst, src, m uint8) uint8 {
	t := uint32(dst)*uint32(255-m) + uint32(src)*uint32(m) + 128
	return uint8((t + t>>8) >> 8)
}
