package imageproc

import (
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/UnendingLoop/Watermarker/internal/model"
	"github.com/disintegration/imaging"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// ResolveAsset returns the first existing regular file of preferred and fallback.
func ResolveAsset(preferred, fallback string) (string, os.FileInfo, error) {
	for _, p := range []string{preferred, fallback} {
		if p == "" {
			continue
		}
		fi, err := os.Stat(p)
		if err == nil && fi.Mode().IsRegular() {
			return p, fi, nil
		}
	}
	return "", nil, fmt.Errorf("%w: tried %q and %q", model.ErrAssetMissing, preferred, fallback)
}

// LoadAsset loads the watermark, normalizes it to RGBA and stretches it to size x size.
// The asset aspect ratio is not preserved. SVG assets are rasterized directly at that size.
func LoadAsset(preferred, fallback string, size int) (model.ImageBuffer, string, error) {
	path, _, err := ResolveAsset(preferred, fallback)
	if err != nil {
		return nil, "", err
	}

	asset, err := loadAssetFile(path, size)
	if err != nil {
		return nil, "", err
	}
	return asset, path, nil
}

func loadAssetFile(path string, size int) (model.ImageBuffer, error) {
	if size <= 0 {
		return nil, fmt.Errorf("watermark size must be positive, got %d", size)
	}

	if strings.EqualFold(filepath.Ext(path), ".svg") {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", model.ErrDecode, err)
		}
		defer closeFile(f)

		asset, err := rasterizeSVG(f, size, size)
		if err != nil {
			return nil, fmt.Errorf("watermark asset %q: %w", path, err)
		}
		return asset, nil
	}

	img, err := Load(path)
	if err != nil {
		return nil, fmt.Errorf("watermark asset: %w", err)
	}
	return imaging.Resize(img, size, size, imaging.Lanczos), nil
}

// rasterizeSVG рисует SVG на прозрачном холсте w x h
func rasterizeSVG(r io.Reader, w, h int) (model.ImageBuffer, error) {
	icon, err := oksvg.ReadIconStream(r)
	if err != nil {
		return nil, fmt.Errorf("%w: parse svg: %w", model.ErrDecode, err)
	}
	icon.SetTarget(0, 0, float64(w), float64(h))

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	scanner := rasterx.NewScannerGV(w, h, dst, dst.Bounds())
	dasher := rasterx.NewDasher(w, h, scanner)
	icon.Draw(dasher, 1.0)

	return imaging.Clone(dst), nil
}

//---------------------

type assetKey struct {
	path    string
	size    int
	modTime time.Time
	bytes   int64
}

// AssetCache keeps the last prepared asset. It is reloaded when the resolved
// file, its mtime/size or the requested footprint change.
type AssetCache struct {
	mu    sync.Mutex
	key   assetKey
	asset model.ImageBuffer
}

func (c *AssetCache) Load(preferred, fallback string, size int) (model.ImageBuffer, string, error) {
	path, fi, err := ResolveAsset(preferred, fallback)
	if err != nil {
		return nil, "", err
	}
	key := assetKey{path: path, size: size, modTime: fi.ModTime(), bytes: fi.Size()}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.asset != nil && c.key == key {
		return c.asset, path, nil
	}

	asset, err := loadAssetFile(path, size)
	if err != nil {
		return nil, "", err
	}
	c.key, c.asset = key, asset
	return asset, path, nil
}
