package service

import (
	"fmt"
	"path/filepath"

	"github.com/UnendingLoop/Watermarker/internal/imageproc"
	"github.com/UnendingLoop/Watermarker/internal/model"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

const pngFormat = imaging.PNG

// фильтр диалога открытия: jpg, jpeg, png, gif (+ webp, bmp, tiff)
func checkOpenable(path string) error {
	if !imageproc.IsOpenable(path) {
		return fmt.Errorf("%w: %w: %q", model.ErrDecode, model.ErrUnsupportedFormat, filepath.Ext(path))
	}
	return nil
}

// outputBuffer - то, что уходит на сохранение/выгрузку. Вызывается под мьютексом.
// По умолчанию это рабочая (превью) копия. С SaveFullResolution ватермарк
// накладывается заново столько же раз на копию исходника в полном разрешении.
func (c *ImageService) outputBuffer() (model.ImageBuffer, error) {
	if !c.settings.SaveFullResolution || c.session.Original == nil {
		return c.session.Image, nil
	}

	buf := c.session.Original
	for i := 0; i < c.session.Marks; i++ {
		res, err := c.marker.Apply(buf)
		if err != nil {
			return nil, fmt.Errorf("replay watermark %d/%d on full resolution: %w", i+1, c.session.Marks, err)
		}
		buf = res
	}
	return buf, nil
}

func resultKey(id uuid.UUID, cType string) string {
	return id.String() + model.GetImageFileExt[cType]
}
