// Package service provides business-logic for the app: it owns the single Session and
// runs load -> watermark -> save on it
package service

import (
	"context"
	"io"
	"path/filepath"
	"sync"

	"github.com/UnendingLoop/Watermarker/internal/imageproc"
	"github.com/UnendingLoop/Watermarker/internal/model"
	"github.com/UnendingLoop/Watermarker/internal/mwlogger"
	"github.com/UnendingLoop/Watermarker/internal/storage"
	"github.com/google/uuid"
	"github.com/wb-go/wbf/retry"
)

// ImageService - контроллер верхнего уровня, единственный владелец сессии.
// Мьютекс выстраивает все пользовательские действия в очередь: каждое отрабатывает целиком до следующего.
type ImageService struct {
	mu       sync.Mutex
	session  *model.Session
	marker   Watermarker
	storage  ImageStorage
	putRetry retry.Strategy
	settings model.Settings
}

// Watermarker - контракт наложения ватермарка, nil-цель = no-op
type Watermarker interface {
	Apply(target model.ImageBuffer) (model.ImageBuffer, error)
}

// ImageStorage - контракт для выгрузки результата во внешнее хранилище
type ImageStorage interface {
	Put(ctx context.Context, key string, size int64, contentType string, r io.Reader) error
}

// NewImageService - strg может быть nil, тогда экспорт выключен
func NewImageService(s model.Settings, marker Watermarker, strg ImageStorage) *ImageService {
	return &ImageService{
		session:  model.NewSession(),
		marker:   marker,
		storage:  strg,
		putRetry: storage.DefaultPutStrategy,
		settings: s,
	}
}

func (c *ImageService) Info() model.SessionInfo {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.session.Info()
}

// Open loads the image at path and makes its preview the working image.
// An empty path (dialog dismissed) leaves the session as is. On failure the session is unchanged.
func (c *ImageService) Open(ctx context.Context, path string) (model.SessionInfo, error) {
	logger := mwlogger.LoggerFromContext(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	if path == "" {
		logger.Debug().Msg("Open cancelled: no file selected")
		return c.session.Info(), nil
	}

	if err := checkOpenable(path); err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("Refused to open file")
		return c.session.Info(), err
	}

	img, err := imageproc.LoadLimit(path, c.settings.MaxPixels)
	if err != nil {
		logger.Error().Err(err).Str("path", path).Msg("Failed to open image")
		return c.session.Info(), err
	}

	return c.replace(ctx, path, filepath.Base(path), img)
}

// OpenReader is Open for an already opened stream, name is used for display only.
func (c *ImageService) OpenReader(ctx context.Context, name string, r io.Reader) (model.SessionInfo, error) {
	logger := mwlogger.LoggerFromContext(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	img, err := imageproc.DecodeLimit(r, c.settings.MaxPixels)
	if err != nil {
		logger.Error().Err(err).Str("name", name).Msg("Failed to decode uploaded image")
		return c.session.Info(), err
	}

	return c.replace(ctx, "", filepath.Base(name), img)
}

// replace вызывается под мьютексом
func (c *ImageService) replace(ctx context.Context, src, name string, img model.ImageBuffer) (model.SessionInfo, error) {
	logger := mwlogger.LoggerFromContext(ctx)

	preview, err := imageproc.MakePreview(img, c.settings.PreviewWidth)
	if err != nil {
		logger.Error().Err(err).Str("name", name).Msg("Failed to build preview")
		return c.session.Info(), err
	}

	c.session = &model.Session{
		ID:       uuid.New(),
		Source:   src,
		Name:     name,
		Original: img,
		Image:    preview,
		State:    model.StateLoaded,
	}

	logger.Info().
		Str("session", c.session.ID.String()).
		Str("name", name).
		Int("orig_width", img.Bounds().Dx()).
		Int("orig_height", img.Bounds().Dy()).
		Int("width", preview.Bounds().Dx()).
		Int("height", preview.Bounds().Dy()).
		Msg("Image loaded")

	return c.session.Info(), nil
}

// Watermark composites the watermark onto the working image.
// Without a loaded image it is a no-op and returns no error.
func (c *ImageService) Watermark(ctx context.Context) (model.SessionInfo, error) {
	logger := mwlogger.LoggerFromContext(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.session.Loaded() {
		logger.Debug().Msg("Watermark skipped: no image loaded")
		return c.session.Info(), nil
	}

	res, err := c.marker.Apply(c.session.Image)
	if err != nil {
		logger.Error().Err(err).Str("session", c.session.ID.String()).Msg("Failed to apply watermark")
		return c.session.Info(), err
	}

	// новый буфер, старый никто не мутирует
	c.session.Image = res
	c.session.Marks++
	c.session.State = model.StateWatermarked

	logger.Info().Str("session", c.session.ID.String()).Int("marks", c.session.Marks).Msg("Watermark applied")
	return c.session.Info(), nil
}

// Save writes the output image to path, format is taken from the extension.
// No image or an empty path is a no-op.
func (c *ImageService) Save(ctx context.Context, path string) (model.SessionInfo, error) {
	logger := mwlogger.LoggerFromContext(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.session.Loaded() {
		logger.Debug().Msg("Save skipped: no image loaded")
		return c.session.Info(), nil
	}
	if path == "" {
		logger.Debug().Msg("Save cancelled: no destination selected")
		return c.session.Info(), nil
	}

	buf, err := c.outputBuffer()
	if err != nil {
		logger.Error().Err(err).Msg("Failed to build output image")
		return c.session.Info(), err
	}

	out, err := imageproc.Save(buf, path, c.settings.JPEGQuality)
	if err != nil {
		logger.Error().Err(err).Str("path", path).Msg("Failed to save image")
		return c.session.Info(), err
	}

	c.session.SavedTo = out
	c.session.State = model.StateSaved

	logger.Info().Str("session", c.session.ID.String()).Str("path", out).Msg("Image saved")
	return c.session.Info(), nil
}

// Preview returns the working image encoded as PNG for the display surface.
func (c *ImageService) Preview(ctx context.Context) (io.Reader, int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.session.Loaded() {
		return nil, 0, model.ErrNoImage
	}

	data, size, err := imageproc.Encode(c.session.Image, pngFormat, c.settings.JPEGQuality)
	if err != nil {
		logger := mwlogger.LoggerFromContext(ctx)
		logger.Error().Err(err).Msg("Failed to encode preview")
		return nil, 0, err
	}
	return data, size, nil
}

// Download encodes the output image (what Save would write) in the requested format.
func (c *ImageService) Download(ctx context.Context, format string) (io.Reader, int64, string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	f, err := imageproc.ParseFormat(format)
	if err != nil {
		return nil, 0, "", err
	}
	if !c.session.Loaded() {
		return nil, 0, "", model.ErrNoImage
	}

	buf, err := c.outputBuffer()
	if err != nil {
		return nil, 0, "", err
	}

	data, size, err := imageproc.Encode(buf, f, c.settings.JPEGQuality)
	if err != nil {
		logger := mwlogger.LoggerFromContext(ctx)
		logger.Error().Err(err).Msg("Failed to encode download")
		return nil, 0, "", err
	}
	return data, size, model.GetCType[f], nil
}

// Export puts the output image into the object storage under "<session id><ext>" and returns the key.
func (c *ImageService) Export(ctx context.Context, format string) (string, error) {
	logger := mwlogger.LoggerFromContext(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.storage == nil {
		return "", model.ErrExportDisabled
	}

	f, err := imageproc.ParseFormat(format)
	if err != nil {
		return "", err
	}
	if !c.session.Loaded() {
		return "", model.ErrNoImage
	}

	buf, err := c.outputBuffer()
	if err != nil {
		return "", err
	}

	data, _, err := imageproc.Encode(buf, f, c.settings.JPEGQuality)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to encode export")
		return "", err
	}

	cType := model.GetCType[f]
	key := resultKey(c.session.ID, cType)
	if err := storage.PutWithRetry(ctx, c.storage, c.putRetry, key, cType, data.Bytes()); err != nil {
		logger.Error().Err(err).Str("key", key).Msg("Failed to put result image to Storage")
		return "", model.ErrCommon500
	}

	logger.Info().Str("session", c.session.ID.String()).Str("key", key).Msg("Image exported")
	return key, nil
}
