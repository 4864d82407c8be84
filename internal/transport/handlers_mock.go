package transport

import (
	"context"
	"io"

	"github.com/UnendingLoop/Watermarker/internal/model"
	"github.com/gin-gonic/gin"
)

type mockImageService struct {
	infoFn       func() model.SessionInfo
	openFn       func(ctx context.Context, path string) (model.SessionInfo, error)
	openReaderFn func(ctx context.Context, name string, r io.Reader) (model.SessionInfo, error)
	watermarkFn  func(ctx context.Context) (model.SessionInfo, error)
	saveFn       func(ctx context.Context, path string) (model.SessionInfo, error)
	previewFn    func(ctx context.Context) (io.Reader, int64, error)
	downloadFn   func(ctx context.Context, format string) (io.Reader, int64, string, error)
	exportFn     func(ctx context.Context, format string) (string, error)
}

func (m *mockImageService) Info() model.SessionInfo {
	return m.infoFn()
}

func (m *mockImageService) Open(ctx context.Context, path string) (model.SessionInfo, error) {
	return m.openFn(ctx, path)
}

func (m *mockImageService) OpenReader(ctx context.Context, name string, r io.Reader) (model.SessionInfo, error) {
	return m.openReaderFn(ctx, name, r)
}

func (m *mockImageService) Watermark(ctx context.Context) (model.SessionInfo, error) {
	return m.watermarkFn(ctx)
}

func (m *mockImageService) Save(ctx context.Context, path string) (model.SessionInfo, error) {
	return m.saveFn(ctx, path)
}

func (m *mockImageService) Preview(ctx context.Context) (io.Reader, int64, error) {
	return m.previewFn(ctx)
}

func (m *mockImageService) Download(ctx context.Context, format string) (io.Reader, int64, string, error) {
	return m.downloadFn(ctx, format)
}

func (m *mockImageService) Export(ctx context.Context, format string) (string, error) {
	return m.exportFn(ctx, format)
}

func init() {
	gin.SetMode(gin.TestMode)
}
