package main

import (
	"context"
	"io"

	"github.com/UnendingLoop/Watermarker/internal/model"
)

type ImageAPIService interface {
	Info() model.SessionInfo
	Open(ctx context.Context, path string) (model.SessionInfo, error)
	OpenReader(ctx context.Context, name string, r io.Reader) (model.SessionInfo, error)
	Watermark(ctx context.Context) (model.SessionInfo, error)
	Save(ctx context.Context, path string) (model.SessionInfo, error)
	Preview(ctx context.Context) (io.Reader, int64, error)
	Download(ctx context.Context, format string) (io.Reader, int64, string, error)
	Export(ctx context.Context, format string) (string, error)
}
