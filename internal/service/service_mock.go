package service

import (
	"context"
	"io"

	"github.com/UnendingLoop/Watermarker/internal/model"
)

// MOCK WATERMARKER

type mockMarker struct {
	calls   int
	applyFn func(target model.ImageBuffer) (model.ImageBuffer, error)
}

func (m *mockMarker) Apply(target model.ImageBuffer) (model.ImageBuffer, error) {
	m.calls++
	return m.applyFn(target)
}

// MOCK STORAGE

type mockStorage struct {
	putFn func(ctx context.Context, key string, size int64, ct string, r io.Reader) error
}

func (m *mockStorage) Put(ctx context.Context, key string, size int64, ct string, r io.Reader) error {
	return m.putFn(ctx, key, size, ct, r)
}
