package worker

import (
	"context"
	"io"
	"sync"

	"github.com/UnendingLoop/Watermarker/internal/model"
)

type mockMarker struct {
	applyFn func(model.ImageBuffer) (model.ImageBuffer, error)
}

func (m *mockMarker) Apply(target model.ImageBuffer) (model.ImageBuffer, error) {
	return m.applyFn(target)
}

//----------------------------------

type mockStorage struct {
	mu    sync.Mutex
	keys  []string
	putFn func(ctx context.Context, key string, size int64, ct string, r io.Reader) error
}

func (m *mockStorage) Put(ctx context.Context, key string, size int64, ct string, r io.Reader) error {
	m.mu.Lock()
	m.keys = append(m.keys, key)
	m.mu.Unlock()
	return m.putFn(ctx, key, size, ct, r)
}
