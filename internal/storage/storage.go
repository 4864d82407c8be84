// Package storage connects the optional export storage
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/UnendingLoop/Watermarker/internal/storage/miniostorage"
	"github.com/wb-go/wbf/retry"
)

// Стратегия ретрая выгрузки результата - можно потом вынести значения в конфиг/env
var DefaultPutStrategy = retry.Strategy{
	Attempts: 3,
	Delay:    500 * time.Millisecond,
	Backoff:  2,
}

// Putter - все что нужно от хранилища для выгрузки
type Putter interface {
	Put(ctx context.Context, key string, size int64, contentType string, r io.Reader) error
}

// NewImgStorage connects to minio with strategy.Attempts tries, giving up early when ctx is done.
// Empty endpoint means export is not configured: (nil, nil) is returned.
func NewImgStorage(ctx context.Context, opts miniostorage.Options, strategy retry.Strategy) (*miniostorage.MinioImageStorage, error) {
	if opts.Endpoint == "" {
		return nil, nil
	}
	strategy = atLeastOnce(strategy)

	var (
		client *miniostorage.MinioImageStorage
		try    int
	)
	err := retry.DoContext(ctx, strategy, func() error {
		try++
		log.Printf("Connecting to IMG-storage %s (try #%d)...", opts.Endpoint, try)
		c, err := miniostorage.NewMinioClient(ctx, opts)
		if err != nil {
			log.Printf("Failed to init connection to IMG-storage: %v", err)
			return err
		}
		client = c
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("IMG-storage unavailable after %d attempts: %w", try, err)
	}

	log.Printf("Successfully connected IMG-storage, bucket %q", client.Bucket())
	return client, nil
}

// PutWithRetry uploads data, every attempt gets a fresh reader over the same bytes.
func PutWithRetry(ctx context.Context, strg Putter, strategy retry.Strategy, key, contentType string, data []byte) error {
	return retry.DoContext(ctx, atLeastOnce(strategy), func() error {
		return strg.Put(ctx, key, int64(len(data)), contentType, bytes.NewReader(data))
	})
}

// нулевая стратегия означала бы "ни одной попытки и nil-ошибку"
func atLeastOnce(s retry.Strategy) retry.Strategy {
	if s.Attempts < 1 {
		s.Attempts = 1
	}
	if s.Backoff <= 0 {
		s.Backoff = 1
	}
	return s
}
