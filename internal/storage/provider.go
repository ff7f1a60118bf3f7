package storage

import (
	"context"
	"errors"
	"io"
)

var ErrNotFound = errors.New("object not found")

// Provider stores the scraper's outputs (PDFs and extracted text) and serves
// them back to the context builder. Keys are slash separated relative paths
// such as "data/ai_page.txt".
type Provider interface {
	GetObject(ctx context.Context, key string) ([]byte, error)

	PutObject(ctx context.Context, key string, data io.Reader) error

	Exists(ctx context.Context, key string) (bool, error)
}

var (
	_ Provider = (*LocalProvider)(nil)
	_ Provider = (*S3Provider)(nil)
)
