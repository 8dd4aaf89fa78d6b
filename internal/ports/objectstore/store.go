package objectstore

import (
	"context"
	"errors"
	"io"
)

var ErrNotFound = errors.New("object not found")

// Store es el bucket donde viven los certificados generados.
type Store interface {
	Put(ctx context.Context, key, contentType string, r io.Reader) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
}
