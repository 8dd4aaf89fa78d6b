package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"wcu-registry/internal/ports/objectstore"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

type Config struct {
	Bucket string
	// PublicBaseURL: CDN o dominio propio. Vacío => storage.googleapis.com/<bucket>.
	PublicBaseURL string
	// Credentials: ruta a JSON o JSON inline. Vacío => ADC.
	Credentials string
}

type Store struct {
	client  *storage.Client
	bucket  string
	baseURL string
}

func New(ctx context.Context, cfg Config) (*Store, error) {
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, errors.New("gcs: bucket required")
	}

	opts := ClientOptions(cfg.Credentials)
	opts = append(opts, option.WithScopes(storage.ScopeReadWrite))
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gcs: new client: %w", err)
	}

	base := strings.TrimRight(strings.TrimSpace(cfg.PublicBaseURL), "/")
	if base == "" {
		base = "https://storage.googleapis.com/" + bucket
	}
	return &Store{client: client, bucket: bucket, baseURL: base}, nil
}

// ClientOptions interpreta credenciales como JSON inline (empieza con "{") o como ruta.
func ClientOptions(creds string) []option.ClientOption {
	creds = strings.TrimSpace(creds)
	if creds == "" {
		return nil
	}
	if strings.HasPrefix(creds, "{") {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(creds))}
	}
	return []option.ClientOption{option.WithCredentialsFile(creds)}
}

func (s *Store) Put(ctx context.Context, key, contentType string, r io.Reader) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = "public, max-age=3600"
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return fmt.Errorf("gcs: write %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("gcs: close writer %s: %w", key, err)
	}
	return nil
}

// readCloser cancela el contexto recién al cerrar; si no, el reader queda sin datos.
type readCloser struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (r *readCloser) Close() error {
	err := r.ReadCloser.Close()
	r.cancel()
	return err
}

func (s *Store) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	rd, err := s.client.Bucket(s.bucket).Object(key).NewReader(ctx)
	if err != nil {
		cancel()
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, objectstore.ErrNotFound
		}
		return nil, fmt.Errorf("gcs: open %s: %w", key, err)
	}
	return &readCloser{ReadCloser: rd, cancel: cancel}, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := s.client.Bucket(s.bucket).Object(key).Delete(ctx); err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return objectstore.ErrNotFound
		}
		return fmt.Errorf("gcs: delete %s: %w", key, err)
	}
	return nil
}

func (s *Store) PublicURL(key string) string {
	return s.baseURL + "/" + strings.TrimLeft(key, "/")
}

func (s *Store) Close() error {
	return s.client.Close()
}
