package memory

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"sync"

	"wcu-registry/internal/ports/objectstore"
)

type object struct {
	contentType string
	data        []byte
}

// Store guarda objetos en memoria (dev/tests). Las URLs públicas apuntan a la API,
// que sirve el contenido leyendo del mismo store.
type Store struct {
	mu      sync.RWMutex
	objects map[string]object
	baseURL string
}

func New(baseURL string) *Store {
	return &Store{
		objects: make(map[string]object),
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
	}
}

func (s *Store) Put(ctx context.Context, key, contentType string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = object{contentType: contentType, data: data}
	return nil
}

func (s *Store) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.objects[key]
	if !ok {
		return nil, objectstore.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(o.data)), nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[key]; !ok {
		return objectstore.ErrNotFound
	}
	delete(s.objects, key)
	return nil
}

func (s *Store) PublicURL(key string) string {
	return s.baseURL + "/" + strings.TrimLeft(key, "/")
}

// ServeHTTP sirve el objeto cuya key es el path (montar con http.StripPrefix).
func (s *Store) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimLeft(r.URL.Path, "/")
	s.mu.RLock()
	o, ok := s.objects[key]
	s.mu.RUnlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	if o.contentType != "" {
		w.Header().Set("Content-Type", o.contentType)
	}
	_, _ = w.Write(o.data)
}

// Keys lista las keys guardadas (para tests).
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.objects))
	for k := range s.objects {
		out = append(out, k)
	}
	return out
}
