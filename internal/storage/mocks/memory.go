package mocks

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"docvault/internal/storage"
)

// MemoryStorage is an in-memory storage.Storage for tests. Err fields inject failures.
type MemoryStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	infos   map[string]storage.ObjectInfo

	PutErr    error
	DeleteErr error
	Deletes   []string
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		objects: make(map[string][]byte),
		infos:   make(map[string]storage.ObjectInfo),
	}
}

func (m *MemoryStorage) Put(ctx context.Context, key string, r io.Reader, opt storage.PutObjectOptions) (storage.ObjectInfo, error) {
	if m.PutErr != nil {
		return storage.ObjectInfo{}, m.PutErr
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return storage.ObjectInfo{}, err
	}
	info := storage.ObjectInfo{
		Key:          key,
		URL:          "mem://" + key,
		Size:         int64(len(b)),
		ContentType:  opt.ContentType,
		LastModified: time.Now().UTC(),
		Metadata:     opt.Metadata,
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = b
	m.infos[key] = info
	return info, nil
}

func (m *MemoryStorage) Get(ctx context.Context, key string) (io.ReadCloser, storage.ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.objects[key]
	if !ok {
		return nil, storage.ObjectInfo{}, fmt.Errorf("%s: %w", key, storage.ErrNotFound)
	}
	return io.NopCloser(bytes.NewReader(b)), m.infos[key], nil
}

func (m *MemoryStorage) Stat(ctx context.Context, key string) (storage.ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	info, ok := m.infos[key]
	if !ok {
		return storage.ObjectInfo{}, fmt.Errorf("%s: %w", key, storage.ErrNotFound)
	}
	return info, nil
}

func (m *MemoryStorage) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Deletes = append(m.Deletes, key)
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	delete(m.objects, key)
	delete(m.infos, key)
	return nil
}

func (m *MemoryStorage) PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error) {
	return fmt.Sprintf("mem://%s?expires=%d", key, int(expiry.Seconds())), nil
}

// Has reports whether key currently holds an object.
func (m *MemoryStorage) Has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok
}

// Len returns the number of stored objects.
func (m *MemoryStorage) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

var _ storage.Storage = (*MemoryStorage)(nil)
