// Package storage contains the object store abstraction used for document blobs
// and its MinIO (S3-compatible), Azure Blob and local filesystem implementations.
package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
	"time"
	"unicode"
)

var (
	// ErrNotFound indicates the requested object does not exist.
	ErrNotFound = errors.New("object not found")
	// ErrInvalidKey indicates an empty key or one that escapes the store root.
	ErrInvalidKey = errors.New("invalid object key")
	// ErrPresignUnsupported is returned by stores that cannot issue time-limited links.
	ErrPresignUnsupported = errors.New("presigned links not supported by this store")
)

// PutObjectOptions define optional parameters for uploading objects.
// Size should be the exact number of bytes if known; if unknown, set to -1 and the implementation
// will buffer/chunk as supported by the backend.
type PutObjectOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo contains basic information about an object in storage.
// URL is the durable address of the object recorded as the document's file_url.
type ObjectInfo struct {
	Key          string
	URL          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
	Metadata     map[string]string
}

// Storage is the object store client interface.
// Implementations are safe for concurrent use.
type Storage interface {
	// Put uploads an object under the given key using the provided reader and options.
	Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
	// Get retrieves an object's content as a streaming reader alongside its info.
	// Returns ErrNotFound if the object does not exist.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
	// Stat returns object info without the content. Returns ErrNotFound if absent.
	Stat(ctx context.Context, key string) (ObjectInfo, error)
	// Delete removes an object by key. Deleting a missing object is not an error.
	Delete(ctx context.Context, key string) error
	// PresignGet returns a time-limited URL that can be used to download the object without credentials.
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// DocumentKey builds the object key for a document: documents/<id>/<sanitized name>.
func DocumentKey(id, filename string) string {
	return path.Join("documents", id, SanitizeFilename(filename))
}

// SanitizeFilename reduces a client supplied name to a safe single path segment.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	name = path.Base(strings.TrimSpace(name))

	var b strings.Builder
	for _, r := range name {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '.', r == '-', r == '_':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune('_')
		}
	}

	out := strings.Trim(b.String(), ".")
	if out == "" {
		return "file"
	}
	if rs := []rune(out); len(rs) > 200 {
		out = string(rs[len(rs)-200:])
	}
	return out
}

func validateKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") {
		return ErrInvalidKey
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == ".." || seg == "." || seg == "" {
			return ErrInvalidKey
		}
	}
	return nil
}

// WithTimeout bounds every call except the body of Get, which is streamed
// to the client after the call returns.
func WithTimeout(s Storage, d time.Duration) Storage {
	if d <= 0 {
		return s
	}
	return &timeoutStorage{next: s, timeout: d}
}

type timeoutStorage struct {
	next    Storage
	timeout time.Duration
}

func (t *timeoutStorage) Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.Put(ctx, key, r, opt)
}

func (t *timeoutStorage) Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error) {
	return t.next.Get(ctx, key)
}

func (t *timeoutStorage) Stat(ctx context.Context, key string) (ObjectInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.Stat(ctx, key)
}

func (t *timeoutStorage) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.Delete(ctx, key)
}

func (t *timeoutStorage) PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.PresignGet(ctx, key, expiry)
}
