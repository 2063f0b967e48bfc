package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"docvault/internal/config"
)

// localStorage keeps objects as files under a base directory.
// Writes go to a temp file in the target directory and are renamed into place,
// so readers never observe a partial object.
type localStorage struct {
	root       string
	publicPath string
}

// NewLocal creates the base directory if needed.
func NewLocal(cfg config.LocalStorageConfig) (Storage, error) {
	if cfg.BasePath == "" {
		return nil, fmt.Errorf("local storage base path is required")
	}
	root, err := filepath.Abs(cfg.BasePath)
	if err != nil {
		return nil, fmt.Errorf("resolve base path: %w", err)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create base path: %w", err)
	}
	return &localStorage{root: root, publicPath: cfg.PublicPath}, nil
}

// sidecar holds what the filesystem cannot: content type and user metadata.
type sidecar struct {
	ContentType string            `json:"content_type"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// SidecarSuffix names the metadata file stored next to each local blob.
const SidecarSuffix = ".meta.json"

func (l *localStorage) path(key string) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}
	p := filepath.Join(l.root, filepath.FromSlash(key))
	if !strings.HasPrefix(p, l.root+string(filepath.Separator)) {
		return "", ErrInvalidKey
	}
	return p, nil
}

func (l *localStorage) url(key string) string {
	return path.Join("/", l.publicPath, key)
}

func (l *localStorage) Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error) {
	p, err := l.path(key)
	if err != nil {
		return ObjectInfo{}, err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return ObjectInfo{}, fmt.Errorf("create object dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(p), ".upload-*")
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("create temp object: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	n, err := io.Copy(tmp, readerWithContext(ctx, r))
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("write object %s: %w", key, err)
	}
	if opt.Size >= 0 && n != opt.Size {
		return ObjectInfo{}, fmt.Errorf("write object %s: wrote %d bytes, expected %d", key, n, opt.Size)
	}
	if err := tmp.Sync(); err != nil {
		return ObjectInfo{}, fmt.Errorf("sync object %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return ObjectInfo{}, fmt.Errorf("close object %s: %w", key, err)
	}

	meta, err := json.Marshal(sidecar{ContentType: opt.ContentType, Metadata: opt.Metadata})
	if err != nil {
		return ObjectInfo{}, err
	}
	if err := os.WriteFile(p+SidecarSuffix, meta, 0o644); err != nil {
		return ObjectInfo{}, fmt.Errorf("write object metadata %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		_ = os.Remove(p + SidecarSuffix)
		return ObjectInfo{}, fmt.Errorf("commit object %s: %w", key, err)
	}
	committed = true

	return l.Stat(ctx, key)
}

func (l *localStorage) Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error) {
	info, err := l.Stat(ctx, key)
	if err != nil {
		return nil, ObjectInfo{}, err
	}
	p, _ := l.path(key)
	f, err := os.Open(p)
	if err != nil {
		return nil, ObjectInfo{}, l.mapError(key, err)
	}
	return f, info, nil
}

func (l *localStorage) Stat(_ context.Context, key string) (ObjectInfo, error) {
	p, err := l.path(key)
	if err != nil {
		return ObjectInfo{}, err
	}
	fi, err := os.Stat(p)
	if err != nil {
		return ObjectInfo{}, l.mapError(key, err)
	}
	if fi.IsDir() {
		return ObjectInfo{}, fmt.Errorf("%s: %w", key, ErrNotFound)
	}

	var sc sidecar
	if b, err := os.ReadFile(p + SidecarSuffix); err == nil {
		_ = json.Unmarshal(b, &sc)
	}

	return ObjectInfo{
		Key:          key,
		URL:          l.url(key),
		Size:         fi.Size(),
		ETag:         fmt.Sprintf("%x-%x", fi.ModTime().UnixNano(), fi.Size()),
		ContentType:  sc.ContentType,
		LastModified: fi.ModTime().UTC(),
		Metadata:     sc.Metadata,
	}, nil
}

func (l *localStorage) Delete(_ context.Context, key string) error {
	p, err := l.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove object %s: %w", key, err)
	}
	_ = os.Remove(p + SidecarSuffix)

	// Drop the per-document directory once it is empty; errors mean it is not.
	_ = os.Remove(filepath.Dir(p))
	return nil
}

func (l *localStorage) PresignGet(context.Context, string, time.Duration) (string, error) {
	return "", ErrPresignUnsupported
}

func (l *localStorage) mapError(key string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	return fmt.Errorf("object %s: %w", key, err)
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func readerWithContext(ctx context.Context, r io.Reader) io.Reader {
	return &ctxReader{ctx: ctx, r: r}
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
