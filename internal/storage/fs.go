package storage

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/natefinch/atomic"
)

// fsStorage keeps objects as files under a root directory. Writes replace the
// file atomically so readers never observe a half-written document.
type fsStorage struct {
	root string
}

// NewFS returns a Storage rooted at dir, creating it when missing.
func NewFS(dir string) (Storage, error) {
	if dir == "" {
		return nil, fmt.Errorf("document dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create document dir: %w", err)
	}
	return &fsStorage{root: dir}, nil
}

func (s *fsStorage) path(key string) (string, error) {
	clean := filepath.Clean("/" + filepath.FromSlash(key))
	if clean == string(filepath.Separator) {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return filepath.Join(s.root, strings.TrimPrefix(clean, string(filepath.Separator))), nil
}

func (s *fsStorage) Put(_ context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error) {
	p, err := s.path(key)
	if err != nil {
		return ObjectInfo{}, err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return ObjectInfo{}, err
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return ObjectInfo{}, err
	}
	if err := atomic.WriteFile(p, bytes.NewReader(b)); err != nil {
		return ObjectInfo{}, fmt.Errorf("write %s: %w", key, err)
	}
	return ObjectInfo{
		Key:          key,
		Size:         int64(len(b)),
		ETag:         contentETag(b),
		ContentType:  opt.ContentType,
		LastModified: time.Now(),
		Metadata:     opt.Metadata,
	}, nil
}

func (s *fsStorage) Get(_ context.Context, key string) (io.ReadCloser, ObjectInfo, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, ObjectInfo{}, err
	}
	b, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ObjectInfo{}, fmt.Errorf("%s: %w", key, ErrObjectNotFound)
	}
	if err != nil {
		return nil, ObjectInfo{}, err
	}
	st, err := os.Stat(p)
	if err != nil {
		return nil, ObjectInfo{}, err
	}
	return io.NopCloser(bytes.NewReader(b)), ObjectInfo{
		Key:          key,
		Size:         int64(len(b)),
		ETag:         contentETag(b),
		ContentType:  "text/markdown",
		LastModified: st.ModTime(),
	}, nil
}

func (s *fsStorage) PresignGet(context.Context, string, time.Duration) (string, error) {
	return "", ErrPresignUnsupported
}

func contentETag(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
