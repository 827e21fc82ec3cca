package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"nexus/internal/config"
	"nexus/internal/model"
)

const documentContentType = "text/markdown; charset=utf-8"

// DocumentStore reads and writes the text document of a section.
type DocumentStore interface {
	// Read returns the document text, or an error matching model.ErrNotFound.
	Read(ctx context.Context, section model.Section) (string, error)
	// Write replaces the document text.
	Write(ctx context.Context, section model.Section, text string) error
}

// DocumentLinker is implemented by document stores that can hand out
// download links.
type DocumentLinker interface {
	DownloadURL(ctx context.Context, section model.Section, expiry time.Duration) (string, error)
}

// Documents maps sections onto object keys in a Storage.
type Documents struct {
	store    Storage
	prefix   string
	sections map[model.Section]config.SectionConfig
}

var (
	_ DocumentStore  = (*Documents)(nil)
	_ DocumentLinker = (*Documents)(nil)
)

// NewDocuments returns a DocumentStore over store. Each section's key is
// prefix joined with its configured document name.
func NewDocuments(store Storage, prefix string, sections map[model.Section]config.SectionConfig) *Documents {
	if sections == nil {
		sections = config.DefaultSections()
	}
	return &Documents{store: store, prefix: prefix, sections: sections}
}

// Key returns the object key of a section's document.
func (d *Documents) Key(section model.Section) string {
	name := d.sections[section].Document
	if name == "" {
		name = string(section) + ".md"
	}
	if d.prefix == "" {
		return name
	}
	return path.Join(strings.TrimSuffix(d.prefix, "/"), name)
}

func (d *Documents) Read(ctx context.Context, section model.Section) (string, error) {
	key := d.Key(section)
	rc, _, err := d.store.Get(ctx, key)
	if errors.Is(err, ErrObjectNotFound) {
		return "", fmt.Errorf("document %s: %w", key, model.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("read document %s: %w", key, err)
	}
	defer rc.Close()

	b, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("read document %s: %w", key, err)
	}
	return string(b), nil
}

func (d *Documents) Write(ctx context.Context, section model.Section, text string) error {
	key := d.Key(section)
	_, err := d.store.Put(ctx, key, strings.NewReader(text), PutObjectOptions{
		Size:        int64(len(text)),
		ContentType: documentContentType,
		Metadata:    map[string]string{"section": string(section)},
	})
	if err != nil {
		return fmt.Errorf("write document %s: %w", key, err)
	}
	return nil
}

// DownloadURL returns a presigned link to the section document, or "" when
// the backend cannot presign.
func (d *Documents) DownloadURL(ctx context.Context, section model.Section, expiry time.Duration) (string, error) {
	u, err := d.store.PresignGet(ctx, d.Key(section), expiry)
	if errors.Is(err, ErrPresignUnsupported) {
		return "", nil
	}
	return u, err
}
