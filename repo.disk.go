package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// ImageStore persists uploaded cover images and serves them back.
// Save returns the public URL of the stored image. An empty URL with
// a nil error is treated by callers as a failed upload.
type ImageStore interface {
	Save(ctx context.Context, id, contentType string, content io.Reader) (string, error)
	Open(ctx context.Context, id string) (io.ReadCloser, string, error)
}

type diskImageStore struct {
	logger *zap.Logger
	config *UploadsConfig
}

// NewDiskImageStore provides a filesystem-backed image store rooted at
// the configured uploads folder.
func NewDiskImageStore(logger *zap.Logger, uploadsConfig *UploadsConfig) (ImageStore, error) {
	if uploadsConfig.Folder == "" {
		return nil, fmt.Errorf("uploads folder is not configured")
	}
	if err := os.MkdirAll(uploadsConfig.Folder, 0o755); err != nil {
		return nil, fmt.Errorf("failed to set up uploads folder: %v", err)
	}
	return &diskImageStore{
		logger: logger,
		config: uploadsConfig,
	}, nil
}

// extensions maps the accepted image media types to file extensions.
var extensions = map[string]string{
	"image/jpeg":    ".jpg",
	"image/png":     ".png",
	"image/gif":     ".gif",
	"image/webp":    ".webp",
	"image/svg+xml": ".svg",
}

func extensionFor(contentType string) string {
	if ext, ok := extensions[contentType]; ok {
		return ext
	}
	return ".img"
}

// Save writes the image under `<folder>/<id><ext>` and returns its
// public URL built from the configured base.
func (ds *diskImageStore) Save(_ context.Context, id, contentType string, content io.Reader) (string, error) {
	name := id + extensionFor(contentType)
	path := filepath.Join(ds.config.Folder, name)
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if _, err = io.Copy(f, content); err != nil {
		f.Close()
		os.Remove(path)
		return "", err
	}
	if err = f.Close(); err != nil {
		return "", err
	}
	return strings.TrimRight(ds.config.PublicBase, "/") + "/" + name, nil
}

// Open locates the stored image of an upload ID and returns it with
// its media type.
func (ds *diskImageStore) Open(_ context.Context, id string) (io.ReadCloser, string, error) {
	for contentType, ext := range extensions {
		f, err := os.Open(filepath.Join(ds.config.Folder, id+ext))
		if err == nil {
			return f, contentType, nil
		}
	}
	f, err := os.Open(filepath.Join(ds.config.Folder, id+".img"))
	if err != nil {
		return nil, "", err
	}
	return f, "application/octet-stream", nil
}
