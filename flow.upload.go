package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
)

var (
	// ErrNoUploadURL means the store accepted the image but returned no
	// usable URL. The upload counts as failed and nothing is created.
	ErrNoUploadURL = errors.New("image upload did not return a url")

	ErrImageRequired = errors.New("an image file is required")
)

// invalidImageError rejects an upload before any byte reaches the store.
type invalidImageError string

func (e invalidImageError) Error() string {
	return string(e)
}

// UploadResult is the outcome of a completed image upload phase.
type UploadResult struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Uploader runs the validate-then-store half of the two phase
// upload-then-create flow. The second phase (creating the entity that
// references the URL) belongs to the caller: when it fails, the stored
// image stays behind as an accepted orphan, it is never rolled back.
type Uploader struct {
	logger *zap.Logger
	config *UploadsConfig
	store  ImageStore
	uids   UIDHandler
}

func NewUploader(logger *zap.Logger, uploadsConfig *UploadsConfig, store ImageStore, uids UIDHandler) *Uploader {
	return &Uploader{
		logger: logger,
		config: uploadsConfig,
		store:  store,
		uids:   uids,
	}
}

// MaxBytes is the upload size ceiling derived from the configuration.
func (u *Uploader) MaxBytes() int64 {
	return int64(u.config.MaxSizeMB) << 20
}

// Validate rejects anything that is not an image within the size
// ceiling. An unknown or missing media type is rejected, never passed
// through to the store.
func (u *Uploader) Validate(contentType string, size int64) error {
	if contentType == "" || !strings.HasPrefix(contentType, "image/") {
		return invalidImageError("only image files are allowed")
	}
	if size > u.MaxBytes() {
		return invalidImageError(fmt.Sprintf("image exceeds the %dMB size limit", u.config.MaxSizeMB))
	}
	return nil
}

// Upload validates then stores the image and returns its public URL
// with the generated upload ID.
func (u *Uploader) Upload(ctx context.Context, contentType string, size int64, content io.Reader) (UploadResult, error) {
	if err := u.Validate(contentType, size); err != nil {
		return UploadResult{}, err
	}
	id := u.uids.Generate(UploadIDPrefix)
	url, err := u.store.Save(ctx, id, contentType, content)
	if err != nil {
		return UploadResult{}, err
	}
	if url == "" {
		return UploadResult{}, ErrNoUploadURL
	}
	u.logger.Info("uploader: image stored", zap.String("upload.id", id), zap.String("upload.url", url))
	return UploadResult{ID: id, URL: url}, nil
}
