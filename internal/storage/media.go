package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/trackadmission/go-services/internal/content"
)

// ObjectStore is the part of MinIOStorage the uploader needs.
type ObjectStore interface {
	UploadFile(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	ObjectURL(ctx context.Context, key string) (string, error)
}

const DefaultFolder = "content"

var ErrInvalidFolder = errors.New("invalid folder")

var folderPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9/_-]*$`)

// Uploader stores media files under <folder>/<uuid><ext>.
type Uploader struct {
	store ObjectStore
	now   func() time.Time
}

func NewUploader(store ObjectStore) *Uploader {
	return &Uploader{store: store, now: time.Now}
}

// ResourceType buckets a MIME type the way media items record it.
func ResourceType(contentType string) string {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return "image"
	case strings.HasPrefix(contentType, "video/"):
		return "video"
	default:
		return "raw"
	}
}

// Upload stores data and describes it as a media item. Image dimensions are
// read for formats the standard decoders know; other images get none.
func (u *Uploader) Upload(ctx context.Context, folder, filename, contentType string, data []byte) (*content.Media, error) {
	folder = strings.Trim(strings.TrimSpace(folder), "/")
	if folder == "" {
		folder = DefaultFolder
	}
	if !folderPattern.MatchString(folder) || strings.Contains(folder, "..") {
		return nil, fmt.Errorf("%w %q", ErrInvalidFolder, folder)
	}
	ext := strings.ToLower(filepath.Ext(filename))
	id := path.Join(folder, uuid.NewString())
	key := id + ext

	if err := u.store.UploadFile(ctx, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return nil, fmt.Errorf("upload %s: %w", key, err)
	}
	url, err := u.store.ObjectURL(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("url for %s: %w", key, err)
	}
	m := &content.Media{
		URL:          url,
		PublicID:     id,
		Format:       strings.TrimPrefix(ext, "."),
		ResourceType: ResourceType(contentType),
		Size:         int64(len(data)),
		CreatedAt:    u.now().UTC(),
	}
	if m.ResourceType == "image" {
		if cfg, format, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
			m.Width, m.Height = cfg.Width, cfg.Height
			if m.Format == "" {
				m.Format = format
			}
		}
	}
	return m, nil
}
