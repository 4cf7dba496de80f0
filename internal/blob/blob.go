// AngelaMos | 2026
// blob.go

package blob

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/carterperez-dev/articles-api/internal/config"
	"github.com/carterperez-dev/articles-api/internal/core"
)

const (
	DirArticles = "articles"
	DirProfiles = "profile_images"
)

// Store keeps uploaded images addressed by a relative path such as
// "articles/3f2c....png". Paths are what the database stores; URL turns one
// into something a client can fetch.
type Store interface {
	Put(ctx context.Context, dir string, img *Image) (string, error)
	Delete(ctx context.Context, path string) error
	URL(path string) string
	Ping(ctx context.Context) error
}

type Image struct {
	Data        []byte
	ContentType string
	Ext         string
}

var allowedImageTypes = []string{"image/jpeg", "image/png", "image/gif"}

func New(cfg config.StorageConfig) (Store, error) {
	switch cfg.Driver {
	case config.StorageLocal:
		return NewLocalStore(cfg.LocalRoot, cfg.PublicURL)
	case config.StorageS3:
		return NewS3Store(cfg.S3Bucket, cfg.S3Region, cfg.PublicURL)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// ReadImage loads an uploaded file, enforcing the size cap and sniffing the
// content. The client supplied Content-Type is ignored.
func ReadImage(field string, fh *multipart.FileHeader, maxBytes int64) (*Image, error) {
	if fh.Size > maxBytes {
		return nil, tooLarge(field, maxBytes)
	}

	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close() //nolint:errcheck // read-only multipart file

	return DecodeImage(field, f, maxBytes)
}

func DecodeImage(field string, r io.Reader, maxBytes int64) (*Image, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, tooLarge(field, maxBytes)
	}
	if len(data) == 0 {
		return nil, core.ValidationError("image is empty", map[string]string{
			field: "is required",
		})
	}

	mtype := mimetype.Detect(data)
	if !mimetype.EqualsAny(mtype.String(), allowedImageTypes...) {
		return nil, core.ValidationError(
			"unsupported image type "+mtype.String(),
			map[string]string{field: "must be a jpeg, png or gif image"},
		)
	}

	return &Image{
		Data:        data,
		ContentType: mtype.String(),
		Ext:         mtype.Extension(),
	}, nil
}

func tooLarge(field string, maxBytes int64) error {
	return core.ValidationError(
		"image too large",
		map[string]string{field: fmt.Sprintf("must be at most %d KB", maxBytes/1024)},
	)
}

func objectKey(dir string, img *Image) string {
	return path.Join(dir, uuid.New().String()+img.Ext)
}

// cleanKey rejects absolute paths and traversal so a stored path can never
// address anything outside the store.
func cleanKey(key string) (string, error) {
	key = strings.TrimPrefix(key, "/")
	cleaned := path.Clean(key)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("invalid blob path %q", key)
	}
	return cleaned, nil
}

func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(key, "/")
}
