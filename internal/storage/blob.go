package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrBlobTooLarge is returned when an upload exceeds the configured size.
	ErrBlobTooLarge = errors.New("attachment too large")
	// ErrUnsupportedMedia is returned for uploads outside the accepted image types.
	ErrUnsupportedMedia = errors.New("attachment must be a jpeg, png, gif or webp image")
)

// Upload is an attachment received from a kiosk or visitor form.
type Upload struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// BlobStore persists attachment bytes. The returned path is embedded
// verbatim in ticket messages.
type BlobStore interface {
	Store(ctx context.Context, folder string, upload Upload) (string, error)
	Delete(ctx context.Context, path string) error
}

// imageExtensions lists the accepted content types. Stored names take their
// extension from here so static serving never picks a non-image type.
var imageExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/webp": "webp",
}

func validateUpload(upload Upload, maxBytes int64) error {
	if _, ok := extensionFor(upload); !ok {
		return ErrUnsupportedMedia
	}
	if maxBytes > 0 && upload.Size > maxBytes {
		return ErrBlobTooLarge
	}
	return nil
}

// readLimited reads the whole body, failing once it grows past maxBytes.
func readLimited(r io.Reader, maxBytes int64) ([]byte, error) {
	if maxBytes <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxBytes {
		return nil, ErrBlobTooLarge
	}
	return data, nil
}

func objectName(folder string, upload Upload) string {
	ext, _ := extensionFor(upload)
	return path.Clean(path.Join(folder, uuid.NewString()+"."+ext))
}

func extensionFor(upload Upload) (string, bool) {
	contentType := strings.ToLower(strings.TrimSpace(upload.ContentType))
	if semi := strings.IndexByte(contentType, ';'); semi >= 0 {
		contentType = strings.TrimSpace(contentType[:semi])
	}
	ext, ok := imageExtensions[contentType]
	return ext, ok
}
