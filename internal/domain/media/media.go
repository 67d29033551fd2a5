// Package media validates user uploaded images and names them in storage.
package media

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const DefaultMaxBytes = 5 << 20

var (
	ErrEmptyUpload      = errors.New("file is empty")
	ErrUnsupportedImage = errors.New("unsupported image type")
	ErrImageTooLarge    = errors.New("image too large")
)

type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Storage uploads an object and returns its public URL.
type Storage interface {
	Upload(ctx context.Context, bucket, path, contentType string, data []byte) (string, error)
}

var extensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// Inspect checks size and sniffed content type, returning the content type
// and file extension to store the image under.
func Inspect(upload Upload, maxBytes int64) (string, string, error) {
	if len(upload.Data) == 0 {
		return "", "", ErrEmptyUpload
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if int64(len(upload.Data)) > maxBytes {
		return "", "", ErrImageTooLarge
	}

	contentType := http.DetectContentType(upload.Data)
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	ext, ok := extensions[contentType]
	if !ok {
		return "", "", ErrUnsupportedImage
	}
	return contentType, ext, nil
}

// ObjectName builds "<user_id>-<unix_ms>.<ext>".
func ObjectName(userID, ext string, now time.Time) string {
	return fmt.Sprintf("%s-%d.%s", userID, now.UnixMilli(), ext)
}

// Bucket is one storage bucket that accepts image uploads.
type Bucket struct {
	Storage  Storage
	Name     string
	MaxBytes int64
}

// Put validates the image and stores it as ObjectName(userID, ...).
func (b Bucket) Put(ctx context.Context, userID string, upload Upload, now time.Time) (string, error) {
	contentType, ext, err := Inspect(upload, b.MaxBytes)
	if err != nil {
		return "", err
	}
	if b.Storage == nil {
		return "", errors.New("storage is not configured")
	}
	return b.Storage.Upload(ctx, b.Name, ObjectName(userID, ext, now), contentType, upload.Data)
}
