// Package blob stores uploaded logo images, either in a MinIO/S3 bucket or on local disk.
package blob

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/crypto/blake2b"
)

// MaxUploadBytes caps a single logo upload.
const MaxUploadBytes = 5 << 20

var (
	ErrNotFound        = errors.New("object not found")
	ErrUnsupportedType = errors.New("only png, jpeg, gif and webp images are accepted")
	ErrTooLarge        = errors.New("image exceeds 5 MB")
	ErrInvalidKey      = errors.New("invalid object key")
)

var extensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Object is a stored file.
type Object struct {
	Key         string
	ContentType string
	Size        int64
}

// Store saves and serves uploaded images.
type Store interface {
	// Put stores data and returns its object and public URL.
	Put(ctx context.Context, data []byte) (Object, string, error)
	// Open returns the stored bytes; callers close the reader.
	Open(ctx context.Context, key string) (io.ReadCloser, Object, error)
}

// Sniff validates data as an accepted image and returns its content type and a
// content-addressed key, so re-uploading the same logo reuses the same object.
// PRE: none
// POST: returns ErrTooLarge or ErrUnsupportedType for rejected input
func Sniff(data []byte) (contentType, key string, err error) {
	if len(data) > MaxUploadBytes {
		return "", "", ErrTooLarge
	}
	contentType = http.DetectContentType(data)
	ext, ok := extensions[contentType]
	if !ok {
		return "", "", fmt.Errorf("%w (got %s)", ErrUnsupportedType, contentType)
	}
	sum := blake2b.Sum256(data)
	return contentType, "logos/" + hex.EncodeToString(sum[:16]) + ext, nil
}

// validKey rejects keys that could escape the store root.
func validKey(key string) bool {
	if key == "" || key[0] == '/' {
		return false
	}
	for i := 0; i+1 < len(key); i++ {
		if key[i] == '.' && key[i+1] == '.' {
			return false
		}
	}
	return true
}
