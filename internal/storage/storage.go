package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"bookly/internal/domain"
)

var ErrNotImage = fmt.Errorf("%w: file is not an image", domain.ErrValidation)

type FileStorage interface {
	// UploadImage stores an image under folder and returns its public URL.
	UploadImage(ctx context.Context, data []byte, filename, folder string) (string, error)

	DeleteFile(ctx context.Context, fileURL string) error
}

// DetectImage sniffs data and returns its content type and a file extension,
// preferring the extension of filename when it has one.
func DetectImage(data []byte, filename string) (string, string, error) {
	if len(data) == 0 {
		return "", "", fmt.Errorf("%w: empty file", domain.ErrValidation)
	}

	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return "", "", ErrNotImage
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		switch contentType {
		case "image/jpeg":
			ext = ".jpg"
		case "image/png":
			ext = ".png"
		case "image/gif":
			ext = ".gif"
		case "image/webp":
			ext = ".webp"
		default:
			ext = ".bin"
		}
	}

	return contentType, ext, nil
}

// Disabled is used when no S3 endpoint is configured.
type Disabled struct{}

func (Disabled) UploadImage(context.Context, []byte, string, string) (string, error) {
	return "", domain.ErrStorageDisabled
}

func (Disabled) DeleteFile(context.Context, string) error {
	return domain.ErrStorageDisabled
}

func IsDisabled(err error) bool {
	return errors.Is(err, domain.ErrStorageDisabled)
}
