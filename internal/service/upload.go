package service

import (
	"context"
	"fmt"
	"path"
	"strings"

	"go.uber.org/zap"

	"bookly/internal/domain"
	"bookly/internal/storage"
)

// MaxImageSize caps a single uploaded image.
const MaxImageSize = 5 << 20

var uploadFolders = map[string]bool{
	"businesses": true,
	"categories": true,
	"staff":      true,
}

type UploadServiceImpl struct {
	storage storage.FileStorage
	logger  *zap.Logger
}

func NewUploadService(fileStorage storage.FileStorage, logger *zap.Logger) *UploadServiceImpl {
	return &UploadServiceImpl{
		storage: fileStorage,
		logger:  logger,
	}
}

func (s *UploadServiceImpl) UploadImage(ctx context.Context, data []byte, filename, folder string) (string, error) {
	folder = strings.Trim(path.Clean("/"+folder), "/")
	if folder == "" {
		folder = "businesses"
	}
	if !uploadFolders[folder] {
		return "", fmt.Errorf("%w: unknown upload folder %q", domain.ErrValidation, folder)
	}
	if len(data) > MaxImageSize {
		return "", fmt.Errorf("%w: image exceeds %d bytes", domain.ErrValidation, MaxImageSize)
	}

	url, err := s.storage.UploadImage(ctx, data, filename, folder)
	if err != nil {
		if !storage.IsDisabled(err) {
			s.logger.Error("Failed to upload image", zap.String("folder", folder), zap.Error(err))
		}
		return "", err
	}

	s.logger.Info("Image uploaded", zap.String("url", url))
	return url, nil
}
