package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"bookly/config"
)

type S3Storage struct {
	client *minio.Client
	cfg    config.S3Config
	logger *zap.Logger
}

func NewS3Storage(ctx context.Context, cfg config.S3Config, logger *zap.Logger) (*S3Storage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("error initializing S3 client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("error checking bucket: %w", err)
	}

	if !exists {
		err = client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{
			Region: cfg.Region,
		})
		if err != nil {
			return nil, fmt.Errorf("error creating bucket: %w", err)
		}
		logger.Info("Bucket created", zap.String("bucket", cfg.Bucket))
	}

	return &S3Storage{
		client: client,
		cfg:    cfg,
		logger: logger,
	}, nil
}

func (s *S3Storage) UploadImage(ctx context.Context, data []byte, filename, folder string) (string, error) {
	contentType, ext, err := DetectImage(data, filename)
	if err != nil {
		return "", err
	}

	objectName := path.Join(folder, uuid.New().String()+ext)

	_, err = s.client.PutObject(ctx, s.cfg.Bucket, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("error uploading file to S3: %w", err)
	}

	s.logger.Debug("Image uploaded", zap.String("object", objectName), zap.Int("size", len(data)))

	return ObjectURL(s.cfg, objectName), nil
}

func (s *S3Storage) DeleteFile(ctx context.Context, fileURL string) error {
	if fileURL == "" {
		return nil
	}

	objectName, ok := ObjectName(s.cfg, fileURL)
	if !ok {
		return fmt.Errorf("file URL %s does not belong to bucket %s", fileURL, s.cfg.Bucket)
	}

	err := s.client.RemoveObject(ctx, s.cfg.Bucket, objectName, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("error deleting file from S3: %w", err)
	}

	return nil
}

// ObjectURL is where clients fetch objectName from: PublicURL when configured
// (a CDN or proxy), otherwise the path-style bucket URL of the endpoint.
func ObjectURL(cfg config.S3Config, objectName string) string {
	return baseURL(cfg) + "/" + objectName
}

// ObjectName reverses ObjectURL.
func ObjectName(cfg config.S3Config, fileURL string) (string, bool) {
	prefix := baseURL(cfg) + "/"
	if !strings.HasPrefix(fileURL, prefix) {
		return "", false
	}
	name := strings.TrimPrefix(fileURL, prefix)
	return name, name != ""
}

func baseURL(cfg config.S3Config) string {
	if cfg.PublicURL != "" {
		return strings.TrimRight(cfg.PublicURL, "/")
	}
	scheme := "http"
	if cfg.UseSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s", scheme, cfg.Endpoint, cfg.Bucket)
}
