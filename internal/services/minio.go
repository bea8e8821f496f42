package services

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/File-Sharing-BondBridg/Catalog-Service/internal/models"
)

// MinioMirror keeps an off-site copy of registered files in a bucket.
// Objects are keyed by record id so renames and moves overwrite in place.
type MinioMirror struct {
	client *minio.Client
	bucket string
	logger *slog.Logger
}

// NewMinioMirror connects to MinIO and creates the bucket if it does not exist.
func NewMinioMirror(ctx context.Context, endpoint, accessKey, secretKey, bucket string, useSSL bool, logger *slog.Logger) (*MinioMirror, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
		logger.Info("created bucket", slog.String("bucket", bucket))
	}

	logger.Info("connected to MinIO", slog.String("endpoint", endpoint), slog.String("bucket", bucket))
	return &MinioMirror{
		client: client,
		bucket: bucket,
		logger: logger.With(slog.String("component", "minio_mirror")),
	}, nil
}

// ObjectName is the bucket key for a record.
func ObjectName(id int64) string {
	return "records/" + strconv.FormatInt(id, 10)
}

// Upload copies the record's file into the bucket.
func (m *MinioMirror) Upload(ctx context.Context, record models.FileRecord) error {
	info, err := m.client.FPutObject(ctx, m.bucket, ObjectName(record.ID), filepath.FromSlash(record.FilePath),
		minio.PutObjectOptions{
			ContentType: GetContentType(record.FileType),
			UserMetadata: map[string]string{
				"name":      record.Name,
				"file-type": record.FileType,
				"file-path": record.FilePath,
			},
		})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", ObjectName(record.ID), err)
	}
	m.logger.Debug("file mirrored",
		slog.Int64("file_id", record.ID),
		slog.String("object", info.Key),
		slog.Int64("size", info.Size),
	)
	return nil
}

// Remove deletes the record's object. A missing object is not an error.
func (m *MinioMirror) Remove(ctx context.Context, id int64) error {
	err := m.client.RemoveObject(ctx, m.bucket, ObjectName(id), minio.RemoveObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil
		}
		return fmt.Errorf("failed to remove %s: %w", ObjectName(id), err)
	}
	return nil
}

// CheckConnection is used by the health endpoint.
func (m *MinioMirror) CheckConnection(ctx context.Context) error {
	if m == nil || m.client == nil {
		return fmt.Errorf("minio mirror not initialized")
	}
	_, err := m.client.BucketExists(ctx, m.bucket)
	return err
}
