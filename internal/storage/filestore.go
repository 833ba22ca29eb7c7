package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/ragbase/console/internal/config"
	"github.com/ragbase/console/internal/domain"
)

// FileStore holds uploaded documents in object storage, keyed
// {collectionId}/{fileName}.
type FileStore struct {
	client *minio.Client
	bucket string
}

// NewFileStore connects to object storage and ensures the bucket exists.
func NewFileStore(ctx context.Context, cfg config.StorageConfig) (*FileStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return &FileStore{client: client, bucket: cfg.Bucket}, nil
}

func (s *FileStore) key(collectionID, fileName string) string {
	return collectionID + "/" + fileName
}

// Upload stores one file under the collection's prefix.
func (s *FileStore) Upload(ctx context.Context, collectionID, fileName string, r io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, s.key(collectionID, fileName), r, size,
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", fileName, err)
	}
	return nil
}

// List returns up to limit files under the collection's prefix, resuming
// after startAfter. LastEvalKey is set when a further page may exist.
func (s *FileStore) List(ctx context.Context, collectionID string, limit int, startAfter string) (*domain.FileListResponse, error) {
	prefix := collectionID + "/"
	opts := minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}
	if startAfter != "" {
		opts.StartAfter = prefix + startAfter
	}

	resp := &domain.FileListResponse{Files: []domain.FileRecord{}}
	for obj := range s.client.ListObjects(ctx, s.bucket, opts) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list files: %w", obj.Err)
		}
		resp.Files = append(resp.Files, domain.FileRecord{
			FileName:     strings.TrimPrefix(obj.Key, prefix),
			Size:         obj.Size,
			LastModified: obj.LastModified,
		})
		if len(resp.Files) == limit {
			resp.LastEvalKey = resp.Files[len(resp.Files)-1].FileName
			break
		}
	}

	return resp, nil
}

// Delete removes one file from the collection's prefix.
func (s *FileStore) Delete(ctx context.Context, collectionID, fileName string) error {
	err := s.client.RemoveObject(ctx, s.bucket, s.key(collectionID, fileName), minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", fileName, err)
	}
	return nil
}

// DeleteAll removes every file under the collection's prefix. Called when a
// collection is deleted.
func (s *FileStore) DeleteAll(ctx context.Context, collectionID string) error {
	prefix := collectionID + "/"
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return fmt.Errorf("failed to list files for cleanup: %w", obj.Err)
		}
		if err := s.client.RemoveObject(ctx, s.bucket, obj.Key, minio.RemoveObjectOptions{}); err != nil {
			return fmt.Errorf("failed to delete %s: %w", obj.Key, err)
		}
	}
	return nil
}
