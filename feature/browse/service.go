package browse

import (
	"context"
	"fmt"
	"io"
	"time"

	"dataset-streamer/core/storage"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// DefaultListLimit caps listing responses when the client asks for no limit.
const DefaultListLimit = 1000

// ObjectSummary describes one listed object.
type ObjectSummary struct {
	// Key is the object key within the bucket.
	Key string `json:"key"`
	// Size is the object size in bytes.
	Size int64 `json:"size"`
	// LastModified is the modification time reported by the store.
	LastModified time.Time `json:"last_modified"`
}

// Service exposes bucket inspection operations.
type Service struct {
	client storage.Client
	bucket string
	logger *zap.Logger
}

// NewService creates a new browse service.
func NewService(client storage.Client, bucket string, logger *zap.Logger) *Service {
	return &Service{
		client: client,
		bucket: bucket,
		logger: logger,
	}
}

// List returns up to limit objects under the prefix.
func (s *Service) List(ctx context.Context, prefix string, recursive bool, limit int) ([]ObjectSummary, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	// Cancel the listing once we have enough results.
	listCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	opts := minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: recursive,
	}

	summaries := []ObjectSummary{}
	for info := range s.client.ListObjects(listCtx, s.bucket, opts) {
		if info.Err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", info.Err)
		}
		summaries = append(summaries, ObjectSummary{
			Key:          info.Key,
			Size:         info.Size,
			LastModified: info.LastModified,
		})
		if len(summaries) >= limit {
			break
		}
	}

	return summaries, nil
}

// Open streams a single object with its metadata.
func (s *Service) Open(ctx context.Context, key string) (io.ReadCloser, minio.ObjectInfo, error) {
	return s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
}
