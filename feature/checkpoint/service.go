package checkpoint

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"dataset-streamer/core/storage"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// prefix under which all checkpoints live in the bucket.
const keyPrefix = "checkpoints"

// timestampLayout orders checkpoint keys chronologically when sorted
// lexicographically.
const timestampLayout = "20060102-150405"

// Info describes a stored checkpoint.
type Info struct {
	// Key is the full object key of the checkpoint.
	Key string `json:"key"`
	// Size is the checkpoint size in bytes.
	Size int64 `json:"size"`
	// LastModified is the upload time reported by the store.
	LastModified time.Time `json:"last_modified"`
}

// Service persists and retrieves training checkpoints in object storage.
type Service struct {
	client storage.Client
	bucket string
	logger *zap.Logger
}

// NewService creates a new checkpoint service.
func NewService(client storage.Client, bucket string, logger *zap.Logger) *Service {
	return &Service{
		client: client,
		bucket: bucket,
		logger: logger,
	}
}

// Save uploads a checkpoint under a timestamped key and returns that key.
// Pass size -1 when the length is unknown.
func (s *Service) Save(ctx context.Context, name string, r io.Reader, size int64) (string, error) {
	if err := s.ensureBucket(ctx); err != nil {
		return "", err
	}

	key := s.buildKey(name)
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload checkpoint %s: %w", key, err)
	}

	s.logger.Info("Checkpoint saved", zap.String("key", key), zap.Int64("size", size))
	return key, nil
}

// Writer returns a streaming writer for a new checkpoint. The upload runs in
// the background while the caller writes; Close flushes and waits for the
// upload to finish. Key reports the destination key.
func (s *Service) Writer(ctx context.Context, name string) (*Writer, error) {
	if err := s.ensureBucket(ctx); err != nil {
		return nil, err
	}

	key := s.buildKey(name)
	pr, pw := io.Pipe()
	done := make(chan error, 1)

	go func() {
		_, err := s.client.PutObject(ctx, s.bucket, key, pr, -1, minio.PutObjectOptions{
			ContentType: "application/octet-stream",
		})
		if err != nil {
			// Unblock the writer side if the upload dies mid-stream.
			pr.CloseWithError(err)
		}
		done <- err
	}()

	return &Writer{pw: pw, done: done, key: key}, nil
}

// Load opens a checkpoint by key.
func (s *Service) Load(ctx context.Context, key string) (io.ReadCloser, Info, error) {
	rc, info, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, Info{}, fmt.Errorf("failed to load checkpoint %s: %w", key, err)
	}
	return rc, Info{Key: key, Size: info.Size, LastModified: info.LastModified}, nil
}

// Latest opens the most recent checkpoint saved under name.
func (s *Service) Latest(ctx context.Context, name string) (io.ReadCloser, Info, error) {
	infos, err := s.List(ctx, name)
	if err != nil {
		return nil, Info{}, err
	}
	if len(infos) == 0 {
		return nil, Info{}, fmt.Errorf("no checkpoints found for %q", name)
	}
	return s.Load(ctx, infos[0].Key)
}

// List returns the checkpoints saved under name, newest first.
func (s *Service) List(ctx context.Context, name string) ([]Info, error) {
	prefix := keyPrefix + "/" + name + "/"

	var infos []Info
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list checkpoints: %w", obj.Err)
		}
		infos = append(infos, Info{Key: obj.Key, Size: obj.Size, LastModified: obj.LastModified})
	}

	// Timestamped keys sort chronologically, so reverse-lexicographic is
	// newest first.
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Key > infos[j].Key
	})

	return infos, nil
}

// Prune keeps the newest `keep` checkpoints under name and deletes the rest.
// Deletion is per-object rather than bulk for MinIO compatibility.
func (s *Service) Prune(ctx context.Context, name string, keep int) (int, error) {
	if keep < 0 {
		keep = 0
	}

	infos, err := s.List(ctx, name)
	if err != nil {
		return 0, err
	}
	if len(infos) <= keep {
		return 0, nil
	}

	deleted := 0
	for _, info := range infos[keep:] {
		if err := s.client.RemoveObject(ctx, s.bucket, info.Key, minio.RemoveObjectOptions{}); err != nil {
			return deleted, fmt.Errorf("failed to delete checkpoint %s: %w", info.Key, err)
		}
		deleted++
	}

	s.logger.Info("Pruned old checkpoints",
		zap.String("name", name),
		zap.Int("kept", keep),
		zap.Int("deleted", deleted),
	)
	return deleted, nil
}

func (s *Service) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", s.bucket, err)
	}
	return nil
}

func (s *Service) buildKey(name string) string {
	name = strings.Trim(name, "/")
	return fmt.Sprintf("%s/%s/%s.ckpt", keyPrefix, name, time.Now().UTC().Format(timestampLayout))
}

// Writer streams a checkpoint into object storage.
type Writer struct {
	pw   *io.PipeWriter
	done chan error
	key  string
}

// Key returns the destination object key.
func (w *Writer) Key() string { return w.key }

// Write passes bytes through to the background upload.
func (w *Writer) Write(p []byte) (int, error) {
	return w.pw.Write(p)
}

// Close finishes the stream and waits for the upload to complete.
func (w *Writer) Close() error {
	if err := w.pw.Close(); err != nil {
		return err
	}
	return <-w.done
}
