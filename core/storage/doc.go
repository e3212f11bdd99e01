// Package storage provides an abstraction layer for object storage services.
//
// It wraps the MinIO Go client to provide a simplified interface for the
// operations the dataset pipeline consumes: listing, streamed reads with
// metadata, stat, and the write/delete operations used by checkpointing.
// This abstraction supports both AWS S3 and self-hosted MinIO instances.
//
// # Client Interface
//
// The Client interface abstracts the underlying storage provider, making it
// easier to mock storage interactions for unit testing (as seen in
// core/storage/mocks). The minio client is safe for concurrent use, so a
// single Client may be shared by multiple dataset iterations.
//
// # Operations
//
//   - BucketExists: Verifies access to the target bucket.
//   - MakeBucket: Creates a new bucket if needed.
//   - GetObject: Retrieves content as a stream plus size/content-type metadata.
//   - StatObject: Retrieves metadata without the body.
//   - ListObjects: Lists objects in a bucket (supports prefix/recursive).
//   - PutObject / RemoveObject: Uploads and deletes (checkpoint feature).
//
// # Usage
//
//	client, err := storage.NewClient(config)
//	rc, info, err := client.GetObject(ctx, "datasets", "train/shard-0000.bin", minio.GetObjectOptions{})
package storage
