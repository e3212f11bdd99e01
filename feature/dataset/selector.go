package dataset

import (
	"context"

	"dataset-streamer/core/storage"

	"github.com/minio/minio-go/v7"
)

// ListPrefix resolves every ObjectID under an s3://bucket/prefix URI using
// the given client, in store-reported order. It is a convenience for tooling
// that needs the raw ID listing rather than a dataset.
func ListPrefix(ctx context.Context, client storage.Client, uri string) ([]ObjectID, error) {
	bucket, prefix, err := parsePrefixURI(uri)
	if err != nil {
		return nil, err
	}

	ids := []ObjectID{}
	for ent := range prefixSelector(bucket, prefix)(ctx, client) {
		if ent.err != nil {
			return nil, ent.err
		}
		ids = append(ids, ent.id)
	}
	return ids, nil
}

// entry pairs an ObjectID with a listing error. At most one entry carries an
// error, and it is always the last one emitted.
type entry struct {
	id  ObjectID
	err error
}

// A selector lazily produces the ordered ObjectID sequence for one iteration
// run. Invoking it starts a fresh run; no state survives between invocations.
type selector func(ctx context.Context, client storage.Client) <-chan entry

// objectsSelector yields a fixed, pre-parsed ID list in input order.
// Duplicates are preserved as given.
func objectsSelector(ids []ObjectID) selector {
	return func(ctx context.Context, _ storage.Client) <-chan entry {
		ch := make(chan entry)
		go func() {
			defer close(ch)
			for _, id := range ids {
				select {
				case ch <- entry{id: id}:
				case <-ctx.Done():
					return
				}
			}
		}()
		return ch
	}
}

// prefixSelector yields every object under the prefix in store-reported
// order. The listing request is only issued once the channel is consumed, so
// dataset construction stays free of store round-trips.
func prefixSelector(bucket, prefix string) selector {
	return func(ctx context.Context, client storage.Client) <-chan entry {
		ch := make(chan entry)
		go func() {
			defer close(ch)
			opts := minio.ListObjectsOptions{
				Prefix:    prefix,
				Recursive: true,
			}
			for info := range client.ListObjects(ctx, bucket, opts) {
				if info.Err != nil {
					select {
					case ch <- entry{err: &StoreUnavailableError{Bucket: bucket, Prefix: prefix, Err: info.Err}}:
					case <-ctx.Done():
					}
					return
				}
				select {
				case ch <- entry{id: ObjectID{Bucket: bucket, Key: info.Key}}:
				case <-ctx.Done():
					return
				}
			}
		}()
		return ch
	}
}
