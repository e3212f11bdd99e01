package dataset

import (
	"context"
	"fmt"
	"sync"

	"dataset-streamer/core/storage"
)

// MapDataset is the random-access counterpart of Dataset: it resolves the
// full ID listing once, then fetches individual objects by index on demand.
// Suited to samplers that shuffle or shard by index.
type MapDataset[T any] struct {
	sel       selector
	transform Transform[T]
	opts      options
	handle    *clientHandle

	mu  sync.Mutex
	ids []ObjectID
}

// MapFromObjects builds a map-style dataset over an explicit URI list.
func MapFromObjects[T any](store storage.Config, uris []string, transform Transform[T], opts ...Option) (*MapDataset[T], error) {
	ids := make([]ObjectID, 0, len(uris))
	for _, uri := range uris {
		id, err := ParseURI(uri)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return newMapDataset(store, objectsSelector(ids), transform, opts), nil
}

// MapFromPrefix builds a map-style dataset over every object under an
// s3://bucket/prefix URI. The listing happens lazily on first access and is
// memoized for the dataset's lifetime; construct a new dataset to re-list.
func MapFromPrefix[T any](store storage.Config, uri string, transform Transform[T], opts ...Option) (*MapDataset[T], error) {
	bucket, prefix, err := parsePrefixURI(uri)
	if err != nil {
		return nil, err
	}
	return newMapDataset(store, prefixSelector(bucket, prefix), transform, opts), nil
}

func newMapDataset[T any](store storage.Config, sel selector, transform Transform[T], opts []Option) *MapDataset[T] {
	o := buildOptions(opts)
	return &MapDataset[T]{
		sel:       sel,
		transform: transform,
		opts:      o,
		handle:    &clientHandle{cfg: store, inject: o.client},
	}
}

// Len returns the number of objects in the dataset, resolving the listing on
// first call.
func (d *MapDataset[T]) Len(ctx context.Context) (int, error) {
	ids, err := d.resolve(ctx)
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

// At fetches and transforms the i-th object. Fetches follow the same retry
// policy as streaming iteration.
func (d *MapDataset[T]) At(ctx context.Context, i int) (T, error) {
	var zero T

	ids, err := d.resolve(ctx)
	if err != nil {
		return zero, err
	}
	if i < 0 || i >= len(ids) {
		return zero, fmt.Errorf("index %d out of range [0, %d)", i, len(ids))
	}

	client, err := d.handle.get()
	if err != nil {
		return zero, err
	}

	cfg := pipelineConfig{
		window:  d.opts.window,
		retries: d.opts.retries,
		backoff: d.opts.backoff,
		logger:  d.opts.logger,
	}
	obj, err := fetchObject(ctx, client, ids[i], cfg)
	if err != nil {
		return zero, err
	}

	item, err := d.transform(obj)
	if err != nil {
		_ = obj.Close()
		return zero, &TransformError{ID: obj.ID, Err: err}
	}
	return item, nil
}

// resolve collects and memoizes the ID listing.
func (d *MapDataset[T]) resolve(ctx context.Context) ([]ObjectID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.ids != nil {
		return d.ids, nil
	}

	client, err := d.handle.get()
	if err != nil {
		return nil, err
	}

	var ids []ObjectID
	for ent := range d.sel(ctx, client) {
		if ent.err != nil {
			return nil, ent.err
		}
		ids = append(ids, ent.id)
	}

	if ids == nil {
		ids = []ObjectID{}
	}
	d.ids = ids
	return ids, nil
}
