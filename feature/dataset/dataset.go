package dataset

import (
	"context"
	"io"
	"sync"
	"time"

	"dataset-streamer/core/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Transform converts a fetched object into the item the consumer wants.
// Transforms must be pure: the same object always yields the same item, with
// no side effects. A transform that fully consumes the object's stream is
// responsible for closing it.
type Transform[T any] func(*Object) (T, error)

// Identity passes the fetched object through unchanged. The consumer takes
// over stream ownership and must Close it.
func Identity(obj *Object) (*Object, error) {
	return obj, nil
}

// Bytes reads the whole object into memory and closes the stream.
func Bytes(obj *Object) ([]byte, error) {
	defer obj.Close()
	return io.ReadAll(obj)
}

// Option tunes dataset behavior.
type Option func(*options)

type options struct {
	window  int
	retries int
	backoff time.Duration
	logger  *zap.Logger
	client  storage.Client
}

// WithWindow sets the maximum number of concurrently in-flight fetches.
func WithWindow(w int) Option {
	return func(o *options) {
		if w > 0 {
			o.window = w
		}
	}
}

// WithRetries sets the retry budget for transient fetch errors.
func WithRetries(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.retries = n
		}
	}
}

// WithBackoff sets the initial retry backoff.
func WithBackoff(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.backoff = d
		}
	}
}

// WithLogger attaches a logger to the dataset.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithClient injects an existing storage client instead of lazily creating
// one from the storage config. The client must be safe for concurrent use.
func WithClient(c storage.Client) Option {
	return func(o *options) { o.client = c }
}

func buildOptions(opts []Option) options {
	o := options{
		window:  DefaultWindow,
		retries: DefaultRetries,
		backoff: DefaultBackoff,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// clientHandle lazily creates the shared storage client exactly once per
// dataset instance. Repeated iterations reuse the connection, never the data.
type clientHandle struct {
	cfg    storage.Config
	inject storage.Client

	once   sync.Once
	client storage.Client
	err    error
}

func (h *clientHandle) get() (storage.Client, error) {
	h.once.Do(func() {
		if h.inject != nil {
			h.client = h.inject
			return
		}
		h.client, h.err = storage.NewClient(h.cfg)
	})
	return h.client, h.err
}

// Dataset is a lazily-iterated, restartable sequence of transformed objects.
// Construct one with FromObjects or FromPrefix; each Iterate call re-runs
// selection and fetch from scratch.
type Dataset[T any] struct {
	sel       selector
	transform Transform[T]
	opts      options
	handle    *clientHandle
}

// FromObjects builds a dataset over an explicit list of s3://bucket/key URIs.
// Order follows the input; duplicates are preserved. Malformed URIs fail
// here, not during iteration.
func FromObjects[T any](store storage.Config, uris []string, transform Transform[T], opts ...Option) (*Dataset[T], error) {
	ids := make([]ObjectID, 0, len(uris))
	for _, uri := range uris {
		id, err := ParseURI(uri)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return newDataset(store, objectsSelector(ids), transform, opts), nil
}

// FromPrefix builds a dataset over every object under an s3://bucket/prefix
// URI. Listing order is store-reported (typically lexicographic by key, but
// that is a property of the store, not a guarantee made here). The listing
// call happens lazily on first iteration.
func FromPrefix[T any](store storage.Config, uri string, transform Transform[T], opts ...Option) (*Dataset[T], error) {
	bucket, prefix, err := parsePrefixURI(uri)
	if err != nil {
		return nil, err
	}
	return newDataset(store, prefixSelector(bucket, prefix), transform, opts), nil
}

func newDataset[T any](store storage.Config, sel selector, transform Transform[T], opts []Option) *Dataset[T] {
	o := buildOptions(opts)
	return &Dataset[T]{
		sel:       sel,
		transform: transform,
		opts:      o,
		handle:    &clientHandle{cfg: store, inject: o.client},
	}
}

// Iterate starts a fresh iteration run. Each call is independent: selection
// and fetch re-run from scratch, sharing only the memoized client handle.
// The returned iterator is single-consumer and must be Closed if abandoned
// before exhaustion.
func (d *Dataset[T]) Iterate(ctx context.Context) (*Iterator[T], error) {
	client, err := d.handle.get()
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	log := d.opts.logger.With(zap.String("run_id", uuid.NewString()))
	log.Debug("starting iteration")

	cfg := pipelineConfig{
		window:  d.opts.window,
		retries: d.opts.retries,
		backoff: d.opts.backoff,
		logger:  log,
	}
	results := runFetch(runCtx, client, d.sel(runCtx, client), cfg)

	return &Iterator[T]{
		results:   results,
		transform: d.transform,
		cancel:    cancel,
		log:       log,
	}, nil
}

// Iterator yields transformed items in the exact order the selector produced
// their IDs, regardless of fetch completion order. Not safe for concurrent
// use; concurrent consumers need separate Iterate calls.
type Iterator[T any] struct {
	results   <-chan chan fetchResult
	transform Transform[T]
	cancel    context.CancelFunc
	log       *zap.Logger
	done      bool
}

// Next returns the next item. It blocks while waiting for the next in-order
// fetch, returns io.EOF after the sequence is exhausted, and returns a typed
// error (FetchError, TransformError, StoreUnavailableError) on abort. Any
// error is terminal for this iterator.
func (it *Iterator[T]) Next() (T, error) {
	var zero T
	if it.done {
		return zero, io.EOF
	}

	ch, ok := <-it.results
	if !ok {
		it.stop()
		return zero, io.EOF
	}

	res := <-ch
	if res.err != nil {
		it.stop()
		return zero, res.err
	}

	item, err := it.transform(res.obj)
	if err != nil {
		_ = res.obj.Close()
		it.stop()
		return zero, &TransformError{ID: res.obj.ID, Err: err}
	}

	return item, nil
}

// Close cancels in-flight fetches and releases their streams. Safe to call
// multiple times and after exhaustion.
func (it *Iterator[T]) Close() error {
	it.stop()
	return nil
}

func (it *Iterator[T]) stop() {
	if it.done {
		return
	}
	it.done = true
	it.cancel()
	go drainFetch(it.results)
	it.log.Debug("iteration stopped")
}
