package dataset_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"dataset-streamer/core/storage"
	"dataset-streamer/feature/dataset"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClient is an instrumented in-memory storage.Client. It tracks the
// number of concurrently open GetObject calls so tests can verify the
// pipeline's concurrency window.
type fakeClient struct {
	mu          sync.Mutex
	objects     map[string]map[string][]byte // bucket -> key -> payload
	getErrs     map[string][]error           // key -> queued errors, popped per call
	listErr     error
	getDelay    time.Duration
	gets        int
	lists       int
	inflight    int
	maxInflight int
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		objects: make(map[string]map[string][]byte),
		getErrs: make(map[string][]error),
	}
}

func (f *fakeClient) put(bucket, key string, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.objects[bucket] == nil {
		f.objects[bucket] = make(map[string][]byte)
	}
	f.objects[bucket][key] = data
}

func (f *fakeClient) peakInflight() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.maxInflight
}

func (f *fakeClient) failGet(key string, errs ...error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getErrs[key] = append(f.getErrs[key], errs...)
}

func (f *fakeClient) BucketExists(ctx context.Context, bucket string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[bucket]
	return ok, nil
}

func (f *fakeClient) MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error {
	f.put(bucket, "", nil)
	f.mu.Lock()
	delete(f.objects[bucket], "")
	f.mu.Unlock()
	return nil
}

func (f *fakeClient) GetObject(ctx context.Context, bucket, key string, opts minio.GetObjectOptions) (io.ReadCloser, minio.ObjectInfo, error) {
	f.mu.Lock()
	f.gets++
	f.inflight++
	if f.inflight > f.maxInflight {
		f.maxInflight = f.inflight
	}
	var err error
	if q := f.getErrs[key]; len(q) > 0 {
		err, f.getErrs[key] = q[0], q[1:]
	}
	data, ok := f.objects[bucket][key]
	delay := f.getDelay
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}

	f.mu.Lock()
	f.inflight--
	f.mu.Unlock()

	if err != nil {
		return nil, minio.ObjectInfo{}, err
	}
	if !ok {
		return nil, minio.ObjectInfo{}, minio.ErrorResponse{Code: "NoSuchKey", StatusCode: 404, Message: "The specified key does not exist."}
	}

	info := minio.ObjectInfo{
		Key:          key,
		Size:         int64(len(data)),
		ContentType:  "application/octet-stream",
		ETag:         fmt.Sprintf("etag-%s", key),
		LastModified: time.Unix(0, 0),
	}
	return io.NopCloser(bytes.NewReader(data)), info, nil
}

func (f *fakeClient) StatObject(ctx context.Context, bucket, key string, opts minio.StatObjectOptions) (minio.ObjectInfo, error) {
	f.mu.Lock()
	data, ok := f.objects[bucket][key]
	f.mu.Unlock()
	if !ok {
		return minio.ObjectInfo{}, minio.ErrorResponse{Code: "NoSuchKey", StatusCode: 404}
	}
	return minio.ObjectInfo{Key: key, Size: int64(len(data))}, nil
}

func (f *fakeClient) ListObjects(ctx context.Context, bucket string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo {
	ch := make(chan minio.ObjectInfo)
	go func() {
		defer close(ch)

		f.mu.Lock()
		f.lists++
		err := f.listErr
		var keys []string
		for key := range f.objects[bucket] {
			if strings.HasPrefix(key, opts.Prefix) {
				keys = append(keys, key)
			}
		}
		f.mu.Unlock()

		if err != nil {
			ch <- minio.ObjectInfo{Err: err}
			return
		}

		sort.Strings(keys)
		for _, key := range keys {
			f.mu.Lock()
			size := int64(len(f.objects[bucket][key]))
			f.mu.Unlock()
			select {
			case ch <- minio.ObjectInfo{Key: key, Size: size}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}

func (f *fakeClient) PutObject(ctx context.Context, bucket, key string, reader io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return minio.UploadInfo{}, err
	}
	f.put(bucket, key, data)
	return minio.UploadInfo{Bucket: bucket, Key: key, Size: int64(len(data))}, nil
}

func (f *fakeClient) RemoveObject(ctx context.Context, bucket, key string, opts minio.RemoveObjectOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects[bucket], key)
	return nil
}

// collect drains an iterator into a slice of byte payloads.
func collect(t *testing.T, it *dataset.Iterator[[]byte]) ([][]byte, error) {
	t.Helper()
	var items [][]byte
	for {
		item, err := it.Next()
		if err == io.EOF {
			return items, nil
		}
		if err != nil {
			return items, err
		}
		items = append(items, item)
	}
}

func seedObjects(fake *fakeClient, bucket string, n int) []string {
	uris := make([]string, 0, n)
	for i := 0; i < n; i++ {
		key := fmt.Sprintf("shards/shard-%04d.bin", i)
		fake.put(bucket, key, []byte(fmt.Sprintf("payload-%04d", i)))
		uris = append(uris, fmt.Sprintf("s3://%s/%s", bucket, key))
	}
	return uris
}

func TestIterate_OrderAndContent(t *testing.T) {
	fake := newFakeClient()
	fake.getDelay = 2 * time.Millisecond
	uris := seedObjects(fake, "train", 20)

	ds, err := dataset.FromObjects(storage.Config{}, uris, dataset.Bytes,
		dataset.WithClient(fake), dataset.WithWindow(4))
	require.NoError(t, err)

	it, err := ds.Iterate(context.Background())
	require.NoError(t, err)
	defer it.Close()

	items, err := collect(t, it)
	require.NoError(t, err)
	require.Len(t, items, 20)
	for i, item := range items {
		assert.Equal(t, fmt.Sprintf("payload-%04d", i), string(item))
	}
}

func TestIterate_Restart(t *testing.T) {
	fake := newFakeClient()
	uris := seedObjects(fake, "train", 5)

	ds, err := dataset.FromObjects(storage.Config{}, uris, dataset.Bytes, dataset.WithClient(fake))
	require.NoError(t, err)

	var runs [][][]byte
	for i := 0; i < 2; i++ {
		it, err := ds.Iterate(context.Background())
		require.NoError(t, err)
		items, err := collect(t, it)
		require.NoError(t, err)
		it.Close()
		runs = append(runs, items)
	}

	assert.Equal(t, runs[0], runs[1])

	// Exhausted iterators keep returning EOF, not an error.
	it, err := ds.Iterate(context.Background())
	require.NoError(t, err)
	_, err = collect(t, it)
	require.NoError(t, err)
	_, err = it.Next()
	assert.Equal(t, io.EOF, err)
}

func TestIterate_WindowBound(t *testing.T) {
	fake := newFakeClient()
	fake.getDelay = 2 * time.Millisecond
	uris := seedObjects(fake, "train", 50)

	ds, err := dataset.FromObjects(storage.Config{}, uris, dataset.Bytes,
		dataset.WithClient(fake), dataset.WithWindow(4))
	require.NoError(t, err)

	it, err := ds.Iterate(context.Background())
	require.NoError(t, err)
	defer it.Close()

	items, err := collect(t, it)
	require.NoError(t, err)
	assert.Len(t, items, 50)
	assert.LessOrEqual(t, fake.peakInflight(), 4, "concurrent GetObject calls exceeded the window")
}

func TestIterate_TransientRecovered(t *testing.T) {
	fake := newFakeClient()
	uris := seedObjects(fake, "train", 10)
	// Two transient failures on the 4th object, recovered within the budget.
	fake.failGet("shards/shard-0003.bin",
		minio.ErrorResponse{Code: "SlowDown", StatusCode: 503},
		minio.ErrorResponse{Code: "InternalError", StatusCode: 500},
	)

	ds, err := dataset.FromObjects(storage.Config{}, uris, dataset.Bytes,
		dataset.WithClient(fake), dataset.WithRetries(3), dataset.WithBackoff(time.Millisecond))
	require.NoError(t, err)

	it, err := ds.Iterate(context.Background())
	require.NoError(t, err)
	defer it.Close()

	items, err := collect(t, it)
	require.NoError(t, err)
	require.Len(t, items, 10)
	for i, item := range items {
		assert.Equal(t, fmt.Sprintf("payload-%04d", i), string(item))
	}
}

func TestIterate_RetriesExhausted(t *testing.T) {
	fake := newFakeClient()
	uris := seedObjects(fake, "train", 3)
	transient := minio.ErrorResponse{Code: "SlowDown", StatusCode: 503}
	fake.failGet("shards/shard-0001.bin", transient, transient, transient)

	ds, err := dataset.FromObjects(storage.Config{}, uris, dataset.Bytes,
		dataset.WithClient(fake), dataset.WithRetries(2), dataset.WithBackoff(time.Millisecond))
	require.NoError(t, err)

	it, err := ds.Iterate(context.Background())
	require.NoError(t, err)
	defer it.Close()

	items, err := collect(t, it)
	require.Error(t, err)
	var fetchErr *dataset.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, "shards/shard-0001.bin", fetchErr.ID.Key)
	assert.Len(t, items, 1)
}

func TestIterate_PermanentAborts(t *testing.T) {
	fake := newFakeClient()
	fake.getDelay = time.Millisecond
	uris := seedObjects(fake, "train", 10)
	k := 6
	fake.mu.Lock()
	delete(fake.objects["train"], fmt.Sprintf("shards/shard-%04d.bin", k))
	fake.mu.Unlock()

	ds, err := dataset.FromObjects(storage.Config{}, uris, dataset.Bytes,
		dataset.WithClient(fake), dataset.WithWindow(3))
	require.NoError(t, err)

	it, err := ds.Iterate(context.Background())
	require.NoError(t, err)
	defer it.Close()

	items, err := collect(t, it)
	var fetchErr *dataset.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, fmt.Sprintf("shards/shard-%04d.bin", k), fetchErr.ID.Key)

	// Exactly the earlier in-order items were emitted, in order.
	require.Len(t, items, k)
	for i, item := range items {
		assert.Equal(t, fmt.Sprintf("payload-%04d", i), string(item))
	}

	// The iterator is terminal after the failure.
	_, err = it.Next()
	assert.Equal(t, io.EOF, err)
}

func TestIterate_TransformError(t *testing.T) {
	fake := newFakeClient()
	uris := seedObjects(fake, "train", 5)

	boom := errors.New("bad record")
	transform := func(obj *dataset.Object) ([]byte, error) {
		if obj.ID.Key == "shards/shard-0002.bin" {
			return nil, boom
		}
		return dataset.Bytes(obj)
	}

	ds, err := dataset.FromObjects(storage.Config{}, uris, transform, dataset.WithClient(fake))
	require.NoError(t, err)

	it, err := ds.Iterate(context.Background())
	require.NoError(t, err)
	defer it.Close()

	items, err := collect(t, it)
	var trErr *dataset.TransformError
	require.ErrorAs(t, err, &trErr)
	assert.Equal(t, "shards/shard-0002.bin", trErr.ID.Key)
	assert.ErrorIs(t, err, boom)
	assert.Len(t, items, 2)
}

func TestIterate_EarlyClose(t *testing.T) {
	fake := newFakeClient()
	fake.getDelay = time.Millisecond
	uris := seedObjects(fake, "train", 30)

	ds, err := dataset.FromObjects(storage.Config{}, uris, dataset.Bytes,
		dataset.WithClient(fake), dataset.WithWindow(4))
	require.NoError(t, err)

	it, err := ds.Iterate(context.Background())
	require.NoError(t, err)

	first, err := it.Next()
	require.NoError(t, err)
	assert.Equal(t, "payload-0000", string(first))

	require.NoError(t, it.Close())
	_, err = it.Next()
	assert.Equal(t, io.EOF, err)
}

func TestFromPrefix(t *testing.T) {
	fake := newFakeClient()
	seedObjects(fake, "train", 6)
	fake.put("train", "other/readme.txt", []byte("not a shard"))

	t.Run("ListsOnlyPrefix", func(t *testing.T) {
		ds, err := dataset.FromPrefix(storage.Config{}, "s3://train/shards/", dataset.Bytes, dataset.WithClient(fake))
		require.NoError(t, err)

		it, err := ds.Iterate(context.Background())
		require.NoError(t, err)
		defer it.Close()

		items, err := collect(t, it)
		require.NoError(t, err)
		assert.Len(t, items, 6)
	})

	t.Run("EmptyPrefixYieldsEmptySequence", func(t *testing.T) {
		ds, err := dataset.FromPrefix(storage.Config{}, "s3://train/missing/", dataset.Bytes, dataset.WithClient(fake))
		require.NoError(t, err)

		it, err := ds.Iterate(context.Background())
		require.NoError(t, err)
		defer it.Close()

		items, err := collect(t, it)
		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("ListingFailureSurfacesLazily", func(t *testing.T) {
		failing := newFakeClient()
		failing.listErr = minio.ErrorResponse{Code: "InternalError", StatusCode: 500}

		// Construction must not touch the store.
		ds, err := dataset.FromPrefix(storage.Config{}, "s3://train/shards/", dataset.Bytes, dataset.WithClient(failing))
		require.NoError(t, err)
		assert.Zero(t, failing.lists)

		it, err := ds.Iterate(context.Background())
		require.NoError(t, err)
		defer it.Close()

		_, err = it.Next()
		var unavailable *dataset.StoreUnavailableError
		require.ErrorAs(t, err, &unavailable)
		assert.Equal(t, "train", unavailable.Bucket)
	})
}

func TestFromObjects_ExampleScenario(t *testing.T) {
	fake := newFakeClient()
	fake.put("b", "a.bin", bytes.Repeat([]byte{0xAA}, 10))
	fake.put("b", "b.bin", bytes.Repeat([]byte{0xBB}, 10))

	ds, err := dataset.FromObjects(storage.Config{Region: "us-east-1"},
		[]string{"s3://b/a.bin", "s3://b/b.bin"}, dataset.Identity, dataset.WithClient(fake))
	require.NoError(t, err)

	it, err := ds.Iterate(context.Background())
	require.NoError(t, err)
	defer it.Close()

	var got []*dataset.Object
	for {
		obj, err := it.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		got = append(got, obj)
	}

	require.Len(t, got, 2)
	assert.Equal(t, "a.bin", got[0].ID.Key)
	assert.Equal(t, "b.bin", got[1].ID.Key)
	for _, obj := range got {
		assert.Equal(t, int64(10), obj.Size)
		data, err := io.ReadAll(obj)
		require.NoError(t, err)
		assert.Len(t, data, 10)
		require.NoError(t, obj.Close())
	}
}

func TestFromObjects_InvalidURI(t *testing.T) {
	cases := []struct {
		name string
		uris []string
	}{
		{"NoScheme", []string{"train/shard.bin"}},
		{"MissingKey", []string{"s3://train"}},
		{"MissingBucket", []string{"s3:///shard.bin"}},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			_, err := dataset.FromObjects(storage.Config{}, tt.uris, dataset.Bytes)
			var spec *dataset.InvalidSpecError
			assert.ErrorAs(t, err, &spec)
		})
	}
}
