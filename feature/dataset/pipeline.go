package dataset

import (
	"context"
	"math/rand"
	"time"

	"dataset-streamer/core/storage"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// fetchResult carries one fetched object, or the error that ends the run.
type fetchResult struct {
	obj *Object
	err error
}

type pipelineConfig struct {
	window  int
	retries int
	backoff time.Duration
	logger  *zap.Logger
}

// runFetch drives the windowed fetch of the ID sequence. It returns a channel
// of single-result channels: the outer channel preserves input order while
// each inner channel is filled by its own fetch goroutine, so results can
// complete out of order yet are always consumed in order.
//
// The semaphore bounds concurrently open GetObject calls to cfg.window; the
// outer channel's buffer keeps dispatch at most one window ahead of the
// consumer. Every channel placed on the outer channel is guaranteed to
// receive exactly one result, which lets drainFetch release leftover streams
// after cancellation.
func runFetch(ctx context.Context, client storage.Client, ids <-chan entry, cfg pipelineConfig) <-chan chan fetchResult {
	results := make(chan chan fetchResult, cfg.window)
	sem := make(chan struct{}, cfg.window)

	go func() {
		defer close(results)
		for ent := range ids {
			if ent.err != nil {
				ch := make(chan fetchResult, 1)
				ch <- fetchResult{err: ent.err}
				select {
				case results <- ch:
				case <-ctx.Done():
				}
				return
			}

			ch := make(chan fetchResult, 1)
			select {
			case results <- ch:
			case <-ctx.Done():
				return
			}

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				ch <- fetchResult{err: ctx.Err()}
				return
			}

			go func(id ObjectID, out chan<- fetchResult) {
				defer func() { <-sem }()
				obj, err := fetchObject(ctx, client, id, cfg)
				out <- fetchResult{obj: obj, err: err}
			}(ent.id, ch)
		}
	}()

	return results
}

// drainFetch consumes whatever the pipeline still holds after a stop and
// closes any streams that were fetched but never delivered.
func drainFetch(results <-chan chan fetchResult) {
	for ch := range results {
		if res := <-ch; res.obj != nil {
			_ = res.obj.Close()
		}
	}
}

// fetchObject issues a single GetObject with the retry policy: transient
// errors get up to cfg.retries additional attempts with jittered exponential
// backoff, permanent errors surface immediately.
func fetchObject(ctx context.Context, client storage.Client, id ObjectID, cfg pipelineConfig) (*Object, error) {
	delay := cfg.backoff
	var lastErr error

	for attempt := 0; attempt <= cfg.retries; attempt++ {
		if attempt > 0 {
			if err := sleepContext(ctx, withJitter(delay)); err != nil {
				return nil, &FetchError{ID: id, Err: err}
			}
			delay *= 2
			if delay > maxBackoff {
				delay = maxBackoff
			}
		}

		rc, info, err := client.GetObject(ctx, id.Bucket, id.Key, minio.GetObjectOptions{})
		if err == nil {
			return &Object{
				ID:           id,
				Size:         info.Size,
				ContentType:  info.ContentType,
				ETag:         info.ETag,
				LastModified: info.LastModified,
				body:         rc,
			}, nil
		}

		if !isTransient(err) {
			return nil, &FetchError{ID: id, Err: err}
		}

		lastErr = err
		cfg.logger.Debug("transient fetch error, retrying",
			zap.String("object", id.String()),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
	}

	return nil, &FetchError{ID: id, Err: lastErr}
}

// withJitter spreads retry delays by up to 50% to avoid thundering herds.
func withJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return d
	}
	return d + time.Duration(rand.Int63n(int64(d)/2+1))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
