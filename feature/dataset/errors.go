package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"syscall"

	"github.com/minio/minio-go/v7"
)

// InvalidSpecError reports a malformed dataset selection (bad URI, missing
// bucket or key). It is raised at construction time, never during iteration.
type InvalidSpecError struct {
	URI    string
	Reason string
}

func (e *InvalidSpecError) Error() string {
	return fmt.Sprintf("invalid object spec %q: %s", e.URI, e.Reason)
}

// StoreUnavailableError reports a failed listing call. It surfaces lazily on
// the first pull of a prefix-selected iteration.
type StoreUnavailableError struct {
	Bucket string
	Prefix string
	Err    error
}

func (e *StoreUnavailableError) Error() string {
	return fmt.Sprintf("listing s3://%s/%s failed: %v", e.Bucket, e.Prefix, e.Err)
}

func (e *StoreUnavailableError) Unwrap() error { return e.Err }

// FetchError reports a permanent fetch failure (or a transient failure that
// exhausted its retry budget). It aborts the iteration.
type FetchError struct {
	ID  ObjectID
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching %s: %v", e.ID, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// TransformError reports a failed user transform. Transforms are assumed
// pure, so a failure indicates a logic or data error and is never retried.
type TransformError struct {
	ID  ObjectID
	Err error
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("transforming %s: %v", e.ID, e.Err)
}

func (e *TransformError) Unwrap() error { return e.Err }

// isTransient classifies an error as worth retrying. Cancellation is final;
// server-side 5xx/timeout/throttle responses and connection-level resets are
// transient; everything else (NoSuchKey, AccessDenied, ...) is permanent.
func isTransient(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	resp := minio.ToErrorResponse(err)
	if resp.StatusCode != 0 {
		switch resp.StatusCode {
		case http.StatusRequestTimeout,
			http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
		return resp.Code == "SlowDown" || resp.Code == "RequestTimeout"
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	return errors.Is(err, syscall.ECONNRESET) || errors.Is(err, io.ErrUnexpectedEOF)
}
