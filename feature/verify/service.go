package verify

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"dataset-streamer/core/storage"
	"dataset-streamer/feature/dataset"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds parallel stat calls during verification.
const DefaultConcurrency = 8

// Problem describes one object that failed verification.
type Problem struct {
	// URI is the object's s3:// URI.
	URI string `json:"uri"`
	// Reason describes the failure (e.g. "missing", "empty object").
	Reason string `json:"reason"`
}

// Report is the outcome of a verification run.
type Report struct {
	// Checked is the number of objects examined.
	Checked int `json:"checked"`
	// OK is the number of objects that passed.
	OK int `json:"ok"`
	// TotalBytes is the combined size of the passing objects.
	TotalBytes int64 `json:"total_bytes"`
	// Problems lists every failing object, sorted by URI.
	Problems []Problem `json:"problems"`
	// GeneratedAt is the report creation time.
	GeneratedAt string `json:"generated_at"`
	// ExecutionTime is the wall-clock duration of the run.
	ExecutionTime string `json:"execution_time"`
}

// Passed reports whether the run found no problems.
func (r *Report) Passed() bool {
	return len(r.Problems) == 0
}

// Service verifies that a dataset selection is complete and readable before
// a training run starts. Unlike the streaming pipeline, which aborts on the
// first bad object, verification reports every problem it finds.
type Service struct {
	client      storage.Client
	logger      *zap.Logger
	concurrency int
}

// NewService creates a new verification service.
func NewService(client storage.Client, logger *zap.Logger, concurrency int) *Service {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Service{
		client:      client,
		logger:      logger,
		concurrency: concurrency,
	}
}

// VerifyObjects checks every URI in the list. Malformed URIs fail the whole
// call; missing or empty objects become report problems.
func (s *Service) VerifyObjects(ctx context.Context, uris []string) (*Report, error) {
	ids := make([]dataset.ObjectID, 0, len(uris))
	for _, uri := range uris {
		id, err := dataset.ParseURI(uri)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return s.verify(ctx, ids)
}

// VerifyPrefix checks every object under an s3://bucket/prefix URI. A prefix
// matching zero objects yields a passing, empty report.
func (s *Service) VerifyPrefix(ctx context.Context, uri string) (*Report, error) {
	ids, err := dataset.ListPrefix(ctx, s.client, uri)
	if err != nil {
		return nil, err
	}
	return s.verify(ctx, ids)
}

func (s *Service) verify(ctx context.Context, ids []dataset.ObjectID) (*Report, error) {
	startTime := time.Now()

	report := &Report{Checked: len(ids)}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for _, id := range ids {
		g.Go(func() error {
			info, err := s.client.StatObject(gctx, id.Bucket, id.Key, minio.StatObjectOptions{})

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				report.Problems = append(report.Problems, Problem{URI: id.String(), Reason: statReason(err)})
			case info.Size == 0:
				report.Problems = append(report.Problems, Problem{URI: id.String(), Reason: "empty object"})
			default:
				report.OK++
				report.TotalBytes += info.Size
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Sort problems by URI for deterministic output
	sort.Slice(report.Problems, func(i, j int) bool {
		return report.Problems[i].URI < report.Problems[j].URI
	})

	report.GeneratedAt = time.Now().Format(time.RFC3339)
	report.ExecutionTime = time.Since(startTime).String()

	s.logger.Info("Verification finished",
		zap.Int("checked", report.Checked),
		zap.Int("ok", report.OK),
		zap.Int("problems", len(report.Problems)),
	)
	return report, nil
}

func statReason(err error) string {
	resp := minio.ToErrorResponse(err)
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "missing"
	case resp.StatusCode == http.StatusForbidden:
		return "access denied"
	default:
		return fmt.Sprintf("stat failed: %v", err)
	}
}
