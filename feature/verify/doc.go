// Package verify provides pre-flight dataset verification.
//
// The streaming pipeline is fail-fast: one bad object aborts the epoch.
// Verification is the diagnostic counterpart, run before training starts:
// it stats every object in a selection with bounded concurrency and reports
// every problem it finds (missing objects, access failures, empty objects)
// instead of stopping at the first one.
//
// # HTTP Endpoints
//
//   - GET /verify?uri=s3://bucket/prefix : Verifies all objects under a prefix.
//   - POST /verify/objects : Verifies an explicit URI list.
package verify
