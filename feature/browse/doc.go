// Package browse exposes bucket contents over HTTP for inspection.
//
// It is the human-facing counterpart of the dataset pipeline: before wiring
// a prefix into a training job, operators can list what the prefix actually
// matches and spot-check individual objects.
//
// # HTTP Endpoints
//
//   - GET /objects?prefix=&recursive=&limit= : Lists objects under a prefix.
//   - GET /objects/{key} : Streams a single object's bytes.
package browse
