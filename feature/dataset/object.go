package dataset

import (
	"io"
	"strings"
	"time"
)

// ObjectID identifies exactly one remote object at fetch time. The underlying
// bytes may change between listing and fetch; no versioning is assumed.
type ObjectID struct {
	Bucket string
	Key    string
}

// String renders the ID as an s3:// URI.
func (id ObjectID) String() string {
	return "s3://" + id.Bucket + "/" + id.Key
}

// Compare orders IDs lexicographically by (bucket, key).
func (id ObjectID) Compare(other ObjectID) int {
	if c := strings.Compare(id.Bucket, other.Bucket); c != 0 {
		return c
	}
	return strings.Compare(id.Key, other.Key)
}

// ParseURI parses an s3://bucket/key URI into an ObjectID.
// Both bucket and key must be present.
func ParseURI(uri string) (ObjectID, error) {
	rest, ok := strings.CutPrefix(uri, "s3://")
	if !ok {
		return ObjectID{}, &InvalidSpecError{URI: uri, Reason: "missing s3:// scheme"}
	}

	bucket, key, found := strings.Cut(rest, "/")
	if bucket == "" {
		return ObjectID{}, &InvalidSpecError{URI: uri, Reason: "missing bucket"}
	}
	if !found || key == "" {
		return ObjectID{}, &InvalidSpecError{URI: uri, Reason: "missing key"}
	}

	return ObjectID{Bucket: bucket, Key: key}, nil
}

// parsePrefixURI parses an s3://bucket/prefix URI. The prefix part may be
// empty, which selects the whole bucket.
func parsePrefixURI(uri string) (bucket, prefix string, err error) {
	rest, ok := strings.CutPrefix(uri, "s3://")
	if !ok {
		return "", "", &InvalidSpecError{URI: uri, Reason: "missing s3:// scheme"}
	}

	bucket, prefix, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", &InvalidSpecError{URI: uri, Reason: "missing bucket"}
	}

	return bucket, prefix, nil
}

// Object is a fetched object: a readable byte stream plus metadata. It is
// owned by whoever currently holds it and must be consumed exactly once.
type Object struct {
	ID           ObjectID
	Size         int64
	ContentType  string
	ETag         string
	LastModified time.Time

	body io.ReadCloser
}

// Read streams the object bytes.
func (o *Object) Read(p []byte) (int, error) {
	return o.body.Read(p)
}

// Close releases the underlying network stream.
func (o *Object) Close() error {
	return o.body.Close()
}
