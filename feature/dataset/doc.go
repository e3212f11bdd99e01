// Package dataset exposes remote object-store contents as lazily-iterated
// datasets for machine-learning training loops.
//
// A dataset is selected either from an explicit list of s3://bucket/key URIs
// (FromObjects) or from everything under a prefix (FromPrefix). Iteration
// streams the selected objects through a windowed fetch pipeline and an
// optional user transform:
//
//	ds, err := dataset.FromPrefix(storeCfg, "s3://training/shards/", dataset.Bytes)
//	it, err := ds.Iterate(ctx)
//	defer it.Close()
//	for {
//	    item, err := it.Next()
//	    if err == io.EOF {
//	        break
//	    }
//	    if err != nil {
//	        return err
//	    }
//	    // feed item to the training loop
//	}
//
// # Ordering
//
// Items are emitted in exactly the order the selector produced their IDs,
// even though up to the configured window of fetches run concurrently. A
// completed fetch is held until all earlier-ordered fetches have been
// delivered.
//
// # Failure policy
//
// Transient store errors (5xx, timeouts, connection resets) are retried with
// jittered exponential backoff. Permanent errors (missing object, access
// denied) and transform errors abort the iteration immediately: a dataset
// with one bad object is considered corrupt for training purposes, so there
// is no skip-on-error mode. The consumer sees either a complete ordered
// stream or a terminating typed error, never a partial or reordered one.
//
// # Restartability
//
// Iterate may be called any number of times on the same dataset; each call
// re-runs selection and fetch from scratch. Only the storage client handle is
// shared between runs, created lazily on the first one.
//
// MapDataset provides the random-access counterpart (Len/At) for index-based
// samplers.
package dataset
