package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"dataset-streamer/core/config"
	"dataset-streamer/feature/dataset"
)

// Standalone probe for pipeline behavior against a live store: fetches a
// prefix with a small window and prints per-object latency and ordering.
func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: debug_fetch s3://bucket/prefix")
	}
	uri := os.Args[1]

	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatal(err)
	}

	ds, err := dataset.FromPrefix(cfg.Storage, uri, dataset.Identity, dataset.WithWindow(2))
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	it, err := ds.Iterate(ctx)
	if err != nil {
		log.Fatal(err)
	}
	defer it.Close()

	fmt.Printf("=== Fetching %s (window=2) ===\n", uri)
	start := time.Now()
	var prev dataset.ObjectID
	i := 0
	for {
		t0 := time.Now()
		obj, err := it.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			log.Fatalf("aborted at item %d: %v", i, err)
		}

		wait := time.Since(t0)
		n, err := io.Copy(io.Discard, obj)
		obj.Close()
		if err != nil {
			log.Fatalf("read failed for %s: %v", obj.ID, err)
		}

		ordered := "-"
		if i > 0 {
			if prev.Compare(obj.ID) < 0 {
				ordered = "asc"
			} else {
				ordered = "OUT OF ORDER"
			}
		}
		fmt.Printf("%4d  %-60s  %8d bytes  wait=%-12s  %s\n", i, obj.ID, n, wait, ordered)
		prev = obj.ID
		i++
	}

	fmt.Printf("\nTotal: %d objects in %s\n", i, time.Since(start))
}
