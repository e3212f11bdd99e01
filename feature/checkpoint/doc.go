// Package checkpoint persists training checkpoints in object storage.
//
// Checkpoints are stored under checkpoints/{name}/{timestamp}.ckpt, where the
// timestamp format makes lexicographic key order chronological. The package
// supports direct uploads (Save), streaming uploads of unknown length
// (Writer), retrieval by key or by recency (Load, Latest), and retention
// (Prune keeps the newest N checkpoints and deletes the rest).
//
// # Usage
//
//	svc := checkpoint.NewService(client, "datasets", log)
//	w, _ := svc.Writer(ctx, "resnet50")
//	// stream model state into w
//	_ = w.Close()
//	rc, info, _ := svc.Latest(ctx, "resnet50")
package checkpoint
