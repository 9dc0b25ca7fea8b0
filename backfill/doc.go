// Package backfill provides a one-shot job that generates embeddings for
// stored documents that do not yet have one.
//
// The job iterates documents in batches, but provider calls are strictly
// sequential: at most one embedding request is outstanding at any time. A
// failure on one document is logged and skipped, never retried within the
// run; the rest of the run proceeds. Re-running the job picks up whatever
// was skipped.
package backfill
