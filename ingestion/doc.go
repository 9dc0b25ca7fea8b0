// Package ingestion provides bulk loading of documents into the store.
//
// Incoming documents are validated and deduplicated by content hash before
// being written in concurrent batches through a bounded worker pool.
// Embeddings are not generated at ingest time; documents enter the store
// unembedded and are picked up by the backfill job.
package ingestion
