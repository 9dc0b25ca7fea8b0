package storage

import (
	"context"

	"github.com/poiesic/docsearch/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	// The context passed to fn may contain transaction state.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// DocumentRepository provides operations for managing documents.
//
// Every write derives the document's SearchVector from its current Title and
// Body and keeps the lexical term index in step, inside the same transaction.
// Caller-supplied SearchVector values are overwritten.
type DocumentRepository interface {
	Repository

	// AddDocuments adds one or more documents to storage.
	// Generates new IDs from sequence and sets InsertedAt/UpdatedAt.
	// Returns the documents with generated IDs and derived fields populated.
	AddDocuments(ctx context.Context, docs ...*core.Document) ([]*core.Document, error)

	// UpdateDocuments updates existing documents, rederiving the SearchVector
	// and updating the UpdatedAt timestamp. Returns ErrNotFound if any
	// document doesn't exist.
	UpdateDocuments(ctx context.Context, docs ...*core.Document) ([]*core.Document, error)

	// DeleteDocuments removes documents by their IDs along with their term
	// index entries. Returns ErrNotFound if any document doesn't exist.
	DeleteDocuments(ctx context.Context, ids ...core.ID) error

	// GetDocument retrieves a single document by ID.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, id core.ID) (*core.Document, error)

	// GetDocuments retrieves multiple documents by their IDs.
	// Returns only the documents that exist (no error for missing documents).
	GetDocuments(ctx context.Context, ids ...core.ID) ([]*core.Document, error)

	// ListDocuments retrieves documents ordered by ascending ID.
	// offset skips the first N documents; limit <= 0 means no limit.
	ListDocuments(ctx context.Context, offset, limit int) ([]*core.Document, error)

	// CountDocuments returns the number of stored documents.
	CountDocuments(ctx context.Context) (int, error)

	// UpdateEmbedding sets the embedding vector of a document without
	// touching its text fields or lexical index.
	// Returns ErrNotFound if the document doesn't exist.
	UpdateEmbedding(ctx context.Context, id core.ID, vector []float32) error

	// SearchTerms ranks documents against the given query terms using the
	// lexical term index. Rank is the sum of indexed weights of the distinct
	// matched terms; documents with rank 0 are not returned. Results are
	// ordered by descending rank, ties broken by ascending ID, up to limit.
	SearchTerms(ctx context.Context, terms []string, limit int) ([]core.TermMatch, error)

	// FindSimilar finds documents whose embedding is similar to the given
	// vector. Returns documents with similarity >= minSimilarity, up to limit
	// results, ordered by similarity score (highest first). Documents without
	// an embedding are skipped.
	FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*core.SearchResult, error)
}

// CheckpointRepository persists job run state.
type CheckpointRepository interface {
	// SaveCheckpoint persists a checkpoint for a job type.
	SaveCheckpoint(ctx context.Context, checkpoint *core.Checkpoint) error

	// LoadCheckpoint retrieves the checkpoint for a job type.
	// Returns nil, nil if no checkpoint exists.
	LoadCheckpoint(ctx context.Context, jobType string) (*core.Checkpoint, error)
}
