package core

//go:generate go run ../cmd/musgen

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing or database sequences.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Document represents a searchable text document.
// The SearchVector is derived from Title and Body by the repository on every
// write; the embedding Vector is populated out-of-band by the backfill job.
type Document struct {
	Id           ID
	Title        string
	Body         string
	SearchVector map[string]float32 // Weighted lexical index (derived, never set by callers)
	Vector       []float32          // Embedding vector for semantic search (populated by backfill)
	Metadata     map[string]string  // Optional metadata (e.g., "source", "url")
	InsertedAt   time.Time          // When the document was inserted into the database
	UpdatedAt    time.Time          // When the document was last updated
}

// ContentHash returns a deterministic ID computed from the document's text
// fields. Used by ingestion to detect duplicate documents.
func (d *Document) ContentHash() ID {
	return IDFromContent(d.Title + "\x00" + d.Body)
}

// HasEmbedding reports whether the document has a populated embedding vector.
// Absence of an embedding is a valid state, not an error.
func (d *Document) HasEmbedding() bool {
	return len(d.Vector) > 0
}

// SearchResult represents a keyword search result with its lexical rank.
type SearchResult struct {
	Document *Document
	Score    float32
}

// ScoredDocument represents a hybrid search result. HybridScore is the
// weighted blend of the two component signals, which are exposed separately.
type ScoredDocument struct {
	Document    *Document
	HybridScore float32
	TextScore   float32 // Normalized lexical relevance in [0, 1)
	VectorScore float32 // Cosine similarity in [0, 1], 0 when no embedding
}

// TermMatch represents a document matched through the lexical term index.
type TermMatch struct {
	DocumentId ID
	Rank       float32
}

// Checkpoint records the state of the last run of a maintenance job.
type Checkpoint struct {
	JobType   string
	Position  ID  // Highest document ID processed
	Processed int // Number of documents processed in the run
	UpdatedAt time.Time
}
