// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package backfill

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/poiesic/docsearch/ai"
	"github.com/poiesic/docsearch/core"
	"github.com/poiesic/docsearch/storage"
)

// JobType identifies the backfill job in persisted checkpoints.
const JobType = "embedding-backfill"

// Config holds configuration for the backfill operation.
type Config struct {
	// BatchSize is the number of documents to fetch in each batch
	BatchSize int

	// ReportInterval is how often to report progress (number of documents)
	ReportInterval int

	// Overwrite regenerates embeddings for documents that already have one
	Overwrite bool

	// Dimension is the expected embedding dimension. Zero disables the check.
	Dimension int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      100,
		ReportInterval: 100,
	}
}

// Summary describes the outcome of a backfill run.
type Summary struct {
	Scanned  int // Documents examined
	Embedded int // Documents that received a new embedding
	Skipped  int // Documents left alone because they already had one
	Failed   int // Documents skipped due to a provider or dimension error
}

// Backfiller generates embeddings for documents that lack one.
//
// Provider calls are issued one at a time, in ascending document ID order.
// There is no retry: a document that fails stays unembedded until the next
// run. Only a repository-level error aborts the run.
type Backfiller struct {
	docRepo     storage.DocumentRepository
	checkpoints storage.CheckpointRepository
	embedder    ai.Embedder
	config      *Config
	progress    io.Writer
	iterator    *DocumentIterator
	logger      *slog.Logger
}

// NewBackfiller creates a new backfiller.
// checkpoints may be nil, in which case no run state is persisted.
// progress: where to write progress output (typically os.Stderr)
func NewBackfiller(
	docRepo storage.DocumentRepository,
	checkpoints storage.CheckpointRepository,
	embedder ai.Embedder,
	config *Config,
	progress io.Writer,
) (*Backfiller, error) {
	if docRepo == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if progress == nil {
		progress = io.Discard
	}

	return &Backfiller{
		docRepo:     docRepo,
		checkpoints: checkpoints,
		embedder:    embedder,
		config:      config,
		progress:    progress,
		iterator:    NewDocumentIterator(docRepo, config.BatchSize),
		logger:      slog.Default().With("component", "backfill"),
	}, nil
}

// Run executes the backfill operation over the whole document store.
// Progress is reported to the configured writer; the run summary is
// persisted as a checkpoint when a checkpoint repository was provided.
func (b *Backfiller) Run(ctx context.Context) (*Summary, error) {
	total, err := b.docRepo.CountDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count documents: %w", err)
	}

	summary := &Summary{}
	if total == 0 {
		fmt.Fprintf(b.progress, "No documents found in database (0 documents)\n")
		return summary, nil
	}

	fmt.Fprintf(b.progress, "Starting embedding backfill of %d documents (batch size: %d)\n",
		total, b.config.BatchSize)

	tracker := NewProgressTracker(b.progress, total, b.config.ReportInterval)
	tracker.Start()

	var lastID core.ID

	err = b.iterator.ForEach(ctx, func(docs []*core.Document) error {
		for _, doc := range docs {
			if err := b.processDocument(ctx, doc, summary); err != nil {
				return err
			}
			summary.Scanned++
			lastID = doc.Id
			tracker.Update(summary.Scanned)
		}
		return nil
	})
	if err != nil {
		return summary, err
	}

	tracker.Finish()

	elapsed := tracker.Elapsed()
	fmt.Fprintf(b.progress, "Backfill complete. Embedded %d of %d documents in %v (%d skipped, %d failed)\n",
		summary.Embedded, summary.Scanned, elapsed.Round(time.Second), summary.Skipped, summary.Failed)

	if b.checkpoints != nil {
		checkpoint := &core.Checkpoint{
			JobType:   JobType,
			Position:  lastID,
			Processed: summary.Scanned,
			UpdatedAt: time.Now(),
		}
		if err := b.checkpoints.SaveCheckpoint(ctx, checkpoint); err != nil {
			b.logger.Error("error saving checkpoint", "err", err)
		}
	}

	return summary, nil
}

// processDocument embeds a single document. Provider and dimension errors are
// recorded in the summary and swallowed; only repository errors propagate.
func (b *Backfiller) processDocument(ctx context.Context, doc *core.Document, summary *Summary) error {
	if doc.HasEmbedding() && !b.config.Overwrite {
		summary.Skipped++
		return nil
	}

	vector, err := b.embedder.EmbedText(ctx, doc.Body)
	if err != nil {
		b.logger.Warn("embedding failed, skipping document", "id", doc.Id, "err", err)
		summary.Failed++
		return nil
	}

	if err := core.ValidateEmbedding(vector, b.config.Dimension); err != nil {
		b.logger.Warn("rejecting embedding with wrong dimension",
			"id", doc.Id, "got", len(vector), "want", b.config.Dimension)
		summary.Failed++
		return nil
	}

	vector = core.NormalizeVector(vector)
	if err := b.docRepo.UpdateEmbedding(ctx, doc.Id, vector); err != nil {
		return fmt.Errorf("failed to store embedding for document %d: %w", doc.Id, err)
	}

	summary.Embedded++
	return nil
}
