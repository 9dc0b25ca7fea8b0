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


package ingestion

import (
	"context"
	"log/slog"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/docsearch/core"
	"github.com/poiesic/docsearch/storage"
)

const (
	// DefaultBatchSize is the number of documents written per pool task.
	DefaultBatchSize = 50
)

// Pipeline loads documents into the store in bulk. Writes are spread over a
// bounded worker pool; validation and dedup happen up front on the caller's
// goroutine.
type Pipeline struct {
	docRepository storage.DocumentRepository
	pool          *ants.Pool
	batchSize     int
	logger        *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent writes.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		if p.pool != nil {
			p.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}

		p.pool = pool
		return nil
	}
}

// WithBatchSize sets how many documents each pool task writes.
func WithBatchSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = DefaultBatchSize
		}
		p.batchSize = size
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(docRepository storage.DocumentRepository, opts ...Option) (*Pipeline, error) {
	if docRepository == nil {
		return nil, ErrDocumentRepositoryRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		docRepository: docRepository,
		pool:          pool,
		batchSize:     DefaultBatchSize,
		logger:        slog.Default().With("component", "ingestion"),
	}

	// Apply options (may override defaults)
	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	return p, nil
}

// IngestOptions holds optional parameters for ingestion.
type IngestOptions struct {
	Metadata map[string]string // Optional metadata merged onto every document
}

// Result describes the outcome of an Ingest call.
type Result struct {
	Accepted   int // Documents written to the store
	Duplicates int // Documents dropped as in-batch duplicates
	Rejected   int // Documents that failed validation
}

// Ingest validates, dedups and writes the given documents.
//
// Documents failing validation are logged and dropped; duplicates within the
// batch (same title and body) are collapsed to the first occurrence. Writes
// run concurrently on the worker pool, and Ingest blocks until all batches
// have landed. The first write error is returned, but batches already
// submitted still complete.
func (p *Pipeline) Ingest(ctx context.Context, docs []*core.Document, opts *IngestOptions) (*Result, error) {
	if opts == nil {
		opts = &IngestOptions{}
	}

	result := &Result{}
	seen := make(map[core.ID]bool, len(docs))
	pending := make([]*core.Document, 0, len(docs))

	for _, doc := range docs {
		if err := core.ValidateDocument(doc); err != nil {
			p.logger.Warn("rejecting invalid document", "title", doc.Title, "err", err)
			result.Rejected++
			continue
		}

		hash := doc.ContentHash()
		if seen[hash] {
			result.Duplicates++
			continue
		}
		seen[hash] = true

		if len(opts.Metadata) > 0 {
			if doc.Metadata == nil {
				doc.Metadata = make(map[string]string, len(opts.Metadata))
			}
			for k, v := range opts.Metadata {
				doc.Metadata[k] = v
			}
		}

		pending = append(pending, doc)
	}

	if len(pending) == 0 {
		return result, nil
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
		firstErr error
	)

	for start := 0; start < len(pending); start += p.batchSize {
		end := start + p.batchSize
		if end > len(pending) {
			end = len(pending)
		}
		batch := pending[start:end]

		wg.Add(1)
		err := p.pool.Submit(func() {
			defer wg.Done()

			added, err := p.docRepository.AddDocuments(ctx, batch...)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				p.logger.Error("error writing document batch", "count", len(batch), "err", err)
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			accepted += len(added)
		})
		if err != nil {
			// Submit only fails when the pool is released or overloaded
			wg.Done()
			mu.Lock()
			if firstErr == nil {
				firstErr = err
			}
			mu.Unlock()
			break
		}
	}

	wg.Wait()

	result.Accepted = accepted
	return result, firstErr
}

// Release releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
