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


package docsearch

import (
	"io"
	"log/slog"

	"github.com/poiesic/docsearch/ai"
	"github.com/poiesic/docsearch/ai/openai"
	"github.com/poiesic/docsearch/backfill"
	"github.com/poiesic/docsearch/ingestion"
	"github.com/poiesic/docsearch/search"
	"github.com/poiesic/docsearch/storage"
	"github.com/poiesic/docsearch/storage/badger"
)

// Database bundles the storage backend, repositories and the embedding
// client behind one handle. It is the assembly point for the search,
// ingestion and backfill components.
type Database struct {
	backend        *badger.Backend
	docRepo        storage.DocumentRepository
	checkpointRepo storage.CheckpointRepository
	embedder       ai.Embedder
	aiConfig       *ai.Config
	logger         *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	aiConfig *ai.Config
	inMemory bool
}

// WithAIConfig sets the embedding provider configuration.
func WithAIConfig(config *ai.Config) DatabaseOption {
	return func(o *databaseOptions) {
		if config != nil {
			o.aiConfig = config
		}
	}
}

// WithInMemory opens the backend in memory, discarding data on Close.
// Intended for tests and experiments.
func WithInMemory() DatabaseOption {
	return func(o *databaseOptions) {
		o.inMemory = true
	}
}

func NewDatabase(filePath string, opts ...DatabaseOption) (*Database, error) {
	// Apply options
	options := &databaseOptions{
		aiConfig: ai.DefaultConfig(), // Default if not provided
	}
	for _, opt := range opts {
		opt(options)
	}

	// Open backend
	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	// Create document repository
	docRepo, err := badger.NewDocumentRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	// Create checkpoint repository
	checkpointRepo := badger.NewCheckpointRepository(backend)

	// Create embedding client with configured settings
	embedder, err := openai.NewEmbedder(options.aiConfig)
	if err != nil {
		docRepo.Close()
		backend.Close()
		return nil, err
	}

	return &Database{
		backend:        backend,
		docRepo:        docRepo,
		checkpointRepo: checkpointRepo,
		embedder:       embedder,
		aiConfig:       options.aiConfig,
		logger:         slog.Default(),
	}, nil
}

func (db *Database) Close() error {
	if err := db.docRepo.Close(); err != nil {
		db.logger.Error("error closing document repository", "err", err)
		return err
	}

	if err := db.backend.Close(); err != nil {
		db.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (db *Database) DocumentRepository() storage.DocumentRepository {
	return db.docRepo
}

func (db *Database) CheckpointRepository() storage.CheckpointRepository {
	return db.checkpointRepo
}

func (db *Database) Embedder() ai.Embedder {
	return db.embedder
}

func (db *Database) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	return search.NewSearcher(db.docRepo, db.embedder, opts...)
}

func (db *Database) NewIngestionPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	return ingestion.NewPipeline(db.docRepo, opts...)
}

// NewBackfiller wires a backfill job against this database. The expected
// embedding dimension is taken from the AI configuration when the given
// config leaves it unset.
func (db *Database) NewBackfiller(config *backfill.Config, progress io.Writer) (*backfill.Backfiller, error) {
	if config == nil {
		config = backfill.DefaultConfig()
	}
	if config.Dimension == 0 {
		config.Dimension = db.aiConfig.Dimension
	}
	return backfill.NewBackfiller(db.docRepo, db.checkpointRepo, db.embedder, config, progress)
}
