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


package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/docsearch"
	"github.com/poiesic/docsearch/ai"
	"github.com/poiesic/docsearch/backfill"
	"github.com/poiesic/docsearch/core"
	"github.com/poiesic/docsearch/ingestion"
	"github.com/poiesic/docsearch/server"
)

func main() {
	app := &cli.App{
		Name:  "docsearch",
		Usage: "Hybrid keyword and semantic document search",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP search server",
				Action: serveCommand,
				Flags: append(embeddingFlags(),
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "addr",
						Usage: "Listen address",
						Value: ":8080",
					},
					&cli.StringFlag{
						Name:    "write-token",
						Usage:   "Bearer token required for document writes (empty disables auth)",
						EnvVars: []string{"DOCSEARCH_WRITE_TOKEN"},
					},
				),
			},
			{
				Name:   "backfill",
				Usage:  "Generate embeddings for documents that lack one",
				Action: backfillCommand,
				Flags: append(embeddingFlags(),
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of documents to fetch in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N documents",
						Value: 100,
					},
					&cli.BoolFlag{
						Name:  "overwrite",
						Usage: "Regenerate embeddings for documents that already have one",
					},
				),
			},
			{
				Name:      "seed",
				Usage:     "Bulk load documents from a JSON file",
				ArgsUsage: "<file>",
				Action:    seedCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "source",
						Usage: "Value recorded in each document's source metadata",
					},
					&cli.IntFlag{
						Name:  "pool-size",
						Usage: "Worker pool size for concurrent writes (0 uses the default)",
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Run a query through both retrieval paths",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: append(embeddingFlags(),
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum results per path",
						Value: 10,
					},
				),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func embeddingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "embedding-host",
			Usage: "Embedding service host URL",
			Value: "http://localhost:11434/v1",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
			Value: "embeddinggemma",
		},
		&cli.IntFlag{
			Name:  "embedding-dimension",
			Usage: "Expected embedding dimensionality (0 disables the check)",
			Value: 768,
		},
	}
}

func openDatabase(c *cli.Context) (*docsearch.Database, error) {
	aiConfig := ai.NewConfig(
		ai.WithHost(c.String("embedding-host")),
		ai.WithModel(c.String("embedding-model")),
		ai.WithDimension(c.Int("embedding-dimension")),
	)
	if err := aiConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	db, err := docsearch.NewDatabase(c.String("db"), docsearch.WithAIConfig(aiConfig))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

func serveCommand(c *cli.Context) error {
	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	searcher, err := db.NewSearcher()
	if err != nil {
		return fmt.Errorf("failed to create searcher: %w", err)
	}

	pipeline, err := db.NewIngestionPipeline()
	if err != nil {
		return fmt.Errorf("failed to create ingestion pipeline: %w", err)
	}
	defer pipeline.Release()

	srv, err := server.New(searcher, db.DocumentRepository(), pipeline, &server.Config{
		Addr:       c.String("addr"),
		WriteToken: c.String("write-token"),
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

func backfillCommand(c *cli.Context) error {
	ctx := context.Background()

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	config := &backfill.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		Overwrite:      c.Bool("overwrite"),
	}

	if config.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if config.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}

	backfiller, err := db.NewBackfiller(config, os.Stderr)
	if err != nil {
		return fmt.Errorf("failed to create backfiller: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Database: %s\n", c.String("db"))
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", c.String("embedding-host"))
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", c.String("embedding-model"))
	fmt.Fprintln(os.Stderr)

	if _, err := backfiller.Run(ctx); err != nil {
		return fmt.Errorf("backfill failed: %w", err)
	}
	return nil
}

type seedDocument struct {
	Title    string            `json:"title"`
	Body     string            `json:"body"`
	Metadata map[string]string `json:"metadata"`
}

func seedCommand(c *cli.Context) error {
	ctx := context.Background()

	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one JSON file argument")
	}

	data, err := os.ReadFile(c.Args().First())
	if err != nil {
		return fmt.Errorf("failed to read seed file: %w", err)
	}

	var seeds []seedDocument
	if err := json.Unmarshal(data, &seeds); err != nil {
		return fmt.Errorf("failed to parse seed file: %w", err)
	}
	if len(seeds) == 0 {
		return fmt.Errorf("seed file contains no documents")
	}

	db, err := docsearch.NewDatabase(c.String("db"))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	var pipelineOpts []ingestion.Option
	if size := c.Int("pool-size"); size > 0 {
		pipelineOpts = append(pipelineOpts, ingestion.WithPoolSize(size))
	}

	pipeline, err := db.NewIngestionPipeline(pipelineOpts...)
	if err != nil {
		return fmt.Errorf("failed to create ingestion pipeline: %w", err)
	}
	defer pipeline.Release()

	docs := make([]*core.Document, len(seeds))
	for i, seed := range seeds {
		docs[i] = &core.Document{
			Title:    seed.Title,
			Body:     seed.Body,
			Metadata: seed.Metadata,
		}
	}

	var ingestOpts *ingestion.IngestOptions
	if source := c.String("source"); source != "" {
		ingestOpts = &ingestion.IngestOptions{
			Metadata: map[string]string{"source": source},
		}
	}

	result, err := pipeline.Ingest(ctx, docs, ingestOpts)
	if err != nil {
		return fmt.Errorf("seeding failed: %w", err)
	}

	fmt.Printf("Seeded %d documents (%d duplicates, %d rejected)\n",
		result.Accepted, result.Duplicates, result.Rejected)
	return nil
}

func searchCommand(c *cli.Context) error {
	ctx := context.Background()

	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one query argument")
	}
	query := c.Args().First()
	limit := c.Int("limit")

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	searcher, err := db.NewSearcher()
	if err != nil {
		return fmt.Errorf("failed to create searcher: %w", err)
	}

	// The two paths are independent; run both and report whatever succeeds.
	var wg sync.WaitGroup
	var mu sync.Mutex

	wg.Add(2)
	go func() {
		defer wg.Done()

		results, err := searcher.SearchKeyword(ctx, query, limit)
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			fmt.Printf("Keyword search failed: %v\n\n", err)
			return
		}
		fmt.Printf("Keyword results (%d):\n", len(results))
		for i, r := range results {
			fmt.Printf("  %2d. [%.3f] %s\n", i+1, r.Score, r.Document.Title)
		}
		fmt.Println()
	}()

	go func() {
		defer wg.Done()

		results, err := searcher.SearchHybrid(ctx, query, limit)
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			fmt.Printf("Semantic search failed: %v\n\n", err)
			return
		}
		fmt.Printf("Semantic results (%d):\n", len(results))
		for i, r := range results {
			fmt.Printf("  %2d. [%.3f] (text %.3f, vector %.3f) %s\n",
				i+1, r.HybridScore, r.TextScore, r.VectorScore, r.Document.Title)
		}
		fmt.Println()
	}()

	wg.Wait()
	return nil
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
