package search

import (
	"context"
	"errors"
	"log/slog"
	"slices"

	"github.com/poiesic/docsearch/ai"
	"github.com/poiesic/docsearch/core"
	"github.com/poiesic/docsearch/storage"
)

const (
	// DefaultLimit is the number of results returned when the caller passes
	// a non-positive limit.
	DefaultLimit = 10

	// Default blend weights. They sum to 1.0 so the hybrid score stays in
	// the same bounded range as its component signals.
	DefaultTextWeight   float32 = 0.6
	DefaultVectorWeight float32 = 0.4
)

// Searcher provides keyword and hybrid (keyword + semantic) search over
// stored documents. The two retrieval paths are independent: SearchKeyword
// never touches the embedder, and a failing embedding provider leaves
// keyword retrieval unaffected.
type Searcher struct {
	docRepository storage.DocumentRepository
	embedder      ai.Embedder
	textWeight    float32
	vectorWeight  float32
	logger        *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithWeights overrides the blend weights. The pair must sum to 1.0.
func WithWeights(textWeight, vectorWeight float32) Option {
	return func(s *Searcher) error {
		if textWeight < 0 || vectorWeight < 0 {
			return ErrInvalidWeights
		}
		sum := textWeight + vectorWeight
		if sum < 0.999999 || sum > 1.000001 {
			return ErrInvalidWeights
		}
		s.textWeight = textWeight
		s.vectorWeight = vectorWeight
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(
	docRepository storage.DocumentRepository,
	embedder ai.Embedder,
	opts ...Option,
) (*Searcher, error) {
	if docRepository == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	s := &Searcher{
		docRepository: docRepository,
		embedder:      embedder,
		textWeight:    DefaultTextWeight,
		vectorWeight:  DefaultVectorWeight,
		logger:        slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// SearchKeyword ranks documents by lexical relevance alone, using the term
// index maintained by the repository. Documents with no lexical overlap are
// not returned; an empty query returns an empty result set. The embedding
// provider is never contacted, so this path answers within the latency of
// the datastore alone.
func (s *Searcher) SearchKeyword(ctx context.Context, query string, maxHits int) ([]*core.SearchResult, error) {
	if maxHits <= 0 {
		maxHits = DefaultLimit
	}

	terms := core.Tokenize(query)
	if len(terms) == 0 {
		return []*core.SearchResult{}, nil
	}

	matches, err := s.docRepository.SearchTerms(ctx, terms, maxHits)
	if err != nil {
		s.logger.Error("error querying term index", "query", query, "err", err)
		return nil, err
	}
	if len(matches) == 0 {
		return []*core.SearchResult{}, nil
	}

	ids := make([]core.ID, len(matches))
	for i, match := range matches {
		ids[i] = match.DocumentId
	}

	// GetDocuments preserves argument order, which is already rank order
	docs, err := s.docRepository.GetDocuments(ctx, ids...)
	if err != nil {
		s.logger.Error("error retrieving matched documents", "count", len(ids), "err", err)
		return nil, err
	}

	rankByID := make(map[core.ID]float32, len(matches))
	for _, match := range matches {
		rankByID[match.DocumentId] = match.Rank
	}

	results := make([]*core.SearchResult, 0, len(docs))
	for _, doc := range docs {
		results = append(results, &core.SearchResult{
			Document: doc,
			Score:    core.NormalizeRank(rankByID[doc.Id]),
		})
	}
	return results, nil
}

// SearchHybrid ranks documents by the weighted blend of normalized lexical
// relevance and embedding similarity. The query is converted to a vector with
// one round-trip to the embedding provider; a provider failure fails this
// path only. Returns up to maxHits results ordered by descending hybrid
// score, ties broken by ascending document ID.
func (s *Searcher) SearchHybrid(ctx context.Context, query string, maxHits int) ([]*core.ScoredDocument, error) {
	return s.SearchHybridWithMonitor(ctx, query, maxHits, nil)
}

// SearchHybridWithMonitor is SearchHybrid with stage callbacks.
// The monitor receives callbacks at each stage of the search process.
func (s *Searcher) SearchHybridWithMonitor(ctx context.Context, query string, maxHits int, monitor SearchMonitor) ([]*core.ScoredDocument, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if maxHits <= 0 {
		maxHits = DefaultLimit
	}

	monitor.Start(query)

	embedding, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		s.logger.Error("error generating embedding for query", "query", query, "err", err)
		return nil, errors.Join(ErrQueryEmbedding, err)
	}
	queryVector := core.NormalizeVector(embedding)
	monitor.AfterQueryEmbedding(queryVector)

	queryTerms := core.Tokenize(query)

	// The candidate set is the whole corpus: documents with neither lexical
	// overlap nor an embedding simply score 0 and sort last.
	docs, err := s.docRepository.ListDocuments(ctx, 0, 0)
	if err != nil {
		s.logger.Error("error retrieving candidate documents", "err", err)
		return nil, err
	}
	monitor.AfterCandidateRetrieval(len(docs))

	results := make([]*core.ScoredDocument, 0, len(docs))
	for _, doc := range docs {
		textScore := core.NormalizeRank(core.RankQuery(queryTerms, doc.SearchVector))
		vectorScore := core.VectorSimilarity(queryVector, doc.Vector)

		results = append(results, &core.ScoredDocument{
			Document:    doc,
			TextScore:   textScore,
			VectorScore: vectorScore,
			HybridScore: s.textWeight*textScore + s.vectorWeight*vectorScore,
		})
	}

	// Descending score; equal scores order by ascending document ID so
	// repeated calls with identical inputs return identical rankings.
	slices.SortFunc(results, func(a, b *core.ScoredDocument) int {
		if a.HybridScore > b.HybridScore {
			return -1
		}
		if a.HybridScore < b.HybridScore {
			return 1
		}
		if a.Document.Id < b.Document.Id {
			return -1
		}
		if a.Document.Id > b.Document.Id {
			return 1
		}
		return 0
	})

	if len(results) > maxHits {
		results = results[:maxHits]
	}
	monitor.Finish(results)

	return results, nil
}
