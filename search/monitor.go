package search

import "github.com/poiesic/docsearch/core"

// SearchMonitor provides hooks to observe the hybrid search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(query string)
	AfterQueryEmbedding(vector []float32)
	AfterCandidateRetrieval(count int)
	Finish(results []*core.ScoredDocument)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                  {}
func (n *noopMonitor) AfterQueryEmbedding(_ []float32) {}
func (n *noopMonitor) AfterCandidateRetrieval(_ int)   {}
func (n *noopMonitor) Finish(_ []*core.ScoredDocument) {}
