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


package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/poiesic/docsearch/core"
	"github.com/poiesic/docsearch/ingestion"
	"github.com/poiesic/docsearch/search"
	"github.com/poiesic/docsearch/storage"
)

type documentPayload struct {
	Id           core.ID           `json:"id"`
	Title        string            `json:"title"`
	Body         string            `json:"body"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	HasEmbedding bool              `json:"has_embedding"`
}

type keywordHit struct {
	documentPayload
	Score float32 `json:"score"`
}

type semanticHit struct {
	documentPayload
	HybridScore float32 `json:"hybrid_score"`
	TextScore   float32 `json:"text_score"`
	VectorScore float32 `json:"vector_score"`
}

func toPayload(doc *core.Document) documentPayload {
	return documentPayload{
		Id:           doc.Id,
		Title:        doc.Title,
		Body:         doc.Body,
		Metadata:     doc.Metadata,
		HasEmbedding: doc.HasEmbedding(),
	}
}

func queryParams(r *http.Request) (query string, limit int, ok bool) {
	query = strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		return "", 0, false
	}

	limit = 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if n, err := strconv.Atoi(limitStr); err == nil && n > 0 {
			limit = n
		}
	}
	return query, limit, true
}

// handleKeywordSearch serves lexical search. It never touches the embedding
// provider, so it stays up when the provider is down.
func (s *Server) handleKeywordSearch(w http.ResponseWriter, r *http.Request) {
	query, limit, ok := queryParams(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "missing query parameter q")
		return
	}

	results, err := s.searcher.SearchKeyword(r.Context(), query, limit)
	if err != nil {
		s.logger.Error("keyword search failed", "query", query, "err", err)
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}

	hits := make([]keywordHit, 0, len(results))
	for _, result := range results {
		hits = append(hits, keywordHit{
			documentPayload: toPayload(result.Document),
			Score:           result.Score,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"query":   query,
		"results": hits,
	})
}

// handleSemanticSearch serves hybrid lexical+vector search. A provider
// failure maps to 502, a datastore failure to 500.
func (s *Server) handleSemanticSearch(w http.ResponseWriter, r *http.Request) {
	query, limit, ok := queryParams(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "missing query parameter q")
		return
	}

	results, err := s.searcher.SearchHybrid(r.Context(), query, limit)
	if err != nil {
		s.logger.Error("semantic search failed", "query", query, "err", err)
		if errors.Is(err, search.ErrQueryEmbedding) {
			writeError(w, http.StatusBadGateway, "embedding provider unavailable")
			return
		}
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}

	hits := make([]semanticHit, 0, len(results))
	for _, result := range results {
		hits = append(hits, semanticHit{
			documentPayload: toPayload(result.Document),
			HybridScore:     result.HybridScore,
			TextScore:       result.TextScore,
			VectorScore:     result.VectorScore,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"query":   query,
		"results": hits,
	})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid document id")
		return
	}

	doc, err := s.docRepo.GetDocument(r.Context(), core.ID(id))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "document not found")
			return
		}
		s.logger.Error("document read failed", "id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "document read failed")
		return
	}

	writeJSON(w, http.StatusOK, toPayload(doc))
}

type addDocumentsRequest struct {
	Documents []struct {
		Title    string            `json:"title"`
		Body     string            `json:"body"`
		Metadata map[string]string `json:"metadata"`
	} `json:"documents"`
}

// handleAddDocuments bulk-inserts documents. Writes require the configured
// bearer token; reads never do.
func (s *Server) handleAddDocuments(w http.ResponseWriter, r *http.Request) {
	if !s.authorizeWrite(r) {
		writeError(w, http.StatusUnauthorized, "write token required")
		return
	}
	if s.pipeline == nil {
		writeError(w, http.StatusServiceUnavailable, "ingestion disabled")
		return
	}

	var req addDocumentsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Documents) == 0 {
		writeError(w, http.StatusBadRequest, "no documents provided")
		return
	}

	docs := make([]*core.Document, len(req.Documents))
	for i, d := range req.Documents {
		docs[i] = &core.Document{
			Title:    d.Title,
			Body:     d.Body,
			Metadata: d.Metadata,
		}
	}

	result, err := s.pipeline.Ingest(r.Context(), docs, &ingestion.IngestOptions{})
	if err != nil {
		s.logger.Error("document ingest failed", "count", len(docs), "err", err)
		writeError(w, http.StatusInternalServerError, "ingest failed")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]int{
		"accepted":   result.Accepted,
		"duplicates": result.Duplicates,
		"rejected":   result.Rejected,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	count, err := s.docRepo.CountDocuments(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "datastore unavailable")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"documents": count,
	})
}

func (s *Server) authorizeWrite(r *http.Request) bool {
	if s.config.WriteToken == "" {
		return true
	}

	auth := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(auth, "Bearer ")
	return found && token == s.config.WriteToken
}
