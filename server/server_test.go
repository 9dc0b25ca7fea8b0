package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/docsearch/ai/mock"
	"github.com/poiesic/docsearch/core"
	"github.com/poiesic/docsearch/ingestion"
	"github.com/poiesic/docsearch/search"
	"github.com/poiesic/docsearch/storage"
	"github.com/poiesic/docsearch/storage/badger"
)

const testWriteToken = "test-write-token"

func setupServer(t *testing.T) (http.Handler, storage.DocumentRepository, *mock.MockEmbedder) {
	t.Helper()

	docRepo, backend, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() {
		docRepo.Close()
		backend.Close()
	})

	embedder := mock.NewMockEmbedder()
	searcher, err := search.NewSearcher(docRepo, embedder)
	require.NoError(t, err)

	pipeline, err := ingestion.NewPipeline(docRepo)
	require.NoError(t, err)
	t.Cleanup(pipeline.Release)

	srv, err := New(searcher, docRepo, pipeline, &Config{
		Addr:       ":0",
		WriteToken: testWriteToken,
	})
	require.NoError(t, err)

	return srv.Routes(), docRepo, embedder
}

func seedDocuments(t *testing.T, repo storage.DocumentRepository) []*core.Document {
	t.Helper()

	added, err := repo.AddDocuments(context.Background(),
		&core.Document{Title: "database tuning guide", Body: "indexes and vacuum"},
		&core.Document{Title: "operations handbook", Body: "database backup routines"},
		&core.Document{Title: "cast iron cooking", Body: "searing and seasoning"},
	)
	require.NoError(t, err)
	return added
}

func doRequest(handler http.Handler, method, target, body string, header map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestKeywordSearchEndpoint(t *testing.T) {
	handler, repo, embedder := setupServer(t)
	seedDocuments(t, repo)

	t.Run("returns lexical matches", func(t *testing.T) {
		rec := doRequest(handler, http.MethodGet, "/api/search?q=database", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Query   string `json:"query"`
			Results []struct {
				Title string  `json:"title"`
				Score float32 `json:"score"`
			} `json:"results"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "database", resp.Query)
		require.Len(t, resp.Results, 2)
		assert.Equal(t, "database tuning guide", resp.Results[0].Title)
		assert.Greater(t, resp.Results[0].Score, resp.Results[1].Score)
	})

	t.Run("missing query is a bad request", func(t *testing.T) {
		rec := doRequest(handler, http.MethodGet, "/api/search", "", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "error")
	})

	t.Run("no matches yields empty results", func(t *testing.T) {
		rec := doRequest(handler, http.MethodGet, "/api/search?q=submarine", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"results":[]`)
	})

	t.Run("keeps answering while embedding provider is down", func(t *testing.T) {
		embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
			return nil, errors.New("provider down")
		}
		defer embedder.Reset()

		rec := doRequest(handler, http.MethodGet, "/api/search?q=database", "", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestSemanticSearchEndpoint(t *testing.T) {
	handler, repo, embedder := setupServer(t)
	seedDocuments(t, repo)

	t.Run("returns hybrid scores", func(t *testing.T) {
		rec := doRequest(handler, http.MethodGet, "/api/search/semantic?q=database", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Results []struct {
				Title       string  `json:"title"`
				HybridScore float32 `json:"hybrid_score"`
				TextScore   float32 `json:"text_score"`
				VectorScore float32 `json:"vector_score"`
			} `json:"results"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.NotEmpty(t, resp.Results)

		// every stored document participates, embedded or not
		assert.Len(t, resp.Results, 3)
		for _, hit := range resp.Results {
			assert.InDelta(t, 0.6*hit.TextScore+0.4*hit.VectorScore, hit.HybridScore, 1e-5)
		}
	})

	t.Run("provider failure maps to bad gateway", func(t *testing.T) {
		embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
			return nil, errors.New("provider down")
		}
		defer embedder.Reset()

		rec := doRequest(handler, http.MethodGet, "/api/search/semantic?q=database", "", nil)
		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})

	t.Run("missing query is a bad request", func(t *testing.T) {
		rec := doRequest(handler, http.MethodGet, "/api/search/semantic", "", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestGetDocumentEndpoint(t *testing.T) {
	handler, repo, _ := setupServer(t)
	docs := seedDocuments(t, repo)

	t.Run("returns the document", func(t *testing.T) {
		rec := doRequest(handler, http.MethodGet, fmt.Sprintf("/api/documents/%d", docs[0].Id), "", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var payload struct {
			Title        string `json:"title"`
			HasEmbedding bool   `json:"has_embedding"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
		assert.Equal(t, "database tuning guide", payload.Title)
		assert.False(t, payload.HasEmbedding)
	})

	t.Run("missing document is not found", func(t *testing.T) {
		rec := doRequest(handler, http.MethodGet, "/api/documents/99999999", "", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("malformed id is a bad request", func(t *testing.T) {
		rec := doRequest(handler, http.MethodGet, "/api/documents/notanumber", "", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestAddDocumentsEndpoint(t *testing.T) {
	handler, repo, _ := setupServer(t)

	body := `{"documents":[{"title":"new doc","body":"new body"},{"title":"new doc","body":"new body"}]}`

	t.Run("requires write token", func(t *testing.T) {
		rec := doRequest(handler, http.MethodPost, "/api/documents", body, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		rec = doRequest(handler, http.MethodPost, "/api/documents", body, map[string]string{
			"Authorization": "Bearer wrong",
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("inserts and dedups with valid token", func(t *testing.T) {
		rec := doRequest(handler, http.MethodPost, "/api/documents", body, map[string]string{
			"Authorization": "Bearer " + testWriteToken,
		})
		require.Equal(t, http.StatusCreated, rec.Code)

		var resp map[string]int
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, 1, resp["accepted"])
		assert.Equal(t, 1, resp["duplicates"])

		count, err := repo.CountDocuments(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("rejects malformed body", func(t *testing.T) {
		rec := doRequest(handler, http.MethodPost, "/api/documents", "{not json", map[string]string{
			"Authorization": "Bearer " + testWriteToken,
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects empty document list", func(t *testing.T) {
		rec := doRequest(handler, http.MethodPost, "/api/documents", `{"documents":[]}`, map[string]string{
			"Authorization": "Bearer " + testWriteToken,
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHealthEndpoint(t *testing.T) {
	handler, _, _ := setupServer(t)

	rec := doRequest(handler, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}
