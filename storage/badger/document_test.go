package badger

import (
	"context"
	"testing"

	"github.com/poiesic/docsearch/core"
	"github.com/poiesic/docsearch/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRepo(t *testing.T) storage.DocumentRepository {
	t.Helper()
	repo, backend, err := NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
		backend.Close()
	})
	return repo
}

func TestAddDocuments(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	docs, err := repo.AddDocuments(ctx,
		&core.Document{Title: "Engineer", Body: "builds search systems"},
		&core.Document{Title: "Technician", Body: "repairs hardware"},
	)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	for _, doc := range docs {
		assert.NotZero(t, doc.Id)
		assert.False(t, doc.InsertedAt.IsZero())
		assert.NotEmpty(t, doc.SearchVector, "search vector must be derived on add")
	}
	assert.NotEqual(t, docs[0].Id, docs[1].Id)
}

func TestAddDocuments_OverwritesCallerSearchVector(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	doc := &core.Document{
		Title:        "Engineer",
		Body:         "builds things",
		SearchVector: map[string]float32{"bogus": 99},
	}
	_, err := repo.AddDocuments(ctx, doc)
	require.NoError(t, err)

	stored, err := repo.GetDocument(ctx, doc.Id)
	require.NoError(t, err)
	assert.NotContains(t, stored.SearchVector, "bogus")
	assert.Contains(t, stored.SearchVector, "engineer")
}

func TestGetDocument_NotFound(t *testing.T) {
	repo := setupRepo(t)

	_, err := repo.GetDocument(context.Background(), core.ID(12345))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestGetDocuments_SkipsMissing(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	docs, err := repo.AddDocuments(ctx, &core.Document{Title: "only one"})
	require.NoError(t, err)

	got, err := repo.GetDocuments(ctx, docs[0].Id, core.ID(99999))
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestUpdateDocuments_RederivesSearchVector(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	docs, err := repo.AddDocuments(ctx, &core.Document{Title: "Engineer", Body: "old text"})
	require.NoError(t, err)
	doc := docs[0]

	doc.Title = "Technician"
	doc.Body = "new text"
	_, err = repo.UpdateDocuments(ctx, doc)
	require.NoError(t, err)

	stored, err := repo.GetDocument(ctx, doc.Id)
	require.NoError(t, err)
	assert.Contains(t, stored.SearchVector, "technician")
	assert.NotContains(t, stored.SearchVector, "engineer")

	// Term index follows the update
	matches, err := repo.SearchTerms(ctx, []string{"engineer"}, 10)
	require.NoError(t, err)
	assert.Empty(t, matches)

	matches, err = repo.SearchTerms(ctx, []string{"technician"}, 10)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, doc.Id, matches[0].DocumentId)
}

func TestUpdateDocuments_NotFound(t *testing.T) {
	repo := setupRepo(t)

	_, err := repo.UpdateDocuments(context.Background(), &core.Document{Id: core.ID(404), Title: "x"})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDeleteDocuments(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	docs, err := repo.AddDocuments(ctx, &core.Document{Title: "Ephemeral", Body: "gone soon"})
	require.NoError(t, err)

	require.NoError(t, repo.DeleteDocuments(ctx, docs[0].Id))

	_, err = repo.GetDocument(ctx, docs[0].Id)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	matches, err := repo.SearchTerms(ctx, []string{"ephemeral"}, 10)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestSearchTerms(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	docs, err := repo.AddDocuments(ctx,
		&core.Document{Title: "Engineer", Body: "writes software"},
		&core.Document{Title: "Manager", Body: "manages the engineer"},
		&core.Document{Title: "Technician", Body: "repairs hardware"},
	)
	require.NoError(t, err)

	t.Run("title match outranks body match", func(t *testing.T) {
		matches, err := repo.SearchTerms(ctx, []string{"engineer"}, 10)
		require.NoError(t, err)
		require.Len(t, matches, 2)
		assert.Equal(t, docs[0].Id, matches[0].DocumentId)
		assert.Greater(t, matches[0].Rank, matches[1].Rank)
	})

	t.Run("no overlap yields no matches", func(t *testing.T) {
		matches, err := repo.SearchTerms(ctx, []string{"astronaut"}, 10)
		require.NoError(t, err)
		assert.Empty(t, matches)
	})

	t.Run("empty terms yield no matches", func(t *testing.T) {
		matches, err := repo.SearchTerms(ctx, nil, 10)
		require.NoError(t, err)
		assert.Empty(t, matches)
	})

	t.Run("limit is applied", func(t *testing.T) {
		matches, err := repo.SearchTerms(ctx, []string{"engineer"}, 1)
		require.NoError(t, err)
		assert.Len(t, matches, 1)
	})

	t.Run("equal ranks order by ascending id", func(t *testing.T) {
		matches, err := repo.SearchTerms(ctx, []string{"repairs", "writes"}, 10)
		require.NoError(t, err)
		require.Len(t, matches, 2)
		assert.Less(t, uint64(matches[0].DocumentId), uint64(matches[1].DocumentId))
	})
}

func TestUpdateEmbedding(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	docs, err := repo.AddDocuments(ctx, &core.Document{Title: "Engineer", Body: "text"})
	require.NoError(t, err)
	doc := docs[0]

	require.NoError(t, repo.UpdateEmbedding(ctx, doc.Id, []float32{1, 0, 0}))

	stored, err := repo.GetDocument(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0, 0}, stored.Vector)
	// Text and index untouched
	assert.Contains(t, stored.SearchVector, "engineer")

	t.Run("missing document", func(t *testing.T) {
		err := repo.UpdateEmbedding(ctx, core.ID(404), []float32{1})
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestFindSimilar(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	docs, err := repo.AddDocuments(ctx,
		&core.Document{Title: "aligned", Body: "a"},
		&core.Document{Title: "orthogonal", Body: "b"},
		&core.Document{Title: "unembedded", Body: "c"},
	)
	require.NoError(t, err)

	require.NoError(t, repo.UpdateEmbedding(ctx, docs[0].Id, []float32{1, 0, 0}))
	require.NoError(t, repo.UpdateEmbedding(ctx, docs[1].Id, []float32{0, 1, 0}))

	t.Run("ranks by similarity", func(t *testing.T) {
		results, err := repo.FindSimilar(ctx, []float32{1, 0, 0}, 0.5, 10)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, docs[0].Id, results[0].Document.Id)
		assert.InDelta(t, 1.0, results[0].Score, 1e-6)
	})

	t.Run("documents without embeddings are skipped", func(t *testing.T) {
		results, err := repo.FindSimilar(ctx, []float32{1, 0, 0}, -1, 10)
		require.NoError(t, err)
		for _, res := range results {
			assert.NotEqual(t, docs[2].Id, res.Document.Id)
		}
	})
}

func TestListAndCountDocuments(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	added, err := repo.AddDocuments(ctx,
		&core.Document{Title: "one"},
		&core.Document{Title: "two"},
		&core.Document{Title: "three"},
	)
	require.NoError(t, err)

	count, err := repo.CountDocuments(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	all, err := repo.ListDocuments(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	// Ascending ID order
	assert.Equal(t, added[0].Id, all[0].Id)
	assert.Equal(t, added[2].Id, all[2].Id)

	page, err := repo.ListDocuments(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, added[1].Id, page[0].Id)

	empty, err := repo.ListDocuments(ctx, 10, 5)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
