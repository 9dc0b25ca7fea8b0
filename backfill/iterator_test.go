package backfill

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/docsearch/core"
	"github.com/poiesic/docsearch/storage/badger"
)

func TestDocumentIterator(t *testing.T) {
	ctx := context.Background()

	docRepo, backend, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() {
		docRepo.Close()
		backend.Close()
	})

	for i := 0; i < 7; i++ {
		_, err := docRepo.AddDocuments(ctx, &core.Document{
			Title: fmt.Sprintf("doc %d", i),
			Body:  "body",
		})
		require.NoError(t, err)
	}

	t.Run("visits all documents in batches", func(t *testing.T) {
		it := NewDocumentIterator(docRepo, 3)

		var batchSizes []int
		var seen []core.ID
		err := it.ForEach(ctx, func(docs []*core.Document) error {
			batchSizes = append(batchSizes, len(docs))
			for _, doc := range docs {
				seen = append(seen, doc.Id)
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, []int{3, 3, 1}, batchSizes)
		assert.Len(t, seen, 7)
		assert.IsIncreasing(t, seen)
	})

	t.Run("stops on callback error", func(t *testing.T) {
		it := NewDocumentIterator(docRepo, 3)

		stop := errors.New("stop")
		batches := 0
		err := it.ForEach(ctx, func(docs []*core.Document) error {
			batches++
			return stop
		})
		assert.ErrorIs(t, err, stop)
		assert.Equal(t, 1, batches)
	})

	t.Run("honors context cancellation", func(t *testing.T) {
		it := NewDocumentIterator(docRepo, 3)

		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		err := it.ForEach(cancelled, func(docs []*core.Document) error {
			t.Fatal("callback should not run")
			return nil
		})
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("empty store yields no batches", func(t *testing.T) {
		emptyRepo, emptyBackend, err := badger.NewMemoryRepository()
		require.NoError(t, err)
		defer emptyRepo.Close()
		defer emptyBackend.Close()

		it := NewDocumentIterator(emptyRepo, 3)
		err = it.ForEach(ctx, func(docs []*core.Document) error {
			t.Fatal("callback should not run")
			return nil
		})
		require.NoError(t, err)
	})
}
