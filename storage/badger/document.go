package badger

import (
	"bytes"
	"context"
	"errors"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/docsearch/core"
	"github.com/poiesic/docsearch/storage"
)

// DocumentRepository implements storage.DocumentRepository for BadgerDB.
type DocumentRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.DocumentRepository = (*DocumentRepository)(nil)

// NewDocumentRepository creates a new DocumentRepository.
func NewDocumentRepository(backend *Backend) (*DocumentRepository, error) {
	idSeq, err := backend.GetSequence(documentIDSeq)
	if err != nil {
		return nil, err
	}

	return &DocumentRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *DocumentRepository) Close() error {
	return r.idSeq.Release()
}

// FindSimilar delegates to the backend.
func (r *DocumentRepository) FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*core.SearchResult, error) {
	return r.backend.FindSimilar(ctx, vector, minSimilarity, limit)
}

// WithTransaction delegates to the backend.
func (r *DocumentRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddDocuments adds one or more documents to storage. The SearchVector is
// derived from the current Title and Body inside the same transaction that
// stores the record, so the lexical index is never out of step with the text.
func (r *DocumentRepository) AddDocuments(ctx context.Context, docs ...*core.Document) ([]*core.Document, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, doc := range docs {
			nextID, err := r.idSeq.Next()
			if err != nil {
				return err
			}
			// BadgerDB sequences can return 0 on first call, so we skip it
			if nextID == 0 {
				nextID, err = r.idSeq.Next()
				if err != nil {
					return err
				}
			}
			doc.Id = core.ID(nextID)

			doc.InsertedAt = time.Now().UTC()
			doc.UpdatedAt = doc.InsertedAt

			// Derive the lexical index; caller-supplied values are overwritten
			doc.SearchVector = core.BuildSearchVector(doc.Title, doc.Body)

			key := makeDocumentKey(doc.Id)
			value := storage.MarshalDocument(doc)
			if err := tx.Set(key, value); err != nil {
				return err
			}

			if err := r.writeTermIndex(tx, doc); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return docs, err
}

// UpdateDocuments updates existing documents, rederiving the SearchVector and
// replacing the document's term index entries.
func (r *DocumentRepository) UpdateDocuments(ctx context.Context, docs ...*core.Document) ([]*core.Document, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, doc := range docs {
			key := makeDocumentKey(doc.Id)

			old, err := r.readDocument(tx, key)
			if err != nil {
				return err
			}
			if old == nil {
				return storage.ErrNotFound
			}

			doc.InsertedAt = old.InsertedAt
			doc.UpdatedAt = time.Now().UTC()
			doc.SearchVector = core.BuildSearchVector(doc.Title, doc.Body)

			if err := r.deleteTermIndex(tx, old); err != nil {
				return err
			}

			value := storage.MarshalDocument(doc)
			if err := tx.Set(key, value); err != nil {
				return err
			}

			if err := r.writeTermIndex(tx, doc); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return docs, err
}

// DeleteDocuments removes documents by their IDs along with their term index
// entries.
func (r *DocumentRepository) DeleteDocuments(ctx context.Context, ids ...core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeDocumentKey(id)

			doc, err := r.readDocument(tx, key)
			if err != nil {
				return err
			}
			if doc == nil {
				return storage.ErrNotFound
			}

			if err := r.deleteTermIndex(tx, doc); err != nil {
				return err
			}
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetDocument retrieves a single document by ID.
func (r *DocumentRepository) GetDocument(ctx context.Context, id core.ID) (*core.Document, error) {
	var doc *core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		doc, err = r.readDocument(tx, makeDocumentKey(id))
		return err
	}, false)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, storage.ErrNotFound
	}
	return doc, nil
}

// GetDocuments retrieves multiple documents by their IDs.
// Missing documents are skipped without error.
func (r *DocumentRepository) GetDocuments(ctx context.Context, ids ...core.ID) ([]*core.Document, error) {
	docs := make([]*core.Document, 0, len(ids))
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			doc, err := r.readDocument(tx, makeDocumentKey(id))
			if err != nil {
				return err
			}
			if doc != nil {
				docs = append(docs, doc)
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// ListDocuments retrieves documents ordered by ascending ID.
// Document keys encode IDs in decimal, so key order is not numeric order;
// records are collected and sorted before pagination is applied.
func (r *DocumentRepository) ListDocuments(ctx context.Context, offset, limit int) ([]*core.Document, error) {
	var docs []*core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		docs, err = r.scanDocuments(tx)
		return err
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(docs, func(a, b *core.Document) int {
		if a.Id < b.Id {
			return -1
		}
		if a.Id > b.Id {
			return 1
		}
		return 0
	})

	if offset > 0 {
		if offset >= len(docs) {
			return []*core.Document{}, nil
		}
		docs = docs[offset:]
	}
	if limit > 0 && len(docs) > limit {
		docs = docs[:limit]
	}
	return docs, nil
}

// CountDocuments returns the number of stored documents.
func (r *DocumentRepository) CountDocuments(ctx context.Context) (int, error) {
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(documentPrefix)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if bytes.Equal(iter.Item().Key(), []byte(documentIDSeq)) {
				continue
			}
			count++
		}
		return nil
	}, false)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// UpdateEmbedding sets the embedding vector of a document. The text fields
// and lexical index are untouched.
func (r *DocumentRepository) UpdateEmbedding(ctx context.Context, id core.ID, vector []float32) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeDocumentKey(id)

		doc, err := r.readDocument(tx, key)
		if err != nil {
			return err
		}
		if doc == nil {
			return storage.ErrNotFound
		}

		doc.Vector = vector
		doc.UpdatedAt = time.Now().UTC()

		if err := tx.Set(key, storage.MarshalDocument(doc)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// SearchTerms ranks documents against the given query terms using the term
// index. Rank accumulates the indexed weight of each distinct matched term.
func (r *DocumentRepository) SearchTerms(ctx context.Context, terms []string, limit int) ([]core.TermMatch, error) {
	if len(terms) == 0 {
		return []core.TermMatch{}, nil
	}

	ranks := make(map[core.ID]float32)
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		seen := make(map[string]bool, len(terms))
		for _, term := range terms {
			if term == "" || seen[term] {
				continue
			}
			seen[term] = true

			opts := badger.DefaultIteratorOptions
			opts.Prefix = makePartialTermKey(term)
			iter := tx.NewIterator(opts)

			for iter.Rewind(); iter.Valid(); iter.Next() {
				item := iter.Item()
				id, ok := termKeyID(item.Key())
				if !ok {
					continue
				}
				err := item.Value(func(val []byte) error {
					if w, ok := unmarshalWeight(val); ok {
						ranks[id] += w
					}
					return nil
				})
				if err != nil {
					iter.Close()
					return err
				}
			}
			iter.Close()
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	matches := make([]core.TermMatch, 0, len(ranks))
	for id, rank := range ranks {
		matches = append(matches, core.TermMatch{DocumentId: id, Rank: rank})
	}

	// Descending rank, ties by ascending ID for deterministic ordering
	slices.SortFunc(matches, func(a, b core.TermMatch) int {
		if a.Rank > b.Rank {
			return -1
		}
		if a.Rank < b.Rank {
			return 1
		}
		if a.DocumentId < b.DocumentId {
			return -1
		}
		if a.DocumentId > b.DocumentId {
			return 1
		}
		return 0
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// readDocument reads and unmarshals a document by key within a transaction.
// Returns nil, nil when the key does not exist.
func (r *DocumentRepository) readDocument(tx *badger.Txn, key []byte) (*core.Document, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var doc *core.Document
	err = item.Value(func(val []byte) error {
		var err error
		doc, err = storage.UnmarshalDocument(val)
		return err
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// scanDocuments reads all primary document records within a transaction.
func (r *DocumentRepository) scanDocuments(tx *badger.Txn) ([]*core.Document, error) {
	var docs []*core.Document

	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(documentPrefix)
	iter := tx.NewIterator(opts)
	defer iter.Close()

	for iter.Rewind(); iter.Valid(); iter.Next() {
		item := iter.Item()
		if bytes.Equal(item.Key(), []byte(documentIDSeq)) {
			continue
		}

		var doc *core.Document
		err := item.Value(func(val []byte) error {
			var err error
			doc, err = storage.UnmarshalDocument(val)
			return err
		})
		if err != nil {
			return nil, err
		}
		if doc != nil {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

// writeTermIndex writes one posting per term of the document's SearchVector.
func (r *DocumentRepository) writeTermIndex(tx *badger.Txn, doc *core.Document) error {
	for term, weight := range doc.SearchVector {
		if err := tx.Set(makeTermKey(term, doc.Id), marshalWeight(weight)); err != nil {
			return err
		}
	}
	return nil
}

// deleteTermIndex removes the document's postings for its stored SearchVector.
func (r *DocumentRepository) deleteTermIndex(tx *badger.Txn, doc *core.Document) error {
	for term := range doc.SearchVector {
		if err := tx.Delete(makeTermKey(term, doc.Id)); err != nil {
			return err
		}
	}
	return nil
}
