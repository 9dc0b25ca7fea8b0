package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidateDocument(t *testing.T) {
	tests := []struct {
		name    string
		doc     *Document
		wantErr error
	}{
		{
			name: "valid document",
			doc:  &Document{Title: "Engineer", Body: "builds things"},
		},
		{
			name: "title only",
			doc:  &Document{Title: "Engineer"},
		},
		{
			name: "body only",
			doc:  &Document{Body: "builds things"},
		},
		{
			name:    "nil document",
			doc:     nil,
			wantErr: ErrInvalidDocument,
		},
		{
			name:    "empty title and body",
			doc:     &Document{},
			wantErr: ErrEmptyDocument,
		},
		{
			name:    "future timestamp",
			doc:     &Document{Title: "t", UpdatedAt: time.Now().Add(time.Hour)},
			wantErr: ErrInvalidTimestamp,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDocument(tt.doc)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateEmbedding(t *testing.T) {
	t.Run("empty vector is valid", func(t *testing.T) {
		assert.NoError(t, ValidateEmbedding(nil, 1536))
	})

	t.Run("matching dimension", func(t *testing.T) {
		assert.NoError(t, ValidateEmbedding(make([]float32, 4), 4))
	})

	t.Run("mismatched dimension", func(t *testing.T) {
		assert.ErrorIs(t, ValidateEmbedding(make([]float32, 3), 4), ErrVectorDimension)
	})

	t.Run("unconfigured dimension accepts any", func(t *testing.T) {
		assert.NoError(t, ValidateEmbedding(make([]float32, 7), 0))
	})
}
