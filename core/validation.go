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


package core

import (
	"fmt"
	"time"
)

// ValidateDocument validates a Document according to domain rules.
//
// Validation rules:
//   - Title and Body must not both be empty
//   - UpdatedAt must not be in the future
//
// NOT validated (derived or deferred fields):
//   - SearchVector (recomputed by the repository on every write)
//   - Vector (can be empty until the backfill job runs)
//   - ID (0 is valid from database sequences)
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}

	if doc.Title == "" && doc.Body == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyDocument)
	}

	if !doc.UpdatedAt.IsZero() && !IsValidTimestamp(doc.UpdatedAt) {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrInvalidTimestamp)
	}

	return nil
}

// ValidateEmbedding checks that a vector has the expected dimensionality.
// An empty vector is valid: absence of an embedding is a state, not a fault.
func ValidateEmbedding(vector []float32, dimension int) error {
	if len(vector) == 0 {
		return nil
	}
	if dimension > 0 && len(vector) != dimension {
		return fmt.Errorf("%w: expected %d, got %d", ErrVectorDimension, dimension, len(vector))
	}
	return nil
}

// IsValidTimestamp checks if a timestamp is valid (not in the future).
func IsValidTimestamp(ts time.Time) bool {
	return !ts.After(time.Now())
}
