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


package search

import "errors"

var (
	// ErrDocumentRepositoryRequired is returned when a document repository is not provided.
	ErrDocumentRepositoryRequired = errors.New("document repository required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrInvalidWeights is returned when blend weights are negative or don't sum to 1.0.
	ErrInvalidWeights = errors.New("blend weights must be non-negative and sum to 1.0")

	// ErrQueryEmbedding marks a failure to obtain the query embedding from the
	// provider. Callers can use it to tell provider outages apart from
	// datastore errors.
	ErrQueryEmbedding = errors.New("query embedding failed")
)
