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


// Package ai provides the embedding abstraction used by docsearch.
//
// The package defines the Embedder interface so the search and backfill
// layers depend on an abstraction rather than a concrete embedding client.
//
// # Implementation Packages
//
//   - ai/openai: Production implementation using OpenAI-compatible APIs
//   - ai/mock: Deterministic test double for unit testing without external
//     dependencies
//
// # Constructor Return Type Pattern
//
// The production constructor returns the INTERFACE type to enforce
// abstraction:
//
//	embedder, err := openai.NewEmbedder(config)  // returns ai.Embedder
//
// The test constructor returns the CONCRETE type so tests can inject
// behavior and make assertions:
//
//	mockEmbed := mock.NewMockEmbedder()  // returns *mock.MockEmbedder
//	mockEmbed.EmbedTextFunc = ...        // behavior injection
//	count := mockEmbed.CallCount()       // test assertion
//
// # Failure Policy
//
// Embedding failures are surfaced to the immediate caller. Nothing in this
// package retries: the keyword retrieval path never touches an Embedder, and
// the backfill job treats a failed call as a per-document skip.
package ai
