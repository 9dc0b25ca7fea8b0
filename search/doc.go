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


// Package search provides keyword and hybrid lexical+semantic retrieval.
//
// Two independent paths are exposed:
//
//   - SearchKeyword ranks by field-weighted lexical relevance over the term
//     index. It never contacts the embedding provider.
//   - SearchHybrid blends normalized lexical relevance (weight 0.6) with
//     embedding cosine similarity (weight 0.4) over the whole corpus.
//
// Documents without an embedding participate in hybrid ranking with a vector
// contribution of zero. Equal hybrid scores order by ascending document ID,
// so a given corpus and query always produce the same ranking.
package search
