// Copyright 2025 Harvestra
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


// Package ai defines the capability interfaces the retrieval engine consumes
// from external collaborators: text embedding and raw-byte text extraction.
//
// The engine depends only on these abstractions. Two implementation
// sub-packages are provided:
//
//   - ai/openai: embeddings via OpenAI-compatible APIs
//   - ai/extract: text extractors (readability HTML, plain text)
//   - ai/mock: deterministic test doubles
//
// Public constructors in the implementation packages return interface types
// to enforce abstraction; mock constructors return concrete types so tests
// can inject behavior and assert call counts.
package ai
