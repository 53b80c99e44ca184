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


package core

import "fmt"

// ValidateDocument validates a Document according to domain rules.
//
// Validation rules:
//   - ID must not be empty
//   - Content must not be empty
//
// NOT validated:
//   - Embedding (populated lazily by the indexer)
//   - Score (search-context only)
//   - Source (empty for documents not yet attributed)
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrValidation)
	}

	if doc.ID == "" {
		return fmt.Errorf("%w: %w", ErrValidation, ErrEmptyDocumentID)
	}

	if doc.Content == "" {
		return fmt.Errorf("%w: %w", ErrValidation, ErrEmptyContent)
	}

	return nil
}

// ValidateQuery validates a SearchQuery according to domain rules.
//
// Validation rules:
//   - Normalized text or at least one term must be present
//   - Limit must be positive
//   - MinScore must be in [0,1]
func ValidateQuery(q SearchQuery) error {
	if q.Normalized == "" && len(q.Terms) == 0 {
		return fmt.Errorf("%w: %w", ErrValidation, ErrEmptyQuery)
	}

	if q.Limit <= 0 {
		return fmt.Errorf("%w: %w: %d", ErrValidation, ErrInvalidLimit, q.Limit)
	}

	if q.MinScore < 0 || q.MinScore > 1 {
		return fmt.Errorf("%w: %w: %g", ErrValidation, ErrInvalidThreshold, q.MinScore)
	}

	return nil
}

// ValidateHybridWeights validates the vector/keyword weight pair for hybrid
// search. The weights may sum below 1 to de-emphasize both components, but
// never above.
func ValidateHybridWeights(vectorWeight, keywordWeight float64) error {
	if vectorWeight < 0 || keywordWeight < 0 || vectorWeight+keywordWeight > 1 {
		return fmt.Errorf("%w: vector=%g keyword=%g", ErrInvalidWeights, vectorWeight, keywordWeight)
	}
	return nil
}
