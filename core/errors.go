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

import "errors"

// Retrieval outcome errors
var (
	// ErrNotFound indicates a document is confirmed absent from every source
	// that was asked. It is a valid outcome, not a failure.
	ErrNotFound = errors.New("document not found")

	// ErrSourceUnavailable indicates a source could not be reached or failed
	// its health check. At the aggregate level it means no source responded
	// at all, so absence could not be confirmed.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrTimeout indicates a source or the whole operation exceeded its
	// deadline.
	ErrTimeout = errors.New("operation timed out")

	// ErrParseFailure indicates no extractor could produce text from raw
	// document bytes.
	ErrParseFailure = errors.New("parse failure")
)

// Validation errors
var (
	// ErrValidation indicates malformed query or filter input.
	ErrValidation = errors.New("validation failed")

	// ErrEmptyDocumentID indicates a document has no ID.
	ErrEmptyDocumentID = errors.New("document id cannot be empty")

	// ErrEmptyContent indicates a document has no content.
	ErrEmptyContent = errors.New("document content cannot be empty")

	// ErrEmptyQuery indicates a search query with no usable text.
	ErrEmptyQuery = errors.New("query cannot be empty")

	// ErrInvalidLimit indicates a non-positive result limit.
	ErrInvalidLimit = errors.New("limit must be positive")

	// ErrInvalidThreshold indicates a similarity threshold outside [0,1].
	ErrInvalidThreshold = errors.New("similarity threshold must be in [0,1]")

	// ErrInvalidWeights indicates hybrid weights that are negative or sum
	// above 1.
	ErrInvalidWeights = errors.New("hybrid weights must be non-negative and sum to at most 1")
)
