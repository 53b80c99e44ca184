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


package source

import "errors"

var (
	// ErrNilSource indicates an attempt to register a nil source.
	ErrNilSource = errors.New("source cannot be nil")

	// ErrDuplicateSource indicates a source name is already registered.
	ErrDuplicateSource = errors.New("source already registered")

	// ErrUnknownSource indicates a source name is not in the registry.
	ErrUnknownSource = errors.New("unknown source")

	// ErrInvalidMaxAttempts indicates a non-positive retry attempt count.
	ErrInvalidMaxAttempts = errors.New("max attempts must be positive")
)
