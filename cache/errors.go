// Copyright 2025 Harvestra
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cache

import "errors"

var (
	// ErrCorruptEntry is returned by a tier when a persisted entry cannot
	// be decoded. The manager treats it as a miss and evicts the entry.
	ErrCorruptEntry = errors.New("corrupt cache entry")

	// ErrInvalidPolicy is returned for an unrecognized eviction policy.
	ErrInvalidPolicy = errors.New("invalid eviction policy")

	// ErrInvalidCapacity is returned for a non-positive size quota.
	ErrInvalidCapacity = errors.New("invalid cache capacity")
)
