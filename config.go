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

package corpus

import (
	"fmt"
	"time"

	"github.com/harvestra/corpus/ai"
	"github.com/harvestra/corpus/cache"
	"github.com/harvestra/corpus/core"
)

// Fingerprint strategies for cross-source deduplication.
const (
	FingerprintContent = "content"
	FingerprintID      = "id"
)

// Extractor selections.
const (
	ExtractorReadability = "readability"
	ExtractorPlain       = "plain"
)

// FileSource describes a directory of documents to serve.
type FileSource struct {
	Name string
	Dir  string
}

// APISource describes a remote knowledge-base endpoint.
type APISource struct {
	Name    string
	BaseURL string
	APIKey  string
}

// Config holds every knob the engine recognizes. Validate once, then treat
// as immutable; the engine copies it at construction.
type Config struct {
	// Sources. At least one file, API, or local-index source must end up
	// registered; EnableIndex adds the local hybrid index as a source.
	FileSources []FileSource
	APISources  []APISource
	EnableIndex bool

	// Fan-out.
	SourceTimeout time.Duration // per-source deadline, default 5s
	MaxConcurrent int           // outstanding calls per source, default 8

	// Cache.
	CacheDir       string        // empty means in-memory persistent tier
	CacheCapacity  int64         // resident byte quota, default 64 MiB
	DocumentTTL    time.Duration // default 10m
	SearchTTL      time.Duration // default 2m
	EvictionPolicy cache.Policy  // lru, lfu, or ttl; default lru

	// Ranking.
	SimilarityThreshold float64 // default 0.6
	VectorWeight        float64 // default 0.6
	KeywordWeight       float64 // default 0.4
	FingerprintStrategy string  // content or id, default content

	// Content handling.
	Extractor string     // readability or plain, default readability
	AI        *ai.Config // embedder endpoint, nil means ai.DefaultConfig()

	// Initialization behavior.
	WarmIndex bool // index every source's documents during Initialize
	SeedDocs  bool // seed sample documents into empty file source dirs
}

// DefaultConfig returns the engine defaults: no sources, local index
// enabled, in-memory cache, content-based dedup.
func DefaultConfig() Config {
	return Config{
		EnableIndex:         true,
		SourceTimeout:       5 * time.Second,
		MaxConcurrent:       8,
		CacheCapacity:       64 << 20,
		DocumentTTL:         10 * time.Minute,
		SearchTTL:           2 * time.Minute,
		EvictionPolicy:      cache.PolicyLRU,
		SimilarityThreshold: 0.6,
		VectorWeight:        0.6,
		KeywordWeight:       0.4,
		FingerprintStrategy: FingerprintContent,
		Extractor:           ExtractorReadability,
		AI:                  ai.DefaultConfig(),
	}
}

// Validate checks the configuration for contradictions and fills nothing
// in; apply DefaultConfig first and override from there.
func (c *Config) Validate() error {
	if len(c.FileSources) == 0 && len(c.APISources) == 0 && !c.EnableIndex {
		return fmt.Errorf("%w: no sources configured", core.ErrValidation)
	}
	for _, fs := range c.FileSources {
		if fs.Name == "" || fs.Dir == "" {
			return fmt.Errorf("%w: file source needs name and dir", core.ErrValidation)
		}
	}
	for _, as := range c.APISources {
		if as.Name == "" || as.BaseURL == "" {
			return fmt.Errorf("%w: api source needs name and base url", core.ErrValidation)
		}
	}
	if c.SourceTimeout <= 0 {
		return fmt.Errorf("%w: source timeout %v", core.ErrValidation, c.SourceTimeout)
	}
	if c.MaxConcurrent < 1 {
		return fmt.Errorf("%w: max concurrent %d", core.ErrValidation, c.MaxConcurrent)
	}
	if c.CacheCapacity <= 0 {
		return fmt.Errorf("%w: cache capacity %d", cache.ErrInvalidCapacity, c.CacheCapacity)
	}
	if _, err := cache.ParsePolicy(string(c.EvictionPolicy)); err != nil {
		return err
	}
	if c.SimilarityThreshold < 0 || c.SimilarityThreshold > 1 {
		return fmt.Errorf("%w: similarity threshold %g", core.ErrInvalidThreshold, c.SimilarityThreshold)
	}
	if err := core.ValidateHybridWeights(c.VectorWeight, c.KeywordWeight); err != nil {
		return err
	}
	switch c.FingerprintStrategy {
	case FingerprintContent, FingerprintID:
	default:
		return fmt.Errorf("%w: fingerprint strategy %q", core.ErrValidation, c.FingerprintStrategy)
	}
	switch c.Extractor {
	case ExtractorReadability, ExtractorPlain:
	default:
		return fmt.Errorf("%w: extractor %q", core.ErrValidation, c.Extractor)
	}
	if c.AI != nil {
		if err := c.AI.Validate(); err != nil {
			return err
		}
	}
	return nil
}
