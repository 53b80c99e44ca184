// Package cache provides the tiered result cache: an in-process LRU fast
// tier in front of a persistent tier, with per-operation TTLs, size-quota
// eviction, request collapsing, and pattern invalidation.
package cache
