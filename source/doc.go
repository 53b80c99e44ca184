// Package source defines the document-source capability and its registry.
//
// A Source is anything that can retrieve a document by id, search its own
// corpus, and enumerate documents for warm-up indexing. Variants live in
// sub-packages (source/file, source/api) and in package index, which adapts
// the vector index to the same capability.
//
// The Registry tracks sources in registration order, probes their health,
// and excludes sources that fail consecutive probes from fan-out until a
// probe succeeds again. It also bounds the number of outstanding concurrent
// calls per source.
package source
