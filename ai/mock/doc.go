// Package mock provides test double implementations of the ai interfaces.
//
// The mocks allow tests to run without external services and enable
// controlled, deterministic behavior:
//
//   - MockEmbedder: returns deterministic vectors derived from a text hash
//   - MockExtractor: returns the raw bytes as text
//
// Custom behavior is injected via function fields; call counts are exposed
// for assertions.
package mock
