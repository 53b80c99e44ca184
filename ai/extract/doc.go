// Package extract provides ai.Extractor implementations for turning raw
// document bytes into plain text.
//
// Two extractors are included: a readability-based extractor for HTML
// documents and a plain-text extractor that accepts UTF-8 content as-is. In
// a typical deployment the readability extractor is the primary and the
// plain-text extractor the fallback, combined with ai.NewFallbackExtractor.
package extract
