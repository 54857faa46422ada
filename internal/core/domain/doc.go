// Package domain defines the core entities for normsearch.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: A source text unit read during ingestion
//   - Chunk: A bounded, overlapping slice of a document's normalised text
//   - Snapshot: The versioned pairing of chunk records and a vector index
//   - QueryResult: A ranked retrieval hit
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
