// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - EmbeddingService: Generates fixed-dimension vector embeddings
//   - SnapshotStore: Corpus snapshot and chunk record persistence
//
// # Optional Interfaces
//
//   - AnswerGenerator: Produces answers from retrieved context. When nil,
//     queries still return ranked results and context.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
