package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrInvalidConfig indicates an invalid chunking or index configuration,
	// such as overlap >= chunk size. It is surfaced before any processing
	// begins.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrEmbedding indicates the embedding provider was unreachable or
	// returned a mismatched batch or dimension. It aborts the operation in
	// progress without corrupting prior state.
	ErrEmbedding = errors.New("embedding failed")

	// ErrIndexIntegrity indicates a count mismatch between vectors added to
	// the index and vectors expected. It is fatal for the build operation.
	ErrIndexIntegrity = errors.New("index integrity violation")

	// ErrCorpusIntegrity indicates the loaded chunk records and vector index
	// do not agree (count, dimension, or embedding model). It blocks the
	// retrieval service from becoming ready.
	ErrCorpusIntegrity = errors.New("corpus integrity violation")

	// ErrEmptyQuery indicates an empty or whitespace-only question. It is
	// recoverable and causes no state change.
	ErrEmptyQuery = errors.New("empty query")

	// ErrSnapshotNotFound indicates no published corpus snapshot exists.
	// The decision to fall back or fail belongs to the caller.
	ErrSnapshotNotFound = errors.New("snapshot not found")

	// ErrNotReady indicates the retrieval service has not loaded a snapshot.
	ErrNotReady = errors.New("retrieval service not ready")

	// ErrAnswerUnavailable indicates no answer generator is configured.
	// Retrieval still functions, returning context only.
	ErrAnswerUnavailable = errors.New("answer generator unavailable")
)
