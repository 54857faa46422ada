package domain

import "time"

// Document represents a single source text unit read during ingestion.
// It is immutable once created; re-ingestion replaces it wholesale.
type Document struct {
	// SourceID is a stable identifier, typically the filename stem.
	SourceID string

	// RawText is the text as read from disk, before normalisation.
	RawText string
}

// Chunk is a bounded slice of a document's normalised text, the unit of
// retrieval. Chunks are created once during ingestion and never mutated;
// re-chunking replaces the whole set.
type Chunk struct {
	// ChunkID is 1-based and unique within a source.
	ChunkID int

	// SourceID back-references the originating Document.
	SourceID string

	// Text is the chunk content, non-empty after trimming.
	Text string

	// CharCount is the length of Text in bytes.
	CharCount int

	// TokenCount is the approximate token length of Text.
	TokenCount int
}

// Snapshot is the versioned pairing of chunk records and a vector index.
// Both halves are built, persisted, and reloaded together; a count mismatch
// between them is a corpus integrity error.
type Snapshot struct {
	// ID uniquely identifies the snapshot.
	ID string

	// SourceDir is the directory the snapshot was built from.
	SourceDir string

	// EmbeddingModel is the identity of the embedding provider used, kept
	// for integrity checking on reload.
	EmbeddingModel string

	// Dimension is the embedding vector size.
	Dimension int

	// ChunkCount is the number of chunk records (and index vectors).
	ChunkCount int

	// IndexFile is the vector index filename, relative to the index dir.
	IndexFile string

	// CreatedAt is when the snapshot build completed.
	CreatedAt time.Time
}

// BuildReport summarises a bulk ingestion run. Per-file failures are
// isolated, so a partial corpus build reports counts instead of aborting.
type BuildReport struct {
	// SnapshotID is the published snapshot, empty when the build failed.
	SnapshotID string

	// FilesProcessed is the number of files that produced chunks.
	FilesProcessed int

	// FilesSkipped is the number of files that were empty after cleanup.
	FilesSkipped int

	// FilesFailed is the number of files that could not be read or chunked.
	FilesFailed int

	// Chunks is the total number of chunks in the snapshot.
	Chunks int
}
