package driving

import (
	"context"

	"github.com/normsearch/normsearch-cli/internal/core/domain"
)

// RetrievalService answers questions against the current corpus snapshot.
type RetrievalService interface {
	// Load reads the current snapshot and makes the service ready.
	// A chunk/index mismatch fails with domain.ErrCorpusIntegrity; a missing
	// snapshot fails with domain.ErrSnapshotNotFound.
	Load(ctx context.Context) error

	// Ready reports whether a snapshot is loaded.
	Ready() bool

	// Snapshot returns the loaded snapshot metadata, or nil when not ready.
	Snapshot() *domain.Snapshot

	// Query embeds the question, searches the index for the top k chunks,
	// and assembles a ranked context block. An empty or whitespace-only
	// question fails with domain.ErrEmptyQuery before any embedding call.
	Query(ctx context.Context, question string, k int) (*domain.QueryResponse, error)

	// Answer runs Query and, when an answer generator is configured, fills
	// QueryResponse.Answer. Without a generator the response carries context
	// only.
	Answer(ctx context.Context, question string, k int) (*domain.QueryResponse, error)
}

// IngestService builds corpus snapshots from a directory of text files.
type IngestService interface {
	// Build ingests every *.txt file under sourceDir into a new snapshot
	// and publishes it atomically. Per-file failures are counted, not fatal.
	Build(ctx context.Context, sourceDir string) (*domain.BuildReport, error)

	// Watch rebuilds the snapshot whenever sourceDir changes. It blocks
	// until ctx is cancelled.
	Watch(ctx context.Context, sourceDir string) error
}
