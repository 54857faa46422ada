package driven

import (
	"context"

	"github.com/normsearch/normsearch-cli/internal/core/domain"
)

// SnapshotStore persists corpus snapshots: the chunk records and the
// metadata that pairs them with a vector index file.
//
// A snapshot only becomes visible to readers once Publish flips the current
// pointer, so a crashed build never exposes a partially written corpus.
type SnapshotStore interface {
	// SaveSnapshot stores the snapshot metadata and its chunk records in a
	// single transaction. The snapshot is not yet current.
	SaveSnapshot(ctx context.Context, snap domain.Snapshot, chunks []domain.Chunk) error

	// Publish atomically marks the snapshot as current.
	Publish(ctx context.Context, snapshotID string) error

	// CurrentSnapshot returns the published snapshot, or
	// domain.ErrSnapshotNotFound when none has been published. The caller
	// decides how to handle absence; the store never substitutes data.
	CurrentSnapshot(ctx context.Context) (*domain.Snapshot, error)

	// Chunks returns the snapshot's chunk records in index position order.
	Chunks(ctx context.Context, snapshotID string) ([]domain.Chunk, error)

	// PruneExcept deletes all snapshots except the given one, returning the
	// index filenames of the deleted snapshots so the caller can remove
	// their files.
	PruneExcept(ctx context.Context, snapshotID string) ([]string, error)

	// Close releases the underlying storage.
	Close() error
}
