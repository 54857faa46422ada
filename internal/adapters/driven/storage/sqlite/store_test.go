package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/normsearch/normsearch-cli/internal/core/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testSnapshot(id string, chunks []domain.Chunk) domain.Snapshot {
	return domain.Snapshot{
		ID:             id,
		SourceDir:      "/corpus",
		EmbeddingModel: "nomic-embed-text",
		Dimension:      4,
		ChunkCount:     len(chunks),
		IndexFile:      id + ".idx",
		CreatedAt:      time.Now(),
	}
}

func testChunks() []domain.Chunk {
	return []domain.Chunk{
		{ChunkID: 1, SourceID: "statute", Text: "first chunk", CharCount: 11, TokenCount: 2},
		{ChunkID: 2, SourceID: "statute", Text: "second chunk", CharCount: 12, TokenCount: 2},
		{ChunkID: 1, SourceID: "bylaws", Text: "third chunk", CharCount: 11, TokenCount: 2},
	}
}

func TestCurrentSnapshot_Empty(t *testing.T) {
	s := newTestStore(t)

	_, err := s.CurrentSnapshot(context.Background())
	assert.ErrorIs(t, err, domain.ErrSnapshotNotFound)
}

func TestSaveAndPublish(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	chunks := testChunks()
	snap := testSnapshot("snap-1", chunks)

	require.NoError(t, s.SaveSnapshot(ctx, snap, chunks))

	// Saved but not published: still not found.
	_, err := s.CurrentSnapshot(ctx)
	assert.ErrorIs(t, err, domain.ErrSnapshotNotFound)

	require.NoError(t, s.Publish(ctx, "snap-1"))

	got, err := s.CurrentSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, "snap-1", got.ID)
	assert.Equal(t, "nomic-embed-text", got.EmbeddingModel)
	assert.Equal(t, 4, got.Dimension)
	assert.Equal(t, 3, got.ChunkCount)
	assert.Equal(t, "snap-1.idx", got.IndexFile)
}

func TestSaveSnapshot_CountMismatch(t *testing.T) {
	s := newTestStore(t)

	chunks := testChunks()
	snap := testSnapshot("snap-1", chunks)
	snap.ChunkCount = 99

	err := s.SaveSnapshot(context.Background(), snap, chunks)
	assert.ErrorIs(t, err, domain.ErrCorpusIntegrity)
}

func TestChunks_OrderPreserved(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	chunks := testChunks()
	require.NoError(t, s.SaveSnapshot(ctx, testSnapshot("snap-1", chunks), chunks))

	got, err := s.Chunks(ctx, "snap-1")
	require.NoError(t, err)
	require.Len(t, got, len(chunks))
	for i := range chunks {
		assert.Equal(t, chunks[i], got[i], "chunk %d out of order", i)
	}
}

func TestPublish_ReplacesCurrent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	chunks := testChunks()
	require.NoError(t, s.SaveSnapshot(ctx, testSnapshot("snap-1", chunks), chunks))
	require.NoError(t, s.SaveSnapshot(ctx, testSnapshot("snap-2", chunks), chunks))

	require.NoError(t, s.Publish(ctx, "snap-1"))
	require.NoError(t, s.Publish(ctx, "snap-2"))

	got, err := s.CurrentSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, "snap-2", got.ID)
}

func TestPruneExcept(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	chunks := testChunks()
	require.NoError(t, s.SaveSnapshot(ctx, testSnapshot("snap-1", chunks), chunks))
	require.NoError(t, s.SaveSnapshot(ctx, testSnapshot("snap-2", chunks), chunks))
	require.NoError(t, s.Publish(ctx, "snap-2"))

	stale, err := s.PruneExcept(ctx, "snap-2")
	require.NoError(t, err)
	assert.Equal(t, []string{"snap-1.idx"}, stale)

	// Cascade removed the stale snapshot's chunks.
	got, err := s.Chunks(ctx, "snap-1")
	require.NoError(t, err)
	assert.Empty(t, got)

	// The kept snapshot is untouched.
	kept, err := s.Chunks(ctx, "snap-2")
	require.NoError(t, err)
	assert.Len(t, kept, 3)
}
