package services

import (
	"context"
	"errors"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/normsearch/normsearch-cli/internal/chunker"
	"github.com/normsearch/normsearch-cli/internal/core/domain"
	"github.com/normsearch/normsearch-cli/internal/core/ports/driven"
	"github.com/normsearch/normsearch-cli/internal/core/ports/driving"
	"github.com/normsearch/normsearch-cli/internal/index/flat"
	"github.com/normsearch/normsearch-cli/internal/logger"
	"github.com/normsearch/normsearch-cli/internal/normaliser"
)

// DefaultEmbedBatchSize bounds the number of chunks sent to the embedding
// provider per request.
const DefaultEmbedBatchSize = 32

// DefaultWatchDebounce is how long Watch waits after the last filesystem
// event before rebuilding.
const DefaultWatchDebounce = 2 * time.Second

// IngestService builds and publishes corpus snapshots from text files.
type IngestService struct {
	store     driven.SnapshotStore
	embedder  driven.EmbeddingService
	chunker   *chunker.Chunker
	indexDir  string
	batchSize int
	debounce  time.Duration
}

var _ driving.IngestService = (*IngestService)(nil)

// IngestOption customises an IngestService.
type IngestOption func(*IngestService)

// WithEmbedBatchSize overrides the embedding batch size.
func WithEmbedBatchSize(n int) IngestOption {
	return func(s *IngestService) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithWatchDebounce overrides the watch rebuild debounce interval.
func WithWatchDebounce(d time.Duration) IngestOption {
	return func(s *IngestService) {
		if d > 0 {
			s.debounce = d
		}
	}
}

// NewIngestService creates an ingestion service. indexDir is where vector
// index files are written; it is created on first build if missing.
func NewIngestService(store driven.SnapshotStore, embedder driven.EmbeddingService, ck *chunker.Chunker, indexDir string, opts ...IngestOption) *IngestService {
	s := &IngestService{
		store:     store,
		embedder:  embedder,
		chunker:   ck,
		indexDir:  indexDir,
		batchSize: DefaultEmbedBatchSize,
		debounce:  DefaultWatchDebounce,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Build ingests every *.txt file under sourceDir into a new snapshot and
// publishes it. Files that cannot be read or embedded are counted as failed
// and the rest of the corpus still builds; a run that yields no chunks at
// all fails without touching the published snapshot.
func (s *IngestService) Build(ctx context.Context, sourceDir string) (*domain.BuildReport, error) {
	start := time.Now()
	report := &domain.BuildReport{}

	entries, err := os.ReadDir(sourceDir)
	if err != nil {
		return report, fmt.Errorf("reading source directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".txt") {
			continue
		}
		names = append(names, e.Name())
	}
	logger.Info("Building corpus from %s (%d text files)", sourceDir, len(names))

	var chunks []domain.Chunk
	var vectors [][]float32
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		fileChunks, fileVectors, err := s.ingestFile(ctx, filepath.Join(sourceDir, name))
		if err != nil {
			logger.Warn("Skipping %s: %v", name, err)
			report.FilesFailed++
			continue
		}
		if len(fileChunks) == 0 {
			logger.Debug("File %s empty after cleanup, skipped", name)
			report.FilesSkipped++
			continue
		}
		chunks = append(chunks, fileChunks...)
		vectors = append(vectors, fileVectors...)
		report.FilesProcessed++
	}

	if len(chunks) == 0 {
		return report, fmt.Errorf("no usable text found in %s", sourceDir)
	}

	idx, err := flat.Build(vectors)
	if err != nil {
		return report, err
	}

	if err := os.MkdirAll(s.indexDir, 0o755); err != nil {
		return report, fmt.Errorf("creating index directory: %w", err)
	}

	snapID := uuid.New().String()
	indexFile := snapID + ".idx"
	if err := idx.Save(filepath.Join(s.indexDir, indexFile)); err != nil {
		return report, err
	}

	snap := domain.Snapshot{
		ID:             snapID,
		SourceDir:      sourceDir,
		EmbeddingModel: s.embedder.ModelName(),
		Dimension:      s.embedder.Dimensions(),
		ChunkCount:     len(chunks),
		IndexFile:      indexFile,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.store.SaveSnapshot(ctx, snap, chunks); err != nil {
		return report, err
	}
	if err := s.store.Publish(ctx, snapID); err != nil {
		return report, err
	}
	s.prune(ctx, snapID)

	report.SnapshotID = snapID
	report.Chunks = len(chunks)
	logger.Info("Published snapshot %s: %d chunks from %d files in %s",
		snapID, report.Chunks, report.FilesProcessed, time.Since(start).Round(time.Millisecond))
	return report, nil
}

// ingestFile normalises, chunks, and embeds one file. A failure anywhere in
// the file is isolated to that file.
func (s *IngestService) ingestFile(ctx context.Context, path string) ([]domain.Chunk, [][]float32, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}

	// Entities are decoded once here; Normalise stays idempotent by never
	// unescaping itself.
	text := normaliser.Normalise(html.UnescapeString(string(raw)))
	if text == "" {
		return nil, nil, nil
	}

	pieces := s.chunker.Split(text)
	if len(pieces) == 0 {
		return nil, nil, nil
	}

	sourceID := strings.TrimSuffix(filepath.Base(path), ".txt")
	chunks := make([]domain.Chunk, 0, len(pieces))
	for i, piece := range pieces {
		chunks = append(chunks, domain.Chunk{
			ChunkID:    i + 1,
			SourceID:   sourceID,
			Text:       piece,
			CharCount:  len(piece),
			TokenCount: chunker.CountTokens(piece),
		})
	}

	vectors, err := s.embedChunks(ctx, pieces)
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("Ingested %s: %d chunks", sourceID, len(chunks))
	return chunks, vectors, nil
}

// embedChunks embeds texts in bounded batches and normalises every vector
// to unit length so inner product equals cosine similarity.
func (s *IngestService) embedChunks(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += s.batchSize {
		end := start + s.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch, err := s.embedder.EmbedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		for _, v := range batch {
			vectors = append(vectors, flat.Normalize(v))
		}
	}
	return vectors, nil
}

// prune removes superseded snapshots and their index files. Failures here
// leave stale files behind but never affect the published snapshot.
func (s *IngestService) prune(ctx context.Context, keepID string) {
	stale, err := s.store.PruneExcept(ctx, keepID)
	if err != nil {
		logger.Warn("Pruning old snapshots failed: %v", err)
		return
	}
	for _, name := range stale {
		if err := os.Remove(filepath.Join(s.indexDir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.Debug("Could not remove stale index file %s: %v", name, err)
		}
	}
}

// Watch rebuilds the snapshot whenever sourceDir changes, coalescing bursts
// of filesystem events into a single rebuild. It blocks until ctx is
// cancelled.
func (s *IngestService) Watch(ctx context.Context, sourceDir string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(sourceDir); err != nil {
		return fmt.Errorf("watching %s: %w", sourceDir, err)
	}
	logger.Info("Watching %s for changes", sourceDir)

	timer := time.NewTimer(s.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !relevantEvent(event) {
				continue
			}
			logger.Debug("Change detected: %s %s", event.Op, event.Name)
			timer.Reset(s.debounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)
		case <-timer.C:
			if _, err := s.Build(ctx, sourceDir); err != nil {
				if errors.Is(err, context.Canceled) {
					return err
				}
				logger.Error("Rebuild failed: %v", err)
			}
		}
	}
}

// relevantEvent reports whether a filesystem event should trigger a rebuild.
func relevantEvent(event fsnotify.Event) bool {
	if !strings.HasSuffix(event.Name, ".txt") {
		return false
	}
	return event.Op.Has(fsnotify.Create | fsnotify.Write | fsnotify.Remove | fsnotify.Rename)
}
