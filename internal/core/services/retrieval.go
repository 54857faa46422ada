package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/normsearch/normsearch-cli/internal/core/domain"
	"github.com/normsearch/normsearch-cli/internal/core/ports/driven"
	"github.com/normsearch/normsearch-cli/internal/core/ports/driving"
	"github.com/normsearch/normsearch-cli/internal/index/flat"
	"github.com/normsearch/normsearch-cli/internal/logger"
)

// DefaultTopK is the number of chunks retrieved when the caller does not
// specify one.
const DefaultTopK = 5

// corpus is an immutable loaded snapshot: metadata, chunk records, and the
// vector index, position-aligned.
type corpus struct {
	meta   domain.Snapshot
	chunks []domain.Chunk
	index  *flat.Index
}

// RetrievalService answers questions against the loaded corpus snapshot.
// The snapshot is swapped atomically on Load, so in-flight queries always
// see a consistent chunk/index pairing.
type RetrievalService struct {
	store    driven.SnapshotStore
	embedder driven.EmbeddingService
	answerer driven.AnswerGenerator
	indexDir string

	mu     sync.RWMutex
	corpus *corpus
}

var _ driving.RetrievalService = (*RetrievalService)(nil)

// NewRetrievalService creates a retrieval service. answerer may be nil, in
// which case Answer degrades to context-only responses.
func NewRetrievalService(store driven.SnapshotStore, embedder driven.EmbeddingService, answerer driven.AnswerGenerator, indexDir string) *RetrievalService {
	return &RetrievalService{
		store:    store,
		embedder: embedder,
		answerer: answerer,
		indexDir: indexDir,
	}
}

// Load reads the published snapshot, verifies that the chunk records and
// vector index agree, and swaps it in.
func (s *RetrievalService) Load(ctx context.Context) error {
	meta, err := s.store.CurrentSnapshot(ctx)
	if err != nil {
		return err
	}

	chunks, err := s.store.Chunks(ctx, meta.ID)
	if err != nil {
		return err
	}

	idx, err := flat.Load(filepath.Join(s.indexDir, meta.IndexFile))
	if err != nil {
		return err
	}

	if err := verifyCorpus(meta, chunks, idx, s.embedder); err != nil {
		return err
	}

	s.mu.Lock()
	s.corpus = &corpus{meta: *meta, chunks: chunks, index: idx}
	s.mu.Unlock()

	logger.Info("Loaded snapshot %s: %d chunks, %d dimensions, model %s",
		meta.ID, meta.ChunkCount, meta.Dimension, meta.EmbeddingModel)
	return nil
}

// verifyCorpus checks that chunk records, vector index, and the configured
// embedding provider all describe the same corpus.
func verifyCorpus(meta *domain.Snapshot, chunks []domain.Chunk, idx *flat.Index, embedder driven.EmbeddingService) error {
	if len(chunks) != idx.Count() {
		return fmt.Errorf("%w: %d chunk records but %d index vectors",
			domain.ErrCorpusIntegrity, len(chunks), idx.Count())
	}
	if len(chunks) != meta.ChunkCount {
		return fmt.Errorf("%w: snapshot records %d chunks but store has %d",
			domain.ErrCorpusIntegrity, meta.ChunkCount, len(chunks))
	}
	if idx.Dimension() != meta.Dimension {
		return fmt.Errorf("%w: snapshot dimension %d but index dimension %d",
			domain.ErrCorpusIntegrity, meta.Dimension, idx.Dimension())
	}
	if embedder != nil {
		if got := embedder.ModelName(); got != meta.EmbeddingModel {
			return fmt.Errorf("%w: snapshot built with model %s but provider is %s",
				domain.ErrCorpusIntegrity, meta.EmbeddingModel, got)
		}
		if got := embedder.Dimensions(); got != meta.Dimension {
			return fmt.Errorf("%w: snapshot dimension %d but provider produces %d",
				domain.ErrCorpusIntegrity, meta.Dimension, got)
		}
	}
	return nil
}

// Ready reports whether a snapshot is loaded.
func (s *RetrievalService) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.corpus != nil
}

// Snapshot returns the loaded snapshot metadata, or nil when not ready.
func (s *RetrievalService) Snapshot() *domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.corpus == nil {
		return nil
	}
	meta := s.corpus.meta
	return &meta
}

// Query embeds the question, searches the index, and assembles the ranked
// context block.
func (s *RetrievalService) Query(ctx context.Context, question string, k int) (*domain.QueryResponse, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, domain.ErrEmptyQuery
	}
	if k <= 0 {
		k = DefaultTopK
	}

	s.mu.RLock()
	c := s.corpus
	s.mu.RUnlock()
	if c == nil {
		return nil, domain.ErrNotReady
	}

	vec, err := s.embedder.Embed(ctx, question)
	if err != nil {
		return nil, err
	}

	hits, err := c.index.Search(flat.Normalize(vec), k)
	if err != nil {
		return nil, err
	}

	results := collectResults(c.chunks, hits)
	logger.Debug("Query %q: %d hits, %d after dedup", question, len(hits), len(results))

	return &domain.QueryResponse{
		Question: question,
		Results:  results,
		Context:  assembleContext(results),
	}, nil
}

// collectResults maps index hits back to chunk records. Positions outside
// the chunk set are logged and skipped rather than failing the query, and
// hits with identical text keep only the best-ranked occurrence.
func collectResults(chunks []domain.Chunk, hits []flat.Hit) []domain.QueryResult {
	results := make([]domain.QueryResult, 0, len(hits))
	seen := make(map[string]struct{}, len(hits))
	for _, hit := range hits {
		if hit.Position < 0 || hit.Position >= len(chunks) {
			logger.Warn("Index position %d outside chunk set (%d chunks), skipped", hit.Position, len(chunks))
			continue
		}
		chunk := chunks[hit.Position]
		if _, dup := seen[chunk.Text]; dup {
			continue
		}
		seen[chunk.Text] = struct{}{}
		results = append(results, domain.QueryResult{
			ChunkID:  chunk.ChunkID,
			SourceID: chunk.SourceID,
			Text:     chunk.Text,
			Score:    float64(hit.Score),
			Rank:     len(results),
		})
	}
	return results
}

// assembleContext renders results as a context block: one provenance header
// per chunk, chunks separated by a rule.
func assembleContext(results []domain.QueryResult) string {
	if len(results) == 0 {
		return ""
	}
	blocks := make([]string, 0, len(results))
	for _, r := range results {
		blocks = append(blocks, fmt.Sprintf("[source: %s | chunk: %d | score: %.3f]\n%s",
			r.SourceID, r.ChunkID, r.Score, r.Text))
	}
	return strings.Join(blocks, "\n---\n")
}

// Answer runs Query and fills in a generated answer when an answer
// generator is configured. Generation failures degrade to a context-only
// response rather than failing the query.
func (s *RetrievalService) Answer(ctx context.Context, question string, k int) (*domain.QueryResponse, error) {
	resp, err := s.Query(ctx, question, k)
	if err != nil {
		return nil, err
	}
	if s.answerer == nil {
		logger.Debug("No answer generator configured, returning context only")
		return resp, nil
	}
	if len(resp.Results) == 0 {
		return resp, nil
	}

	answer, err := s.answerer.Generate(ctx, question, resp.Context)
	if err != nil {
		logger.Warn("Answer generation failed, returning context only: %v", err)
		return resp, nil
	}
	resp.Answer = answer
	return resp, nil
}
