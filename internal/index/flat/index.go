// Package flat provides an exact inner-product vector index.
//
// Vectors are stored in insertion order and searched by brute force. Over
// unit-normalised vectors the inner product equals cosine similarity, so the
// index favours correctness and simplicity over sub-linear search. That is
// the right trade for corpora up to roughly 10^5 chunks.
//
// The index is read-only after Build, so concurrent Search calls need no
// locking.
package flat

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/normsearch/normsearch-cli/internal/core/domain"
)

// Metric names the similarity metric recorded in persisted indexes.
const Metric = "inner_product"

// File format constants.
const (
	fileVersion  = 1
	metricFlatIP = 1
)

// magic identifies a persisted flat index file.
var magic = [4]byte{'N', 'S', 'I', 'X'}

// Hit is a single search result: the vector's insertion position and its
// inner-product score.
type Hit struct {
	Position int
	Score    float32
}

// Index is an immutable exact-search structure over fixed-dimension vectors.
type Index struct {
	dim  int
	data []float32 // row-major, count*dim values
}

// Build stores the vectors in insertion order. All vectors must share one
// dimension; a mismatch fails with domain.ErrIndexIntegrity. The built
// index always satisfies Count() == len(vectors).
func Build(vectors [][]float32) (*Index, error) {
	if len(vectors) == 0 {
		return &Index{}, nil
	}

	dim := len(vectors[0])
	if dim == 0 {
		return nil, fmt.Errorf("%w: zero-dimension vector at position 0", domain.ErrIndexIntegrity)
	}

	data := make([]float32, 0, len(vectors)*dim)
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("%w: vector %d has dimension %d, want %d",
				domain.ErrIndexIntegrity, i, len(v), dim)
		}
		data = append(data, v...)
	}

	idx := &Index{dim: dim, data: data}
	if idx.Count() != len(vectors) {
		return nil, fmt.Errorf("%w: index holds %d vectors, expected %d",
			domain.ErrIndexIntegrity, idx.Count(), len(vectors))
	}
	return idx, nil
}

// Dimension returns the vector size, 0 when none has been set.
func (x *Index) Dimension() int { return x.dim }

// Count returns the number of stored vectors.
func (x *Index) Count() int {
	if x.dim == 0 {
		return 0
	}
	return len(x.data) / x.dim
}

// Search returns the k highest-scoring positions for the query vector in
// descending score order. Ties break by ascending position, so repeated
// searches on an unmodified index are identical. k is clamped to Count().
func (x *Index) Search(query []float32, k int) ([]Hit, error) {
	count := x.Count()
	if count == 0 || k <= 0 {
		return nil, nil
	}
	if len(query) != x.dim {
		return nil, fmt.Errorf("%w: query dimension %d, index dimension %d",
			domain.ErrIndexIntegrity, len(query), x.dim)
	}
	if k > count {
		k = count
	}

	hits := make([]Hit, count)
	for i := 0; i < count; i++ {
		row := x.data[i*x.dim : (i+1)*x.dim]
		hits[i] = Hit{Position: i, Score: Dot(row, query)}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Position < hits[j].Position
	})

	return hits[:k], nil
}

// Save persists the index to path. The file carries a header (magic,
// version, metric, dimension, count) followed by little-endian float32
// vector data. The write goes through a temp file and rename so a crashed
// save never leaves a truncated index behind.
func (x *Index) Save(path string) error {
	count := x.Count()

	buf := make([]byte, 0, 16+len(x.data)*4)
	buf = append(buf, magic[:]...)
	buf = binary.LittleEndian.AppendUint16(buf, fileVersion)
	buf = append(buf, metricFlatIP, 0)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(x.dim))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(count))
	for _, f := range x.data {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".index-*")
	if err != nil {
		return fmt.Errorf("creating temp index file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(buf); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing index: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing index file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("publishing index file: %w", err)
	}
	return nil
}

// Load reads an index persisted by Save. Count, dimension, and vector
// values round-trip exactly.
func Load(path string) (*Index, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading index file: %w", err)
	}
	if len(raw) < 16 {
		return nil, fmt.Errorf("%w: index file too short (%d bytes)", domain.ErrIndexIntegrity, len(raw))
	}
	if [4]byte(raw[:4]) != magic {
		return nil, fmt.Errorf("%w: bad index file magic", domain.ErrIndexIntegrity)
	}
	if v := binary.LittleEndian.Uint16(raw[4:6]); v != fileVersion {
		return nil, fmt.Errorf("%w: unsupported index version %d", domain.ErrIndexIntegrity, v)
	}
	if raw[6] != metricFlatIP {
		return nil, fmt.Errorf("%w: unsupported metric %d", domain.ErrIndexIntegrity, raw[6])
	}

	dim := int(binary.LittleEndian.Uint32(raw[8:12]))
	count := int(binary.LittleEndian.Uint32(raw[12:16]))
	if count == 0 {
		// Keep the persisted dimension so query vectors are still checked
		// against an empty index.
		return &Index{dim: dim}, nil
	}
	if dim <= 0 {
		return nil, fmt.Errorf("%w: invalid dimension %d", domain.ErrIndexIntegrity, dim)
	}

	body := raw[16:]
	want := count * dim * 4
	if len(body) != want {
		return nil, fmt.Errorf("%w: index body is %d bytes, want %d",
			domain.ErrIndexIntegrity, len(body), want)
	}

	data := make([]float32, count*dim)
	for i := range data {
		data[i] = math.Float32frombits(binary.LittleEndian.Uint32(body[i*4:]))
	}
	return &Index{dim: dim, data: data}, nil
}
