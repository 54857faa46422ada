package driven

import "context"

// EmbeddingService generates vector embeddings from text.
//
// The provider is an external capability: a local model runtime or a remote
// API. The core only requires a deterministic dimension across calls; it
// normalises every returned vector to unit L2 norm itself before storage or
// query, so inner product equals cosine similarity.
//
// Implementations do not retry internally on behalf of the core; retry and
// timeout policy belongs to the adapter.
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts. The result must
	// have exactly one vector per input text; a mismatched batch is an
	// embedding failure.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g. 384, 768, 1536).
	Dimensions() int

	// ModelName returns the embedding model identity. It is recorded in
	// snapshot metadata and checked on reload.
	ModelName() string

	// Ping validates the provider is reachable with a lightweight request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
