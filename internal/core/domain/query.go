package domain

// QueryResult is a single ranked retrieval hit. It is ephemeral, produced
// per query and never persisted.
type QueryResult struct {
	// ChunkID is the 1-based chunk identifier within its source.
	ChunkID int

	// SourceID identifies the originating document.
	SourceID string

	// Text is the chunk content.
	Text string

	// Score is the inner-product similarity; higher is more similar.
	Score float64

	// Rank is the 0-based position in the returned ordering.
	Rank int
}

// QueryResponse carries the ranked results and the assembled context block
// for a single question.
type QueryResponse struct {
	// Question is the query as asked.
	Question string

	// Results are the ranked, deduplicated hits in score order.
	Results []QueryResult

	// Context is the deterministic textual context assembled from Results.
	Context string

	// Answer is the generated answer, empty when no answer generator is
	// configured.
	Answer string
}
