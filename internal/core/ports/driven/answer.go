package driven

import "context"

// AnswerGenerator produces an answer to a question from assembled context.
//
// This is an optional collaborator, resolved once at startup rather than
// probed per call: when it is absent the retrieval service still returns
// ranked results and context.
type AnswerGenerator interface {
	// Generate answers the question using only the supplied context block.
	Generate(ctx context.Context, question, contextBlock string) (string, error)

	// ModelName returns the generation model identity.
	ModelName() string
}
