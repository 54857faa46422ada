package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// QueryInput is the input schema for the query tool.
type QueryInput struct {
	Question string `json:"question" jsonschema:"the question to answer from the corpus"`
	TopK     int    `json:"top_k,omitempty" jsonschema:"number of chunks to retrieve (default 5)"`
	Answer   bool   `json:"answer,omitempty" jsonschema:"generate an answer when a generator is configured"`
}

// QueryOutput is the output schema for the query tool.
type QueryOutput struct {
	Results []QueryResultOutput `json:"results"`
	Context string              `json:"context"`
	Answer  string              `json:"answer,omitempty"`
	Count   int                 `json:"count"`
}

// QueryResultOutput represents a single retrieved chunk.
type QueryResultOutput struct {
	SourceID string  `json:"source_id"`
	ChunkID  int     `json:"chunk_id"`
	Score    float64 `json:"score"`
	Rank     int     `json:"rank"`
	Text     string  `json:"text"`
}

// RebuildInput is the input schema for the rebuild tool.
type RebuildInput struct {
	SourceDir string `json:"source_dir" jsonschema:"directory of text files to ingest"`
}

// RebuildOutput is the output schema for the rebuild tool.
type RebuildOutput struct {
	SnapshotID     string `json:"snapshot_id"`
	FilesProcessed int    `json:"files_processed"`
	FilesSkipped   int    `json:"files_skipped"`
	FilesFailed    int    `json:"files_failed"`
	Chunks         int    `json:"chunks"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "query",
		Description: "Retrieve the most relevant corpus chunks for a question",
	}, s.handleQuery)

	if s.ports.Ingest != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "rebuild",
			Description: "Rebuild the corpus snapshot from a directory of text files",
		}, s.handleRebuild)
	}
}

// handleQuery handles the query tool invocation.
func (s *Server) handleQuery(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input QueryInput,
) (*mcp.CallToolResult, QueryOutput, error) {
	query := s.ports.Retrieval.Query
	if input.Answer {
		query = s.ports.Retrieval.Answer
	}

	resp, err := query(ctx, input.Question, input.TopK)
	if err != nil {
		return nil, QueryOutput{}, err
	}

	output := QueryOutput{
		Results: make([]QueryResultOutput, len(resp.Results)),
		Context: resp.Context,
		Answer:  resp.Answer,
		Count:   len(resp.Results),
	}
	for i, r := range resp.Results {
		output.Results[i] = QueryResultOutput{
			SourceID: r.SourceID,
			ChunkID:  r.ChunkID,
			Score:    r.Score,
			Rank:     r.Rank,
			Text:     r.Text,
		}
	}

	return nil, output, nil
}

// handleRebuild handles the rebuild tool invocation.
func (s *Server) handleRebuild(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RebuildInput,
) (*mcp.CallToolResult, RebuildOutput, error) {
	report, err := s.ports.Ingest.Build(ctx, input.SourceDir)
	if err != nil {
		return nil, RebuildOutput{}, err
	}

	// The published snapshot replaces the loaded one.
	if err := s.ports.Retrieval.Load(ctx); err != nil {
		return nil, RebuildOutput{}, err
	}

	return nil, RebuildOutput{
		SnapshotID:     report.SnapshotID,
		FilesProcessed: report.FilesProcessed,
		FilesSkipped:   report.FilesSkipped,
		FilesFailed:    report.FilesFailed,
		Chunks:         report.Chunks,
	}, nil
}
