package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const uriScheme = "normsearch://"

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "snapshot",
		Name:        "snapshot",
		Description: "Metadata of the currently loaded corpus snapshot",
		MIMEType:    "application/json",
	}, s.handleSnapshotResource)
}

// handleSnapshotResource returns the loaded snapshot's metadata, or a
// not-ready marker when no snapshot is loaded.
func (s *Server) handleSnapshotResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	type snapshotInfo struct {
		Ready          bool   `json:"ready"`
		ID             string `json:"id,omitempty"`
		SourceDir      string `json:"source_dir,omitempty"`
		EmbeddingModel string `json:"embedding_model,omitempty"`
		Dimension      int    `json:"dimension,omitempty"`
		ChunkCount     int    `json:"chunk_count,omitempty"`
		CreatedAt      string `json:"created_at,omitempty"`
	}

	info := snapshotInfo{}
	if snap := s.ports.Retrieval.Snapshot(); snap != nil {
		info = snapshotInfo{
			Ready:          true,
			ID:             snap.ID,
			SourceDir:      snap.SourceDir,
			EmbeddingModel: snap.EmbeddingModel,
			Dimension:      snap.Dimension,
			ChunkCount:     snap.ChunkCount,
			CreatedAt:      snap.CreatedAt.Format(time.RFC3339),
		}
	}

	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling snapshot info: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
