package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/normsearch/normsearch-cli/internal/core/domain"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current corpus snapshot",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	snap, err := a.store.CurrentSnapshot(cmd.Context())
	if err != nil {
		if errors.Is(err, domain.ErrSnapshotNotFound) {
			cmd.Println("No corpus snapshot published.")
			return nil
		}
		return err
	}

	cmd.Printf("Snapshot:        %s\n", snap.ID)
	cmd.Printf("Source:          %s\n", snap.SourceDir)
	cmd.Printf("Embedding model: %s (%d dimensions)\n", snap.EmbeddingModel, snap.Dimension)
	cmd.Printf("Chunks:          %d\n", snap.ChunkCount)
	cmd.Printf("Created:         %s\n", snap.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	return nil
}
