package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/normsearch/normsearch-cli/internal/config"
	"github.com/normsearch/normsearch-cli/internal/core/domain"
)

var (
	indexChunkSize        int
	indexChunkOverlap     int
	indexMethod           string
	indexBoundaryFraction float64
	indexWatch            bool
)

var indexCmd = &cobra.Command{
	Use:   "index [source-dir]",
	Short: "Build the corpus snapshot from a directory of text files",
	Long: `Reads every *.txt file under the source directory, normalises and
chunks the text, embeds each chunk, and publishes a new corpus
snapshot. The previous snapshot stays available until the new one
is published.`,
	Args: cobra.ExactArgs(1),
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().IntVar(&indexChunkSize, "chunk-size", 0, "chunk size (overrides config)")
	indexCmd.Flags().IntVar(&indexChunkOverlap, "chunk-overlap", 0, "chunk overlap (overrides config)")
	indexCmd.Flags().StringVar(&indexMethod, "method", "", "chunking method: character or token (overrides config)")
	indexCmd.Flags().Float64Var(&indexBoundaryFraction, "boundary-fraction", 0, "minimum boundary position as a fraction of chunk size (overrides config)")
	indexCmd.Flags().BoolVar(&indexWatch, "watch", false, "rebuild when the source directory changes")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	sourceDir := args[0]

	a, err := newApp(applyChunkFlags)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	report, err := a.ingest.Build(ctx, sourceDir)
	if err != nil {
		if errors.Is(err, domain.ErrEmbedding) {
			return fmt.Errorf("%w (is the embedding provider running?)", err)
		}
		return err
	}
	printReport(cmd, report)

	if indexWatch {
		return a.ingest.Watch(ctx, sourceDir)
	}
	return nil
}

// applyChunkFlags folds the chunking flag overrides into the loaded config.
func applyChunkFlags(cfg *config.Config) {
	if indexChunkSize > 0 {
		cfg.Chunking.Size = indexChunkSize
	}
	if indexChunkOverlap > 0 {
		cfg.Chunking.Overlap = indexChunkOverlap
	}
	if indexMethod != "" {
		cfg.Chunking.Method = indexMethod
	}
	if indexBoundaryFraction > 0 {
		cfg.Chunking.BoundaryFraction = indexBoundaryFraction
	}
}

func printReport(cmd *cobra.Command, report *domain.BuildReport) {
	cmd.Printf("Snapshot %s published\n", report.SnapshotID)
	cmd.Printf("  files processed: %d\n", report.FilesProcessed)
	if report.FilesSkipped > 0 {
		cmd.Printf("  files skipped:   %d\n", report.FilesSkipped)
	}
	if report.FilesFailed > 0 {
		cmd.Printf("  files failed:    %d\n", report.FilesFailed)
	}
	cmd.Printf("  chunks:          %d\n", report.Chunks)
}
