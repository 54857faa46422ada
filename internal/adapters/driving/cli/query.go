package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/normsearch/normsearch-cli/internal/core/domain"
)

var (
	queryTopK   int
	queryJSON   bool
	queryAnswer bool
)

var queryCmd = &cobra.Command{
	Use:   "query [question]",
	Short: "Retrieve the most relevant chunks for a question",
	Long: `Embeds the question and searches the current corpus snapshot for the
most similar chunks, printing them with their provenance. With
--answer and a configured generator, also generates an answer from
the retrieved context.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 0, "number of chunks to retrieve (default from config)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output the response as JSON")
	queryCmd.Flags().BoolVar(&queryAnswer, "answer", false, "generate an answer from the retrieved context")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	question := args[0]

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	if err := a.retrieval.Load(ctx); err != nil {
		if errors.Is(err, domain.ErrSnapshotNotFound) {
			return fmt.Errorf("no corpus snapshot found; run 'normsearch index <source-dir>' first")
		}
		return err
	}

	k := queryTopK
	if k == 0 {
		k = a.cfg.Retrieval.TopK
	}

	var resp *domain.QueryResponse
	if queryAnswer {
		if !a.cfg.Answer.Enabled {
			return fmt.Errorf("%w: enable [answer] in the config file", domain.ErrAnswerUnavailable)
		}
		resp, err = a.retrieval.Answer(ctx, question, k)
	} else {
		resp, err = a.retrieval.Query(ctx, question, k)
	}
	if err != nil {
		if errors.Is(err, domain.ErrEmptyQuery) {
			return fmt.Errorf("question must not be empty")
		}
		return err
	}

	if queryJSON {
		return outputQueryJSON(cmd, resp)
	}
	return outputQueryText(cmd, resp)
}

func outputQueryJSON(cmd *cobra.Command, resp *domain.QueryResponse) error {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal response: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputQueryText(cmd *cobra.Command, resp *domain.QueryResponse) error {
	if len(resp.Results) == 0 {
		cmd.Println("No matching chunks found.")
		return nil
	}

	for _, r := range resp.Results {
		cmd.Printf("[%d] %s #%d (%.3f)\n", r.Rank+1, r.SourceID, r.ChunkID, r.Score)
		cmd.Printf("    %s\n\n", r.Text)
	}

	if resp.Answer != "" {
		cmd.Println("Answer:")
		cmd.Printf("  %s\n", resp.Answer)
	}
	return nil
}
