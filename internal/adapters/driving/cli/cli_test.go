package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/normsearch/normsearch-cli/internal/core/domain"
)

func TestVersionCmd_Executes(t *testing.T) {
	originalVersion := version
	version = "1.2.3"
	defer func() { version = originalVersion }()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"version"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "normsearch version 1.2.3")
}

func TestQueryCmd_RequiresExactlyOneArg(t *testing.T) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"query"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestQueryCmd_Flags(t *testing.T) {
	topK := queryCmd.Flags().Lookup("top-k")
	require.NotNil(t, topK)
	assert.Equal(t, "k", topK.Shorthand)

	require.NotNil(t, queryCmd.Flags().Lookup("json"))
	require.NotNil(t, queryCmd.Flags().Lookup("answer"))
}

func TestIndexCmd_Flags(t *testing.T) {
	for _, name := range []string{"chunk-size", "chunk-overlap", "method", "boundary-fraction", "watch"} {
		assert.NotNil(t, indexCmd.Flags().Lookup(name), "flag %s should exist", name)
	}
}

func TestRootCmd_PersistentFlags(t *testing.T) {
	for _, name := range []string{"config", "index-dir", "verbose"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(name), "flag %s should exist", name)
	}
}

func TestOutputQueryText_NoResults(t *testing.T) {
	buf := new(bytes.Buffer)
	cmd := queryCmd
	cmd.SetOut(buf)

	err := outputQueryText(cmd, &domain.QueryResponse{Question: "anything"})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "No matching chunks found.")
}

func TestOutputQueryText_RanksAndAnswer(t *testing.T) {
	buf := new(bytes.Buffer)
	cmd := queryCmd
	cmd.SetOut(buf)

	resp := &domain.QueryResponse{
		Results: []domain.QueryResult{
			{ChunkID: 2, SourceID: "guide", Text: "Eviction is LRU.", Score: 0.91, Rank: 0},
			{ChunkID: 1, SourceID: "intro", Text: "The cache holds entries.", Score: 0.55, Rank: 1},
		},
		Answer: "Least recently used.",
	}
	require.NoError(t, outputQueryText(cmd, resp))

	out := buf.String()
	assert.Contains(t, out, "[1] guide #2 (0.910)")
	assert.Contains(t, out, "[2] intro #1 (0.550)")
	assert.Contains(t, out, "Answer:")
	assert.Contains(t, out, "Least recently used.")
}

func TestOutputQueryJSON(t *testing.T) {
	buf := new(bytes.Buffer)
	cmd := queryCmd
	cmd.SetOut(buf)

	resp := &domain.QueryResponse{
		Question: "eviction?",
		Results: []domain.QueryResult{
			{ChunkID: 2, SourceID: "guide", Text: "Eviction is LRU.", Score: 0.91},
		},
	}
	require.NoError(t, outputQueryJSON(cmd, resp))
	assert.Contains(t, buf.String(), `"Question": "eviction?"`)
	assert.Contains(t, buf.String(), `"SourceID": "guide"`)
}

func TestMCPServeCmd_HasPortFlag(t *testing.T) {
	flag := mcpServeCmd.Flags().Lookup("port")
	require.NotNil(t, flag)
	assert.Equal(t, "p", flag.Shorthand)
	assert.Equal(t, "0", flag.DefValue)
}
