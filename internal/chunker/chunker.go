// Package chunker splits normalised text into bounded, overlapping segments
// at natural sentence boundaries.
package chunker

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/normsearch/normsearch-cli/internal/core/domain"
)

// Chunking methods. Character counts size and overlap in Unicode code
// points; Token counts them in whitespace-delimited tokens.
const (
	MethodCharacter = "character"
	MethodToken     = "token"
)

// DefaultChunkSize is the default chunk size.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default overlap between consecutive chunks.
const DefaultChunkOverlap = 200

// DefaultBoundaryFraction is how far into a chunk a sentence boundary must
// fall to be accepted, as a fraction of the chunk size. The 0.5 threshold is
// an empirical heuristic, kept configurable rather than hardcoded.
const DefaultBoundaryFraction = 0.5

// boundaryDelimiters is the ordered preference list for the backward
// boundary search. Earlier entries win.
var boundaryDelimiters = []string{". ", ".\n", "! ", "!\n", "? ", "?\n", "\n\n"}

// Config configures a Chunker. Zero values fall back to defaults, except
// Overlap which is only defaulted when ChunkSize is also zero.
type Config struct {
	// ChunkSize is the target segment size. Soft: a segment may exceed it
	// only when the final text slice has no natural boundary.
	ChunkSize int

	// Overlap is how much consecutive segments share. Must satisfy
	// 0 <= Overlap < ChunkSize.
	Overlap int

	// Method selects character or token counting.
	Method string

	// BoundaryFraction overrides DefaultBoundaryFraction when > 0.
	BoundaryFraction float64
}

// Chunker splits text using a sliding window with boundary-aware ends.
type Chunker struct {
	size    int
	overlap int
	method  string
	frac    float64
}

// New validates the configuration and builds a Chunker. An overlap at or
// above the chunk size would stall the sliding window, so it fails fast
// with domain.ErrInvalidConfig instead of looping at runtime.
func New(cfg Config) (*Chunker, error) {
	if cfg.ChunkSize == 0 && cfg.Overlap == 0 {
		cfg.ChunkSize = DefaultChunkSize
		cfg.Overlap = DefaultChunkOverlap
	}
	if cfg.Method == "" {
		cfg.Method = MethodCharacter
	}
	if cfg.BoundaryFraction == 0 {
		cfg.BoundaryFraction = DefaultBoundaryFraction
	}

	if cfg.ChunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size %d must be positive", domain.ErrInvalidConfig, cfg.ChunkSize)
	}
	if cfg.Overlap < 0 {
		return nil, fmt.Errorf("%w: overlap %d must not be negative", domain.ErrInvalidConfig, cfg.Overlap)
	}
	if cfg.Overlap >= cfg.ChunkSize {
		return nil, fmt.Errorf("%w: overlap %d must be smaller than chunk size %d",
			domain.ErrInvalidConfig, cfg.Overlap, cfg.ChunkSize)
	}
	if cfg.Method != MethodCharacter && cfg.Method != MethodToken {
		return nil, fmt.Errorf("%w: unknown chunking method %q", domain.ErrInvalidConfig, cfg.Method)
	}
	if cfg.BoundaryFraction < 0 || cfg.BoundaryFraction >= 1 {
		return nil, fmt.Errorf("%w: boundary fraction %v must be in [0, 1)",
			domain.ErrInvalidConfig, cfg.BoundaryFraction)
	}

	return &Chunker{
		size:    cfg.ChunkSize,
		overlap: cfg.Overlap,
		method:  cfg.Method,
		frac:    cfg.BoundaryFraction,
	}, nil
}

// Split divides text into overlapping segments. Empty input yields nil.
func (c *Chunker) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if c.method == MethodToken {
		return c.splitTokens(text)
	}
	return c.splitCharacters(text)
}

// splitCharacters slides a code-point window over the text, pulling each
// tentative end back to the nearest sentence boundary past the boundary
// threshold. All offsets are rune indices, so a hard cut or an overlap
// restart never lands inside a multi-byte rune.
func (c *Chunker) splitCharacters(text string) []string {
	runes := []rune(text)
	if len(runes) <= c.size {
		return emit(nil, text)
	}

	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + c.size
		if end >= len(runes) {
			end = len(runes)
		} else {
			// The boundary search works in bytes within the window text.
			window := string(runes[start:end])
			minPos := len(string(runes[start : start+int(float64(c.size)*c.frac)]))
			if cut, ok := findBoundary(window, minPos); ok {
				end = start + utf8.RuneCountInString(window[:cut])
			}
		}

		chunks = emit(chunks, string(runes[start:end]))

		if end >= len(runes) {
			break
		}
		next := end - c.overlap
		if next <= start {
			// A boundary close to the threshold combined with a large
			// overlap must not move the window backwards.
			next = end
		}
		start = next
	}
	return chunks
}

// splitTokens runs the same algorithm over a whitespace-token stream,
// applying the boundary search to the decoded text of each candidate window.
func (c *Chunker) splitTokens(text string) []string {
	toks := tokenize(text)
	if len(toks) == 0 {
		return nil
	}
	if len(toks) <= c.size {
		return emit(nil, text)
	}

	var chunks []string
	start := 0
	for start < len(toks) {
		end := start + c.size
		last := false
		if end >= len(toks) {
			end = len(toks)
			last = true
		}

		winStart := toks[start].start
		winEnd := toks[end-1].end
		cutEnd := end

		if !last {
			minTok := start + int(float64(c.size)*c.frac)
			if minTok >= len(toks) {
				minTok = len(toks) - 1
			}
			minPos := toks[minTok].start - winStart
			if cut, ok := findBoundary(text[winStart:winEnd], minPos); ok {
				winEnd = winStart + cut
				// Resume after the last token wholly inside the cut.
				cutEnd = start + 1
				for cutEnd < end && toks[cutEnd].end <= winEnd {
					cutEnd++
				}
			}
		}

		chunks = emit(chunks, text[winStart:winEnd])

		if last {
			break
		}
		next := cutEnd - c.overlap
		if next <= start {
			next = cutEnd
		}
		start = next
	}
	return chunks
}

// findBoundary searches window backwards for the preferred delimiter whose
// position falls past minPos, returning the offset just past it.
func findBoundary(window string, minPos int) (int, bool) {
	for _, delim := range boundaryDelimiters {
		idx := strings.LastIndex(window, delim)
		if idx > minPos {
			return idx + len(delim), true
		}
	}
	return 0, false
}

// emit appends the trimmed piece, dropping empties.
func emit(chunks []string, piece string) []string {
	piece = strings.TrimSpace(piece)
	if piece == "" {
		return chunks
	}
	return append(chunks, piece)
}

// span marks a token's byte range within the source text.
type span struct {
	start int
	end   int
}

// tokenize splits text into whitespace-delimited tokens, keeping byte
// offsets so chunks can be cut from the original text.
func tokenize(text string) []span {
	var toks []span
	inTok := false
	tokStart := 0
	for i, r := range text {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			if inTok {
				toks = append(toks, span{start: tokStart, end: i})
				inTok = false
			}
			continue
		}
		if !inTok {
			tokStart = i
			inTok = true
		}
	}
	if inTok {
		toks = append(toks, span{start: tokStart, end: len(text)})
	}
	return toks
}

// CountTokens reports the approximate token length of text. It matches the
// token stream Split uses in token mode.
func CountTokens(text string) int {
	return len(tokenize(text))
}
