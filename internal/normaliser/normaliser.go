// Package normaliser cleans raw extracted text before chunking.
//
// Extracted normative documents arrive with OCR and converter artifacts:
// control characters, ragged whitespace, hyphenated line-break word splits,
// and spacing errors around sentence punctuation. Normalise repairs these
// while preserving paragraph boundaries.
//
// Normalise never fails; malformed input degrades to a smaller or empty
// string. It is idempotent: Normalise(Normalise(x)) == Normalise(x).
package normaliser

import (
	"regexp"
	"strings"
)

var (
	hyphenBreak    = regexp.MustCompile(`(\p{L})-\n[ \t]*(\p{L})`)
	horizontalRuns = regexp.MustCompile(`[ \t]{2,}`)
	lineLeading    = regexp.MustCompile(`(?m)^[ \t]+`)
	lineTrailing   = regexp.MustCompile(`(?m)[ \t]+$`)
	newlineRuns    = regexp.MustCompile(`\n{3,}`)
	spaceBefore    = regexp.MustCompile(`\s+([.,;:!?])`)
	missingAfter   = regexp.MustCompile(`([.,;:!?])(\p{L})`)
	curlyDoubles   = regexp.MustCompile("[“”„]")
	curlySingles   = regexp.MustCompile("[‘’‚]")
	hyphenRuns     = regexp.MustCompile(`-{3,}`)
)

// Normalise cleans raw document text: it strips control characters
// (keeping newline and tab), rejoins words split across line breaks,
// collapses whitespace, and fixes spacing around sentence punctuation.
// Runs of three or more newlines collapse to exactly two so paragraph
// boundaries survive.
//
// HTML entity decoding is not part of Normalise: unescaping is not
// idempotent, so callers decode entities exactly once before normalising.
func Normalise(raw string) string {
	if raw == "" {
		return ""
	}

	text := stripControl(raw)

	text = horizontalRuns.ReplaceAllString(text, " ")
	text = lineLeading.ReplaceAllString(text, "")
	text = lineTrailing.ReplaceAllString(text, "")

	// Rejoin "word-\nword" after line edges are trimmed, so a trailing
	// space before the break cannot hide the split. Iterated because a
	// rejoin can expose the next split in a chain.
	for {
		joined := hyphenBreak.ReplaceAllString(text, "$1$2")
		if joined == text {
			break
		}
		text = joined
	}

	text = newlineRuns.ReplaceAllString(text, "\n\n")

	text = spaceBefore.ReplaceAllString(text, "$1")
	text = missingAfter.ReplaceAllString(text, "$1 $2")

	text = curlyDoubles.ReplaceAllString(text, `"`)
	text = curlySingles.ReplaceAllString(text, "'")
	text = hyphenRuns.ReplaceAllString(text, "---")

	return strings.TrimSpace(text)
}

// stripControl removes control characters except newline and tab.
func stripControl(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if r == '\n' || r == '\t' {
			b.WriteRune(r)
			continue
		}
		if r < 0x20 || r == 0x7f {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
