package normaliser

import (
	"strings"
	"testing"
)

func TestNormalise(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "empty input",
			input: "",
			want:  "",
		},
		{
			name:  "whitespace only",
			input: "  \t \n\n  ",
			want:  "",
		},
		{
			name:  "control characters stripped",
			input: "before\x00\x08after",
			want:  "beforeafter",
		},
		{
			name:  "newline and tab survive",
			input: "a\nb\tc",
			want:  "a\nb\tc",
		},
		{
			name:  "carriage returns dropped",
			input: "line one\r\nline two",
			want:  "line one\nline two",
		},
		{
			name:  "newline runs collapse to paragraph boundary",
			input: "para one\n\n\n\n\npara two",
			want:  "para one\n\npara two",
		},
		{
			name:  "horizontal whitespace collapses",
			input: "too   many\t\t spaces",
			want:  "too many spaces",
		},
		{
			name:  "line edges trimmed",
			input: "  indented line  \n\ttabbed line\t",
			want:  "indented line\ntabbed line",
		},
		{
			name:  "hyphenated line break rejoined",
			input: "regula-\nment applies",
			want:  "regulament applies",
		},
		{
			name:  "hyphenated break with indent rejoined",
			input: "regula-\n   ment applies",
			want:  "regulament applies",
		},
		{
			name:  "no space before punctuation",
			input: "clause one , clause two .",
			want:  "clause one, clause two.",
		},
		{
			name:  "space inserted after punctuation",
			input: "first sentence.Second sentence",
			want:  "first sentence. Second sentence",
		},
		{
			name:  "hyphenated break with trailing space rejoined",
			input: "regula- \nment applies",
			want:  "regulament applies",
		},
		{
			name:  "chained hyphenated breaks rejoined",
			input: "regu-\nla-\nment",
			want:  "regulament",
		},
		{
			name:  "html entities pass through untouched",
			input: "fish &amp; chips",
			want:  "fish &amp; chips",
		},
		{
			name:  "curly quotes straightened",
			input: "\u201cquoted\u201d and \u2018single\u2019",
			want:  `"quoted" and 'single'`,
		},
		{
			name:  "hyphen runs bounded",
			input: "section ------ break",
			want:  "section --- break",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalise(tt.input)
			if got != tt.want {
				t.Errorf("Normalise(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormaliseIdempotent(t *testing.T) {
	samples := []string{
		"",
		"plain sentence.",
		"  messy \t input\x01 with junk\n\n\n\nand more .Text here",
		"hyphen-\nated words , and entities &lt;tag&gt;",
		"word- \nword",
		"chain re-\ngu-\nla-\nment of splits",
		"fish &amp;lt; chips",
		"\u201cquotes\u201d everywhere.Next!And ?more",
		strings.Repeat("paragraph text with several sentences. ", 20) + "\n\n\n\nend",
	}

	for _, s := range samples {
		once := Normalise(s)
		twice := Normalise(once)
		if once != twice {
			t.Errorf("not idempotent for %q:\nonce:  %q\ntwice: %q", s, once, twice)
		}
	}
}

func TestNormaliseDegradesGracefully(t *testing.T) {
	// Pure control garbage yields an empty string, never an error.
	if got := Normalise("\x00\x01\x02\x03"); got != "" {
		t.Errorf("expected empty output for control garbage, got %q", got)
	}
}
