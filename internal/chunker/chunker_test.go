package chunker

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/normsearch/normsearch-cli/internal/core/domain"
)

func TestNew(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		c, err := New(Config{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if c.size != DefaultChunkSize {
			t.Errorf("expected chunk size %d, got %d", DefaultChunkSize, c.size)
		}
		if c.overlap != DefaultChunkOverlap {
			t.Errorf("expected overlap %d, got %d", DefaultChunkOverlap, c.overlap)
		}
		if c.method != MethodCharacter {
			t.Errorf("expected method %q, got %q", MethodCharacter, c.method)
		}
	})

	t.Run("overlap at chunk size rejected", func(t *testing.T) {
		_, err := New(Config{ChunkSize: 100, Overlap: 100})
		if !errors.Is(err, domain.ErrInvalidConfig) {
			t.Fatalf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("overlap above chunk size rejected", func(t *testing.T) {
		_, err := New(Config{ChunkSize: 100, Overlap: 150})
		if !errors.Is(err, domain.ErrInvalidConfig) {
			t.Fatalf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("negative overlap rejected", func(t *testing.T) {
		_, err := New(Config{ChunkSize: 100, Overlap: -1})
		if !errors.Is(err, domain.ErrInvalidConfig) {
			t.Fatalf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("unknown method rejected", func(t *testing.T) {
		_, err := New(Config{ChunkSize: 100, Overlap: 10, Method: "sentence"})
		if !errors.Is(err, domain.ErrInvalidConfig) {
			t.Fatalf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("boundary fraction out of range rejected", func(t *testing.T) {
		_, err := New(Config{ChunkSize: 100, Overlap: 10, BoundaryFraction: 1.5})
		if !errors.Is(err, domain.ErrInvalidConfig) {
			t.Fatalf("expected ErrInvalidConfig, got %v", err)
		}
	})
}

func TestSplitCharacters(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		c := mustNew(t, Config{ChunkSize: 100, Overlap: 20})
		if got := c.Split(""); got != nil {
			t.Errorf("expected nil, got %v", got)
		}
		if got := c.Split("   \n  "); got != nil {
			t.Errorf("expected nil for whitespace, got %v", got)
		}
	})

	t.Run("short text is a single chunk", func(t *testing.T) {
		c := mustNew(t, Config{ChunkSize: 100, Overlap: 20})
		got := c.Split("a short paragraph.")
		if len(got) != 1 || got[0] != "a short paragraph." {
			t.Errorf("expected single chunk, got %v", got)
		}
	})

	t.Run("splits at sentence boundary", func(t *testing.T) {
		text := strings.Repeat("x", 60) + ". " + strings.Repeat("y", 60)
		c := mustNew(t, Config{ChunkSize: 100, Overlap: 10})
		got := c.Split(text)
		if len(got) != 2 {
			t.Fatalf("expected 2 chunks, got %d: %v", len(got), got)
		}
		if !strings.HasSuffix(got[0], ".") {
			t.Errorf("first chunk should end at the sentence boundary, got %q", got[0])
		}
	})

	t.Run("boundary before threshold is ignored", func(t *testing.T) {
		// The only delimiter sits at position 11, well before the midpoint
		// of a 100-char chunk, so the window must cut hard at 100.
		text := strings.Repeat("a", 10) + ". " + strings.Repeat("b", 150)
		c := mustNew(t, Config{ChunkSize: 100, Overlap: 10})
		got := c.Split(text)
		if len(got[0]) != 100 {
			t.Errorf("expected hard cut at 100 chars, got %d: %q", len(got[0]), got[0])
		}
	})

	t.Run("chunk bound holds", func(t *testing.T) {
		text := sentences(80)
		c := mustNew(t, Config{ChunkSize: 200, Overlap: 40})
		got := c.Split(text)
		for i, chunk := range got {
			if len(chunk) > 200 {
				t.Errorf("chunk %d exceeds size: %d chars", i, len(chunk))
			}
		}
	})

	t.Run("consecutive chunks overlap", func(t *testing.T) {
		text := sentences(80)
		c := mustNew(t, Config{ChunkSize: 200, Overlap: 40})
		got := c.Split(text)
		if len(got) < 2 {
			t.Fatalf("expected multiple chunks, got %d", len(got))
		}
		for i := 0; i < len(got)-1; i++ {
			head := got[i+1]
			if len(head) > 20 {
				head = head[:20]
			}
			if !strings.Contains(got[i], head) {
				t.Errorf("chunk %d head %q not found in chunk %d tail", i+1, head, i)
			}
		}
	})

	t.Run("coverage is preserved", func(t *testing.T) {
		// Every sentence of the input must appear in some chunk.
		text := sentences(40)
		c := mustNew(t, Config{ChunkSize: 300, Overlap: 60})
		got := c.Split(text)
		joined := strings.Join(got, " ")
		for _, s := range strings.SplitAfter(text, ". ") {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			if !strings.Contains(joined, s) {
				t.Errorf("sentence %q missing from chunks", s)
			}
		}
	})

	t.Run("multi-byte runes never split", func(t *testing.T) {
		// Accented text with no sentence boundary forces hard cuts and
		// overlap restarts; neither may land inside a rune.
		text := strings.Repeat("é", 300)
		c := mustNew(t, Config{ChunkSize: 101, Overlap: 20})
		got := c.Split(text)
		if len(got) < 2 {
			t.Fatalf("expected multiple chunks, got %d", len(got))
		}
		for i, chunk := range got {
			if !utf8.ValidString(chunk) {
				t.Errorf("chunk %d is not valid UTF-8: %q", i, chunk)
			}
			if n := utf8.RuneCountInString(chunk); n > 101 {
				t.Errorf("chunk %d has %d runes, want at most 101", i, n)
			}
			for _, r := range chunk {
				if r != 'é' {
					t.Errorf("chunk %d carries corrupted rune %q", i, r)
				}
			}
		}
	})

	t.Run("accented boundary split stays valid", func(t *testing.T) {
		text := strings.Repeat("á", 30) + ". " + strings.Repeat("ç", 60)
		c := mustNew(t, Config{ChunkSize: 50, Overlap: 10})
		for i, chunk := range c.Split(text) {
			if !utf8.ValidString(chunk) {
				t.Errorf("chunk %d is not valid UTF-8: %q", i, chunk)
			}
		}
	})

	t.Run("2500 chars with size 1000 overlap 200", func(t *testing.T) {
		var b strings.Builder
		for b.Len() < 2500 {
			b.WriteString("the regulation establishes the duties of the council. ")
		}
		text := b.String()[:2500]
		c := mustNew(t, Config{ChunkSize: 1000, Overlap: 200})
		got := c.Split(text)
		if len(got) < 3 || len(got) > 4 {
			t.Fatalf("expected 3-4 chunks, got %d", len(got))
		}
		for i, chunk := range got {
			if len(chunk) > 1000 {
				t.Errorf("chunk %d exceeds 1000 chars: %d", i, len(chunk))
			}
		}
	})
}

func TestSplitTokens(t *testing.T) {
	t.Run("short text is a single chunk", func(t *testing.T) {
		c := mustNew(t, Config{ChunkSize: 50, Overlap: 10, Method: MethodToken})
		got := c.Split("only a few tokens here.")
		if len(got) != 1 {
			t.Fatalf("expected single chunk, got %v", got)
		}
	})

	t.Run("sizes counted in tokens", func(t *testing.T) {
		text := sentences(60)
		c := mustNew(t, Config{ChunkSize: 40, Overlap: 8, Method: MethodToken})
		got := c.Split(text)
		if len(got) < 2 {
			t.Fatalf("expected multiple chunks, got %d", len(got))
		}
		for i, chunk := range got {
			if n := CountTokens(chunk); n > 40 {
				t.Errorf("chunk %d has %d tokens, want <= 40", i, n)
			}
		}
	})

	t.Run("cuts at sentence boundary", func(t *testing.T) {
		text := sentences(60)
		c := mustNew(t, Config{ChunkSize: 40, Overlap: 8, Method: MethodToken})
		got := c.Split(text)
		for i, chunk := range got[:len(got)-1] {
			if !strings.HasSuffix(chunk, ".") {
				t.Errorf("chunk %d does not end at a sentence boundary: %q", i, chunk[len(chunk)-10:])
			}
		}
	})

	t.Run("deterministic", func(t *testing.T) {
		text := sentences(60)
		c := mustNew(t, Config{ChunkSize: 40, Overlap: 8, Method: MethodToken})
		a := c.Split(text)
		b := c.Split(text)
		if len(a) != len(b) {
			t.Fatalf("length mismatch: %d vs %d", len(a), len(b))
		}
		for i := range a {
			if a[i] != b[i] {
				t.Errorf("chunk %d differs between runs", i)
			}
		}
	})
}

func TestCountTokens(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"", 0},
		{"   ", 0},
		{"one", 1},
		{"one two three", 3},
		{"spread\nacross\nlines and\ttabs", 5},
	}
	for _, tt := range tests {
		if got := CountTokens(tt.input); got != tt.want {
			t.Errorf("CountTokens(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

// sentences builds n short sentences of varying length.
func sentences(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteString("the committee shall review article ")
		b.WriteString(strings.Repeat("x", i%7+1))
		b.WriteString(" of the statute. ")
	}
	return strings.TrimSpace(b.String())
}

func mustNew(t *testing.T, cfg Config) *Chunker {
	t.Helper()
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}
