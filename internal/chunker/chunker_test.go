package chunker

import (
	"fmt"
	"strings"
	"testing"

	"github.com/buildingassets/buildingchat/internal/model"
)

func makePage(words int) model.PageText {
	parts := make([]string, 0, words)
	for i := 0; i < words; i++ {
		parts = append(parts, fmt.Sprintf("w%d", i))
	}
	return model.PageText{Page: 1, Text: strings.Join(parts, " "), WordCount: words}
}

func TestChunkPages_SmallPageSingleChunk(t *testing.T) {
	c := New(512, 50)
	chunks := c.ChunkPages([]model.PageText{makePage(100)})
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].WordCount != 100 {
		t.Fatalf("unexpected word count: %d", chunks[0].WordCount)
	}
	if chunks[0].ChunkIndex != 0 || chunks[0].TotalChunks != 1 {
		t.Fatalf("bad index/total: %d/%d", chunks[0].ChunkIndex, chunks[0].TotalChunks)
	}
}

func TestChunkPages_CoversEveryWord(t *testing.T) {
	cases := []struct {
		window  int
		overlap int
		words   int
	}{
		{10, 2, 100},
		{512, 50, 1200},
		{5, 4, 37},
		{7, 0, 50},
	}
	for _, tc := range cases {
		c := New(tc.window, tc.overlap)
		chunks := c.ChunkPages([]model.PageText{makePage(tc.words)})
		seen := map[string]bool{}
		for _, ch := range chunks {
			ws := strings.Fields(ch.Text)
			if len(ws) > tc.window {
				t.Fatalf("window=%d overlap=%d: chunk has %d words", tc.window, tc.overlap, len(ws))
			}
			for _, w := range ws {
				seen[w] = true
			}
		}
		if len(seen) != tc.words {
			t.Fatalf("window=%d overlap=%d: covered %d of %d words", tc.window, tc.overlap, len(seen), tc.words)
		}
	}
}

func TestChunkPages_OverlapGEWindowTerminates(t *testing.T) {
	c := New(5, 5)
	chunks := c.ChunkPages([]model.PageText{makePage(30)})
	if len(chunks) == 0 {
		t.Fatal("expected chunks")
	}
	if len(chunks) > 30 {
		t.Fatalf("more chunks than words: %d", len(chunks))
	}
	c = New(5, 9)
	chunks = c.ChunkPages([]model.PageText{makePage(30)})
	if len(chunks) > 30 {
		t.Fatalf("more chunks than words: %d", len(chunks))
	}
}

func TestChunkPages_GlobalIndexAcrossPages(t *testing.T) {
	c := New(512, 50)
	chunks := c.ChunkPages([]model.PageText{
		{Page: 1, Text: "alpha beta gamma"},
		{Page: 2, Text: "delta epsilon"},
	})
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	for i, ch := range chunks {
		if ch.ChunkIndex != i {
			t.Fatalf("chunk %d has index %d", i, ch.ChunkIndex)
		}
		if ch.TotalChunks != 2 {
			t.Fatalf("chunk %d has total %d", i, ch.TotalChunks)
		}
	}
	if chunks[1].Page != 2 {
		t.Fatalf("page number lost: %d", chunks[1].Page)
	}
}

func TestChunkPages_EmptyPagesSkipped(t *testing.T) {
	c := New(512, 50)
	chunks := c.ChunkPages([]model.PageText{{Page: 1, Text: "   \n  "}})
	if len(chunks) != 0 {
		t.Fatalf("expected no chunks, got %d", len(chunks))
	}
}

func TestClean(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"hello\nworld", "hello world"},
		{"multi   spaces\tand tabs", "multi spaces and tabs"},
		{"hyphen- \nated", "hyphenated"},
		{"en – dash — em", "en - dash - em"},
		{"wow!!! really??", "wow! really?"},
		{"ellipsis..... done,,, fine;;", "ellipsis. done, fine;"},
		{"mixed?! stays?!", "mixed?! stays?!"},
		{"space , before", "space, before"},
		{"  trim me  ", "trim me"},
	}
	for _, tc := range cases {
		if got := Clean(tc.in); got != tc.want {
			t.Fatalf("Clean(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCollapsePunctRuns(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"a!!!b", "a!b"},
		{"a!?b", "a!?b"},
		{"::::", ":"},
		{"no punctuation runs", "no punctuation runs"},
		{"aaa", "aaa"},
	}
	for _, tc := range cases {
		if got := collapsePunctRuns(tc.in); got != tc.want {
			t.Fatalf("collapsePunctRuns(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestClean_Deterministic(t *testing.T) {
	in := "some – text!! with , noise\nacross- \nlines"
	first := Clean(in)
	for i := 0; i < 3; i++ {
		if got := Clean(in); got != first {
			t.Fatalf("Clean not deterministic: %q vs %q", got, first)
		}
	}
}
