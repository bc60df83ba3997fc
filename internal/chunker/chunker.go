package chunker

import (
	"strings"

	"github.com/buildingassets/buildingchat/internal/model"
)

const (
	DefaultWindowSize = 512
	DefaultOverlap    = 50
)

type Chunker struct {
	windowSize int
	overlap    int
}

func New(windowSize, overlap int) *Chunker {
	if windowSize <= 0 {
		windowSize = DefaultWindowSize
	}
	if overlap < 0 {
		overlap = DefaultOverlap
	}
	return &Chunker{windowSize: windowSize, overlap: overlap}
}

func (c *Chunker) WindowSize() int { return c.windowSize }
func (c *Chunker) Overlap() int    { return c.overlap }

// ChunkPages cleans and windows every page, then stamps each chunk with
// its global index and the running total.
func (c *Chunker) ChunkPages(pages []model.PageText) []model.Chunk {
	var out []model.Chunk
	for _, p := range pages {
		out = append(out, c.chunkPage(p)...)
	}
	for i := range out {
		out[i].ChunkIndex = i
		out[i].TotalChunks = len(out)
	}
	return out
}

func (c *Chunker) chunkPage(p model.PageText) []model.Chunk {
	words := strings.Fields(Clean(p.Text))
	if len(words) == 0 {
		return nil
	}
	if len(words) <= c.windowSize {
		text := strings.Join(words, " ")
		return []model.Chunk{{
			Page:      p.Page,
			Text:      text,
			WordCount: len(words),
			ChunkSize: c.windowSize,
			Overlap:   c.overlap,
		}}
	}
	step := c.windowSize - c.overlap
	if step < 1 {
		// overlap >= window must still terminate
		step = 1
	}
	var chunks []model.Chunk
	for start := 0; start < len(words); start += step {
		end := start + c.windowSize
		if end > len(words) {
			end = len(words)
		}
		piece := words[start:end]
		chunks = append(chunks, model.Chunk{
			Page:      p.Page,
			Text:      strings.Join(piece, " "),
			WordCount: len(piece),
			ChunkSize: c.windowSize,
			Overlap:   c.overlap,
		})
	}
	return chunks
}
