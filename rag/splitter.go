package rag

import (
	"strings"
	"unicode/utf8"

	"github.com/clipperhouse/uax29/sentences"
)

// Default chunking of the tutor corpus, in characters.
const (
	DefaultChunkSize    = 400
	DefaultChunkOverlap = 80
)

// SplitterOptions configure a Splitter.
type SplitterOptions struct {
	ChunkSize    int
	ChunkOverlap int
}

// Splitter packs sentences into chunks of at most ChunkSize characters.
// Consecutive chunks share trailing sentences of up to ChunkOverlap characters.
// A sentence longer than ChunkSize is cut into overlapping windows.
type Splitter struct {
	opts SplitterOptions
}

// NewSplitter creates a Splitter with 400/80 defaults.
func NewSplitter(optFns ...func(o *SplitterOptions)) *Splitter {
	opts := SplitterOptions{
		ChunkSize:    DefaultChunkSize,
		ChunkOverlap: DefaultChunkOverlap,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	if opts.ChunkOverlap < 0 || opts.ChunkOverlap >= opts.ChunkSize {
		opts.ChunkOverlap = opts.ChunkSize / 5
	}

	return &Splitter{opts: opts}
}

// Split returns the chunks of text in document order.
func (s *Splitter) Split(text string) []string {
	var (
		chunks []string
		cur    []string
		curLen int
	)

	flush := func() {
		if len(cur) > 0 {
			chunks = append(chunks, strings.Join(cur, " "))
		}
	}

	for _, sentence := range splitSentences(text) {
		for _, piece := range s.window(sentence) {
			n := utf8.RuneCountInString(piece)

			if curLen > 0 && curLen+1+n > s.opts.ChunkSize {
				flush()
				cur, curLen = s.tail(cur)
				if curLen > 0 && curLen+1+n > s.opts.ChunkSize {
					cur, curLen = nil, 0
				}
			}

			if curLen > 0 {
				curLen++
			}
			cur = append(cur, piece)
			curLen += n
		}
	}

	flush()

	return chunks
}

// SplitPages splits every page and keeps the page number with each chunk.
func (s *Splitter) SplitPages(pages []Page) []Chunk {
	var out []Chunk
	for _, p := range pages {
		for _, text := range s.Split(p.Text) {
			out = append(out, Chunk{Source: p.Source, Page: p.Number, Text: text})
		}
	}
	return out
}

// tail returns the trailing sentences of cur that fit into the overlap.
func (s *Splitter) tail(cur []string) ([]string, int) {
	var (
		start = len(cur)
		total int
	)

	for i := len(cur) - 1; i >= 0; i-- {
		n := utf8.RuneCountInString(cur[i])
		if total > 0 {
			n++
		}
		if total+n > s.opts.ChunkOverlap {
			break
		}
		total += n
		start = i
	}

	return append([]string(nil), cur[start:]...), total
}

// window cuts an oversized sentence into ChunkSize windows.
func (s *Splitter) window(sentence string) []string {
	runes := []rune(sentence)
	if len(runes) <= s.opts.ChunkSize {
		return []string{sentence}
	}

	step := s.opts.ChunkSize - s.opts.ChunkOverlap

	var out []string
	for start := 0; start < len(runes); start += step {
		end := min(start+s.opts.ChunkSize, len(runes))
		out = append(out, strings.TrimSpace(string(runes[start:end])))
		if end == len(runes) {
			break
		}
	}
	return out
}

func splitSentences(text string) []string {
	var out []string

	sc := sentences.NewScanner(strings.NewReader(text))
	for sc.Scan() {
		if s := strings.Join(strings.Fields(sc.Text()), " "); s != "" {
			out = append(out, s)
		}
	}

	return out
}
