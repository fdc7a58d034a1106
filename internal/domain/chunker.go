package domain

import (
	"fmt"
	"strings"
	"unicode"
)

const (
	// DefaultChunkSize is the target chunk length in characters.
	DefaultChunkSize = 300
	// DefaultChunkOverlap is the number of characters carried over
	// from the tail of the previous chunk.
	DefaultChunkOverlap = 20
)

// Chunker splits text into overlapping, sentence-aware chunks.
type Chunker interface {
	Chunk(text string, size, overlap int) ([]string, error)
}

type sentenceChunker struct{}

// NewChunker creates the default sentence-aware Chunker.
func NewChunker() Chunker {
	return &sentenceChunker{}
}

// Chunk accumulates whole sentences up to size characters per chunk.
// Each chunk after the first starts with the last overlap characters of
// its predecessor, extended back to a word boundary. Sentences longer
// than size are split at word boundaries.
func (c *sentenceChunker) Chunk(text string, size, overlap int) ([]string, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("chunk overlap must be in [0, size), got %d", overlap)
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, nil
	}

	var pieces []string
	for _, s := range splitSentences(trimmed) {
		if len(s) <= size {
			pieces = append(pieces, s)
			continue
		}
		pieces = append(pieces, splitAtWords(s, size)...)
	}

	var chunks []string
	var current strings.Builder
	for _, piece := range pieces {
		if current.Len() > 0 && current.Len()+1+len(piece) > size {
			chunk := current.String()
			chunks = append(chunks, chunk)
			current.Reset()
			if tail := overlapTail(chunk, overlap); tail != "" {
				current.WriteString(tail)
			}
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(piece)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}

	return chunks, nil
}

// splitSentences splits on sentence-ending punctuation followed by
// whitespace, and on line breaks. Trailing fragments without a
// terminator form their own sentence.
func splitSentences(text string) []string {
	var sentences []string
	var b strings.Builder
	runes := []rune(text)
	for i, r := range runes {
		if r == '\n' {
			flushSentence(&b, &sentences)
			continue
		}
		b.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			if i+1 >= len(runes) || unicode.IsSpace(runes[i+1]) {
				flushSentence(&b, &sentences)
			}
		}
	}
	flushSentence(&b, &sentences)
	return sentences
}

func flushSentence(b *strings.Builder, sentences *[]string) {
	s := strings.TrimSpace(b.String())
	if s != "" {
		*sentences = append(*sentences, s)
	}
	b.Reset()
}

// splitAtWords breaks an oversize sentence into pieces of at most size
// characters, preferring word boundaries.
func splitAtWords(s string, size int) []string {
	words := strings.Fields(s)
	var pieces []string
	var b strings.Builder
	for _, w := range words {
		if b.Len() > 0 && b.Len()+1+len(w) > size {
			pieces = append(pieces, b.String())
			b.Reset()
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		// A single word longer than size is cut hard.
		for len(w) > size {
			if b.Len() > 0 {
				pieces = append(pieces, b.String())
				b.Reset()
			}
			pieces = append(pieces, w[:size])
			w = w[size:]
		}
		b.WriteString(w)
	}
	if b.Len() > 0 {
		pieces = append(pieces, b.String())
	}
	return pieces
}

// overlapTail returns the last overlap characters of chunk, extended
// back to the previous word boundary so the carried text starts with a
// whole word.
func overlapTail(chunk string, overlap int) string {
	if overlap == 0 || len(chunk) <= overlap {
		return ""
	}
	tail := chunk[len(chunk)-overlap:]
	if idx := strings.LastIndexByte(chunk[:len(chunk)-overlap], ' '); idx >= 0 {
		extended := chunk[idx+1:]
		// Do not let the boundary search inflate the overlap past
		// twice the requested size.
		if len(extended) <= overlap*2 {
			return extended
		}
	}
	if idx := strings.IndexByte(tail, ' '); idx >= 0 {
		return tail[idx+1:]
	}
	return tail
}
