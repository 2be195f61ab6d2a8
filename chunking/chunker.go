package chunking

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"docqa/types"
)

const (
	DefaultChunkSize = 800 // символов на чанк
	DefaultOverlap   = 200
)

// Chunker greedily packs sentences into chunks of at most Size characters.
// Each new chunk is seeded with the last Overlap characters of the previous
// one. A sentence longer than Size is kept whole.
type Chunker struct {
	Size    int
	Overlap int
}

func New(size, overlap int) *Chunker {
	return &Chunker{Size: size, Overlap: overlap}
}

// Chunk splits docs into chunks. IDs come from one counter shared by all docs
// in the call and start at chunk_0.
func (c *Chunker) Chunk(docs []types.Document) []types.Chunk {
	var chunks []types.Chunk
	chunkID := 0

	emit := func(doc types.Document, text string) {
		chunks = append(chunks, types.Chunk{
			ID:     fmt.Sprintf("chunk_%d", chunkID),
			Source: doc.Source,
			Page:   doc.Page,
			Text:   text,
		})
		chunkID++
	}

	for _, doc := range docs {
		current := ""
		for _, sent := range SplitSentences(doc.Text) {
			if strings.TrimSpace(sent) == "" {
				continue
			}
			if runeLen(current)+runeLen(sent)+1 <= c.Size {
				current = strings.TrimSpace(current + " " + sent)
				continue
			}

			if current != "" {
				emit(doc, current)
			}
			if c.Overlap > 0 {
				current = strings.TrimSpace(tail(current, c.Overlap) + " " + sent)
			} else {
				current = strings.TrimSpace(sent)
			}
		}
		if current != "" {
			emit(doc, current)
		}
	}
	return chunks
}

// SplitSentences cuts text after '.', '?' or '!' when whitespace follows.
// The whitespace run is dropped; everything else is kept verbatim.
func SplitSentences(text string) []string {
	var sentences []string
	start := 0
	prev := rune(0)
	for i, r := range text {
		if i < start {
			continue
		}
		if unicode.IsSpace(r) && isTerminal(prev) {
			sentences = append(sentences, text[start:i])
			start = skipSpace(text, i)
			continue
		}
		prev = r
	}
	return append(sentences, text[start:])
}

func isTerminal(r rune) bool {
	return r == '.' || r == '?' || r == '!'
}

func skipSpace(text string, i int) int {
	for i < len(text) {
		r, size := utf8.DecodeRuneInString(text[i:])
		if !unicode.IsSpace(r) {
			break
		}
		i += size
	}
	return i
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

// tail returns the last n characters of s.
func tail(s string, n int) string {
	count := runeLen(s)
	if count <= n {
		return s
	}
	skip := count - n
	for i := range s {
		if skip == 0 {
			return s[i:]
		}
		skip--
	}
	return ""
}
