package chunking

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/types"
)

// sentence returns a 28 character sentence ending with a period.
func sentence(i int) string {
	return fmt.Sprintf("Sentence number %03d is here.", i)
}

func sentences(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = sentence(i)
	}
	return strings.Join(parts, " ")
}

func TestSplitSentences(t *testing.T) {
	got := SplitSentences("First one. Second?  Third!\nFourth without end")
	assert.Equal(t, []string{"First one.", "Second?", "Third!", "Fourth without end"}, got)
}

func TestSplitSentences_NoBreakInsideNumbers(t *testing.T) {
	got := SplitSentences("Pi is 3.14 roughly. Done.")
	assert.Equal(t, []string{"Pi is 3.14 roughly.", "Done."}, got)
}

func TestSplitSentences_TrailingWhitespace(t *testing.T) {
	got := SplitSentences("One. Two. ")
	assert.Equal(t, []string{"One.", "Two.", ""}, got)
}

func TestChunk_ShortDocumentIsOneChunk(t *testing.T) {
	text := "A short page. It has two sentences."
	chunks := New(DefaultChunkSize, DefaultOverlap).Chunk([]types.Document{
		{Source: "slides.pdf", Page: types.PageOf(3), Text: text},
	})

	require.Len(t, chunks, 1)
	assert.Equal(t, "chunk_0", chunks[0].ID)
	assert.Equal(t, text, chunks[0].Text)
	assert.Equal(t, "slides.pdf", chunks[0].Source)
	require.NotNil(t, chunks[0].Page)
	assert.Equal(t, 3, *chunks[0].Page)
}

func TestChunk_OverlapSeedsNextChunk(t *testing.T) {
	text := sentences(40)
	require.Equal(t, 1159, len(text))

	chunks := New(800, 200).Chunk([]types.Document{{Source: "s", Text: text}})

	require.Len(t, chunks, 2)
	first := chunks[0].Text
	assert.Equal(t, 782, len(first))
	assert.True(t, strings.HasPrefix(chunks[1].Text, first[len(first)-200:]))
	assert.True(t, strings.HasSuffix(chunks[1].Text, sentence(39)))
	assert.LessOrEqual(t, len(chunks[1].Text), 800)
}

func TestChunk_OverlapPropertyHoldsForEverySuccessor(t *testing.T) {
	chunks := New(300, 50).Chunk([]types.Document{{Source: "s", Text: sentences(60)}})
	require.Greater(t, len(chunks), 2)

	for i := 1; i < len(chunks); i++ {
		prefix := strings.TrimSpace(tail(chunks[i-1].Text, 50))
		assert.True(t, strings.HasPrefix(chunks[i].Text, prefix), "chunk %d", i)
	}
}

func TestChunk_NoOverlap(t *testing.T) {
	chunks := New(100, 0).Chunk([]types.Document{{Source: "s", Text: sentences(6)}})

	require.Len(t, chunks, 2)
	assert.Equal(t, sentences(3), chunks[0].Text)
	assert.True(t, strings.HasPrefix(chunks[1].Text, sentence(3)))
}

func TestChunk_IDsSequentialAcrossDocuments(t *testing.T) {
	docs := []types.Document{
		{Source: "a", Page: types.PageOf(1), Text: sentences(30)},
		{Source: "b", Page: types.PageOf(2), Text: "Tiny."},
		{Source: "c", Text: sentences(30)},
	}

	chunks := New(400, 100).Chunk(docs)

	seen := make(map[string]bool)
	for i, c := range chunks {
		assert.Equal(t, fmt.Sprintf("chunk_%d", i), c.ID)
		assert.False(t, seen[c.ID])
		seen[c.ID] = true
	}
	assert.Equal(t, "b", chunks[len(chunks)/2].Source)
	assert.Nil(t, chunks[len(chunks)-1].Page)
}

func TestChunk_OversizedSentenceKeptWhole(t *testing.T) {
	long := strings.Repeat("x", 120) + "."
	text := "Intro. " + long + " Outro."

	chunks := New(50, 10).Chunk([]types.Document{{Source: "s", Text: text}})

	require.Len(t, chunks, 3)
	assert.Equal(t, "Intro.", chunks[0].Text)
	assert.Equal(t, "Intro. "+long, chunks[1].Text)
	assert.Greater(t, len(chunks[1].Text), 50)
	assert.True(t, strings.HasPrefix(chunks[2].Text, long[len(long)-10:]))
}

func TestChunk_SkipsBlankDocuments(t *testing.T) {
	chunks := New(800, 200).Chunk([]types.Document{
		{Source: "empty", Text: "   \n\t "},
		{Source: "full", Text: "Something."},
	})

	require.Len(t, chunks, 1)
	assert.Equal(t, "chunk_0", chunks[0].ID)
	assert.Equal(t, "full", chunks[0].Source)
}

func TestTail_CountsCharactersNotBytes(t *testing.T) {
	assert.Equal(t, "ёжик", tail("большой ёжик", 4))
	assert.Equal(t, "ab", tail("ab", 5))
}
