package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/types"
)

type stubQuerier struct {
	gotText string
	gotTopK int
	hits    []types.Hit
	err     error
}

func (s *stubQuerier) Query(_ context.Context, text string, topK int) ([]types.Hit, error) {
	s.gotText, s.gotTopK = text, topK
	return s.hits, s.err
}

func TestRetriever_PassesThrough(t *testing.T) {
	hits := []types.Hit{
		{ID: "chunk_3", Text: "b", Distance: 0.4},
		{ID: "chunk_1", Text: "a", Distance: 0.1},
	}
	q := &stubQuerier{hits: hits}

	got, err := New(q).RetrieveTopChunks(context.Background(), "why?", 7)
	require.NoError(t, err)

	assert.Equal(t, "why?", q.gotText)
	assert.Equal(t, 7, q.gotTopK)
	assert.Equal(t, hits, got)
}

func TestRetriever_Error(t *testing.T) {
	boom := errors.New("store down")
	_, err := New(&stubQuerier{err: boom}).RetrieveTopChunks(context.Background(), "q", 1)
	assert.ErrorIs(t, err, boom)
}
