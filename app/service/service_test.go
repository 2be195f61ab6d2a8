package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/app/agent"
	"docqa/chunking"
	"docqa/config"
	"docqa/loader"
	"docqa/store"
	"docqa/types"
)

type wordEmbedder struct {
	vocab []string
}

func (e wordEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec := make([]float32, len(e.vocab))
		lower := strings.ToLower(text)
		for j, w := range e.vocab {
			vec[j] = float32(strings.Count(lower, w))
		}
		out[i] = vec
	}
	return out, nil
}

type recordingGenerator struct {
	question string
	hits     []types.Hit
	err      error
}

func (g *recordingGenerator) Generate(_ context.Context, question string, hits []types.Hit) (string, error) {
	g.question = question
	g.hits = hits
	if g.err != nil {
		return "", g.err
	}
	return fmt.Sprintf("answer from %d chunks", len(hits)), nil
}

func newTestService(t *testing.T, gen Generator) *Service {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	emb := wordEmbedder{vocab: []string{"photosynthesis", "mitochondria", "ribosome"}}
	st := store.NewEmbedStore(emb, store.NewMemoryStore(), 8, logger)
	s := New(st, gen, chunking.New(chunking.DefaultChunkSize, chunking.DefaultOverlap), loader.NewFetcher(0), logger)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestService_IndexAndAsk(t *testing.T) {
	gen := &recordingGenerator{}
	s := newTestService(t, gen)
	ctx := context.Background()

	n, err := s.IndexDocuments(ctx, []types.Document{
		{Source: "bio.pdf", Page: types.PageOf(1), Text: "Photosynthesis happens in chloroplasts."},
		{Source: "bio.pdf", Page: types.PageOf(2), Text: "Mitochondria produce ATP."},
		{Source: "bio.pdf", Page: types.PageOf(3), Text: "The ribosome builds proteins."},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	answer, hits, err := s.Ask(ctx, "What do mitochondria do?", 2)
	require.NoError(t, err)
	assert.Equal(t, "answer from 2 chunks", answer)
	require.Len(t, hits, 2)
	assert.Equal(t, "chunk_1", hits[0].ID)
	assert.Equal(t, "What do mitochondria do?", gen.question)
	assert.Equal(t, hits, gen.hits)

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Count)
}

func TestService_AskDefaultsTopK(t *testing.T) {
	s := newTestService(t, &recordingGenerator{})
	ctx := context.Background()

	docs := make([]types.Document, 7)
	for i := range docs {
		docs[i] = types.Document{Source: "notes", Text: fmt.Sprintf("Ribosome note %d.", i)}
	}
	_, err := s.IndexDocuments(ctx, docs)
	require.NoError(t, err)

	_, hits, err := s.Ask(ctx, "ribosome", 0)
	require.NoError(t, err)
	assert.Len(t, hits, types.DefaultTopK)
}

func TestService_ReindexOverwritesByID(t *testing.T) {
	s := newTestService(t, &recordingGenerator{})
	ctx := context.Background()

	_, err := s.IndexDocuments(ctx, []types.Document{{Source: "a", Text: "Photosynthesis."}})
	require.NoError(t, err)
	_, err = s.IndexDocuments(ctx, []types.Document{{Source: "b", Text: "Mitochondria."}})
	require.NoError(t, err)

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Count)

	_, hits, err := s.Ask(ctx, "anything", 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "b", hits[0].Metadata.Source)
}

func TestService_GeneratorErrorKeepsHits(t *testing.T) {
	upstream := &agent.ProviderError{Provider: "openai", Err: errors.New("down")}
	s := newTestService(t, &recordingGenerator{err: upstream})
	ctx := context.Background()

	_, err := s.IndexDocuments(ctx, []types.Document{{Source: "a", Text: "Photosynthesis."}})
	require.NoError(t, err)

	_, hits, err := s.Ask(ctx, "photosynthesis", 3)
	require.ErrorIs(t, err, upstream)
	assert.Len(t, hits, 1)
}

func TestService_IndexNothing(t *testing.T) {
	s := newTestService(t, &recordingGenerator{})

	n, err := s.IndexDocuments(context.Background(), []types.Document{{Source: "blank", Text: "   "}})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestService_IndexPDFMissing(t *testing.T) {
	s := newTestService(t, &recordingGenerator{})

	_, err := s.IndexPDF(context.Background(), filepath.Join(t.TempDir(), "nope.pdf"))
	assert.ErrorIs(t, err, loader.ErrFileNotFound)
}

func TestService_IndexURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body><p>Mitochondria are the powerhouse.</p></body></html>")
	}))
	defer srv.Close()

	s := newTestService(t, &recordingGenerator{})
	n, err := s.IndexURL(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, hits, err := s.Ask(context.Background(), "mitochondria", 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, srv.URL, hits[0].Metadata.Source)
	assert.Nil(t, hits[0].Metadata.Page)
}

func TestNewFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Backend = "sqlite"
	cfg.Store.PersistDir = t.TempDir()

	s, err := NewFromConfig(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	defer s.Close()

	stats, err := s.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "slides", stats.Collection)
	assert.Zero(t, stats.Count)

	cfg.LLM.Providers = []string{"bogus"}
	_, err = NewFromConfig(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Error(t, err)
}
