package store

import (
	"context"
	"fmt"
	"log/slog"

	"docqa/model"
	"docqa/types"
)

const DefaultBatchSize = 64

// EmbedStore embeds chunks and queries with the same model and keeps the
// vectors in a VectorStorer. Errors from either side are returned as is.
type EmbedStore struct {
	embedder  model.EmbedderInterface
	vectors   VectorStorer
	batchSize int
	logger    *slog.Logger
}

func NewEmbedStore(embedder model.EmbedderInterface, vectors VectorStorer, batchSize int, logger *slog.Logger) *EmbedStore {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &EmbedStore{
		embedder:  embedder,
		vectors:   vectors,
		batchSize: batchSize,
		logger:    logger,
	}
}

// BuildIndex computes one embedding per chunk, batchSize texts at a time, and
// upserts all of them. Chunks whose ID already exists replace the old entry.
func (s *EmbedStore) BuildIndex(ctx context.Context, chunks []types.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	records := make([]types.IndexRecord, 0, len(chunks))
	for start := 0; start < len(chunks); start += s.batchSize {
		end := min(start+s.batchSize, len(chunks))
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Text
		}

		vecs, err := s.embedder.Embed(ctx, texts)
		if err != nil {
			return fmt.Errorf("embedding chunks %d-%d: %w", start, end-1, err)
		}
		if len(vecs) != len(batch) {
			return fmt.Errorf("embedder returned %d vectors for %d chunks", len(vecs), len(batch))
		}

		for i, c := range batch {
			records = append(records, types.IndexRecord{
				ID:        c.ID,
				Text:      c.Text,
				Metadata:  c.Metadata(),
				Embedding: vecs[i],
			})
		}
		s.logger.Debug("[EMBEDDER] batch embedded", "from", start, "to", end)
	}

	if err := s.vectors.Upsert(ctx, records); err != nil {
		return fmt.Errorf("upserting %d chunks: %w", len(records), err)
	}
	s.logger.Info("[STORE] index updated", "chunks", len(records))
	return nil
}

// Query embeds text and returns at most topK hits, closest first.
func (s *EmbedStore) Query(ctx context.Context, text string, topK int) ([]types.Hit, error) {
	vecs, err := s.embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("embedder returned %d vectors for the query", len(vecs))
	}

	hits, err := s.vectors.Search(ctx, vecs[0], topK)
	if err != nil {
		return nil, err
	}
	for _, h := range hits {
		s.logger.Debug("[SEARCH] found chunk", "id", h.ID, "source", h.Metadata.Source, "distance", h.Distance)
	}
	return hits, nil
}

func (s *EmbedStore) Count(ctx context.Context) (int, error) {
	return s.vectors.Count(ctx)
}

func (s *EmbedStore) Close() error {
	return s.vectors.Close()
}
