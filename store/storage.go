package store

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"docqa/config"
	"docqa/types"
)

// VectorStorer persists chunk embeddings of one collection and answers
// nearest-neighbour queries over them. Upsert overwrites records by ID.
type VectorStorer interface {
	Upsert(context.Context, []types.IndexRecord) error
	Search(context.Context, []float32, int) ([]types.Hit, error)
	Count(context.Context) (int, error)
	Close() error
}

// Open creates the backend selected by cfg.Backend.
func Open(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (VectorStorer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch cfg.Backend {
	case "sqlite":
		return NewSQLiteStore(cfg.PersistDir, cfg.Collection)
	case "postgres":
		pg, err := NewPostgresStore(ctx, cfg.Postgres.ConnString(), cfg.Collection)
		if err != nil {
			return nil, fmt.Errorf("error to connect to Postgres database: %w", err)
		}
		if err := pg.Init(ctx, cfg.Dimension); err != nil {
			pg.Close()
			return nil, fmt.Errorf("error to create tables: %w", err)
		}
		return pg, nil
	case "memory":
		logger.Warn("[STORE] using in-memory vector store, nothing will be persisted")
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown vector backend %q", cfg.Backend)
	}
}

// cosineDistance returns 1 - cos(a, b). Zero vectors are maximally distant.
func cosineDistance(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("dimension mismatch: %d vs %d", len(a), len(b))
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 1, nil
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb)), nil
}

// rankHits scores every candidate against query and keeps the topK closest.
func rankHits(query []float32, candidates []types.IndexRecord, topK int) ([]types.Hit, error) {
	if topK <= 0 {
		return nil, nil
	}
	hits := make([]types.Hit, 0, len(candidates))
	for _, rec := range candidates {
		d, err := cosineDistance(query, rec.Embedding)
		if err != nil {
			return nil, fmt.Errorf("chunk %s: %w", rec.ID, err)
		}
		hits = append(hits, types.Hit{
			ID:       rec.ID,
			Text:     rec.Text,
			Metadata: rec.Metadata,
			Distance: d,
		})
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Distance != hits[j].Distance {
			return hits[i].Distance < hits[j].Distance
		}
		return hits[i].ID < hits[j].ID
	})
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}
