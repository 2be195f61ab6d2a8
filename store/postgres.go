package store

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"docqa/types"
)

type PostgresStore struct {
	pool       *pgxpool.Pool
	collection string
}

func NewPostgresStore(ctx context.Context, connStr, collection string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{
		pool:       pool,
		collection: collection,
	}, nil
}

func (p *PostgresStore) Upsert(ctx context.Context, records []types.IndexRecord) error {
	if len(records) == 0 {
		return nil
	}

	query := `
	INSERT INTO chunks (collection, id, source, page, content, embedding, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, now())
	ON CONFLICT (collection, id) DO UPDATE SET
		source = EXCLUDED.source,
		page = EXCLUDED.page,
		content = EXCLUDED.content,
		embedding = EXCLUDED.embedding,
		updated_at = EXCLUDED.updated_at
	`
	batch := &pgx.Batch{}
	for _, r := range records {
		batch.Queue(query, p.collection, r.ID, r.Metadata.Source, r.Metadata.Page, r.Text, pgvector.NewVector(r.Embedding))
	}

	br := p.pool.SendBatch(ctx, batch)
	defer br.Close()
	for _, r := range records {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("upsert chunk %s: %w", r.ID, err)
		}
	}
	return nil
}

func (p *PostgresStore) Search(ctx context.Context, queryVec []float32, limit int) ([]types.Hit, error) {
	if len(queryVec) == 0 {
		return nil, fmt.Errorf("пустой вектор запроса")
	}
	if limit <= 0 {
		return nil, nil
	}

	query := `
		SELECT id, content, source, page, embedding <=> $2 AS distance
		FROM chunks
		WHERE collection = $1 AND embedding IS NOT NULL
		ORDER BY embedding <=> $2, id
		LIMIT $3
	`
	rows, err := p.pool.Query(ctx, query, p.collection, pgvector.NewVector(queryVec), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hits []types.Hit
	for rows.Next() {
		var hit types.Hit
		if err := rows.Scan(
			&hit.ID,
			&hit.Text,
			&hit.Metadata.Source,
			&hit.Metadata.Page,
			&hit.Distance); err != nil {
			return nil, err
		}
		hits = append(hits, hit)
	}
	return hits, rows.Err()
}

func (p *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	err := p.pool.QueryRow(ctx, "SELECT count(*) FROM chunks WHERE collection = $1", p.collection).Scan(&n)
	return n, err
}

func (p *PostgresStore) createRagTables(ctx context.Context, dimension int) error {
	query := fmt.Sprintf(`
	CREATE EXTENSION IF NOT EXISTS vector;

	CREATE TABLE IF NOT EXISTS chunks (
		collection TEXT NOT NULL,
		id TEXT NOT NULL,
		source TEXT,
		page INT,
		content TEXT NOT NULL,
		embedding vector(%d),
		updated_at TIMESTAMP WITH TIME ZONE,
		PRIMARY KEY (collection, id)
	);

	-- Индекс для быстрого поиска по вектору
	CREATE INDEX IF NOT EXISTS idx_chunks_embedding ON chunks USING hnsw (embedding vector_cosine_ops);

	CREATE INDEX IF NOT EXISTS idx_chunks_source ON chunks(collection, source);
	`, dimension)
	_, err := p.pool.Exec(ctx, query)
	return err
}

func (p *PostgresStore) Init(ctx context.Context, dimension int) error {
	return p.createRagTables(ctx, dimension)
}

// Close закрывает пул подключений
func (p *PostgresStore) Close() error {
	if p.pool != nil {
		p.pool.Close()
		log.Println("Postgres connection pool is closed")
	}
	return nil
}
