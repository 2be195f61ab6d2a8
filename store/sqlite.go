package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // SQLite driver

	"docqa/types"
)

const sqliteFile = "vectors.db"

// SQLiteStore keeps a collection in a SQLite file under a directory. Search
// scans the whole collection and ranks by cosine distance.
type SQLiteStore struct {
	db         *sql.DB
	path       string
	collection string
}

func NewSQLiteStore(dir, collection string) (*SQLiteStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating persist directory: %w", err)
	}

	path := filepath.Join(dir, sqliteFile)
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &SQLiteStore{db: db, path: path, collection: collection}
	if err := s.init(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating tables: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) init() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS embeddings (
			collection TEXT NOT NULL,
			id TEXT NOT NULL,
			source TEXT,
			page INTEGER,
			content TEXT NOT NULL,
			embedding BLOB NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (collection, id)
		)
	`)
	return err
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}

func (s *SQLiteStore) Upsert(ctx context.Context, records []types.IndexRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO embeddings (collection, id, source, page, content, embedding, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (collection, id) DO UPDATE SET
			source = excluded.source,
			page = excluded.page,
			content = excluded.content,
			embedding = excluded.embedding,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		var page sql.NullInt64
		if r.Metadata.Page != nil {
			page = sql.NullInt64{Int64: int64(*r.Metadata.Page), Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, s.collection, r.ID, r.Metadata.Source, page, r.Text, encodeVector(r.Embedding)); err != nil {
			return fmt.Errorf("upsert chunk %s: %w", r.ID, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) Search(ctx context.Context, queryVec []float32, limit int) ([]types.Hit, error) {
	if len(queryVec) == 0 {
		return nil, fmt.Errorf("empty query vector")
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, content, source, page, embedding FROM embeddings WHERE collection = ?", s.collection)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var candidates []types.IndexRecord
	for rows.Next() {
		var (
			rec    types.IndexRecord
			source sql.NullString
			page   sql.NullInt64
			blob   []byte
		)
		if err := rows.Scan(&rec.ID, &rec.Text, &source, &page, &blob); err != nil {
			return nil, err
		}
		rec.Metadata.Source = source.String
		if page.Valid {
			rec.Metadata.Page = types.PageOf(int(page.Int64))
		}
		rec.Embedding = decodeVector(blob)
		candidates = append(candidates, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return rankHits(queryVec, candidates, limit)
}

func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM embeddings WHERE collection = ?", s.collection).Scan(&n)
	return n, err
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(x))
	}
	return buf
}

func decodeVector(buf []byte) []float32 {
	v := make([]float32, len(buf)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return v
}
