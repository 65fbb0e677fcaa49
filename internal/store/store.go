// Package store is the local vector index service: it ingests
// (text, vector, metadata) triples and answers nearest-neighbor
// queries, backed by SQLite + sqlite-vec.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"

	"codescope/internal/embedder"
)

func init() {
	sqlite_vec.Auto()
}

// DefaultDim is the embedding dimensionality of the default model
// (nomic-embed-text).
const DefaultDim = 768

// Document is one ingested chunk with its provenance.
type Document struct {
	ID        int64
	Content   string
	FilePath  string
	StartLine int
	EndLine   int
	Symbols   []string
}

// SearchResult is a document with its raw distance and the derived
// relevance in [0, 1].
type SearchResult struct {
	Document  Document
	Distance  float64
	Relevance float64
}

// Store provides persistence and similarity search over embedded
// chunks.
type Store interface {
	// Ingest stores all records that carry an embedding and returns
	// how many were indexed. Records with a null embedding are
	// excluded rather than zero-filled.
	Ingest(records []embedder.Record) (int, error)
	// Search finds the top-k documents closest to the query embedding,
	// sorted descending by relevance.
	Search(queryEmbedding []float32, k int) ([]SearchResult, error)
	// Count returns the number of indexed documents.
	Count() (int, error)
	// GetMeta returns a metadata value by key, or "" if not set.
	GetMeta(key string) (string, error)
	// SetMeta sets a metadata key-value pair.
	SetMeta(key, value string) error
	// DeleteAll removes every document and embedding.
	DeleteAll() error
	// Close closes the underlying database.
	Close() error
}

// SQLiteStore implements Store backed by SQLite + sqlite-vec.
type SQLiteStore struct {
	db  *sql.DB
	dim int
}

// Open creates or opens the index database at dbPath with the given
// embedding dimension.
func Open(dbPath string, dim int) (*SQLiteStore, error) {
	if dim <= 0 {
		dim = DefaultDim
	}
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := initSchema(db, dim); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &SQLiteStore{db: db, dim: dim}, nil
}

func (s *SQLiteStore) Ingest(records []embedder.Record) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	docStmt, err := tx.Prepare(
		"INSERT INTO documents (content, file_path, start_line, end_line, symbols) VALUES (?, ?, ?, ?, ?)",
	)
	if err != nil {
		return 0, err
	}
	defer docStmt.Close()

	vecStmt, err := tx.Prepare("INSERT INTO vec_documents (document_id, embedding) VALUES (?, ?)")
	if err != nil {
		return 0, err
	}
	defer vecStmt.Close()

	ingested := 0
	for _, r := range records {
		if r.Embedding == nil {
			continue
		}
		if len(r.Embedding) != s.dim {
			return ingested, fmt.Errorf("embedding for %s has dimension %d, index expects %d",
				r.Metadata.FilePath, len(r.Embedding), s.dim)
		}

		symbols, err := json.Marshal(r.Metadata.Symbols)
		if err != nil {
			return ingested, fmt.Errorf("encode symbols: %w", err)
		}
		res, err := docStmt.Exec(r.Content, r.Metadata.FilePath, r.Metadata.StartLine, r.Metadata.EndLine, string(symbols))
		if err != nil {
			return ingested, fmt.Errorf("insert document: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return ingested, err
		}

		blob, err := sqlite_vec.SerializeFloat32(r.Embedding)
		if err != nil {
			return ingested, fmt.Errorf("serialize embedding for document %d: %w", id, err)
		}
		if _, err := vecStmt.Exec(id, blob); err != nil {
			return ingested, fmt.Errorf("insert embedding for document %d: %w", id, err)
		}
		ingested++
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return ingested, nil
}

func (s *SQLiteStore) Search(queryEmbedding []float32, k int) ([]SearchResult, error) {
	blob, err := sqlite_vec.SerializeFloat32(queryEmbedding)
	if err != nil {
		return nil, fmt.Errorf("serialize query embedding: %w", err)
	}
	rows, err := s.db.Query(`
		SELECT v.document_id, v.distance, d.content, d.file_path, d.start_line, d.end_line, d.symbols
		FROM vec_documents v
		JOIN documents d ON d.id = v.document_id
		WHERE v.embedding MATCH ?
		ORDER BY v.distance
		LIMIT ?
	`, blob, k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		var symbols string
		err := rows.Scan(
			&r.Document.ID, &r.Distance,
			&r.Document.Content, &r.Document.FilePath,
			&r.Document.StartLine, &r.Document.EndLine,
			&symbols,
		)
		if err != nil {
			return nil, err
		}
		if symbols != "" {
			if err := json.Unmarshal([]byte(symbols), &r.Document.Symbols); err != nil {
				return nil, fmt.Errorf("decode symbols for document %d: %w", r.Document.ID, err)
			}
		}
		r.Relevance = RelevanceFromDistance(r.Distance)
		results = append(results, r)
	}
	return results, rows.Err()
}

func (s *SQLiteStore) Count() (int, error) {
	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM documents").Scan(&n)
	return n, err
}

func (s *SQLiteStore) GetMeta(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM meta WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

func (s *SQLiteStore) SetMeta(key, value string) error {
	_, err := s.db.Exec(
		"INSERT INTO meta (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	return err
}

func (s *SQLiteStore) DeleteAll() error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM vec_documents"); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM documents"); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// RelevanceFromDistance maps the index's raw L2 distance into a [0, 1]
// relevance band. For unit vectors the squared L2 distance relates to
// cosine similarity by cos = 1 - d²/2; the similarity is then shifted
// from [-1, 1] into [0, 1]. The mapping is monotonic, so ordering by
// distance and ordering by relevance agree.
func RelevanceFromDistance(d float64) float64 {
	cos := 1 - (d*d)/2
	relevance := (cos + 1) / 2
	if relevance < 0 {
		return 0
	}
	if relevance > 1 {
		return 1
	}
	return relevance
}
