// Package store persists New Testament verse records and their
// embeddings in SQLite, backing both VerseStore and VectorIndex.
package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
)

func init() {
	sqlite_vec.Auto()
}

// Verse represents a row in the verses table: one (book, chapter, verse)
// in one source edition.
type Verse struct {
	ID              int64  `json:"id"`
	Reference       string `json:"reference"`
	Book            string `json:"book"`
	Chapter         int    `json:"chapter"`
	Verse           int    `json:"verse"`
	GreekOriginal   string `json:"greek_original"`
	GreekNormalized string `json:"greek_normalized"`
	SourceEdition   string `json:"source_edition"`
}

// ListFilter constrains a verse listing by book, chapter, and/or source
// edition. Zero values are unconstrained.
type ListFilter struct {
	Book          string
	Chapter       int
	SourceEdition string
}

// VectorHit is a single nearest-neighbor result: a verse id and its raw
// similarity score, not yet hydrated into a Verse.
type VectorHit struct {
	VerseID int64
	Score   float64
}

// DetectionLogEntry records one completed detection call, mirroring the
// engine's query-audit convention.
type DetectionLogEntry struct {
	InputText        string
	IsQuotation      bool
	Confidence       int
	MatchType        string
	BestReference    string
	Mode             string
	ProcessingTimeMs int
}

// Store wraps the SQLite database backing verse storage and vector search.
type Store struct {
	db           *sql.DB
	embeddingDim int
}

// New opens (or creates) a SQLite database at the given path and
// initializes the schema, including the sqlite-vec virtual table sized
// for embeddingDim.
func New(dbPath string, embeddingDim int) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	if _, err := db.Exec(schemaSQL(embeddingDim)); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	s := &Store{db: db, embeddingDim: embeddingDim}

	if err := s.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) EmbeddingDim() int { return s.embeddingDim }

// UpsertVerse inserts or replaces a verse row, keyed by
// (book, chapter, verse, source_edition). Used only by ingestion tooling;
// the detection core never writes.
func (s *Store) UpsertVerse(ctx context.Context, v Verse) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO verses (reference, book, chapter, verse, greek_original, greek_normalized, source_edition)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(book, chapter, verse, source_edition) DO UPDATE SET
			reference = excluded.reference,
			greek_original = excluded.greek_original,
			greek_normalized = excluded.greek_normalized
	`, v.Reference, v.Book, v.Chapter, v.Verse, v.GreekOriginal, v.GreekNormalized, v.SourceEdition)
	if err != nil {
		return 0, fmt.Errorf("upserting verse %s: %w", v.Reference, err)
	}

	id, err := res.LastInsertId()
	if err != nil || id == 0 {
		// Conflict path: LastInsertId is unreliable on UPDATE, so look it up.
		row := s.db.QueryRowContext(ctx, `
			SELECT id FROM verses WHERE book = ? AND chapter = ? AND verse = ? AND source_edition = ?
		`, v.Book, v.Chapter, v.Verse, v.SourceEdition)
		if scanErr := row.Scan(&id); scanErr != nil {
			return 0, fmt.Errorf("resolving verse id for %s: %w", v.Reference, scanErr)
		}
	}
	return id, nil
}

// BatchUpsertVerses upserts many verses inside one transaction, used by
// ingestion tooling to load a full source edition without a commit per row.
func (s *Store) BatchUpsertVerses(ctx context.Context, verses []Verse) ([]int64, error) {
	ids := make([]int64, len(verses))

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO verses (reference, book, chapter, verse, greek_original, greek_normalized, source_edition)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(book, chapter, verse, source_edition) DO UPDATE SET
				reference = excluded.reference,
				greek_original = excluded.greek_original,
				greek_normalized = excluded.greek_normalized
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		lookup, err := tx.PrepareContext(ctx, `
			SELECT id FROM verses WHERE book = ? AND chapter = ? AND verse = ? AND source_edition = ?
		`)
		if err != nil {
			return err
		}
		defer lookup.Close()

		for i, v := range verses {
			res, err := stmt.ExecContext(ctx, v.Reference, v.Book, v.Chapter, v.Verse,
				v.GreekOriginal, v.GreekNormalized, v.SourceEdition)
			if err != nil {
				return fmt.Errorf("upserting verse %s: %w", v.Reference, err)
			}

			id, err := res.LastInsertId()
			if err != nil || id == 0 {
				if scanErr := lookup.QueryRowContext(ctx, v.Book, v.Chapter, v.Verse, v.SourceEdition).Scan(&id); scanErr != nil {
					return fmt.Errorf("resolving verse id for %s: %w", v.Reference, scanErr)
				}
			}
			ids[i] = id
		}
		return nil
	})

	return ids, err
}

// GetVerseByReference returns the verse with the given canonical reference,
// or nil if none exists. When multiple source editions share a reference,
// the first by id is returned; callers needing a specific edition should
// use List with a SourceEdition filter.
func (s *Store) GetVerseByReference(ctx context.Context, reference string) (*Verse, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, reference, book, chapter, verse, greek_original, greek_normalized, source_edition
		FROM verses WHERE reference = ? ORDER BY id LIMIT 1
	`, reference)

	var v Verse
	err := row.Scan(&v.ID, &v.Reference, &v.Book, &v.Chapter, &v.Verse,
		&v.GreekOriginal, &v.GreekNormalized, &v.SourceEdition)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting verse %q: %w", reference, err)
	}
	return &v, nil
}

// List returns verses matching filter, ordered by id.
func (s *Store) List(ctx context.Context, filter ListFilter) ([]Verse, error) {
	query := `SELECT id, reference, book, chapter, verse, greek_original, greek_normalized, source_edition FROM verses WHERE 1=1`
	var args []interface{}

	if filter.Book != "" {
		query += " AND book = ?"
		args = append(args, filter.Book)
	}
	if filter.Chapter != 0 {
		query += " AND chapter = ?"
		args = append(args, filter.Chapter)
	}
	if filter.SourceEdition != "" {
		query += " AND source_edition = ?"
		args = append(args, filter.SourceEdition)
	}
	query += " ORDER BY id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing verses: %w", err)
	}
	defer rows.Close()

	var verses []Verse
	for rows.Next() {
		var v Verse
		if err := rows.Scan(&v.ID, &v.Reference, &v.Book, &v.Chapter, &v.Verse,
			&v.GreekOriginal, &v.GreekNormalized, &v.SourceEdition); err != nil {
			return nil, fmt.Errorf("scanning verse: %w", err)
		}
		verses = append(verses, v)
	}
	return verses, rows.Err()
}

// GetByIDs hydrates a set of verse ids into a map, used by the retriever
// to turn ANN hits into full verse records. IDs with no matching row are
// simply absent from the returned map.
func (s *Store) GetByIDs(ctx context.Context, ids []int64) (map[int64]Verse, error) {
	result := make(map[int64]Verse, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	placeholders := strings.TrimPrefix(repeatPlaceholders(len(ids)), ", ")
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	query := fmt.Sprintf(`
		SELECT id, reference, book, chapter, verse, greek_original, greek_normalized, source_edition
		FROM verses WHERE id IN (%s)
	`, placeholders)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("hydrating verses: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var v Verse
		if err := rows.Scan(&v.ID, &v.Reference, &v.Book, &v.Chapter, &v.Verse,
			&v.GreekOriginal, &v.GreekNormalized, &v.SourceEdition); err != nil {
			return nil, fmt.Errorf("scanning verse: %w", err)
		}
		result[v.ID] = v
	}
	return result, rows.Err()
}

// UpsertEmbedding stores (or replaces) the embedding for a verse. Used
// only by ingestion tooling.
func (s *Store) UpsertEmbedding(ctx context.Context, verseID int64, embedding []float32) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO vec_verses (verse_id, embedding) VALUES (?, ?)",
		verseID, serializeFloat32(embedding))
	return err
}

// VectorSearch performs a KNN search over verse embeddings, returning the
// top-k nearest hits with their raw similarity score (1 - distance). The
// vec_verses table declares no distance_metric, so the distance is
// sqlite-vec's default L2 distance.
func (s *Store) VectorSearch(ctx context.Context, queryEmbedding []float32, k int) ([]VectorHit, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT verse_id, distance
		FROM vec_verses
		WHERE embedding MATCH ? AND k = ?
		ORDER BY distance
	`, serializeFloat32(queryEmbedding), k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hits []VectorHit
	for rows.Next() {
		var h VectorHit
		var distance float64
		if err := rows.Scan(&h.VerseID, &distance); err != nil {
			return nil, err
		}
		h.Score = 1.0 - distance
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// DeleteCollection drops all stored embeddings. Used only by ingestion
// tooling when rebuilding the index from scratch.
func (s *Store) DeleteCollection(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM vec_verses")
	return err
}

// LogDetection records a completed detection call for observability.
func (s *Store) LogDetection(ctx context.Context, e DetectionLogEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO detection_log
			(input_text, is_quotation, confidence, match_type, best_reference, mode, processing_time_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, e.InputText, e.IsQuotation, e.Confidence, e.MatchType, e.BestReference, e.Mode, e.ProcessingTimeMs)
	return err
}

func (s *Store) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func repeatPlaceholders(n int) string {
	s := ""
	for i := 0; i < n; i++ {
		s += ", ?"
	}
	return s
}

// serializeFloat32 converts a float32 slice to little-endian bytes for sqlite-vec.
func serializeFloat32(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}
