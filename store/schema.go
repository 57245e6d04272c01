package store

import "fmt"

// schemaSQL returns the DDL for all tables. embeddingDim controls the
// vec0 virtual table dimension; it must match the embedding model in use.
func schemaSQL(embeddingDim int) string {
	return fmt.Sprintf(`
-- New Testament verse catalog, one row per (book, chapter, verse, source edition)
CREATE TABLE IF NOT EXISTS verses (
    id INTEGER PRIMARY KEY,
    reference TEXT NOT NULL,
    book TEXT NOT NULL,
    chapter INTEGER NOT NULL,
    verse INTEGER NOT NULL,
    greek_original TEXT NOT NULL,
    greek_normalized TEXT NOT NULL,
    source_edition TEXT NOT NULL,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    UNIQUE(book, chapter, verse, source_edition)
);

-- Vector embeddings via sqlite-vec, keyed by verse id
CREATE VIRTUAL TABLE IF NOT EXISTS vec_verses USING vec0(
    verse_id INTEGER PRIMARY KEY,
    embedding float[%d]
);

-- Detection audit log, mirroring the engine's query_log convention
CREATE TABLE IF NOT EXISTS detection_log (
    id INTEGER PRIMARY KEY,
    input_text TEXT NOT NULL,
    is_quotation INTEGER NOT NULL,
    confidence INTEGER NOT NULL,
    match_type TEXT NOT NULL,
    best_reference TEXT,
    mode TEXT NOT NULL,
    processing_time_ms INTEGER NOT NULL,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_verses_reference ON verses(reference);
CREATE INDEX IF NOT EXISTS idx_verses_book_chapter ON verses(book, chapter);
CREATE INDEX IF NOT EXISTS idx_verses_source_edition ON verses(source_edition);
`, embeddingDim)
}
