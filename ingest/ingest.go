// Package ingest loads New Testament verse catalogs from external sources
// (critical-edition PDFs, spreadsheet interchange files) into the verse
// store. It is a collaborator of the detection core, not part of it: the
// core only ever reads verses and embeddings, never writes them except
// through this package's tooling.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/brunobiangulo/quotefind/llm"
	"github.com/brunobiangulo/quotefind/normalize"
	"github.com/brunobiangulo/quotefind/store"
)

// referencePattern matches a leading "Book Chapter:Verse" header on a line
// of verse-catalog text, e.g. "Matthew 5:3" or "1 Corinthians 13:4".
var referencePattern = regexp.MustCompile(`^((?:[1-3]\s+)?[A-Za-z]+)\s+(\d+):(\d+)\s+(.+)$`)

// Loader upserts verse records (and their embeddings) into a store.
type Loader struct {
	store    *store.Store
	embedder llm.Provider
	edition  string
}

// New creates a Loader that tags every ingested verse with the given
// source edition and embeds it with embedder before storing.
func New(s *store.Store, embedder llm.Provider, sourceEdition string) *Loader {
	return &Loader{store: s, embedder: embedder, edition: sourceEdition}
}

// LoadLines parses already-extracted verse-catalog text, one verse per
// line in "Book Chapter:Verse Greek text..." form, and upserts every
// recognized line. Lines that don't match the reference pattern are
// skipped and counted as unparsed.
func (l *Loader) LoadLines(ctx context.Context, lines []string) (loaded, skipped int, err error) {
	var verses []store.Verse

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		m := referencePattern.FindStringSubmatch(line)
		if m == nil {
			skipped++
			continue
		}

		book := strings.TrimSpace(m[1])
		chapter, cerr := strconv.Atoi(m[2])
		verseNum, verr := strconv.Atoi(m[3])
		if cerr != nil || verr != nil {
			skipped++
			continue
		}

		greek := strings.TrimSpace(m[4])
		verses = append(verses, store.Verse{
			Reference:       fmt.Sprintf("%s %d:%d", book, chapter, verseNum),
			Book:            book,
			Chapter:         chapter,
			Verse:           verseNum,
			GreekOriginal:   greek,
			GreekNormalized: normalize.Normalize(greek),
			SourceEdition:   l.edition,
		})
	}

	if len(verses) == 0 {
		return 0, skipped, nil
	}

	ids, err := l.store.BatchUpsertVerses(ctx, verses)
	if err != nil {
		return 0, skipped, fmt.Errorf("upserting verses: %w", err)
	}

	if err := l.embedBatch(ctx, verses, ids); err != nil {
		return len(ids), skipped, fmt.Errorf("embedding verses: %w", err)
	}

	return len(ids), skipped, nil
}

// embedBatchSize bounds how many verses are sent to the embedding model in
// a single request.
const embedBatchSize = 32

// embedBatch embeds and stores embeddings for the given verses in batches,
// falling back to one-by-one embedding when a batch call fails so a single
// malformed verse doesn't lose the whole batch.
func (l *Loader) embedBatch(ctx context.Context, verses []store.Verse, ids []int64) error {
	for i := 0; i < len(verses); i += embedBatchSize {
		end := i + embedBatchSize
		if end > len(verses) {
			end = len(verses)
		}

		texts := make([]string, end-i)
		for j := i; j < end; j++ {
			texts[j-i] = verses[j].GreekNormalized
		}

		embeddings, err := l.embedder.Embed(ctx, texts)
		if err != nil {
			slog.Warn("embedding batch failed, falling back to individual", "start", i, "end", end, "error", err)
			for j, text := range texts {
				single, serr := l.embedder.Embed(ctx, []string{text})
				if serr != nil || len(single) == 0 {
					slog.Warn("embedding single verse failed", "reference", verses[i+j].Reference, "error", serr)
					continue
				}
				if serr := l.store.UpsertEmbedding(ctx, ids[i+j], single[0]); serr != nil {
					slog.Warn("storing embedding failed", "reference", verses[i+j].Reference, "error", serr)
				}
			}
			continue
		}

		for j, emb := range embeddings {
			if err := l.store.UpsertEmbedding(ctx, ids[i+j], emb); err != nil {
				slog.Warn("storing embedding failed", "reference", verses[i+j].Reference, "error", err)
			}
		}
	}
	return nil
}
