package ingest

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ExtractXLSXLines reads a verse catalog distributed as a spreadsheet — a
// common interchange format for text-critical apparatus data — and returns
// one "Book Chapter:Verse Greek text" line per data row. The sheet is
// expected to have columns book, chapter, verse, text (case-insensitive
// header match; order doesn't matter).
func ExtractXLSXLines(path string) ([]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening XLSX: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets found in workbook")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading rows: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("no data rows found")
	}

	cols, err := columnIndex(rows[0])
	if err != nil {
		return nil, err
	}

	var lines []string
	for _, row := range rows[1:] {
		line, ok := rowToLine(row, cols)
		if ok {
			lines = append(lines, line)
		}
	}
	return lines, nil
}

type columnSet struct {
	book, chapter, verse, text int
}

func columnIndex(header []string) (columnSet, error) {
	cols := columnSet{-1, -1, -1, -1}
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "book":
			cols.book = i
		case "chapter":
			cols.chapter = i
		case "verse":
			cols.verse = i
		case "text", "greek_text", "greek":
			cols.text = i
		}
	}
	if cols.book < 0 || cols.chapter < 0 || cols.verse < 0 || cols.text < 0 {
		return cols, fmt.Errorf("missing required column: expected book, chapter, verse, text headers")
	}
	return cols, nil
}

func rowToLine(row []string, cols columnSet) (string, bool) {
	if cols.book >= len(row) || cols.chapter >= len(row) || cols.verse >= len(row) || cols.text >= len(row) {
		return "", false
	}
	book := strings.TrimSpace(row[cols.book])
	chapter := strings.TrimSpace(row[cols.chapter])
	verse := strings.TrimSpace(row[cols.verse])
	text := strings.TrimSpace(row[cols.text])
	if book == "" || chapter == "" || verse == "" || text == "" {
		return "", false
	}
	return fmt.Sprintf("%s %s:%s %s", book, chapter, verse, text), true
}
