package ingest

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ExtractPDFLines reads a critical-edition PDF and returns its text content
// as one string per visual line, page by page, in reading order. Verse
// catalogs are typically typeset one verse per line; LoadLines expects
// exactly this shape.
func ExtractPDFLines(path string) ([]string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer f.Close()

	var lines []string
	totalPages := reader.NumPage()
	for i := 1; i <= totalPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		pageLines, err := extractPageLinesOrdered(page)
		if err != nil {
			continue
		}
		lines = append(lines, pageLines...)
	}

	return lines, nil
}

// extractPageLinesOrdered groups a page's text elements into visual lines by
// Y proximity and returns them top to bottom, preserving content-stream
// order within each line (sorting by X would garble text in PDFs that use
// negative text matrices).
func extractPageLinesOrdered(page pdf.Page) ([]string, error) {
	content := page.Content()
	if len(content.Text) == 0 {
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, err
		}
		return strings.Split(text, "\n"), nil
	}

	const lineTolerance = 3.0

	type visualLine struct {
		y   float64
		buf strings.Builder
	}

	var rows []*visualLine
	var cur *visualLine

	for _, t := range content.Text {
		if cur == nil || math.Abs(t.Y-cur.y) > lineTolerance {
			rows = append(rows, &visualLine{y: t.Y})
			cur = rows[len(rows)-1]
		}
		cur.buf.WriteString(t.S)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].y > rows[j].y
	})

	lines := make([]string, len(rows))
	for i, r := range rows {
		lines[i] = strings.TrimSpace(r.buf.String())
	}
	return lines, nil
}
