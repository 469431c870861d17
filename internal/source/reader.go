package source

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/paidsearchlab/searchintent/internal/domain"
)

// Report holds the parsed input: the original header and rows exactly as
// read, plus the detected schema. Rows are never reordered.
type Report struct {
	Header []string
	Rows   [][]string
	Schema Schema
}

// Read parses the CSV input and detects the schema from its header row.
func Read(r io.Reader) (*Report, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	schema, err := DetectSchema(header)
	if err != nil {
		return nil, err
	}

	var rows [][]string
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(rows)+2, err)
		}
		rows = append(rows, row)
	}

	return &Report{Header: header, Rows: rows, Schema: schema}, nil
}

// Terms aggregates the report rows into distinct normalized search terms
// with summed impressions. Unparseable impression cells count as zero.
func (r *Report) Terms() []domain.SearchTerm {
	raw := make([]domain.SearchTerm, 0, len(r.Rows))
	for _, row := range r.Rows {
		if r.Schema.TermCol >= len(row) {
			continue
		}
		term := domain.SearchTerm{Text: row[r.Schema.TermCol]}
		if r.Schema.ImpressionsCol < len(row) {
			term.Impressions = parseImpressions(row[r.Schema.ImpressionsCol])
		}
		if r.Schema.SourceCol >= 0 && r.Schema.SourceCol < len(row) {
			term.Source = normalizeSource(row[r.Schema.SourceCol])
		}
		raw = append(raw, term)
	}
	return domain.AggregateTerms(raw)
}

func parseImpressions(cell string) int64 {
	cleaned := strings.NewReplacer(",", "", " ", "").Replace(cell)
	n, err := strconv.ParseInt(cleaned, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func normalizeSource(cell string) string {
	switch strings.ToLower(strings.TrimSpace(cell)) {
	case "pmax", "performance max", "performance_max", "p-max":
		return domain.SourcePMax
	case "shopping":
		return domain.SourceShopping
	case "search", "":
		return domain.SourceSearch
	default:
		return strings.ToLower(strings.TrimSpace(cell))
	}
}
