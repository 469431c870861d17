package source

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/paidsearchlab/searchintent/internal/domain"
)

// Augmented output column names.
var augmentedColumns = []string{"intent_category", "intent_confidence", "intent_method"}

// WriteAugmented reproduces the report rows in their original order with the
// classification columns appended. Rows whose term has no classification
// (blank term cells) get empty values.
func WriteAugmented(w io.Writer, report *Report, classifications map[string]domain.Classification) error {
	cw := csv.NewWriter(w)

	header := append(append([]string{}, report.Header...), augmentedColumns...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, row := range report.Rows {
		out := append([]string{}, row...)
		var category, confidence, method string
		if report.Schema.TermCol < len(row) {
			key := domain.NormalizeTerm(row[report.Schema.TermCol])
			if c, ok := classifications[key]; ok {
				category = string(c.Category)
				confidence = strconv.FormatFloat(c.Confidence, 'f', 2, 64)
				method = c.Method
			}
		}
		out = append(out, category, confidence, method)
		if err := cw.Write(out); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}
	return nil
}
