package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/lueurxax/trend-dashboard/internal/trends"
)

// Semicolon separated with a UTF-8 byte order mark, the variant spreadsheet tools in
// German locales open without an import dialog.
const (
	csvSeparator = ';'
	utf8BOM      = "\ufeff"
	scoreDigits  = 2
)

// WriteCSV writes rows with a header line.
func WriteCSV(w io.Writer, rows []trends.ExportRow) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return fmt.Errorf("write csv bom: %w", err)
	}

	cw := csv.NewWriter(w)
	cw.Comma = csvSeparator

	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, row := range rows {
		if err := cw.Write(rowValues(row)); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	cw.Flush()

	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}

	return nil
}

func formatScore(score *float64) string {
	if score == nil {
		return ""
	}

	return strconv.FormatFloat(*score, 'f', scoreDigits, 64)
}
