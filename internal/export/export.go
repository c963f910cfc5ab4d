// Package export writes trend rows as spreadsheet files.
package export

import (
	"fmt"
	"io"
	"strings"

	coreerrors "github.com/lueurxax/trend-dashboard/internal/core/errors"
	"github.com/lueurxax/trend-dashboard/internal/trends"
)

// Format is a spreadsheet file format.
type Format string

// Supported formats.
const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

const (
	fileNamePrefix = "trends"

	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeCSV  = "text/csv; charset=utf-8"
)

// Column headers, in row order.
var columns = []string{"Score", "Kategorie", "Thema", "Spotify-Impact", "Zusammenfassung", "Quelle", "Seite"}

// Default fixed column values.
const (
	DefaultSourceLabel     = "Newsletter"
	DefaultPagePlaceholder = "-"
)

// ParseFormat accepts xlsx or csv, case-insensitively. Blank means xlsx.
func ParseFormat(raw string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(raw))) {
	case "", FormatXLSX:
		return FormatXLSX, nil
	case FormatCSV:
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("%w: %q", coreerrors.ErrInvalidFormat, raw)
	}
}

// ContentType is the MIME type of the format.
func (f Format) ContentType() string {
	if f == FormatCSV {
		return contentTypeCSV
	}

	return contentTypeXLSX
}

// FileName names an export of scope, e.g. trends_KW05.xlsx.
func FileName(scope trends.ExportScope, f Format) string {
	return fmt.Sprintf("%s_%s.%s", fileNamePrefix, scope.FileSuffix(), f)
}

// Write encodes rows in format f.
func Write(w io.Writer, rows []trends.ExportRow, f Format) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, rows)
	case FormatXLSX:
		return WriteXLSX(w, rows)
	default:
		return fmt.Errorf("%w: %q", coreerrors.ErrInvalidFormat, f)
	}
}

func rowValues(row trends.ExportRow) []string {
	return []string{
		formatScore(row.Score),
		row.Category,
		row.Topic,
		row.Impact,
		row.Summary,
		row.Source,
		row.Page,
	}
}
