package trends

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lueurxax/trend-dashboard/internal/core/domain"
	coreerrors "github.com/lueurxax/trend-dashboard/internal/core/errors"
)

// ExportKind selects which records are exported.
type ExportKind string

// Export scopes.
const (
	ExportAll   ExportKind = "all"
	ExportMonth ExportKind = "month"
	ExportWeek  ExportKind = "week"
)

const (
	maxISOWeek      = 53
	fileSuffixAll   = "alle"
	fileSuffixWeekF = "KW%02d"
)

// ExportScope is the export selection. Month is a YYYY-MM key, Week an ISO week number.
type ExportScope struct {
	Kind  ExportKind `json:"kind"`
	Month string     `json:"month,omitempty"`
	Week  int        `json:"week,omitempty"`
}

// ParseExportScope validates a scope kind and its value. A blank kind means all.
func ParseExportScope(kind, value string) (ExportScope, error) {
	value = strings.TrimSpace(value)

	switch ExportKind(strings.ToLower(strings.TrimSpace(kind))) {
	case "", ExportAll:
		return ExportScope{Kind: ExportAll}, nil
	case ExportMonth:
		if _, err := time.Parse(monthKeyLayout, value); err != nil {
			return ExportScope{}, fmt.Errorf("%w: month %q", coreerrors.ErrInvalidScope, value)
		}

		return ExportScope{Kind: ExportMonth, Month: value}, nil
	case ExportWeek:
		week, err := strconv.Atoi(value)
		if err != nil || week < 1 || week > maxISOWeek {
			return ExportScope{}, fmt.Errorf("%w: week %q", coreerrors.ErrInvalidScope, value)
		}

		return ExportScope{Kind: ExportWeek, Week: week}, nil
	default:
		return ExportScope{}, fmt.Errorf("%w: kind %q", coreerrors.ErrInvalidScope, kind)
	}
}

// FileSuffix names the scope in export file names.
func (s ExportScope) FileSuffix() string {
	switch s.Kind {
	case ExportMonth:
		return s.Month
	case ExportWeek:
		return fmt.Sprintf(fileSuffixWeekF, s.Week)
	default:
		return fileSuffixAll
	}
}

// SelectForExport picks the normalized records inside scope, keeping their order. The live
// display filters do not apply here.
func SelectForExport(records []domain.Trend, scope ExportScope, loc *time.Location) []domain.Trend {
	out := make([]domain.Trend, 0, len(records))

	for _, rec := range records {
		if inScope(rec, scope, loc) {
			out = append(out, rec)
		}
	}

	return out
}

func inScope(rec domain.Trend, scope ExportScope, loc *time.Location) bool {
	switch scope.Kind {
	case ExportMonth:
		t, ok := ParseDate(rec.PublishedDate)
		return ok && MonthKey(t, loc) == scope.Month
	case ExportWeek:
		week, ok := DerivedWeek(rec, loc)
		return ok && week == scope.Week
	default:
		return true
	}
}

// RowOptions carries the fixed columns of an export row.
type RowOptions struct {
	SourceLabel     string
	PagePlaceholder string
}

// ExportRow is one flattened spreadsheet row.
type ExportRow struct {
	Score    *float64
	Category string
	Topic    string
	Impact   string
	Summary  string
	Source   string
	Page     string
}

// ExportRows flattens records for a spreadsheet writer. Scores are clamped to [0, 1].
func ExportRows(records []domain.Trend, opts RowOptions) []ExportRow {
	rows := make([]ExportRow, 0, len(records))

	for _, rec := range records {
		var score *float64
		if rec.HasScore() {
			score = domain.Float64(ClampScore(*rec.RelevanceScore))
		}

		category := rec.CategoryLabel()
		if category == "" {
			category = Uncategorized
		}

		rows = append(rows, ExportRow{
			Score:    score,
			Category: category,
			Topic:    strings.TrimSpace(rec.Topic),
			Impact:   strings.TrimSpace(rec.SpotifyImpact),
			Summary:  strings.TrimSpace(rec.Summary),
			Source:   opts.SourceLabel,
			Page:     opts.PagePlaceholder,
		})
	}

	return rows
}
