package trends

import (
	"math"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/lueurxax/trend-dashboard/internal/core/domain"
)

// FilterParams is the user's live filter selection. Blank Category or Bucket behave
// like All.
type FilterParams struct {
	MinScore float64 `json:"min_score"`
	Category string  `json:"category"`
	Bucket   string  `json:"bucket"`
	Query    string  `json:"q"`
}

// CategoryActive reports whether a specific category is selected.
func (p FilterParams) CategoryActive() bool {
	return isSelection(p.Category)
}

// BucketActive reports whether a specific bucket is selected.
func (p FilterParams) BucketActive() bool {
	return isSelection(p.Bucket)
}

// QueryActive reports whether the free text search is non-blank.
func (p FilterParams) QueryActive() bool {
	return !domain.IsBlank(p.Query)
}

// ClampScore limits a score to [0, 1]. NaN maps to 0.
func ClampScore(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// Filter returns the records matching every active predicate, in input order.
func Filter(records []domain.Trend, params FilterParams, g Grouper) []domain.Trend {
	match := newMatcher(params, g)

	out := make([]domain.Trend, 0, len(records))
	for _, rec := range records {
		if match(rec) {
			out = append(out, rec)
		}
	}

	return out
}

func newMatcher(params FilterParams, g Grouper) func(domain.Trend) bool {
	minScore := ClampScore(params.MinScore)
	category := strings.TrimSpace(params.Category)
	bucket := strings.TrimSpace(params.Bucket)
	categoryActive := params.CategoryActive()
	bucketActive := params.BucketActive()

	// A Caser keeps state, so every matcher owns one.
	fold := cases.Lower(language.Und)
	query := fold.String(strings.TrimSpace(params.Query))

	return func(rec domain.Trend) bool {
		if rec.Score() < minScore {
			return false
		}

		if categoryActive && rec.CategoryLabel() != category {
			return false
		}

		if bucketActive && g.Key(rec) != bucket {
			return false
		}

		if query == "" {
			return true
		}

		for _, field := range []string{rec.Topic, rec.Summary, rec.Category} {
			if strings.Contains(fold.String(field), query) {
				return true
			}
		}

		return false
	}
}

func isSelection(v string) bool {
	v = strings.TrimSpace(v)
	return v != "" && v != All
}
