// Package domain holds the trend record shared by the engine, the data sources and the
// dashboard.
//
// Text fields use the empty string for "absent": upstream null, a missing key and a
// whitespace-only value are treated the same everywhere. Numeric fields are pointers so
// that zero stays distinguishable from absent.
package domain

import "strings"

// Trend is a single trend record as stored upstream.
type Trend struct {
	ID               string
	Topic            string
	Category         string
	RelevanceScore   *float64
	Summary          string
	SpotifyImpact    string
	URL              string
	PublishedDate    string
	WeekNumber       *int
	NewsletterSource string
}

// Score returns the raw relevance score, or 0 when absent.
func (t Trend) Score() float64 {
	if t.RelevanceScore == nil {
		return 0
	}

	return *t.RelevanceScore
}

// HasScore reports whether the record carries a relevance score.
func (t Trend) HasScore() bool {
	return t.RelevanceScore != nil
}

// Week returns the week number and whether it is a usable (positive) value.
func (t Trend) Week() (int, bool) {
	if t.WeekNumber == nil || *t.WeekNumber <= 0 {
		return 0, false
	}

	return *t.WeekNumber, true
}

// CategoryLabel returns the trimmed category, empty when blank.
func (t Trend) CategoryLabel() string {
	return strings.TrimSpace(t.Category)
}

// IsBlank reports whether s is empty after trimming.
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// Float64 returns a pointer to v.
func Float64(v float64) *float64 {
	return &v
}

// Int returns a pointer to v.
func Int(v int) *int {
	return &v
}
