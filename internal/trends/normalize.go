package trends

import (
	"time"

	"github.com/lueurxax/trend-dashboard/internal/core/domain"
)

// Normalize derives missing week numbers from the published day in loc and drops records
// without any usable field. The input is not modified and the relative order is kept.
// Running it twice yields the same result as running it once.
func Normalize(records []domain.Trend, loc *time.Location) []domain.Trend {
	out := make([]domain.Trend, 0, len(records))

	for _, rec := range records {
		rec = withDerivedWeek(rec, loc)

		if isEmptyRecord(rec) {
			continue
		}

		out = append(out, rec)
	}

	return out
}

// DerivedWeek returns the record's week number, deriving it from the published date
// when the stored value is absent.
func DerivedWeek(rec domain.Trend, loc *time.Location) (int, bool) {
	if rec.WeekNumber != nil {
		return rec.Week()
	}

	t, ok := ParseDate(rec.PublishedDate)
	if !ok {
		return 0, false
	}

	return LocalISOWeek(t, loc), true
}

func withDerivedWeek(rec domain.Trend, loc *time.Location) domain.Trend {
	if rec.WeekNumber != nil {
		return rec
	}

	if t, ok := ParseDate(rec.PublishedDate); ok {
		rec.WeekNumber = domain.Int(LocalISOWeek(t, loc))
	}

	return rec
}

func isEmptyRecord(rec domain.Trend) bool {
	for _, s := range []string{rec.Topic, rec.Summary, rec.SpotifyImpact, rec.URL, rec.Category, rec.PublishedDate} {
		if !domain.IsBlank(s) {
			return false
		}
	}

	if rec.HasScore() {
		return false
	}

	_, ok := rec.Week()

	return !ok
}
