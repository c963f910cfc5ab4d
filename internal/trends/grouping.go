package trends

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/lueurxax/trend-dashboard/internal/core/domain"
	coreerrors "github.com/lueurxax/trend-dashboard/internal/core/errors"
)

// GroupMode selects the time unit used for buckets.
type GroupMode string

// Grouping modes.
const (
	GroupWeek  GroupMode = "week"
	GroupDay   GroupMode = "day"
	GroupMonth GroupMode = "month"
)

// ParseGroupMode accepts week/day/month and their -ly aliases. Blank means week.
func ParseGroupMode(raw string) (GroupMode, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", string(GroupWeek), "weekly":
		return GroupWeek, nil
	case string(GroupDay), "daily":
		return GroupDay, nil
	case string(GroupMonth), "monthly":
		return GroupMonth, nil
	default:
		return "", fmt.Errorf("%w: %q", coreerrors.ErrInvalidGroupMode, raw)
	}
}

// Bucket is a labeled group of records sharing a time key.
type Bucket struct {
	Key     string          `json:"key"`
	Label   string          `json:"label"`
	Items   []domain.Trend  `json:"items"`
	Sources []SourceCluster `json:"sources,omitempty"`
}

// Grouper derives bucket keys and labels for one grouping mode. Day and month keys are
// computed in Location.
type Grouper struct {
	Mode     GroupMode
	Location *time.Location
}

// NewGrouper returns a grouper for mode in loc.
func NewGrouper(mode GroupMode, loc *time.Location) Grouper {
	if mode == "" {
		mode = GroupWeek
	}

	return Grouper{Mode: mode, Location: loc}
}

// Key returns the bucket key of rec, e.g. "week:7", "day:2026-02-10", "month:unknown".
func (g Grouper) Key(rec domain.Trend) string {
	switch g.Mode {
	case GroupDay, GroupMonth:
		t, ok := ParseDate(rec.PublishedDate)
		if !ok {
			return unknownKey(g.Mode)
		}

		if g.Mode == GroupDay {
			return string(GroupDay) + keySeparator + DayKey(t, g.Location)
		}

		return string(GroupMonth) + keySeparator + MonthKey(t, g.Location)
	default:
		week, ok := rec.Week()
		if !ok {
			return unknownKey(GroupWeek)
		}

		return string(GroupWeek) + keySeparator + strconv.Itoa(week)
	}
}

// Label formats a bucket key for display.
func (g Grouper) Label(key string) string {
	mode, value := splitKey(key)

	if value == keyUnknown {
		switch mode {
		case GroupDay:
			return labelNoDay
		case GroupMonth:
			return labelNoMonth
		default:
			return labelNoWeek
		}
	}

	switch mode {
	case GroupDay:
		return FormatDayLabel(value)
	case GroupMonth:
		return FormatMonthLabel(value)
	default:
		return labelWeekPrefix + value
	}
}

// Group partitions records into buckets keyed by label. Unknown buckets sort last, weeks
// by descending number, days and months by descending key. Records keep their input
// order inside a bucket.
func (g Grouper) Group(records []domain.Trend) []Bucket {
	buckets := make([]Bucket, 0)
	byLabel := make(map[string]int)

	for _, rec := range records {
		key := g.Key(rec)
		label := g.Label(key)

		idx, ok := byLabel[label]
		if !ok {
			idx = len(buckets)
			byLabel[label] = idx
			buckets = append(buckets, Bucket{Key: key, Label: label})
		}

		buckets[idx].Items = append(buckets[idx].Items, rec)
	}

	sort.SliceStable(buckets, func(i, j int) bool {
		return g.keyLess(buckets[i].Key, buckets[j].Key)
	})

	return buckets
}

// keyLess orders bucket keys for display: known before unknown, newest first.
func (g Grouper) keyLess(a, b string) bool {
	_, va := splitKey(a)
	_, vb := splitKey(b)

	unknownA, unknownB := va == keyUnknown, vb == keyUnknown
	if unknownA || unknownB {
		return !unknownA && unknownB
	}

	if g.Mode == GroupWeek || g.Mode == "" {
		na, errA := strconv.Atoi(va)
		nb, errB := strconv.Atoi(vb)

		if errA == nil && errB == nil {
			return na > nb
		}
	}

	return va > vb
}

func unknownKey(mode GroupMode) string {
	return string(mode) + keySeparator + keyUnknown
}

func splitKey(key string) (GroupMode, string) {
	mode, value, ok := strings.Cut(key, keySeparator)
	if !ok {
		return GroupWeek, key
	}

	return GroupMode(mode), value
}

// SortByRecency orders records by published date descending, then relevance score
// descending. Absent dates and scores go last; ties keep their input order.
func SortByRecency(records []domain.Trend) []domain.Trend {
	type entry struct {
		rec     domain.Trend
		date    time.Time
		hasDate bool
	}

	entries := make([]entry, len(records))
	for i, rec := range records {
		t, ok := ParseDate(rec.PublishedDate)
		entries[i] = entry{rec: rec, date: t, hasDate: ok}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]

		if a.hasDate != b.hasDate {
			return a.hasDate
		}

		if a.hasDate && !a.date.Equal(b.date) {
			return a.date.After(b.date)
		}

		if a.rec.HasScore() != b.rec.HasScore() {
			return a.rec.HasScore()
		}

		return a.rec.Score() > b.rec.Score()
	})

	out := make([]domain.Trend, len(entries))
	for i, e := range entries {
		out[i] = e.rec
	}

	return out
}
