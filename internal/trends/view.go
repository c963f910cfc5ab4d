package trends

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/lueurxax/trend-dashboard/internal/core/domain"
)

// ViewParams is everything a view depends on besides the snapshot. It is comparable so it
// can key a cache.
type ViewParams struct {
	Mode   GroupMode    `json:"group"`
	Filter FilterParams `json:"filter"`
}

// Option is one entry of a select list.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

// ExportOptions lists the months and weeks present in the data.
type ExportOptions struct {
	Months []Option `json:"months"`
	Weeks  []Option `json:"weeks"`
}

// View is the fully derived dashboard state for one snapshot and one selection.
type View struct {
	Params         ViewParams    `json:"params"`
	Total          int           `json:"total"`
	Buckets        []Bucket      `json:"buckets"`
	Stats          Stats         `json:"stats"`
	Overall        Stats         `json:"overall"`
	Categories     []string      `json:"categories"`
	BucketOptions  []Option      `json:"bucket_options"`
	ExportOptions  ExportOptions `json:"export_options"`
	SourceClusters bool          `json:"source_clusters"`
}

// BuildView runs the whole pipeline: normalize, sort, filter, group, cluster by source and
// aggregate. records is not modified.
func BuildView(records []domain.Trend, params ViewParams, loc *time.Location) View {
	grouper := NewGrouper(params.Mode, loc)
	params.Mode = grouper.Mode

	normalized := SortByRecency(Normalize(records, loc))
	filtered := Filter(normalized, params.Filter, grouper)
	buckets := grouper.Group(filtered)

	clustered := ShouldClusterSources(params.Filter)
	if clustered {
		for i := range buckets {
			buckets[i].Sources = ClusterBucket(buckets[i])
		}
	}

	return View{
		Params:         params,
		Total:          len(normalized),
		Buckets:        buckets,
		Stats:          ComputeStats(filtered),
		Overall:        ComputeStats(normalized),
		Categories:     Categories(normalized),
		BucketOptions:  BucketOptions(normalized, grouper),
		ExportOptions:  BuildExportOptions(normalized, loc),
		SourceClusters: clustered,
	}
}

// Categories returns the distinct non-blank categories in German collation order.
func Categories(records []domain.Trend) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)

	for _, rec := range records {
		name := rec.CategoryLabel()
		if name == "" {
			continue
		}

		if _, ok := seen[name]; ok {
			continue
		}

		seen[name] = struct{}{}
		out = append(out, name)
	}

	collate.New(language.German).SortStrings(out)

	return out
}

// BucketOptions lists the buckets of records under g, in display order.
func BucketOptions(records []domain.Trend, g Grouper) []Option {
	buckets := g.Group(records)
	options := make([]Option, 0, len(buckets))

	for _, b := range buckets {
		options = append(options, Option{Value: b.Key, Label: b.Label, Count: len(b.Items)})
	}

	return options
}

// BuildExportOptions lists the months and weeks that an export scope can target.
func BuildExportOptions(records []domain.Trend, loc *time.Location) ExportOptions {
	opts := ExportOptions{Months: []Option{}, Weeks: []Option{}}

	for _, b := range NewGrouper(GroupMonth, loc).Group(records) {
		_, value := splitKey(b.Key)
		if value == keyUnknown {
			continue
		}

		opts.Months = append(opts.Months, Option{Value: value, Label: b.Label, Count: len(b.Items)})
	}

	weeks := make(map[int]int)
	for _, rec := range records {
		if week, ok := DerivedWeek(rec, loc); ok {
			weeks[week]++
		}
	}

	for week, count := range weeks {
		value := strconv.Itoa(week)
		opts.Weeks = append(opts.Weeks, Option{Value: value, Label: labelWeekPrefix + value, Count: count})
	}

	sort.Slice(opts.Weeks, func(i, j int) bool {
		a, _ := strconv.Atoi(opts.Weeks[i].Value)
		b, _ := strconv.Atoi(opts.Weeks[j].Value)

		return a > b
	})

	return opts
}

// ParseMinScore parses a score floor, returning 0 for blank or malformed input.
func ParseMinScore(raw string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0
	}

	return ClampScore(v)
}
