package trends

import (
	"sort"

	"github.com/lueurxax/trend-dashboard/internal/core/domain"
)

// Band is a score classification.
type Band string

// Score bands.
const (
	BandHigh Band = "high"
	BandMid  Band = "mid"
	BandLow  Band = "low"
)

// Bands counts records per score band.
type Bands struct {
	High int `json:"high"`
	Mid  int `json:"mid"`
	Low  int `json:"low"`
}

// Total returns the number of banded records.
func (b Bands) Total() int {
	return b.High + b.Mid + b.Low
}

// Donut holds each band's share in percent.
type Donut struct {
	High float64 `json:"high"`
	Mid  float64 `json:"mid"`
	Low  float64 `json:"low"`
}

// CategoryCount is one bar of the category histogram.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// Stats are the KPIs of a record set.
type Stats struct {
	Count             int             `json:"count"`
	AvgScore          *float64        `json:"avg_score"`
	HighPriorityCount int             `json:"high_priority_count"`
	Bands             Bands           `json:"bands"`
	Donut             Donut           `json:"donut"`
	TopCategory       string          `json:"top_category"`
	TopCategoryCount  int             `json:"top_category_count"`
	Categories        []CategoryCount `json:"categories"`
}

// ClassifyScore returns the band of a raw score. Scores are not clamped first, so a raw
// 1.5 is high and a negative score is low.
func ClassifyScore(score float64) Band {
	switch {
	case score >= HighScoreThreshold:
		return BandHigh
	case score >= MidScoreThreshold:
		return BandMid
	default:
		return BandLow
	}
}

// ComputeStats aggregates records. An empty set yields Count 0, nil AvgScore, an empty
// TopCategory and 0% for every donut band.
func ComputeStats(records []domain.Trend) Stats {
	stats := Stats{Count: len(records), Categories: []CategoryCount{}}

	var (
		sum    float64
		scored int
	)

	for _, rec := range records {
		if rec.HasScore() {
			sum += *rec.RelevanceScore
			scored++
		}

		if rec.Score() >= HighScoreThreshold {
			stats.HighPriorityCount++
		}

		switch ClassifyScore(rec.Score()) {
		case BandHigh:
			stats.Bands.High++
		case BandMid:
			stats.Bands.Mid++
		default:
			stats.Bands.Low++
		}
	}

	if scored > 0 {
		avg := sum / float64(scored)
		stats.AvgScore = &avg
	}

	stats.Donut = donutShares(stats.Bands)

	counts := CountCategories(records)
	if len(counts) > 0 {
		stats.TopCategory = counts[0].Category
		stats.TopCategoryCount = counts[0].Count
	}

	if len(counts) > categoryHistogramSize {
		counts = counts[:categoryHistogramSize]
	}

	stats.Categories = counts

	return stats
}

// CountCategories counts records per category (blank counts as Uncategorized), ordered
// by descending count. Ties keep the order in which categories were first seen.
func CountCategories(records []domain.Trend) []CategoryCount {
	counts := make([]CategoryCount, 0)
	index := make(map[string]int)

	for _, rec := range records {
		name := rec.CategoryLabel()
		if name == "" {
			name = Uncategorized
		}

		idx, ok := index[name]
		if !ok {
			idx = len(counts)
			index[name] = idx
			counts = append(counts, CategoryCount{Category: name})
		}

		counts[idx].Count++
	}

	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})

	return counts
}

func donutShares(b Bands) Donut {
	denom := float64(max(1, b.Total()))

	return Donut{
		High: float64(b.High) / denom * percentScale,
		Mid:  float64(b.Mid) / denom * percentScale,
		Low:  float64(b.Low) / denom * percentScale,
	}
}
