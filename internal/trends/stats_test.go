package trends

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/trend-dashboard/internal/core/domain"
)

func TestComputeStats_Empty(t *testing.T) {
	stats := ComputeStats(nil)

	assert.Equal(t, 0, stats.Count)
	assert.Nil(t, stats.AvgScore)
	assert.Empty(t, stats.TopCategory)
	assert.Empty(t, stats.Categories)
	assert.Equal(t, Donut{}, stats.Donut)
}

func TestClassifyScore(t *testing.T) {
	tests := []struct {
		score float64
		want  Band
	}{
		{1.5, BandHigh},
		{1, BandHigh},
		{0.8, BandHigh},
		{0.79, BandMid},
		{0.6, BandMid},
		{0.59, BandLow},
		{0, BandLow},
		{-0.2, BandLow},
	}

	for _, tt := range tests {
		if got := ClassifyScore(tt.score); got != tt.want {
			t.Errorf("ClassifyScore(%v) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestComputeStats_BandsAndAverage(t *testing.T) {
	records := []domain.Trend{
		scored("a", 0.8, "A"),
		scored("b", 0.6, "B"),
		scored("c", 0.1, "A"),
		{ID: "d", Topic: "unscored"},
		scored("e", 1.5, "C"),
	}

	stats := ComputeStats(records)

	assert.Equal(t, 5, stats.Count)
	assert.Equal(t, Bands{High: 2, Mid: 1, Low: 2}, stats.Bands)
	assert.Equal(t, 2, stats.HighPriorityCount)
	require.NotNil(t, stats.AvgScore)
	assert.InDelta(t, (0.8+0.6+0.1+1.5)/4, *stats.AvgScore, 1e-9)
	assert.Equal(t, "A", stats.TopCategory)
	assert.Equal(t, 2, stats.TopCategoryCount)
}

func TestComputeStats_TopCategoryTieKeepsFirstSeen(t *testing.T) {
	records := []domain.Trend{
		scored("1", 0.5, "Beta"),
		scored("2", 0.5, "Alpha"),
		scored("3", 0.5, "Alpha"),
		scored("4", 0.5, "Beta"),
		scored("5", 0.5, " "),
	}

	stats := ComputeStats(records)

	assert.Equal(t, "Beta", stats.TopCategory)
	assert.Equal(t, []CategoryCount{
		{Category: "Beta", Count: 2},
		{Category: "Alpha", Count: 2},
		{Category: Uncategorized, Count: 1},
	}, stats.Categories)
}

func TestComputeStats_HistogramIsBounded(t *testing.T) {
	var records []domain.Trend

	for i := 0; i < 8; i++ {
		for j := 0; j <= i; j++ {
			records = append(records, scored(fmt.Sprintf("%d-%d", i, j), 0.5, fmt.Sprintf("cat-%d", i)))
		}
	}

	stats := ComputeStats(records)

	require.Len(t, stats.Categories, 6)
	assert.Equal(t, "cat-7", stats.Categories[0].Category)
	assert.Equal(t, 8, stats.Categories[0].Count)
	assert.Equal(t, "cat-2", stats.Categories[5].Category)
}

func TestComputeStats_DonutSums(t *testing.T) {
	records := []domain.Trend{
		scored("a", 0.9, ""), scored("b", 0.7, ""), scored("c", 0.2, ""),
	}

	donut := ComputeStats(records).Donut

	assert.InDelta(t, 100, donut.High+donut.Mid+donut.Low, 1e-9)
	assert.InDelta(t, 100.0/3, donut.High, 1e-9)
}
