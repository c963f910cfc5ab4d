package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrendUnmarshalJSON_Lenient(t *testing.T) {
	input := `[
		{"id": 42, "topic": "Podcasts", "category": " Audio ", "relevance_score": 0.91,
		 "published_date": "2026-02-10", "week_number": null, "url": "https://www.example.com/a"},
		{"id": "abc", "relevance_score": "0.5", "week_number": "7"},
		{"id": 7, "relevance_score": "high", "week_number": 5.5, "summary": null},
		null
	]`

	var got []Trend
	require.NoError(t, json.Unmarshal([]byte(input), &got))
	require.Len(t, got, 4)

	assert.Equal(t, "42", got[0].ID)
	assert.Equal(t, "Podcasts", got[0].Topic)
	assert.Equal(t, "Audio", got[0].CategoryLabel())
	require.NotNil(t, got[0].RelevanceScore)
	assert.InDelta(t, 0.91, *got[0].RelevanceScore, 1e-9)
	assert.Nil(t, got[0].WeekNumber)

	assert.Equal(t, "abc", got[1].ID)
	require.NotNil(t, got[1].RelevanceScore)
	assert.InDelta(t, 0.5, *got[1].RelevanceScore, 1e-9)
	require.NotNil(t, got[1].WeekNumber)
	assert.Equal(t, 7, *got[1].WeekNumber)

	assert.Nil(t, got[2].RelevanceScore, "non-numeric score degrades to absent")
	assert.Nil(t, got[2].WeekNumber, "fractional week degrades to absent")
	assert.Empty(t, got[2].Summary)

	assert.Equal(t, Trend{}, got[3])
}

func TestTrendUnmarshalJSON_Broken(t *testing.T) {
	var tr Trend
	assert.Error(t, json.Unmarshal([]byte(`{"id": `), &tr))
}

func TestTrendMarshalJSON_NullsForAbsent(t *testing.T) {
	tr := Trend{ID: "1", Topic: "AI", RelevanceScore: Float64(0.7), Category: "   "}

	data, err := json.Marshal(tr)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))

	assert.Equal(t, "AI", fields["topic"])
	assert.Nil(t, fields["category"])
	assert.Nil(t, fields["week_number"])
	assert.NotContains(t, fields, "newsletter_source")
}

func TestTrendAccessors(t *testing.T) {
	tests := []struct {
		name      string
		trend     Trend
		wantScore float64
		wantWeek  int
		wantOK    bool
	}{
		{name: "empty", trend: Trend{}, wantScore: 0, wantWeek: 0, wantOK: false},
		{name: "scored", trend: Trend{RelevanceScore: Float64(0.4), WeekNumber: Int(12)}, wantScore: 0.4, wantWeek: 12, wantOK: true},
		{name: "zero week", trend: Trend{WeekNumber: Int(0)}, wantScore: 0, wantWeek: 0, wantOK: false},
		{name: "negative week", trend: Trend{WeekNumber: Int(-3)}, wantScore: 0, wantWeek: 0, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.trend.Score(); got != tt.wantScore {
				t.Errorf("Score() = %v, want %v", got, tt.wantScore)
			}

			week, ok := tt.trend.Week()
			if week != tt.wantWeek || ok != tt.wantOK {
				t.Errorf("Week() = (%d, %v), want (%d, %v)", week, ok, tt.wantWeek, tt.wantOK)
			}
		})
	}
}
