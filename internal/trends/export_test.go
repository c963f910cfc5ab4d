package trends

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/trend-dashboard/internal/core/domain"
	coreerrors "github.com/lueurxax/trend-dashboard/internal/core/errors"
)

func TestSelectForExport_WeekKeepsOrder(t *testing.T) {
	records := Normalize([]domain.Trend{
		weekly("w4", 4), weekly("w5a", 5), weekly("w5b", 5), weekly("w6", 6),
	}, testCET)

	got := SelectForExport(records, ExportScope{Kind: ExportWeek, Week: 5}, testCET)

	assert.Equal(t, []string{"w5a", "w5b"}, ids(got))
}

func TestSelectForExport_Month(t *testing.T) {
	records := Normalize([]domain.Trend{
		dated("jan", "2026-01-15"),
		dated("late-jan-utc", "2026-01-31T23:30:00Z"),
		dated("feb", "2026-02-03"),
		{ID: "undated", Topic: "x"},
	}, testCET)

	got := SelectForExport(records, ExportScope{Kind: ExportMonth, Month: "2026-02"}, testCET)
	assert.Equal(t, []string{"late-jan-utc", "feb"}, ids(got))

	all := SelectForExport(records, ExportScope{Kind: ExportAll}, testCET)
	assert.Equal(t, ids(records), ids(all))
}

func TestSelectForExport_UsesDerivedWeek(t *testing.T) {
	records := []domain.Trend{dated("derived", "2026-02-10"), weekly("explicit", 7)}

	got := SelectForExport(records, ExportScope{Kind: ExportWeek, Week: 7}, testCET)

	assert.Equal(t, []string{"derived", "explicit"}, ids(got))
}

func TestSelectForExport_WeekFollowsLocalDay(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	records := Normalize([]domain.Trend{
		dated("monday-night", "2026-02-09T00:30:00+01:00"),
		dated("sunday", "2026-02-08T12:00:00+01:00"),
	}, berlin)

	week7 := SelectForExport(records, ExportScope{Kind: ExportWeek, Week: 7}, berlin)
	assert.Equal(t, []string{"monday-night"}, ids(week7))

	feb := SelectForExport(records, ExportScope{Kind: ExportMonth, Month: "2026-02"}, berlin)
	assert.Equal(t, []string{"monday-night", "sunday"}, ids(feb))
}

func TestParseExportScope(t *testing.T) {
	tests := []struct {
		name    string
		kind    string
		value   string
		want    ExportScope
		wantErr bool
	}{
		{name: "blank is all", want: ExportScope{Kind: ExportAll}},
		{name: "all ignores value", kind: "all", value: "x", want: ExportScope{Kind: ExportAll}},
		{name: "month", kind: "month", value: "2026-02", want: ExportScope{Kind: ExportMonth, Month: "2026-02"}},
		{name: "bad month", kind: "month", value: "2026-13", wantErr: true},
		{name: "week trimmed", kind: " WEEK ", value: " 7 ", want: ExportScope{Kind: ExportWeek, Week: 7}},
		{name: "week zero", kind: "week", value: "0", wantErr: true},
		{name: "week too large", kind: "week", value: "54", wantErr: true},
		{name: "week not a number", kind: "week", value: "KW5", wantErr: true},
		{name: "unknown kind", kind: "year", value: "2026", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseExportScope(tt.kind, tt.value)
			if tt.wantErr {
				require.ErrorIs(t, err, coreerrors.ErrInvalidScope)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExportScope_FileSuffix(t *testing.T) {
	assert.Equal(t, "alle", ExportScope{Kind: ExportAll}.FileSuffix())
	assert.Equal(t, "2026-02", ExportScope{Kind: ExportMonth, Month: "2026-02"}.FileSuffix())
	assert.Equal(t, "KW07", ExportScope{Kind: ExportWeek, Week: 7}.FileSuffix())
}

func TestExportRows(t *testing.T) {
	records := []domain.Trend{
		{ID: "1", Topic: " Topic ", Category: "Audio", RelevanceScore: domain.Float64(1.4), SpotifyImpact: "impact", Summary: "sum"},
		{ID: "2", Topic: "neg", RelevanceScore: domain.Float64(-0.3)},
		{ID: "3", Topic: "none"},
	}

	rows := ExportRows(records, RowOptions{SourceLabel: "Newsletter", PagePlaceholder: "-"})

	require.Len(t, rows, 3)
	require.NotNil(t, rows[0].Score)
	assert.InDelta(t, 1.0, *rows[0].Score, 1e-9)
	assert.Equal(t, "Topic", rows[0].Topic)
	assert.Equal(t, "impact", rows[0].Impact)
	assert.Equal(t, "Newsletter", rows[0].Source)
	assert.Equal(t, "-", rows[0].Page)

	require.NotNil(t, rows[1].Score)
	assert.InDelta(t, 0.0, *rows[1].Score, 1e-9)
	assert.Equal(t, Uncategorized, rows[1].Category)

	assert.Nil(t, rows[2].Score)
	assert.InDelta(t, 1.4, *records[0].RelevanceScore, 1e-9, "input must stay untouched")
}
