package trends

import (
	"time"

	"github.com/lueurxax/trend-dashboard/internal/core/domain"
)

var testCET = time.FixedZone("CET", 3600)

func scored(id string, score float64, category string) domain.Trend {
	return domain.Trend{ID: id, RelevanceScore: domain.Float64(score), Category: category}
}

func weekly(id string, week int) domain.Trend {
	return domain.Trend{ID: id, Topic: "topic " + id, WeekNumber: domain.Int(week)}
}

func dated(id, date string) domain.Trend {
	return domain.Trend{ID: id, Topic: "topic " + id, PublishedDate: date}
}

func ids(records []domain.Trend) []string {
	out := make([]string, len(records))
	for i, rec := range records {
		out[i] = rec.ID
	}

	return out
}
