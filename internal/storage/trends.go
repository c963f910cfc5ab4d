package db

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/lueurxax/trend-dashboard/internal/core/domain"
	"github.com/lueurxax/trend-dashboard/internal/platform/observability"
)

const upstreamName = "postgres"

// Querier is the subset of *pgxpool.Pool the repository needs.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Ping(ctx context.Context) error
}

// The date and id columns are read as text so any upstream column type (date,
// timestamptz, bigint, uuid) arrives in the form the domain decoder expects.
const sqlSelectTrends = `
		SELECT id::text,
		       topic,
		       category,
		       relevance_score::float8,
		       summary,
		       spotify_impact,
		       url,
		       published_date::text,
		       week_number::int4,
		       newsletter_source
		FROM %s
		ORDER BY published_date DESC NULLS LAST, relevance_score DESC NULLS LAST
	`

// TrendRepository reads trend records from one table.
type TrendRepository struct {
	q     Querier
	table string
}

// NewTrendRepository creates a repository for table. A blank table means DefaultTrendsTable.
func NewTrendRepository(q Querier, table string) *TrendRepository {
	if table == "" {
		table = DefaultTrendsTable
	}

	return &TrendRepository{q: q, table: table}
}

// FetchTrends loads the whole table, newest first.
func (r *TrendRepository) FetchTrends(ctx context.Context) ([]domain.Trend, error) {
	start := time.Now()
	results, err := r.fetchTrends(ctx)
	observability.ObserveUpstream(upstreamName, start, len(results), err)

	return results, err
}

func (r *TrendRepository) fetchTrends(ctx context.Context) ([]domain.Trend, error) {
	query := fmt.Sprintf(sqlSelectTrends, pgx.Identifier{r.table}.Sanitize())

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf(errFmtQueryTrends, err)
	}
	defer rows.Close()

	results := make([]domain.Trend, 0)

	for rows.Next() {
		var (
			id            pgtype.Text
			topic         pgtype.Text
			category      pgtype.Text
			score         pgtype.Float8
			summary       pgtype.Text
			impact        pgtype.Text
			url           pgtype.Text
			publishedDate pgtype.Text
			week          pgtype.Int4
			newsletter    pgtype.Text
		)

		if err := rows.Scan(
			&id,
			&topic,
			&category,
			&score,
			&summary,
			&impact,
			&url,
			&publishedDate,
			&week,
			&newsletter,
		); err != nil {
			return nil, fmt.Errorf(errFmtScanTrend, err)
		}

		results = append(results, domain.Trend{
			ID:               id.String,
			Topic:            topic.String,
			Category:         category.String,
			RelevanceScore:   fromFloat8(score),
			Summary:          summary.String,
			SpotifyImpact:    impact.String,
			URL:              url.String,
			PublishedDate:    publishedDate.String,
			WeekNumber:       fromInt4(week),
			NewsletterSource: newsletter.String,
		})
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf(errFmtIterateTrends, rows.Err())
	}

	return results, nil
}

// Ping checks that the database answers.
func (r *TrendRepository) Ping(ctx context.Context) error {
	if err := r.q.Ping(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	return nil
}

// Table returns the unquoted table name.
func (r *TrendRepository) Table() string {
	return r.table
}

func fromFloat8(f pgtype.Float8) *float64 {
	if !f.Valid || math.IsNaN(f.Float64) || math.IsInf(f.Float64, 0) {
		return nil
	}

	return domain.Float64(f.Float64)
}

func fromInt4(i pgtype.Int4) *int {
	if !i.Valid {
		return nil
	}

	return domain.Int(int(i.Int32))
}
