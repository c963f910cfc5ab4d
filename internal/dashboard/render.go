package dashboard

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/url"
	"strconv"
	"time"

	"github.com/lueurxax/trend-dashboard/internal/core/domain"
	"github.com/lueurxax/trend-dashboard/internal/snapshot"
	"github.com/lueurxax/trend-dashboard/internal/trends"
)

const (
	fmtScore       = "%.2f"
	fmtPercent     = "%.0f%%"
	placeholder    = "–"
	timeLayout     = "02.01.2006 15:04"
	truncateSuffix = "…"
)

//go:embed templates/*.html
var templateFS embed.FS

func templateFuncs(loc *time.Location) template.FuncMap {
	return template.FuncMap{
		"score": formatScore,
		"percent": func(v float64) string {
			return fmt.Sprintf(fmtPercent, v)
		},
		"band": func(rec domain.Trend) string {
			return string(trends.ClassifyScore(rec.Score()))
		},
		"origin": trends.Origin,
		"dateLabel": func(raw string) string {
			t, ok := trends.ParseDate(raw)
			if !ok {
				return placeholder
			}

			return trends.FormatDayLabel(trends.DayKey(t, loc))
		},
		"formatTime": func(t time.Time) string {
			if t.IsZero() {
				return placeholder
			}

			return t.In(loc).Format(timeLayout)
		},
		"truncate": func(s string, limit int) string {
			runes := []rune(s)
			if limit <= 0 || len(runes) <= limit {
				return s
			}

			return string(runes[:limit]) + truncateSuffix
		},
	}
}

// formatScore shows a score or a mean of scores clamped to [0, 1].
func formatScore(v *float64) string {
	if v == nil {
		return placeholder
	}

	return fmt.Sprintf(fmtScore, trends.ClampScore(*v))
}

// Renderer renders dashboard HTML templates.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the embedded templates. Dates are shown in loc.
func NewRenderer(loc *time.Location) (*Renderer, error) {
	if loc == nil {
		loc = time.Local
	}

	tmpl, err := template.New("dashboard").
		Funcs(templateFuncs(loc)).
		ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse dashboard templates: %w", err)
	}

	return &Renderer{tmpl: tmpl}, nil
}

// Render renders a named template.
func (r *Renderer) Render(w io.Writer, name string, data any) error {
	if err := r.tmpl.ExecuteTemplate(w, name, data); err != nil {
		return fmt.Errorf("execute template %s: %w", name, err)
	}

	return nil
}

// DashboardData feeds dashboard.html.
type DashboardData struct {
	Title       string
	View        trends.View
	Status      snapshot.Status
	Expand      trends.ExpandState
	GroupModes  []trends.Option
	AuthEnabled bool
}

// IsOpen reports the expand state of id.
func (d DashboardData) IsOpen(id string, fallback bool) bool {
	return d.Expand.IsExpanded(id, fallback)
}

// ToggleURL links to the current page with id flipped.
func (d DashboardData) ToggleURL(id string, fallback bool) string {
	q := encodeSelection(d.View.Params, d.Expand.Toggle(id, fallback))

	return "/?" + q.Encode()
}

// SelectURL links to the current filters with one parameter replaced. Switching the
// grouping mode drops the bucket, which belongs to the previous mode.
func (d DashboardData) SelectURL(key, value string) string {
	q := encodeSelection(d.View.Params, d.Expand)
	q.Set(key, value)

	if key == paramGroup {
		q.Del(paramBucket)
	}

	return "/?" + q.Encode()
}

// ExportURL links to a download of scope kind with value.
func (d DashboardData) ExportURL(kind, value, format string) string {
	q := url.Values{}
	q.Set(paramScope, kind)

	if value != "" {
		q.Set(paramValue, value)
	}

	q.Set(paramFormat, format)

	return "/api/export?" + q.Encode()
}

// MinScoreValue formats the active score floor for the input field.
func (d DashboardData) MinScoreValue() string {
	return formatScoreParam(d.View.Params.Filter.MinScore)
}

func formatScoreParam(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// LoginData feeds login.html.
type LoginData struct {
	Title string
	Error string
}

// ErrorViewData feeds error.html.
type ErrorViewData struct {
	Title   string
	Message string
	Status  int
}
