package domain

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

var jsonNull = []byte("null")

// trendJSON mirrors the upstream column names. Every field is decoded leniently.
type trendJSON struct {
	ID               json.RawMessage `json:"id"`
	Topic            json.RawMessage `json:"topic"`
	Category         json.RawMessage `json:"category"`
	RelevanceScore   json.RawMessage `json:"relevance_score"`
	Summary          json.RawMessage `json:"summary"`
	SpotifyImpact    json.RawMessage `json:"spotify_impact"`
	URL              json.RawMessage `json:"url"`
	PublishedDate    json.RawMessage `json:"published_date"`
	WeekNumber       json.RawMessage `json:"week_number"`
	NewsletterSource json.RawMessage `json:"newsletter_source"`
}

// UnmarshalJSON decodes an upstream row. A malformed field degrades to absent instead of
// failing the whole record; only syntactically broken JSON returns an error.
func (t *Trend) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), jsonNull) {
		*t = Trend{}
		return nil
	}

	var raw trendJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err //nolint:wrapcheck // json decoder already names the offending input
	}

	*t = Trend{
		ID:               looseString(raw.ID),
		Topic:            looseString(raw.Topic),
		Category:         looseString(raw.Category),
		RelevanceScore:   looseFloat(raw.RelevanceScore),
		Summary:          looseString(raw.Summary),
		SpotifyImpact:    looseString(raw.SpotifyImpact),
		URL:              looseString(raw.URL),
		PublishedDate:    looseString(raw.PublishedDate),
		WeekNumber:       looseInt(raw.WeekNumber),
		NewsletterSource: looseString(raw.NewsletterSource),
	}

	return nil
}

// MarshalJSON encodes the record with upstream column names and nulls for absent values.
func (t Trend) MarshalJSON() ([]byte, error) {
	out := struct {
		ID               string   `json:"id"`
		Topic            *string  `json:"topic"`
		Category         *string  `json:"category"`
		RelevanceScore   *float64 `json:"relevance_score"`
		Summary          *string  `json:"summary"`
		SpotifyImpact    *string  `json:"spotify_impact"`
		URL              *string  `json:"url"`
		PublishedDate    *string  `json:"published_date"`
		WeekNumber       *int     `json:"week_number"`
		NewsletterSource *string  `json:"newsletter_source,omitempty"`
	}{
		ID:               t.ID,
		Topic:            optionalString(t.Topic),
		Category:         optionalString(t.Category),
		RelevanceScore:   t.RelevanceScore,
		Summary:          optionalString(t.Summary),
		SpotifyImpact:    optionalString(t.SpotifyImpact),
		URL:              optionalString(t.URL),
		PublishedDate:    optionalString(t.PublishedDate),
		WeekNumber:       t.WeekNumber,
		NewsletterSource: optionalString(t.NewsletterSource),
	}

	data, err := json.Marshal(out)
	if err != nil {
		return nil, err //nolint:wrapcheck // plain struct encoding
	}

	return data, nil
}

func optionalString(s string) *string {
	if IsBlank(s) {
		return nil
	}

	return &s
}

func looseString(raw json.RawMessage) string {
	if len(raw) == 0 || bytes.Equal(raw, jsonNull) {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}

	return ""
}

func looseFloat(raw json.RawMessage) *float64 {
	if len(raw) == 0 || bytes.Equal(raw, jsonNull) {
		return nil
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return finite(f)
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}

	parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil
	}

	return finite(parsed)
}

func looseInt(raw json.RawMessage) *int {
	f := looseFloat(raw)
	if f == nil || *f != math.Trunc(*f) || math.Abs(*f) > math.MaxInt32 {
		return nil
	}

	return Int(int(*f))
}

func finite(f float64) *float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}

	return &f
}
