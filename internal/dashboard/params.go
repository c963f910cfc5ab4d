package dashboard

import (
	"net/url"
	"sort"
	"strings"

	"github.com/lueurxax/trend-dashboard/internal/trends"
)

// Query parameter names shared by the HTML links and the JSON API.
const (
	paramGroup    = "group"
	paramBucket   = "bucket"
	paramCategory = "category"
	paramMinScore = "min_score"
	paramQuery    = "q"
	paramOpen     = "open"
	paramClosed   = "closed"
	paramScope    = "scope"
	paramValue    = "value"
	paramFormat   = "format"
)

const maxQueryLen = 200

// parseViewParams reads the dashboard selection from the query string. Unknown group
// modes are rejected; every other malformed value falls back to "no filter".
func parseViewParams(q url.Values) (trends.ViewParams, error) {
	mode, err := trends.ParseGroupMode(q.Get(paramGroup))
	if err != nil {
		return trends.ViewParams{}, err
	}

	search := strings.TrimSpace(q.Get(paramQuery))
	if len([]rune(search)) > maxQueryLen {
		search = string([]rune(search)[:maxQueryLen])
	}

	return trends.ViewParams{
		Mode: mode,
		Filter: trends.FilterParams{
			MinScore: trends.ParseMinScore(q.Get(paramMinScore)),
			Category: strings.TrimSpace(q.Get(paramCategory)),
			Bucket:   strings.TrimSpace(q.Get(paramBucket)),
			Query:    search,
		},
	}, nil
}

// parseExpandState reads the open and closed ids of the current page.
func parseExpandState(q url.Values) trends.ExpandState {
	return trends.NewExpandState(q[paramOpen], q[paramClosed])
}

// encodeSelection writes params and state back into a query string. Defaults are left
// out so links stay short.
func encodeSelection(params trends.ViewParams, state trends.ExpandState) url.Values {
	q := url.Values{}

	if params.Mode != "" && params.Mode != trends.GroupWeek {
		q.Set(paramGroup, string(params.Mode))
	}

	if params.Filter.BucketActive() {
		q.Set(paramBucket, params.Filter.Bucket)
	}

	if params.Filter.CategoryActive() {
		q.Set(paramCategory, params.Filter.Category)
	}

	if params.Filter.MinScore > 0 {
		q.Set(paramMinScore, formatScoreParam(params.Filter.MinScore))
	}

	if params.Filter.QueryActive() {
		q.Set(paramQuery, params.Filter.Query)
	}

	ids := make([]string, 0, len(state))
	for id := range state {
		ids = append(ids, id)
	}

	sort.Strings(ids)

	for _, id := range ids {
		if state[id] {
			q.Add(paramOpen, id)
		} else {
			q.Add(paramClosed, id)
		}
	}

	return q
}
