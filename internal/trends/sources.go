package trends

import (
	"net/url"
	"sort"
	"strings"

	"github.com/lueurxax/trend-dashboard/internal/core/domain"
)

const wwwPrefix = "www."

// UnknownSource is the cluster domain of records without a parsable URL.
const UnknownSource = ""

// SourceCluster groups a bucket's records by originating domain.
type SourceCluster struct {
	Bucket          string         `json:"bucket,omitempty"`
	Domain          string         `json:"domain"`
	Label           string         `json:"label"`
	Items           []domain.Trend `json:"items"`
	Stats           Stats          `json:"stats"`
	DefaultExpanded bool           `json:"default_expanded"`
}

// ExpandKey is the ExpandState key of the cluster. It is scoped by the bucket, so the same
// domain in another bucket keeps its own state.
func (c SourceCluster) ExpandKey() string {
	key := "source" + keySeparator + c.Domain
	if c.Bucket == "" {
		return key
	}

	return c.Bucket + clusterKeySeparator + key
}

// SourceDomain extracts the host of an absolute URL, lower-cased and without a leading
// "www.".
func SourceDomain(rawURL string) (string, bool) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return "", false
	}

	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Scheme == "" {
		return "", false
	}

	host := strings.ToLower(parsed.Hostname())
	host = strings.TrimPrefix(host, wwwPrefix)

	if host == "" {
		return "", false
	}

	return host, true
}

// Origin names where a record came from: the newsletter source when given, otherwise the
// URL's domain, otherwise the unknown source label.
func Origin(rec domain.Trend) string {
	if src := strings.TrimSpace(rec.NewsletterSource); src != "" {
		return src
	}

	if host, ok := SourceDomain(rec.URL); ok {
		return host
	}

	return UnknownSourceLabel
}

// ShouldClusterSources reports whether buckets should be split by source. Search and
// category filters already narrow the result, so clustering is skipped for them.
func ShouldClusterSources(p FilterParams) bool {
	return !p.QueryActive() && !p.CategoryActive()
}

// ClusterBySource partitions records by URL domain, largest cluster first. Clusters of
// equal size keep the order in which their domain was first seen.
func ClusterBySource(records []domain.Trend) []SourceCluster {
	clusters := make([]SourceCluster, 0)
	index := make(map[string]int)

	for _, rec := range records {
		key, ok := SourceDomain(rec.URL)
		if !ok {
			key = UnknownSource
		}

		idx, seen := index[key]
		if !seen {
			idx = len(clusters)
			index[key] = idx
			clusters = append(clusters, SourceCluster{Domain: key, Label: sourceLabel(key)})
		}

		clusters[idx].Items = append(clusters[idx].Items, rec)
	}

	sort.SliceStable(clusters, func(i, j int) bool {
		return len(clusters[i].Items) > len(clusters[j].Items)
	})

	for i := range clusters {
		clusters[i].Stats = ComputeStats(clusters[i].Items)
		clusters[i].DefaultExpanded = len(clusters[i].Items) <= clusterExpandedMaxItems
	}

	return clusters
}

// ClusterBucket clusters the records of b and tags every cluster with the bucket key.
func ClusterBucket(b Bucket) []SourceCluster {
	clusters := ClusterBySource(b.Items)
	for i := range clusters {
		clusters[i].Bucket = b.Key
	}

	return clusters
}

func sourceLabel(key string) string {
	if key == UnknownSource {
		return UnknownSourceLabel
	}

	return key
}
