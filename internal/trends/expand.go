package trends

import "sort"

// ExpandState is the caller-owned open/closed state of records and source clusters, keyed
// by record id or SourceCluster.ExpandKey. The engine only reads it.
type ExpandState map[string]bool

// NewExpandState marks open ids as expanded and closed ids as collapsed. An id listed in
// both ends up collapsed.
func NewExpandState(open, closed []string) ExpandState {
	state := make(ExpandState, len(open)+len(closed))

	for _, id := range open {
		state[id] = true
	}

	for _, id := range closed {
		state[id] = false
	}

	return state
}

// IsExpanded returns the stored state for id, or fallback when none was stored.
func (s ExpandState) IsExpanded(id string, fallback bool) bool {
	if v, ok := s[id]; ok {
		return v
	}

	return fallback
}

// Toggle returns a copy of s with id flipped relative to its current state.
func (s ExpandState) Toggle(id string, fallback bool) ExpandState {
	out := make(ExpandState, len(s)+1)
	for k, v := range s {
		out[k] = v
	}

	out[id] = !s.IsExpanded(id, fallback)

	return out
}

// OpenIDs returns the expanded ids, sorted.
func (s ExpandState) OpenIDs() []string {
	ids := make([]string, 0, len(s))

	for id, open := range s {
		if open {
			ids = append(ids, id)
		}
	}

	sort.Strings(ids)

	return ids
}
