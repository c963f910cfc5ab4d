package trends

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandState(t *testing.T) {
	state := NewExpandState([]string{"a", "b"}, []string{"b", "source:x.com"})

	assert.True(t, state.IsExpanded("a", false))
	assert.False(t, state.IsExpanded("b", true))
	assert.False(t, state.IsExpanded("source:x.com", true))
	assert.True(t, state.IsExpanded("missing", true))
	assert.False(t, state.IsExpanded("missing", false))
}

func TestExpandState_ToggleCopies(t *testing.T) {
	state := NewExpandState([]string{"a"}, nil)

	next := state.Toggle("a", false)
	assert.False(t, next.IsExpanded("a", true))
	assert.True(t, state.IsExpanded("a", false), "original must stay unchanged")

	fromDefault := next.Toggle("source:big.example", false)
	assert.True(t, fromDefault.IsExpanded("source:big.example", false))

	assert.ElementsMatch(t, []string{"source:big.example"}, fromDefault.OpenIDs())
}

func TestExpandState_OpenIDsSorted(t *testing.T) {
	state := NewExpandState([]string{"week:7", "day:2026-02-10", "week:5|source:a.com", "3"}, []string{"x"})

	for range 5 {
		assert.Equal(t, []string{"3", "day:2026-02-10", "week:5|source:a.com", "week:7"}, state.OpenIDs())
	}
}

func TestExpandState_NilIsUsable(t *testing.T) {
	var state ExpandState

	assert.True(t, state.IsExpanded("x", true))
	assert.Empty(t, state.OpenIDs())
	assert.True(t, state.Toggle("x", false).IsExpanded("x", false))
}
