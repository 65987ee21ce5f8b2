package testutil

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
)

// AssertBefore checks that event first occurs in events, and occurs before
// event second.
func AssertBefore(t *testing.T, events []string, first, second string) {
	t.Helper()

	i := slices.Index(events, first)
	j := slices.Index(events, second)
	require.NotEqual(t, -1, i, "event %q was not recorded: %v", first, events)
	require.NotEqual(t, -1, j, "event %q was not recorded: %v", second, events)
	require.Less(t, i, j, "expected %q before %q: %v", first, second, events)
}
