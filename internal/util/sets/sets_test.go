package sets

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSet(t *testing.T) {
	s := make(Set[string])
	s.Add("a")
	s.Add("c")
	require.True(t, s.Has("a"))
	require.True(t, s.Has("c"))
	require.False(t, s.Has("d"))
	require.Len(t, s, 2)
}

func TestUnique(t *testing.T) {
	require.Equal(t, []string{"/b/", "/a/", "/c/"}, Unique([]string{"/b/", "/a/", "/b/", "/c/", "/a/"}))
	require.NotNil(t, Unique[string](nil))
	require.Empty(t, Unique[string](nil))
}
