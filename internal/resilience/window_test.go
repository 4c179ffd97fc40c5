package resilience

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlidingWindowReAddRefreshesWithoutGrowing(t *testing.T) {
	t.Parallel()

	w := NewSlidingWindow[string, string](SlidingWindowConfig{MaxEntries: 10, MaxAge: time.Hour})
	w.Add("k", "v1")
	assert.Equal(t, 1, w.Size())
	w.Add("k", "v2")
	assert.Equal(t, 1, w.Size())

	v, ok := w.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v2", v)
}

func TestSlidingWindowAgeBound(t *testing.T) {
	t.Parallel()

	w := NewSlidingWindow[string, int](SlidingWindowConfig{MaxEntries: 10, MaxAge: 20 * time.Millisecond})
	w.Add("a", 1)
	time.Sleep(40 * time.Millisecond)
	assert.False(t, w.Has("a"))
	assert.Equal(t, 0, w.Size())
}

func TestSlidingWindowCapacityBound(t *testing.T) {
	t.Parallel()

	w := NewSlidingWindow[int, int](SlidingWindowConfig{MaxEntries: 3, MaxAge: time.Hour})
	for i := 0; i < 10; i++ {
		w.Add(i, i)
		assert.LessOrEqual(t, w.Size(), 3)
	}
	keys := w.GetKeys()
	assert.Equal(t, []int{7, 8, 9}, keys)
}

func TestSlidingWindowGetKeysOldestFirst(t *testing.T) {
	t.Parallel()

	w := NewSlidingWindow[string, int](SlidingWindowConfig{MaxEntries: 5, MaxAge: time.Hour})
	w.Add("a", 1)
	w.Add("b", 2)
	w.Add("c", 3)
	assert.Equal(t, []string{"a", "b", "c"}, w.GetKeys())
	assert.Equal(t, []int{1, 2, 3}, w.GetValues())
}
