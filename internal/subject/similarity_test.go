package subject

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindSimilarNameSubstringWinsWithScoreOne(t *testing.T) {
	t.Parallel()
	r := New(10)
	r.Register(Input{Name: "Sir Lancelot", Type: TypeCharacter, Description: "knight", KeyFeatures: []string{"totally unrelated"}})

	matches := r.FindSimilar("lancelot", []string{"nothing in common"})
	require.Len(t, matches, 1)
	assert.Equal(t, 1.0, matches[0].Score)
}

func TestFindSimilarJaccardScoring(t *testing.T) {
	t.Parallel()
	r := New(10)
	r.Register(Input{Name: "Dragon", Type: TypeAnimal, Description: "a fierce dragon", KeyFeatures: []string{"red scales", "large wings", "fire breath"}})
	r.Register(Input{Name: "Unrelated", Type: TypeObject, Description: "a rock", KeyFeatures: []string{"grey", "heavy"}})

	matches := r.FindSimilar("", []string{"red scales", "large wings"})
	require.Len(t, matches, 1)
	assert.Equal(t, "Dragon", matches[0].Subject.Name)
	assert.InDelta(t, 2.0/3.0, matches[0].Score, 0.001)
}

func TestFindSimilarDropsBelowThreshold(t *testing.T) {
	t.Parallel()
	r := New(10)
	r.Register(Input{Name: "Dragon", Type: TypeAnimal, Description: "a fierce dragon", KeyFeatures: []string{"red scales", "large wings", "fire breath", "claws", "horns", "spikes", "tail"}})

	matches := r.FindSimilar("", []string{"tail"})
	assert.Empty(t, matches)
}

func TestFindSimilarSortsDescending(t *testing.T) {
	t.Parallel()
	r := New(10)
	r.Register(Input{Name: "Partial", Type: TypeObject, Description: "x", KeyFeatures: []string{"a", "b", "c", "d"}})
	r.Register(Input{Name: "Close", Type: TypeObject, Description: "x", KeyFeatures: []string{"a", "b"}})

	matches := r.FindSimilar("", []string{"a", "b"})
	require.Len(t, matches, 2)
	assert.Equal(t, "Close", matches[0].Subject.Name)
	assert.GreaterOrEqual(t, matches[0].Score, matches[1].Score)
}
