package subject

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInput(name string) Input {
	return Input{
		Name:        name,
		Type:        TypeCharacter,
		Description: "a brave knight",
		KeyFeatures: []string{"red cape", "silver sword"},
		Tags:        []string{"hero"},
	}
}

func TestRegisterValidatesSchema(t *testing.T) {
	t.Parallel()
	r := New(10)

	_, err := r.Register(Input{Type: TypeCharacter, Description: "x", KeyFeatures: []string{"a"}})
	assert.ErrorIs(t, err, ErrEmptyName)

	_, err = r.Register(Input{Name: "a", Type: TypeCharacter, KeyFeatures: []string{"a"}})
	assert.ErrorIs(t, err, ErrEmptyDescription)

	_, err = r.Register(Input{Name: "a", Type: TypeCharacter, Description: "x"})
	assert.ErrorIs(t, err, ErrNoKeyFeatures)

	_, err = r.Register(Input{Name: "a", Type: "bogus", Description: "x", KeyFeatures: []string{"a"}})
	assert.ErrorIs(t, err, ErrUnrecognizedType)
}

func TestRegisterAssignsIDAndIndexes(t *testing.T) {
	t.Parallel()
	r := New(10)

	s, err := r.Register(validInput("Sir Lancelot"))
	require.NoError(t, err)
	require.NotEmpty(t, s.ID)
	require.False(t, s.CreatedAt.IsZero())

	found, ok := r.Recall(s.ID)
	require.True(t, ok)
	assert.Equal(t, "Sir Lancelot", found.Name)

	byName, ok := r.RecallByName("sir lancelot")
	require.True(t, ok)
	assert.Equal(t, s.ID, byName.ID)

	byTag := r.Search(Search{Tag: strPtr("hero")})
	require.Len(t, byTag, 1)
	assert.Equal(t, s.ID, byTag[0].ID)
}

func TestRecallByNameFallsBackToSubstring(t *testing.T) {
	t.Parallel()
	r := New(10)
	s, _ := r.Register(validInput("Sir Lancelot"))

	found, ok := r.RecallByName("lancel")
	require.True(t, ok)
	assert.Equal(t, s.ID, found.ID)
}

func TestEvictionIsLRUOverInsertionAndAccess(t *testing.T) {
	t.Parallel()
	r := New(2)

	a, _ := r.Register(validInput("A"))
	_, _ = r.Register(validInput("B"))

	// Touch A so it is most-recently-used.
	_, _ = r.Recall(a.ID)

	// Inserting C should evict B, the least-recently-used.
	c, _ := r.Register(validInput("C"))

	_, aStillThere := r.Recall(a.ID)
	_, bGone := r.RecallByName("B")
	_, cThere := r.Recall(c.ID)

	assert.True(t, aStillThere)
	assert.False(t, bGone)
	assert.True(t, cThere)
	assert.Equal(t, 2, r.Size())
}

func TestDeleteRemovesFromAllIndexesAtomically(t *testing.T) {
	t.Parallel()
	r := New(10)
	s, _ := r.Register(validInput("Sir Lancelot"))

	r.Delete(s.ID)

	_, ok := r.Recall(s.ID)
	assert.False(t, ok)
	_, ok = r.RecallByName("Sir Lancelot")
	assert.False(t, ok)
	assert.Empty(t, r.Search(Search{Tag: strPtr("hero")}))
	assert.Equal(t, 0, r.Size())
}

func TestClearEmptiesEverything(t *testing.T) {
	t.Parallel()
	r := New(10)
	r.Register(validInput("A"))
	r.Register(validInput("B"))

	r.Clear()
	assert.Equal(t, 0, r.Size())
	assert.Empty(t, r.All())
}

func TestCarryoverFlagAndQuery(t *testing.T) {
	t.Parallel()
	r := New(10)
	s, _ := r.Register(validInput("A"))

	assert.Empty(t, r.GetCarryoverSubjects())

	require.NoError(t, r.SetCarryover(s.ID, true))
	carried := r.GetCarryoverSubjects()
	require.Len(t, carried, 1)
	assert.Equal(t, s.ID, carried[0].ID)
}

func TestMarkUsedInCut(t *testing.T) {
	t.Parallel()
	r := New(10)
	s, _ := r.Register(validInput("A"))

	require.NoError(t, r.MarkUsedInCut(s.ID, "cut-1"))
	found, _ := r.Recall(s.ID)
	assert.Equal(t, "cut-1", found.LastUsedInCutID)

	assert.ErrorIs(t, r.MarkUsedInCut("missing", "cut-2"), ErrNotFound)
}

func TestBuildCarryoverPromptEmptyWhenNoneCarried(t *testing.T) {
	t.Parallel()
	r := New(10)
	r.Register(validInput("A"))
	assert.Equal(t, "", r.BuildCarryoverPrompt())
}

func TestBuildCarryoverPromptEnumeratesSubjects(t *testing.T) {
	t.Parallel()
	r := New(10)
	s, _ := r.Register(validInput("Sir Lancelot"))
	require.NoError(t, r.SetCarryover(s.ID, true))

	prompt := r.BuildCarryoverPrompt()
	assert.Contains(t, prompt, "Sir Lancelot")
	assert.Contains(t, prompt, "a brave knight")
	assert.Contains(t, prompt, "red cape")
}

func TestToJSONFromJSONRoundTrip(t *testing.T) {
	t.Parallel()
	r := New(10)
	s, _ := r.Register(validInput("Sir Lancelot"))
	require.NoError(t, r.SetCarryover(s.ID, true))

	data, err := r.ToJSON()
	require.NoError(t, err)

	r2 := New(10)
	require.NoError(t, r2.FromJSON(data))

	found, ok := r2.Recall(s.ID)
	require.True(t, ok)
	assert.Equal(t, s.Name, found.Name)
	assert.Equal(t, s.Type, found.Type)
	assert.Equal(t, s.KeyFeatures, found.KeyFeatures)
	assert.True(t, found.Carryover)
	assert.Equal(t, s.Tags, found.Tags)
}

func TestFromJSONSkipsMalformedEntries(t *testing.T) {
	t.Parallel()
	r := New(10)
	data := []byte(`[{"id":"1","name":"","description":"x","keyFeatures":["a"],"type":"character"},
		{"id":"2","name":"Valid","description":"y","keyFeatures":["b"],"type":"character","createdAt":"2024-01-01T00:00:00Z"}]`)

	require.NoError(t, r.FromJSON(data))
	assert.Equal(t, 1, r.Size())
	found, ok := r.Recall("2")
	require.True(t, ok)
	assert.Equal(t, "Valid", found.Name)
}

func strPtr(s string) *string { return &s }
