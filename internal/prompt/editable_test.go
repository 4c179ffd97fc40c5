package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddSectionPreservesOrder(t *testing.T) {
	t.Parallel()
	p := New()
	p.AddSection("style", "Style", "A watercolor painting", "style")
	p.AddSection("subject", "Subject", "a red fox", "subject")
	p.AddSection("mood", "Mood", "calm and quiet", "mood")

	sections := p.Sections()
	require.Len(t, sections, 3)
	assert.Equal(t, []string{"style", "subject", "mood"}, []string{sections[0].ID, sections[1].ID, sections[2].ID})
	for _, s := range sections {
		assert.False(t, s.Modified)
	}
}

func TestEditSectionSetsModifiedFlag(t *testing.T) {
	t.Parallel()
	p := New()
	p.AddSection("style", "Style", "A watercolor painting", "style")

	require.NoError(t, p.EditSection("style", "An anime illustration"))
	sections := p.Sections()
	require.Len(t, sections, 1)
	assert.True(t, sections[0].Modified)
	assert.Equal(t, "An anime illustration", sections[0].Content)

	assert.ErrorIs(t, p.EditSection("missing", "x"), ErrUnknownSection)
}

func TestCombineJoinsNonEmptyTrimmedContentWithTrailingPeriod(t *testing.T) {
	t.Parallel()
	p := New()
	p.AddSection("a", "A", "  a fox  ", "a")
	p.AddSection("b", "B", "", "b")
	p.AddSection("c", "C", "in a forest", "c")

	assert.Equal(t, "a fox. in a forest.", p.Combine())
}

func TestCombineEmptyWhenNoContent(t *testing.T) {
	t.Parallel()
	p := New()
	p.AddSection("a", "A", "  ", "a")
	assert.Equal(t, "", p.Combine())
}

func TestToDataFromDataRoundTrip(t *testing.T) {
	t.Parallel()
	p := New()
	p.AddSection("a", "A", "a fox", "a")
	p.AddSection("b", "B", "in a forest", "b")
	require.NoError(t, p.EditSection("b", "in a dark forest"))

	data := p.ToData()
	assert.Equal(t, "a fox. in a dark forest.", data.Combined)

	p2 := FromData(data)
	sections := p2.Sections()
	require.Len(t, sections, 2)
	assert.Equal(t, "a", sections[0].ID)
	assert.Equal(t, "b", sections[1].ID)
	assert.True(t, sections[1].Modified)
	assert.False(t, sections[0].Modified)
	assert.Equal(t, p.Combine(), p2.Combine())
}
