package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPostApplyOverridesOnlyPresentFields(t *testing.T) {
	prior := Post{
		UserID:    7,
		Content:   "before",
		Media:     []string{"https://cdn.example.com/a.png"},
		Comments:  []Comment{{UserID: 3, Content: "first"}},
		Reactions: Reactions{{Category: "like", UserIDs: []uint{3}}},
	}
	content := "after"

	merged := prior.Apply(PostUpdate{Content: &content})

	assert.Equal(t, "after", merged.Content)
	assert.Equal(t, prior.Media, merged.Media)
	assert.Equal(t, prior.Comments, merged.Comments)
	assert.Equal(t, prior.Reactions, merged.Reactions)
	assert.Equal(t, "before", prior.Content)
}

func TestPostApplyReplacesSequences(t *testing.T) {
	prior := Post{UserID: 7, Comments: []Comment{{UserID: 3, Content: "first"}}}
	update := PostUpdate{Comments: []Comment{}}

	merged := prior.Apply(update)

	assert.Empty(t, merged.Comments)
	assert.Len(t, prior.Comments, 1)
	assert.False(t, update.IsEmpty())
	assert.True(t, PostUpdate{}.IsEmpty())
}
