package replytree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/midhunpallampetty/upskillr-forum-engine/internal/app/models"
)

// buildTree returns a -> b -> c plus a top-level sibling d.
func buildTree() []models.Reply {
	return []models.Reply{
		{
			ID: "a",
			Children: []models.Reply{
				{
					ID:            "b",
					ParentReplyID: "a",
					Children: []models.Reply{
						{ID: "c", ParentReplyID: "b"},
					},
				},
			},
		},
		{ID: "d"},
	}
}

func TestInsertTopLevel(t *testing.T) {
	tree := buildTree()
	out := Insert(tree, models.Reply{ID: "e", Text: "top level"})

	require.Len(t, out, 3)
	assert.Equal(t, "e", out[2].ID)
	assert.Len(t, tree, 2, "input must not be mutated")
}

func TestInsertUnderDeepParent(t *testing.T) {
	tree := buildTree()
	out := Insert(tree, models.Reply{ID: "e", ParentReplyID: "b"})

	require.Len(t, out, 2)
	children := out[0].Children[0].Children
	require.Len(t, children, 2)
	assert.Equal(t, "c", children[0].ID)
	assert.Equal(t, "e", children[1].ID)

	// siblings and ancestors untouched
	assert.Equal(t, tree[1], out[1])
	assert.Equal(t, "a", out[0].ID)

	// original tree unchanged
	assert.Len(t, tree[0].Children[0].Children, 1)
}

func TestInsertOrphanIsNoOp(t *testing.T) {
	tree := buildTree()
	out := Insert(tree, models.Reply{ID: "e", ParentReplyID: "missing"})

	assert.Equal(t, tree, out)
}

func TestInsertDropsCarriedChildren(t *testing.T) {
	tree := buildTree()
	out := Insert(tree, models.Reply{
		ID:       "e",
		Children: []models.Reply{{ID: "stale"}},
	})

	require.Len(t, out, 3)
	assert.Empty(t, out[2].Children)
}

func TestRemoveCascades(t *testing.T) {
	tree := buildTree()
	out := Remove(tree, "a")

	require.Len(t, out, 1)
	assert.Equal(t, "d", out[0].ID)
	assert.False(t, Contains(out, "b"))
	assert.False(t, Contains(out, "c"))

	// input retains the full subtree
	assert.True(t, Contains(tree, "c"))
}

func TestRemoveNested(t *testing.T) {
	tree := buildTree()
	out := Remove(tree, "b")

	assert.True(t, Contains(out, "a"))
	assert.False(t, Contains(out, "b"))
	assert.False(t, Contains(out, "c"))
	assert.Empty(t, out[0].Children)
}

func TestRemoveMissingID(t *testing.T) {
	tree := buildTree()
	out := Remove(tree, "missing")

	assert.Equal(t, tree, out)
}

func TestFind(t *testing.T) {
	tree := buildTree()

	found, ok := Find(tree, "c")
	require.True(t, ok)
	assert.Equal(t, "c", found.ID)

	_, ok = Find(tree, "missing")
	assert.False(t, ok)
}

func TestCount(t *testing.T) {
	assert.Equal(t, 4, Count(buildTree()))
	assert.Equal(t, 0, Count(nil))
}
