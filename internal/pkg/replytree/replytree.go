// Package replytree provides pure structural operations over the
// recursively nested reply trees of a discussion thread. None of the
// operations mutate their inputs; every level touched by a change is
// returned as a new slice ("copy up to the root") so callers holding
// stale references never observe partial updates.
package replytree

import "github.com/midhunpallampetty/upskillr-forum-engine/internal/app/models"

// Insert returns a new tree with reply added at its nesting point. A
// reply without a parent is appended at the top level; otherwise the
// tree is searched depth-first for the parent and the reply is appended
// to its children. If the parent does not exist anywhere in the tree
// the input is returned unchanged.
func Insert(replies []models.Reply, reply models.Reply) []models.Reply {
	reply.Children = nil

	if reply.ParentReplyID == "" {
		out := make([]models.Reply, len(replies), len(replies)+1)
		copy(out, replies)
		return append(out, reply)
	}

	out, ok := insertUnderParent(replies, reply)
	if !ok {
		return replies
	}
	return out
}

func insertUnderParent(replies []models.Reply, reply models.Reply) ([]models.Reply, bool) {
	for i := range replies {
		if replies[i].ID == reply.ParentReplyID {
			out := make([]models.Reply, len(replies))
			copy(out, replies)

			node := out[i]
			children := make([]models.Reply, len(node.Children), len(node.Children)+1)
			copy(children, node.Children)
			node.Children = append(children, reply)
			out[i] = node
			return out, true
		}

		if children, ok := insertUnderParent(replies[i].Children, reply); ok {
			out := make([]models.Reply, len(replies))
			copy(out, replies)

			node := out[i]
			node.Children = children
			out[i] = node
			return out, true
		}
	}
	return nil, false
}

// Remove returns a new tree without the reply identified by targetID.
// The removed node's entire subtree goes with it; orphaned children are
// not re-parented. A targetID not present in the tree yields a
// structurally equal copy.
func Remove(replies []models.Reply, targetID string) []models.Reply {
	if len(replies) == 0 {
		return replies
	}

	out := make([]models.Reply, 0, len(replies))
	for _, r := range replies {
		if r.ID == targetID {
			continue
		}
		r.Children = Remove(r.Children, targetID)
		out = append(out, r)
	}
	return out
}

// Find returns a copy of the reply with the given id, searching
// depth-first, and whether it was found.
func Find(replies []models.Reply, id string) (models.Reply, bool) {
	for i := range replies {
		if replies[i].ID == id {
			return replies[i], true
		}
		if found, ok := Find(replies[i].Children, id); ok {
			return found, ok
		}
	}
	return models.Reply{}, false
}

// Contains reports whether a reply with the given id exists anywhere in
// the tree.
func Contains(replies []models.Reply, id string) bool {
	_, ok := Find(replies, id)
	return ok
}

// Count returns the total number of replies in the tree, including all
// nested children.
func Count(replies []models.Reply) int {
	n := 0
	for i := range replies {
		n += 1 + Count(replies[i].Children)
	}
	return n
}
