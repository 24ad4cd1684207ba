// Package checklist holds the revision-checklist tree and its completion
// rules. Completion of a parent is derived, never stored independently:
// checking a parent forces its descendants, and a parent flips complete
// exactly when all of its children are complete. Only leaves count toward
// progress.
package checklist

// Item is one node of the checklist tree.
type Item struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	IsCompleted bool    `json:"isCompleted"`
	Children    []*Item `json:"children,omitempty"`
}

// Toggle returns a new tree with the item carrying id set to completed.
// The write is an immutable rewrite: only the path from the root to the
// toggled item is rebuilt, untouched subtrees are shared by reference.
// Descendants of the toggled item are forced to the same state, and every
// ancestor's completion is re-derived from its children.
func Toggle(items []*Item, id string, completed bool) []*Item {
	out, _ := toggleIn(items, id, completed)
	return out
}

func toggleIn(items []*Item, id string, completed bool) ([]*Item, bool) {
	found := false
	out := make([]*Item, len(items))
	for i, item := range items {
		switch {
		case item.ID == id:
			out[i] = setSubtree(item, completed)
			found = true
		case found:
			out[i] = item
		default:
			children, ok := toggleIn(item.Children, id, completed)
			if !ok {
				out[i] = item
				continue
			}
			clone := *item
			clone.Children = children
			clone.IsCompleted = allComplete(children)
			out[i] = &clone
			found = true
		}
	}
	if !found {
		return items, false
	}
	return out, true
}

func setSubtree(item *Item, completed bool) *Item {
	clone := *item
	clone.IsCompleted = completed
	if len(item.Children) == 0 {
		return &clone
	}
	clone.Children = make([]*Item, len(item.Children))
	for i, c := range item.Children {
		clone.Children[i] = setSubtree(c, completed)
	}
	return &clone
}

func allComplete(items []*Item) bool {
	for _, item := range items {
		if !item.IsCompleted {
			return false
		}
	}
	return len(items) > 0
}

// Reset returns a new tree with every completion flag cleared.
func Reset(items []*Item) []*Item {
	out := make([]*Item, len(items))
	for i, item := range items {
		out[i] = setSubtree(item, false)
	}
	return out
}

// Progress computes the completion percentage over leaf items only,
// rounded to the nearest integer. An empty tree is 0, never a division
// by zero.
func Progress(items []*Item) int {
	done, total := countLeaves(items)
	if total == 0 {
		return 0
	}
	return int(float64(done)/float64(total)*100 + 0.5)
}

func countLeaves(items []*Item) (done, total int) {
	for _, item := range items {
		if len(item.Children) == 0 {
			total++
			if item.IsCompleted {
				done++
			}
			continue
		}
		d, t := countLeaves(item.Children)
		done += d
		total += t
	}
	return done, total
}
