package checklist

import "testing"

func leaf(id string) *Item {
	return &Item{ID: id, Title: "item " + id}
}

func parent(id string, children ...*Item) *Item {
	return &Item{ID: id, Title: "section " + id, Children: children}
}

func find(items []*Item, id string) *Item {
	for _, item := range items {
		if item.ID == id {
			return item
		}
		if got := find(item.Children, id); got != nil {
			return got
		}
	}
	return nil
}

func TestProgressCountsLeavesOnly(t *testing.T) {
	items := []*Item{
		parent("p", leaf("a"), leaf("b")),
		leaf("c"),
	}
	if got := Progress(items); got != 0 {
		t.Fatalf("initial progress = %d, want 0", got)
	}
	items = Toggle(items, "a", true)
	// 1 of 3 leaves; the parent does not count.
	if got := Progress(items); got != 33 {
		t.Fatalf("progress = %d, want 33", got)
	}
}

func TestProgressEmptyTree(t *testing.T) {
	if got := Progress(nil); got != 0 {
		t.Fatalf("progress of empty tree = %d, want 0", got)
	}
}

func TestToggleParentForcesChildren(t *testing.T) {
	items := []*Item{parent("p", leaf("a"), leaf("b"))}
	items = Toggle(items, "p", true)
	for _, id := range []string{"p", "a", "b"} {
		if !find(items, id).IsCompleted {
			t.Fatalf("%s not completed after toggling parent", id)
		}
	}
	if got := Progress(items); got != 100 {
		t.Fatalf("progress = %d, want 100", got)
	}
}

func TestAllChildrenCompleteCompletesParent(t *testing.T) {
	items := []*Item{parent("p", leaf("a"), leaf("b"))}
	items = Toggle(items, "a", true)
	if find(items, "p").IsCompleted {
		t.Fatal("parent completed with one child remaining")
	}
	items = Toggle(items, "b", true)
	if !find(items, "p").IsCompleted {
		t.Fatal("parent not derived complete once all children complete")
	}
}

func TestUncheckingChildUnchecksParent(t *testing.T) {
	items := []*Item{parent("p", leaf("a"), leaf("b"))}
	items = Toggle(items, "p", true)
	items = Toggle(items, "a", false)
	if find(items, "p").IsCompleted {
		t.Fatal("parent still complete after unchecking a child")
	}
	if !find(items, "b").IsCompleted {
		t.Fatal("sibling lost its state")
	}
}

func TestToggleMonotonicProgress(t *testing.T) {
	items := []*Item{
		parent("p1", leaf("a"), leaf("b"), leaf("c")),
		parent("p2", leaf("d"), leaf("e")),
		leaf("f"),
	}
	prev := Progress(items)
	for _, id := range []string{"a", "b", "c", "d", "e", "f"} {
		items = Toggle(items, id, true)
		got := Progress(items)
		if got < prev {
			t.Fatalf("progress decreased from %d to %d after completing %s", prev, got, id)
		}
		prev = got
	}
	if prev != 100 {
		t.Fatalf("final progress = %d, want 100", prev)
	}
}

func TestToggleSharesUntouchedSubtrees(t *testing.T) {
	left := parent("left", leaf("a"))
	right := parent("right", leaf("b"))
	items := []*Item{left, right}
	next := Toggle(items, "a", true)
	if next[1] != right {
		t.Fatal("untouched sibling subtree was copied instead of shared")
	}
	if next[0] == left {
		t.Fatal("rebuilt path still shares the old node")
	}
	if left.Children[0].IsCompleted {
		t.Fatal("original tree mutated in place")
	}
}

func TestChecklistRoundTrip(t *testing.T) {
	items := []*Item{leaf("a"), leaf("b"), leaf("c")}

	items = Toggle(items, "a", true)
	if got := Progress(items); got != 33 {
		t.Fatalf("after 1 of 3: progress = %d, want 33", got)
	}

	items = Toggle(items, "b", true)
	items = Toggle(items, "c", true)
	if got := Progress(items); got != 100 {
		t.Fatalf("after all: progress = %d, want 100", got)
	}

	items = Reset(items)
	if got := Progress(items); got != 0 {
		t.Fatalf("after reset: progress = %d, want 0", got)
	}
	for _, id := range []string{"a", "b", "c"} {
		if find(items, id).IsCompleted {
			t.Fatalf("%s still completed after reset", id)
		}
	}
}
