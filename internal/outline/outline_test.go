package outline

import (
	"reflect"
	"strings"
	"testing"
)

func preorder(n *Node) []string {
	out := []string{n.Label}
	for _, c := range n.Children {
		out = append(out, preorder(c)...)
	}
	return out
}

func TestParseCollapsesSingleTopHeading(t *testing.T) {
	root := Parse("# Topic\n## Sub A\n## Sub B")
	if root.Label != "Topic" {
		t.Fatalf("root label = %q, want %q", root.Label, "Topic")
	}
	if len(root.Children) != 2 {
		t.Fatalf("root has %d children, want 2", len(root.Children))
	}
	if root.Children[0].Label != "Sub A" || root.Children[1].Label != "Sub B" {
		t.Fatalf("children = %q, %q", root.Children[0].Label, root.Children[1].Label)
	}
}

func TestParseMultipleTopLevelSiblings(t *testing.T) {
	root := Parse("# A\n# B")
	if root.Label != rootLabel {
		t.Fatalf("root label = %q, want synthetic root %q", root.Label, rootLabel)
	}
	if len(root.Children) != 2 {
		t.Fatalf("root has %d children, want 2", len(root.Children))
	}
	if root.Children[0].Label != "A" || root.Children[1].Label != "B" {
		t.Fatalf("children = %q, %q", root.Children[0].Label, root.Children[1].Label)
	}
}

func TestParseEmptyInput(t *testing.T) {
	for _, input := range []string{"", "   \n\n", "\n \n"} {
		root := Parse(input)
		if root.Label != emptyLabel {
			t.Fatalf("Parse(%q) label = %q, want placeholder", input, root.Label)
		}
		if len(root.Children) != 0 {
			t.Fatalf("Parse(%q) has %d children, want 0", input, len(root.Children))
		}
	}
}

func TestParsePreorderMatchesInputOrder(t *testing.T) {
	input := "# Urgences\n## ABC\n### Airway\n### Breathing\n## Bilan\n# Traumato"
	want := []string{rootLabel, "Urgences", "ABC", "Airway", "Breathing", "Bilan", "Traumato"}
	got := preorder(Parse(input))
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("preorder = %v, want %v", got, want)
	}
}

func TestParseBulletsStayFlatUnderHeading(t *testing.T) {
	root := Parse("# Pharmacologie\n## Antalgiques\n- Paracetamol\n- Morphine\n* Tramadol")
	if root.Label != "Pharmacologie" {
		t.Fatalf("root label = %q", root.Label)
	}
	if len(root.Children) != 1 {
		t.Fatalf("root has %d children, want 1", len(root.Children))
	}
	sub := root.Children[0]
	if sub.Label != "Antalgiques" {
		t.Fatalf("sub label = %q", sub.Label)
	}
	labels := make([]string, 0, len(sub.Children))
	for _, c := range sub.Children {
		labels = append(labels, c.Label)
	}
	want := []string{"Paracetamol", "Morphine", "Tramadol"}
	if !reflect.DeepEqual(labels, want) {
		t.Fatalf("bullet labels = %v, want %v", labels, want)
	}
}

func TestParseBulletBeforeAnyHeading(t *testing.T) {
	root := Parse("- premier\n- second")
	if root.Label != rootLabel {
		t.Fatalf("root label = %q, want synthetic root", root.Label)
	}
	if len(root.Children) != 2 {
		t.Fatalf("root has %d children, want 2 flat bullets", len(root.Children))
	}
}

func TestParseDecreasingHeadingBecomesTopLevel(t *testing.T) {
	root := Parse("## A\n# B")
	if root.Label != rootLabel {
		t.Fatalf("root label = %q, want synthetic root", root.Label)
	}
	if len(root.Children) != 2 {
		t.Fatalf("root has %d children, want 2", len(root.Children))
	}
	if root.Children[1].Label != "B" {
		t.Fatalf("second top-level node = %q, want B", root.Children[1].Label)
	}
}

func TestParseStripsFencedWrapper(t *testing.T) {
	cases := []struct {
		name  string
		input string
	}{
		{name: "plain_fence", input: "```\n# Topic\n## Sub\n```"},
		{name: "language_fence", input: "```markdown\n# Topic\n## Sub\n```"},
		{name: "no_fence", input: "# Topic\n## Sub"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			root := Parse(tc.input)
			if root.Label != "Topic" {
				t.Fatalf("root label = %q, want Topic", root.Label)
			}
			if len(root.Children) != 1 || root.Children[0].Label != "Sub" {
				t.Fatalf("unexpected children: %+v", root.Children)
			}
		})
	}
}

func TestParsePlainLineNestsUnderCurrent(t *testing.T) {
	root := Parse("# Topic\nune remarque libre")
	if root.Label != "Topic" {
		t.Fatalf("root label = %q", root.Label)
	}
	if len(root.Children) != 1 || root.Children[0].Label != "une remarque libre" {
		t.Fatalf("unexpected children: %+v", root.Children)
	}
}

func TestParseDeepInputNoGuard(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 2000; i++ {
		b.WriteString("- item\n")
	}
	root := Parse("# Long\n" + b.String())
	if len(root.Children) != 2000 {
		t.Fatalf("got %d children, want 2000", len(root.Children))
	}
}
