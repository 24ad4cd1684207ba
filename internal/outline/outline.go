// Package outline turns loosely structured markdown text (headings,
// bullets, plain lines) into a rooted tree. The generation model returns
// mind maps in this shape, sometimes wrapped in a fenced code block, and
// never with explicit indentation, so nesting has to be inferred from
// heading depth and bullet adjacency.
package outline

import "strings"

// Node is one node of the derived hierarchy. Children keep source order.
type Node struct {
	Label    string  `json:"label"`
	Children []*Node `json:"children,omitempty"`
}

const (
	rootLabel  = "Plan"
	emptyLabel = "Aucun contenu"
)

type stackEntry struct {
	node    *Node
	level   int
	heading bool
}

// Parse converts markdown-like text into a tree. It never fails: blank
// input yields a single placeholder node with no children.
func Parse(text string) *Node {
	lines := splitLines(stripFence(text))
	if len(lines) == 0 {
		return &Node{Label: emptyLabel}
	}

	root := &Node{Label: rootLabel}
	stack := []stackEntry{{node: root, level: 0}}

	for _, line := range lines {
		label, level, isHeading := classify(line, stack)

		// Pop until the top is a strict ancestor. Equal-level lines are
		// siblings, never children of each other.
		for len(stack) > 1 && stack[len(stack)-1].level >= level {
			stack = stack[:len(stack)-1]
		}

		node := &Node{Label: label}
		parent := stack[len(stack)-1].node
		parent.Children = append(parent.Children, node)
		stack = append(stack, stackEntry{node: node, level: level, heading: isHeading})
	}

	// A document with a single top heading already has its own root; drop
	// the synthetic wrapper in that case.
	if len(root.Children) == 1 {
		return root.Children[0]
	}
	return root
}

func classify(line string, stack []stackEntry) (label string, level int, isHeading bool) {
	if strings.HasPrefix(line, "#") {
		level = 0
		for level < len(line) && line[level] == '#' {
			level++
		}
		return strings.TrimSpace(line[level:]), level, true
	}

	if strings.HasPrefix(line, "- ") || strings.HasPrefix(line, "* ") {
		// Bullets hang one level below the nearest open heading, so a run
		// of bullets under the same heading stays flat. Before any heading
		// they anchor under the synthetic root.
		level = 1
		for i := len(stack) - 1; i >= 0; i-- {
			if stack[i].heading && stack[i].level > 0 {
				level = stack[i].level + 1
				break
			}
		}
		return strings.TrimSpace(line[2:]), level, false
	}

	return line, stack[len(stack)-1].level + 1, false
}

// stripFence removes a surrounding fenced code block if present, so that
// model output like "```markdown\n# ...\n```" parses the same as the bare
// document.
func stripFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	lines := strings.Split(trimmed, "\n")
	if len(lines) < 2 {
		return trimmed
	}
	lines = lines[1:]
	if strings.HasPrefix(strings.TrimSpace(lines[len(lines)-1]), "```") {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}

func splitLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}
