// Package markdown renders the constrained markdown subset emitted by the
// SageAlpha backend into a flat list of display nodes. The subset covers ATX
// headings, bullet and numbered lists, horizontal rules, bold spans, links
// and report-download links. Render is pure: the same input always produces
// the same node list and no input can make it fail.
package markdown

import (
	"regexp"
	"strings"
)

// NodeKind discriminates block-level nodes.
type NodeKind int

const (
	NodeParagraph NodeKind = iota
	NodeHeading
	NodeList
	NodeRule
	NodeBreak
)

// Node is one block-level element of rendered output.
type Node struct {
	Kind  NodeKind
	Level int      // heading level, 1-6
	Spans []Span   // heading and paragraph text
	Items [][]Span // list items, in input order
}

var (
	headingPattern  = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)
	bulletPattern   = regexp.MustCompile(`^[-*]\s+`)
	numberedPattern = regexp.MustCompile(`^\d+\.\s+`)
	rulePattern     = regexp.MustCompile(`^---+$`)
)

// Render converts a message body into display nodes. Lines are classified in
// priority order: heading, list item, horizontal rule, blank, paragraph.
// Consecutive list items accumulate into a single list node that is flushed
// when a non-list line or the end of input is reached. A blank line becomes a
// break node only when the previous line was non-blank.
func Render(content string) []Node {
	lines := strings.Split(content, "\n")

	var nodes []Node
	var listItems [][]Span

	flushList := func() {
		if len(listItems) > 0 {
			nodes = append(nodes, Node{Kind: NodeList, Items: listItems})
			listItems = nil
		}
	}

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)

		if m := headingPattern.FindStringSubmatch(trimmed); m != nil {
			flushList()
			nodes = append(nodes, Node{
				Kind:  NodeHeading,
				Level: len(m[1]),
				Spans: parseSpans(strings.TrimSpace(m[2])),
			})
			continue
		}

		if bulletPattern.MatchString(trimmed) || numberedPattern.MatchString(trimmed) {
			item := bulletPattern.ReplaceAllString(trimmed, "")
			item = numberedPattern.ReplaceAllString(item, "")
			listItems = append(listItems, parseSpans(item))
			continue
		}

		if rulePattern.MatchString(trimmed) {
			flushList()
			nodes = append(nodes, Node{Kind: NodeRule})
			continue
		}

		flushList()

		if trimmed != "" {
			nodes = append(nodes, Node{Kind: NodeParagraph, Spans: parseSpans(trimmed)})
		} else if i > 0 && strings.TrimSpace(lines[i-1]) != "" {
			nodes = append(nodes, Node{Kind: NodeBreak})
		}
	}

	flushList()
	return nodes
}
