package corpus

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/c360studio/ecfrscan/cfr"
)

// The eCFR full-text XML nests citation levels as numbered DIV elements:
// Title (DIV1) > Subtitle (DIV2) > Chapter (DIV3) > Subchapter (DIV4) >
// Part (DIV5) > Subpart (DIV6) > Subject Group (DIV7) > Section (DIV8).
// Nesting is not strictly sequential — a DIV8 can sit directly under a
// DIV3 — so each level is searched in the full subtree of the previous
// matches. The html parser lowercases element and attribute names.

type divLevel struct {
	tag   string
	label string
	value func(cfr.Reference) string
}

var divLevels = []divLevel{
	{"div2", "Subtitle", func(r cfr.Reference) string { return r.Subtitle }},
	{"div3", "Chapter", func(r cfr.Reference) string { return r.Chapter }},
	{"div4", "Subchapter", func(r cfr.Reference) string { return r.Subchapter }},
	{"div5", "Part", func(r cfr.Reference) string { return r.Part }},
	{"div8", "Section", func(r cfr.Reference) string { return r.Section }},
}

// Extract pulls the text for a reference out of a parsed title document,
// returning the text and the reference's citation description. When the
// document has no DIV1 structure at all, the whole document text is
// returned so a malformed title still contributes rather than vanishing.
func Extract(doc *html.Node, ref cfr.Reference) (string, string) {
	if doc == nil {
		return "", ""
	}

	targets := findAll([]*html.Node{doc}, "div1", "")
	if len(targets) == 0 {
		return nodeText(doc), ref.Describe() + " (full text)"
	}

	desc := ref.Describe()
	for _, level := range divLevels {
		want := level.value(ref)
		if want == "" {
			continue
		}
		matched := findAll(targets, level.tag, want)
		if len(matched) > 0 {
			targets = matched
		}
		// An unmatched level leaves the previous targets in place; the
		// reference still aggregates at the deepest level found.
	}

	var parts []string
	for _, n := range targets {
		if text := nodeText(n); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " "), desc
}

// findAll returns descendants of roots with the given tag whose "n"
// attribute contains want (case-insensitive). An empty want matches any
// element of the tag.
func findAll(roots []*html.Node, tag, want string) []*html.Node {
	wantLower := strings.ToLower(want)
	var out []*html.Node
	for _, root := range roots {
		walk(root, func(n *html.Node) bool {
			if n.Type != html.ElementNode || n.Data != tag {
				return true
			}
			if want == "" || strings.Contains(strings.ToLower(attr(n, "n")), wantLower) {
				out = append(out, n)
				return false // matches do not nest within matches
			}
			return true
		})
	}
	return out
}

// walk visits n and, when fn returns true, its descendants.
func walk(n *html.Node, fn func(*html.Node) bool) {
	if !fn(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

// attr returns an attribute value by (lowercased) key.
func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// nodeText concatenates all text under a node, collapsing runs of
// whitespace to single spaces.
func nodeText(n *html.Node) string {
	var sb strings.Builder
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}
