package browser

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/entrhq/replay/pkg/types"
)

// defaultSnapshotLength caps the cleaned markup stored with a test case.
const defaultSnapshotLength = 20000

// cleanSnapshot parses raw page markup and produces a page snapshot with
// scripts, styles and other noise stripped, preserving the semantic
// structure and the attributes useful for locating elements later.
func cleanSnapshot(rawHTML string, maxLength int) (*types.PageSnapshot, error) {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page HTML: %w", err)
	}

	snap := &types.PageSnapshot{
		Title:       findFirstText(doc, "title"),
		Description: findMetaDescription(doc),
	}

	var builder strings.Builder
	var length int
	snap.Truncated = writeCleanNode(doc, &builder, &length, maxLength)
	snap.HTML = builder.String()
	return snap, nil
}

// writeCleanNode walks the node tree, emitting cleaned markup. It returns
// true once the length limit is reached.
func writeCleanNode(n *html.Node, builder *strings.Builder, length *int, maxLength int) bool {
	if *length >= maxLength {
		return true
	}

	switch n.Type {
	case html.CommentNode:
		return false

	case html.TextNode:
		text := strings.TrimSpace(n.Data)
		if text == "" {
			return false
		}
		if *length+len(text) > maxLength {
			builder.WriteString(text[:maxLength-*length])
			builder.WriteString("...")
			*length = maxLength
			return true
		}
		builder.WriteString(text)
		*length += len(text)
		return false

	case html.ElementNode:
		tag := strings.ToLower(n.Data)
		if skippedSnapshotElements[tag] {
			return false
		}

		builder.WriteString("<")
		builder.WriteString(tag)
		for _, attr := range n.Attr {
			if keepSnapshotAttribute(tag, strings.ToLower(attr.Key)) {
				fmt.Fprintf(builder, ` %s="%s"`, attr.Key, html.EscapeString(attr.Val))
			}
		}
		builder.WriteString(">")
		*length += len(tag) + 2

		truncated := writeCleanChildren(n, builder, length, maxLength)

		if !voidSnapshotElements[tag] {
			builder.WriteString("</")
			builder.WriteString(tag)
			builder.WriteString(">")
			*length += len(tag) + 3
		}
		return truncated
	}

	return writeCleanChildren(n, builder, length, maxLength)
}

func writeCleanChildren(n *html.Node, builder *strings.Builder, length *int, maxLength int) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if writeCleanNode(c, builder, length, maxLength) {
			return true
		}
	}
	return false
}

// skippedSnapshotElements are removed entirely, subtree included.
var skippedSnapshotElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"iframe":   true,
	"embed":    true,
	"object":   true,
	"svg":      true,
}

// voidSnapshotElements are self-closing and get no closing tag.
var voidSnapshotElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

// keepSnapshotAttribute keeps the attributes that matter for locating
// elements in the snapshot: identity, accessibility and form semantics.
func keepSnapshotAttribute(tag, attr string) bool {
	switch attr {
	case "id", "class", "name", "role", "aria-label":
		return true
	}
	if strings.HasPrefix(attr, "data-") {
		return true
	}
	switch tag {
	case "a":
		return attr == "href"
	case "img":
		return attr == "src" || attr == "alt"
	case "input", "textarea", "select":
		return attr == "type" || attr == "placeholder" || attr == "value"
	case "button":
		return attr == "type"
	case "form":
		return attr == "action" || attr == "method"
	}
	return false
}

// findFirstText returns the text content of the first element with the
// given tag, depth-first.
func findFirstText(doc *html.Node, tag string) string {
	var found string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == tag {
			if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
				found = strings.TrimSpace(n.FirstChild.Data)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return found
}

// findMetaDescription returns the content of <meta name="description">.
func findMetaDescription(doc *html.Node) string {
	var found string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "meta" {
			var isDescription bool
			var content string
			for _, attr := range n.Attr {
				if attr.Key == "name" && attr.Val == "description" {
					isDescription = true
				}
				if attr.Key == "content" {
					content = attr.Val
				}
			}
			if isDescription {
				found = strings.TrimSpace(content)
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return found
}
