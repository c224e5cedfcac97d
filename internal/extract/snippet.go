package extract

import (
	"strings"

	"golang.org/x/net/html"
)

// CleanSnippet reduces review text that may contain markup to plain, single-spaced text
func CleanSnippet(s string) string {
	if strings.ContainsAny(s, "<&") {
		s = visibleText(s)
	}
	return strings.Join(strings.Fields(s), " ")
}

// visibleText extracts text nodes from an HTML fragment, skipping scripts and styles
func visibleText(fragment string) string {
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return html.UnescapeString(fragment)
	}

	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe":
				return
			}
		}
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
			buf.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return buf.String()
}
