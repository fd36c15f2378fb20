package assemble

import (
	"strings"

	"golang.org/x/net/html"
)

// excerptLimit caps excerpt length in runes.
const excerptLimit = 280

// Excerpt extracts the text of the first paragraph from rendered HTML,
// truncated to a sensible length for index and feed listings.
func Excerpt(rendered string) string {
	root, err := html.Parse(strings.NewReader(rendered))
	if err != nil {
		return ""
	}

	para := findFirst(root, "p")
	if para == nil {
		return ""
	}

	text := strings.Join(strings.Fields(collectText(para)), " ")
	runes := []rune(text)
	if len(runes) > excerptLimit {
		return strings.TrimRight(string(runes[:excerptLimit]), " ") + "…"
	}
	return text
}

func findFirst(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func collectText(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(collectText(c))
	}
	return b.String()
}
