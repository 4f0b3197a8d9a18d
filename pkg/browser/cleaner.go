package browser

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
	"golang.org/x/net/html"
)

// CleanedHTML is page markup reduced to its semantic skeleton: scripts,
// styles, and presentation noise removed, targeting attributes kept so a
// model can still produce working selectors.
type CleanedHTML struct {
	HTML  string
	Title string
}

// skippedElements contribute nothing to acting on or extracting from a page.
var skippedElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
	"svg":      true,
	"link":     true,
	"meta":     true,
}

// voidElements have no closing tag.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "source": true, "track": true,
	"wbr": true,
}

// preservedAttrs are the attributes worth keeping for element targeting.
var preservedAttrs = map[string]bool{
	"id": true, "class": true, "name": true, "type": true, "href": true,
	"src": false, // usually long and useless for targeting
	"value": true, "placeholder": true, "alt": true, "title": true,
	"role": true, "aria-label": true, "action": true, "method": true,
	"for": true, "selected": true, "checked": true, "disabled": true,
}

// cleanHTML parses raw page markup and renders the cleaned form.
func cleanHTML(raw string) (*CleanedHTML, error) {
	doc, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	result := &CleanedHTML{Title: findTitle(doc)}

	var b strings.Builder
	renderNode(doc, &b)
	result.HTML = b.String()
	return result, nil
}

func renderNode(n *html.Node, b *strings.Builder) {
	switch n.Type {
	case html.CommentNode, html.DoctypeNode:
		return
	case html.TextNode:
		text := strings.TrimSpace(n.Data)
		if text != "" {
			b.WriteString(html.EscapeString(text))
			b.WriteByte('\n')
		}
		return
	case html.ElementNode:
		tag := strings.ToLower(n.Data)
		if skippedElements[tag] {
			return
		}

		b.WriteByte('<')
		b.WriteString(tag)
		for _, attr := range n.Attr {
			if keepAttribute(attr.Key) && attr.Val != "" {
				fmt.Fprintf(b, " %s=%q", attr.Key, html.EscapeString(attr.Val))
			}
		}
		b.WriteByte('>')

		for child := n.FirstChild; child != nil; child = child.NextSibling {
			renderNode(child, b)
		}

		if !voidElements[tag] {
			b.WriteString("</")
			b.WriteString(tag)
			b.WriteString(">\n")
		}
		return
	default:
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			renderNode(child, b)
		}
	}
}

// keepAttribute keeps targeting attributes and all data-* attributes; site
// keys and widget configuration ride on the latter.
func keepAttribute(key string) bool {
	key = strings.ToLower(key)
	if strings.HasPrefix(key, "data-") {
		return true
	}
	return preservedAttrs[key]
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && strings.ToLower(n.Data) == "title" {
		if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
			return strings.TrimSpace(n.FirstChild.Data)
		}
		return ""
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if title := findTitle(child); title != "" {
			return title
		}
	}
	return ""
}

// truncateToTokens trims text to a token budget using the cl100k_base
// encoding. If the tokenizer is unavailable it falls back to a crude
// 4-bytes-per-token estimate.
func truncateToTokens(text string, maxTokens int) string {
	if maxTokens <= 0 {
		return text
	}

	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		limit := maxTokens * 4
		if len(text) > limit {
			return text[:limit]
		}
		return text
	}

	tokens := enc.Encode(text, nil, nil)
	if len(tokens) <= maxTokens {
		return text
	}
	return enc.Decode(tokens[:maxTokens])
}
