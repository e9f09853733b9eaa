package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

const (
	noiseSelector   = "script, style, noscript, template, nav, footer, aside, header, form, iframe, svg"
	contentSelector = "article, main, [role=main], #content, .content, .post, .entry-content"
)

// Newlines inside text nodes are source layout. Only block elements break lines.
var lineBreaks = strings.NewReplacer("\r", " ", "\n", " ")

var blockTags = map[string]bool{
	"address": true, "article": true, "blockquote": true, "br": true, "dd": true,
	"div": true, "dl": true, "dt": true, "figcaption": true, "figure": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"hr": true, "li": true, "main": true, "ol": true, "p": true, "pre": true,
	"section": true, "table": true, "td": true, "th": true, "tr": true, "ul": true,
}

// Readable is the main content of an HTML page
type Readable struct {
	Title string
	Text  string
}

// ExtractReadable pulls the title and main text out of doc. doc is modified.
func ExtractReadable(doc *goquery.Document) Readable {
	title := pageTitle(doc)

	doc.Find(noiseSelector).Remove()

	var best *goquery.Selection
	bestLen := 0
	doc.Find(contentSelector).Each(func(_ int, s *goquery.Selection) {
		if n := len(strings.TrimSpace(s.Text())); n > bestLen {
			best, bestLen = s, n
		}
	})
	if best == nil {
		best = doc.Find("body").First()
	}
	if best.Length() == 0 {
		best = doc.Selection
	}

	return Readable{Title: title, Text: blockText(best)}
}

// pageTitle prefers og:title, then <title>, then the first h1, then twitter:title
func pageTitle(doc *goquery.Document) string {
	if og, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok && strings.TrimSpace(og) != "" {
		return collapse(og)
	}
	if t := collapse(doc.Find("title").First().Text()); t != "" {
		return t
	}
	if h1 := collapse(doc.Find("h1").First().Text()); h1 != "" {
		return h1
	}
	if tw, ok := doc.Find(`meta[name="twitter:title"]`).Attr("content"); ok {
		return collapse(tw)
	}
	return ""
}

// blockText renders sel as plain text, one line per block element
func blockText(sel *goquery.Selection) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(lineBreaks.Replace(n.Data))
			return
		case html.ElementNode:
			if invisibleTags[n.Data] {
				return
			}
			if blockTags[n.Data] {
				b.WriteByte('\n')
				defer b.WriteByte('\n')
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}

	lines := strings.Split(b.String(), "\n")
	out := lines[:0]
	for _, line := range lines {
		if line = collapse(line); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
