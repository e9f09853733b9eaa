// Package extract classifies fetched documents and turns them into plain text.
package extract

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// ContentKind is the rendering strategy for a document. It is one of
// StaticPage, DynamicPage or PdfDocument.
type ContentKind interface {
	contentKind() string
}

// StaticPage is server-rendered HTML, already parsed
type StaticPage struct {
	Doc *goquery.Document
}

// DynamicPage needs a browser to execute scripts before its text is usable
type DynamicPage struct{}

// PdfDocument is a binary PDF download
type PdfDocument struct{}

func (StaticPage) contentKind() string  { return "static" }
func (DynamicPage) contentKind() string { return "dynamic" }
func (PdfDocument) contentKind() string { return "pdf" }

// KindName returns a short label for logging
func KindName(k ContentKind) string {
	if k == nil {
		return "unknown"
	}
	return k.contentKind()
}

// ClassifierConfig holds the client-side rendering heuristics
type ClassifierConfig struct {
	MinBodyChars int
	MaxScripts   int
	SPARootIDs   []string
}

func DefaultClassifierConfig() ClassifierConfig {
	return ClassifierConfig{
		MinBodyChars: 1000,
		MaxScripts:   15,
		SPARootIDs:   []string{"root", "app"},
	}
}

type Classifier struct {
	cfg ClassifierConfig
}

func NewClassifier(cfg ClassifierConfig) *Classifier {
	def := DefaultClassifierConfig()
	if cfg.MinBodyChars <= 0 {
		cfg.MinBodyChars = def.MinBodyChars
	}
	if cfg.MaxScripts <= 0 {
		cfg.MaxScripts = def.MaxScripts
	}
	if cfg.SPARootIDs == nil {
		cfg.SPARootIDs = def.SPARootIDs
	}
	return &Classifier{cfg: cfg}
}

var defaultClassifier = NewClassifier(DefaultClassifierConfig())

// Classify decides the content kind using the default thresholds
func Classify(rawURL, htmlContent string) ContentKind {
	return defaultClassifier.Classify(rawURL, htmlContent)
}

// Classify decides how rawURL should be extracted. A .pdf URL is a
// PdfDocument regardless of htmlContent.
func (c *Classifier) Classify(rawURL, htmlContent string) ContentKind {
	if IsPDFURL(rawURL) {
		return PdfDocument{}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return DynamicPage{}
	}

	if body := doc.Find("body").First(); body.Length() > 0 {
		if len([]rune(VisibleText(body))) < c.cfg.MinBodyChars {
			return DynamicPage{}
		}
	}

	if doc.Find("script").Length() > c.cfg.MaxScripts {
		return DynamicPage{}
	}

	spa := false
	doc.Find("div[id]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		id, _ := s.Attr("id")
		for _, root := range c.cfg.SPARootIDs {
			if id == root {
				spa = true
				return false
			}
		}
		return true
	})
	if spa {
		return DynamicPage{}
	}

	return StaticPage{Doc: doc}
}

// IsPDFURL reports whether the URL path ends in .pdf, ignoring case
func IsPDFURL(rawURL string) bool {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}
	return strings.HasSuffix(strings.ToLower(p), ".pdf")
}

var invisibleTags = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
}

// VisibleText joins the non-blank text nodes under sel with single spaces,
// skipping script, style, noscript and template contents.
func VisibleText(sel *goquery.Selection) string {
	var parts []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
			return
		case html.ElementNode:
			if invisibleTags[n.Data] {
				return
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return strings.Join(parts, " ")
}
