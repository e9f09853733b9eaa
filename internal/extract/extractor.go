package extract

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/cloo-solutions/gleaner/internal/domain"
	"github.com/cloo-solutions/gleaner/internal/fetcher"
	"github.com/cloo-solutions/gleaner/internal/logging"
	"go.uber.org/zap"
)

// Document is the extracted text of a candidate plus its raw bytes
type Document struct {
	URL         string
	Title       string
	Text        string
	Type        domain.SourceType
	Kind        string
	Raw         []byte
	ContentType string
	FetchedAt   time.Time
}

// PageFetcher retrieves documents over HTTP. *fetcher.Fetcher satisfies it.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
	FetchBytes(ctx context.Context, url string) (*fetcher.Response, error)
}

// Extractor fetches, classifies and extracts candidates
type Extractor struct {
	fetcher    PageFetcher
	renderer   Renderer
	classifier *Classifier
	pdf        *PDFExtractor
	logger     *zap.Logger
}

func NewExtractor(f PageFetcher, renderer Renderer, classifier *Classifier, logger *zap.Logger) *Extractor {
	if classifier == nil {
		classifier = defaultClassifier
	}
	logger = logging.OrNop(logger)
	return &Extractor{
		fetcher:    f,
		renderer:   renderer,
		classifier: classifier,
		pdf:        NewPDFExtractor(logger),
		logger:     logger,
	}
}

// Extract produces the text of a candidate. Every failure is a
// *domain.ExtractionError. The candidate's title, when set, always wins.
func (e *Extractor) Extract(ctx context.Context, c domain.CandidateURL) (*Document, error) {
	var kind ContentKind
	var page string
	if IsPDFURL(c.URL) {
		kind = PdfDocument{}
	} else {
		var err error
		page, err = e.fetcher.Fetch(ctx, c.URL)
		if err != nil {
			return nil, err
		}
		kind = e.classifier.Classify(c.URL, page)
	}

	e.logger.Debug("classified", zap.String("url", c.URL), zap.String("kind", KindName(kind)))

	var doc *Document
	var err error
	switch k := kind.(type) {
	case StaticPage:
		doc = e.fromHTML(c.URL, k.Doc, page)
	case DynamicPage:
		doc, err = e.extractDynamic(ctx, c.URL)
	case PdfDocument:
		doc, err = e.extractPDF(ctx, c.URL)
	default:
		err = domain.NewExtractionError(domain.ExtractionParse, c.URL, fmt.Errorf("unknown content kind %T", kind))
	}
	if err != nil {
		return nil, err
	}

	doc.Kind = KindName(kind)
	doc.FetchedAt = time.Now().UTC()
	if c.Title != "" {
		doc.Title = c.Title
	}
	doc.Title = sanitizeText(doc.Title)
	doc.Text = sanitizeText(doc.Text)
	if doc.Title == "" {
		doc.Title = c.URL
	}

	if strings.TrimSpace(doc.Text) == "" {
		return nil, domain.NewExtractionError(domain.ExtractionEmpty, c.URL, nil)
	}
	return doc, nil
}

// sanitizeText drops NUL bytes and invalid UTF-8 sequences, neither of which
// Postgres text columns accept.
func sanitizeText(s string) string {
	return strings.ToValidUTF8(strings.ReplaceAll(s, "\x00", ""), "")
}

func (e *Extractor) fromHTML(url string, parsed *goquery.Document, page string) *Document {
	r := ExtractReadable(parsed)
	return &Document{
		URL:         url,
		Title:       r.Title,
		Text:        r.Text,
		Type:        domain.SourceTypeWebPage,
		Raw:         []byte(page),
		ContentType: "text/html; charset=utf-8",
	}
}

func (e *Extractor) extractDynamic(ctx context.Context, url string) (*Document, error) {
	if e.renderer == nil {
		return nil, domain.NewExtractionError(domain.ExtractionRender, url, fmt.Errorf("no renderer configured"))
	}

	rendered, err := e.renderer.Render(ctx, url)
	if err != nil {
		return nil, err
	}

	parsed, err := goquery.NewDocumentFromReader(strings.NewReader(rendered))
	if err != nil {
		return nil, domain.NewExtractionError(domain.ExtractionParse, url, err)
	}
	return e.fromHTML(url, parsed, rendered), nil
}

func (e *Extractor) extractPDF(ctx context.Context, url string) (*Document, error) {
	resp, err := e.fetcher.FetchBytes(ctx, url)
	if err != nil {
		return nil, err
	}

	out, err := e.pdf.Extract(resp.Body)
	if err != nil {
		return nil, domain.NewExtractionError(domain.ExtractionParse, url, err)
	}

	e.logger.Debug("pdf extracted",
		zap.String("url", url),
		zap.Int("pages", out.Pages),
		zap.Int("chars", len(out.Text)),
	)

	contentType := resp.ContentType
	if contentType == "" {
		contentType = "application/pdf"
	}
	return &Document{
		URL:         url,
		Title:       TitleFromPDFURL(url),
		Text:        out.Text,
		Type:        domain.SourceTypePDF,
		Raw:         resp.Body,
		ContentType: contentType,
	}, nil
}
