package extract

import (
	"bytes"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/cloo-solutions/gleaner/internal/logging"
	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"go.uber.org/zap"
)

func init() {
	api.DisableConfigDir()
}

// PDFText is the text layer of a PDF document
type PDFText struct {
	Text  string
	Pages int
}

// PDFExtractor reads the text layer of PDF bytes
type PDFExtractor struct {
	logger *zap.Logger
}

func NewPDFExtractor(logger *zap.Logger) *PDFExtractor {
	return &PDFExtractor{logger: logging.OrNop(logger)}
}

// Extract returns the plain text of data. Structural problems reported by
// pdfcpu are logged; the text layer decides success.
func (e *PDFExtractor) Extract(data []byte) (*PDFText, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty document")
	}

	pages := 0
	pdfCtx, err := api.ReadContext(bytes.NewReader(data), model.NewDefaultConfiguration())
	if err != nil {
		e.logger.Warn("pdf structure check failed", zap.Error(err))
	} else {
		pages = pdfCtx.PageCount
	}

	text, err := plainText(data)
	if err != nil {
		return nil, err
	}

	if pages == 0 {
		pages = countPages(data)
	}
	return &PDFText{Text: text, Pages: pages}, nil
}

func plainText(data []byte) (text string, err error) {
	// the text layer parser panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf parser panic: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}

	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to read pdf text: %w", err)
	}

	b, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("failed to read pdf text: %w", err)
	}
	return string(b), nil
}

func countPages(data []byte) (n int) {
	defer func() {
		if recover() != nil {
			n = 0
		}
	}()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0
	}
	return r.NumPage()
}

// TitleFromPDFURL derives a title from the last path segment with the .pdf
// suffix stripped.
//
//	http://arxiv.org/pdf/2310.00266v1.pdf -> 2310.00266v1
func TitleFromPDFURL(rawURL string) string {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Path != "" {
		p = u.Path
	}
	base := path.Base(strings.TrimRight(p, "/"))
	if strings.HasSuffix(strings.ToLower(base), ".pdf") {
		base = base[:len(base)-len(".pdf")]
	}
	if base == "." || base == "/" {
		return ""
	}
	if unescaped, err := url.PathUnescape(base); err == nil {
		base = unescaped
	}
	return base
}
