package storage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRawObjectKey(t *testing.T) {
	html := RawObjectKey("https://example.com/post", "text/html; charset=utf-8")
	pdf := RawObjectKey("http://arxiv.org/pdf/2310.00266v1.pdf", "application/pdf")

	assert.True(t, strings.HasPrefix(html, "sources/"))
	assert.True(t, strings.HasSuffix(html, ".html"))
	assert.True(t, strings.HasSuffix(pdf, ".pdf"))
	assert.Len(t, strings.TrimSuffix(strings.TrimPrefix(html, "sources/"), ".html"), 16)

	assert.Equal(t, html, RawObjectKey("https://example.com/post", "text/html"))
	assert.NotEqual(t, html, RawObjectKey("https://example.com/other", "text/html"))
}
