package extract

import (
	"bytes"
	"fmt"
	"strings"
)

// pageHTML builds a page whose body carries bodyChars visible characters
func pageHTML(bodyChars, scripts int, divID string) string {
	var b strings.Builder
	b.WriteString("<html><head><title>Test Page</title></head><body>")
	for i := 0; i < scripts; i++ {
		fmt.Fprintf(&b, `<script src="/s%d.js"></script>`, i)
	}
	if divID != "" {
		fmt.Fprintf(&b, `<div id="%s"></div>`, divID)
	}
	b.WriteString("<p>")
	b.WriteString(strings.Repeat("x", bodyChars))
	b.WriteString("</p></body></html>")
	return b.String()
}

// minimalPDF assembles a one-page PDF showing text in Helvetica
func minimalPDF(text string) []byte {
	content := fmt.Sprintf("BT /F1 24 Tf 72 712 Td (%s) Tj ET", text)
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 4 0 R /Resources << /Font << /F1 5 0 R >> >> >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}
