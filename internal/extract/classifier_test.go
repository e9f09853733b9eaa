package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		url  string
		html string
		want string
	}{
		{"pdf url ignores body", "https://example.com/paper.pdf", pageHTML(5000, 0, ""), "pdf"},
		{"pdf url uppercase", "https://example.com/PAPER.PDF?download=1", "", "pdf"},
		{"short body", "https://example.com/a", pageHTML(500, 0, ""), "dynamic"},
		{"many scripts", "https://example.com/a", pageHTML(2000, 20, ""), "dynamic"},
		{"few scripts", "https://example.com/a", pageHTML(2000, 3, ""), "static"},
		{"exactly max scripts", "https://example.com/a", pageHTML(2000, 15, ""), "static"},
		{"root div", "https://example.com/a", pageHTML(2000, 1, "root"), "dynamic"},
		{"app div", "https://example.com/a", pageHTML(2000, 1, "app"), "dynamic"},
		{"other div id", "https://example.com/a", pageHTML(2000, 1, "main"), "static"},
		{"boundary 999", "https://example.com/a", pageHTML(999, 0, ""), "dynamic"},
		{"boundary 1000", "https://example.com/a", pageHTML(1000, 0, ""), "static"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindName(Classify(tt.url, tt.html)))
		})
	}
}

func TestClassify_StaticCarriesDocument(t *testing.T) {
	kind := Classify("https://example.com", pageHTML(1500, 0, ""))

	static, ok := kind.(StaticPage)
	require.True(t, ok)
	require.NotNil(t, static.Doc)
	assert.Equal(t, "Test Page", static.Doc.Find("title").Text())
}

func TestClassify_ScriptTextIsNotVisible(t *testing.T) {
	page := `<html><body><script>` + pageHTML(3000, 0, "") + `</script><p>tiny</p></body></html>`
	assert.Equal(t, "dynamic", KindName(Classify("https://example.com", page)))
}

func TestClassify_CountsRunes(t *testing.T) {
	// 600 two-byte runes: 1200 bytes but only 600 characters
	page := `<html><body><p>` + repeatRune('é', 600) + `</p></body></html>`
	assert.Equal(t, "dynamic", KindName(Classify("https://example.com", page)))
}

func TestClassifier_CustomConfig(t *testing.T) {
	c := NewClassifier(ClassifierConfig{MinBodyChars: 10, MaxScripts: 2, SPARootIDs: []string{"__next"}})

	assert.Equal(t, "static", KindName(c.Classify("https://e.com", pageHTML(50, 2, "root"))))
	assert.Equal(t, "dynamic", KindName(c.Classify("https://e.com", pageHTML(50, 3, ""))))
	assert.Equal(t, "dynamic", KindName(c.Classify("https://e.com", pageHTML(50, 0, "__next"))))
}

func TestIsPDFURL(t *testing.T) {
	assert.True(t, IsPDFURL("http://arxiv.org/pdf/2310.00266v1.pdf"))
	assert.True(t, IsPDFURL("https://e.com/doc.pdf#page=2"))
	assert.False(t, IsPDFURL("https://e.com/pdf/viewer"))
	assert.False(t, IsPDFURL("https://e.com/?file=a.pdf"))
}

func TestKindName_Nil(t *testing.T) {
	assert.Equal(t, "unknown", KindName(nil))
}

func repeatRune(r rune, n int) string {
	out := make([]rune, n)
	for i := range out {
		out[i] = r
	}
	return string(out)
}
