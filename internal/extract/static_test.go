package extract

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, page string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	require.NoError(t, err)
	return doc
}

func TestExtractReadable_PrefersArticle(t *testing.T) {
	page := `<html><head><title>Site Title</title></head><body>
		<header><h1>Site Header</h1></header>
		<nav><a href="/">Home</a></nav>
		<div class="sidebar">short</div>
		<article>
			<h2>Post heading</h2>
			<p>First   paragraph
			   of the post.</p>
			<p>Second <b>paragraph</b>.</p>
			<script>var tracking = 1;</script>
		</article>
		<footer>Copyright</footer>
	</body></html>`

	r := ExtractReadable(parse(t, page))

	assert.Equal(t, "Site Title", r.Title)
	assert.Equal(t, "Post heading\nFirst paragraph of the post.\nSecond paragraph.", r.Text)
	assert.NotContains(t, r.Text, "tracking")
	assert.NotContains(t, r.Text, "Copyright")
	assert.NotContains(t, r.Text, "Home")
}

func TestExtractReadable_PicksLongestCandidate(t *testing.T) {
	page := `<html><body>
		<main><p>short main</p></main>
		<div id="content"><p>this content block is clearly the longest text on the page</p></div>
	</body></html>`

	r := ExtractReadable(parse(t, page))

	assert.Equal(t, "this content block is clearly the longest text on the page", r.Text)
}

func TestExtractReadable_FallsBackToBody(t *testing.T) {
	r := ExtractReadable(parse(t, `<html><body><div>alpha</div><div>beta</div></body></html>`))
	assert.Equal(t, "alpha\nbeta", r.Text)
}

func TestExtractReadable_WrappedSourceLinesJoin(t *testing.T) {
	page := "<html><body><article><p>A paragraph wrapped\r\nacross <em>several\nsource</em>\nlines.</p>" +
		"<p>Next one.</p></article></body></html>"

	r := ExtractReadable(parse(t, page))

	assert.Equal(t, "A paragraph wrapped across several source lines.\nNext one.", r.Text)
}

func TestPageTitle_Precedence(t *testing.T) {
	tests := []struct {
		name string
		head string
		body string
		want string
	}{
		{"og title wins", `<title>T</title><meta property="og:title" content="OG">`, `<h1>H</h1>`, "OG"},
		{"title tag", `<title>  The   Title </title>`, `<h1>H</h1>`, "The Title"},
		{"h1 fallback", ``, `<h1>Heading</h1>`, "Heading"},
		{"twitter fallback", `<meta name="twitter:title" content="TW">`, ``, "TW"},
		{"nothing", ``, `<p>x</p>`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := parse(t, "<html><head>"+tt.head+"</head><body>"+tt.body+"</body></html>")
			assert.Equal(t, tt.want, pageTitle(doc))
		})
	}
}
