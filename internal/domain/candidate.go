package domain

// CandidateURL is a URL proposed by a discovery feed, not yet fetched.
// Title is set only when the feed supplies a canonical title.
type CandidateURL struct {
	URL   string
	Title string
	Feed  string
}
