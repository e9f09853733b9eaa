package domain

// Chunk is an overlapping token window of a source's text. It carries the
// source identity so retrieval results need no join back to sources.
type Chunk struct {
	SourceID    string
	SourceURL   string
	SourceTitle string
	Index       int
	Text        string
}

// RetrievalResult is a chunk ranked by similarity to a query; higher is better.
type RetrievalResult struct {
	Score float32
	Chunk Chunk
}
