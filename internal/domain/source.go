package domain

import (
	"fmt"
	"strings"
	"time"
)

// SourceType represents where a source's text came from
type SourceType string

const (
	SourceTypeWebPage SourceType = "web_page"
	SourceTypePDF     SourceType = "pdf"
	SourceTypeRSS     SourceType = "rss"
	SourceTypeAPI     SourceType = "api"
)

// Source is a successfully extracted candidate document.
// ID stays empty until the source has been persisted.
type Source struct {
	ID           string
	URL          string
	Title        string
	Type         SourceType
	FetchedAt    time.Time
	RawText      string
	RawObjectKey string
}

// NewSource creates a new, not yet persisted Source stamped with the current time
func NewSource(url, title string, sourceType SourceType, rawText string) *Source {
	return &Source{
		URL:       url,
		Title:     title,
		Type:      sourceType,
		FetchedAt: time.Now().UTC(),
		RawText:   rawText,
	}
}

// Persisted reports whether the source has been assigned a storage ID
func (s *Source) Persisted() bool {
	return s.ID != ""
}

// ParseSourceType converts a stored value into a SourceType
func ParseSourceType(s string) (SourceType, error) {
	switch SourceType(strings.ToLower(strings.TrimSpace(s))) {
	case SourceTypeWebPage:
		return SourceTypeWebPage, nil
	case SourceTypePDF:
		return SourceTypePDF, nil
	case SourceTypeRSS:
		return SourceTypeRSS, nil
	case SourceTypeAPI:
		return SourceTypeAPI, nil
	}
	return "", ErrInvalidSourceType
}

// ValidateSource validates a Source before persistence
func ValidateSource(s *Source) error {
	if s == nil {
		return fmt.Errorf("source cannot be nil")
	}
	if s.URL == "" {
		return fmt.Errorf("source URL is required")
	}
	if _, err := ParseSourceType(string(s.Type)); err != nil {
		return fmt.Errorf("source Type is invalid: %s", s.Type)
	}
	return nil
}
