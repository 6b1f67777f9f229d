package types

import (
	"time"

	"github.com/google/uuid"
)

// SourceType identifies how a source's content entered the system.
type SourceType string

const (
	SourceManual   SourceType = "manual"
	SourceText     SourceType = "text"
	SourcePDF      SourceType = "pdf"
	SourceURL      SourceType = "url"
	SourceMarkdown SourceType = "markdown"
)

// ParseSourceType maps a stored string to a SourceType, defaulting to manual.
func ParseSourceType(s string) SourceType {
	switch SourceType(s) {
	case SourceText, SourcePDF, SourceURL, SourceMarkdown:
		return SourceType(s)
	default:
		return SourceManual
	}
}

// Source records a piece of content that cards were generated from.
type Source struct {
	ID          string     `json:"id"`
	Type        SourceType `json:"source_type"`
	Title       *string    `json:"title,omitempty"`
	URL         *string    `json:"url,omitempty"`
	ContentHash *string    `json:"content_hash,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// NewSource creates a source record.
func NewSource(sourceType SourceType, title, url *string) *Source {
	return &Source{
		ID:        uuid.New().String(),
		Type:      sourceType,
		Title:     title,
		URL:       url,
		CreatedAt: time.Now().UTC(),
	}
}
