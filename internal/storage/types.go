package storage

import (
	"errors"
)

var (
	// ErrNotFound indicates that the requested resource was not found.
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates that the input parameters are invalid.
	ErrInvalidInput = errors.New("invalid input")
)

// ListOptions provides pagination and filtering options for list operations.
type ListOptions struct {
	// Page is the page number to retrieve (1-indexed, default: 1).
	Page int

	// Limit is the number of items per page (default: 20, max: 100).
	Limit int

	// SortBy specifies the field to sort by (e.g., "created_at", "next_review").
	SortBy string

	// SortOrder specifies the sort direction ("asc" or "desc", default: "desc").
	SortOrder string

	// Tag filters cards to those carrying the given tag.
	// Empty string means no tag filter.
	Tag string

	// SourceID filters cards to those generated from a specific source.
	// Empty string means no source filter.
	SourceID string
}

// Normalize applies defaults and validates the ListOptions.
func (o *ListOptions) Normalize() {
	// Whitelist validation for SortBy to prevent SQL injection
	allowedSortFields := map[string]bool{
		"created_at":  true,
		"updated_at":  true,
		"next_review": true,
		"id":          true,
	}

	if !allowedSortFields[o.SortBy] {
		o.SortBy = "created_at"
	}

	if o.SortOrder != "asc" && o.SortOrder != "desc" {
		o.SortOrder = "desc"
	}

	if o.Page < 1 {
		o.Page = 1
	}

	if o.Limit < 1 {
		o.Limit = 20
	}

	if o.Limit > 100 {
		o.Limit = 100
	}
}

// Offset calculates the offset for SQL queries based on page and limit.
func (o *ListOptions) Offset() int {
	return (o.Page - 1) * o.Limit
}

// Stats summarises the state of a card collection.
type Stats struct {
	// TotalCards is the number of cards in the store.
	TotalCards int `json:"total_cards"`

	// DueCards is the number of cards with next_review at or before now.
	DueCards int `json:"due_cards"`

	// TotalReviews is the number of review log entries recorded.
	TotalReviews int `json:"total_reviews"`

	// TotalSources is the number of ingestion sources recorded.
	TotalSources int `json:"total_sources"`

	// AverageStability is the mean stability across all reviewed cards, in days.
	// Zero when no card has been reviewed yet.
	AverageStability float64 `json:"average_stability"`
}
