// Package press provides shared newspaper-domain types used across multiple packages.
// This package has no dependencies on other broadsheet packages to avoid import cycles.
package press

import "time"

// OCRStatus indicates where a page stands in the recognition lifecycle.
type OCRStatus string

const (
	// OCRPending indicates the page has not been processed yet.
	OCRPending OCRStatus = "pending"
	// OCRCompleted indicates recognition finished and results were delivered.
	OCRCompleted OCRStatus = "completed"
	// OCRFailed indicates recognition was attempted and failed.
	OCRFailed OCRStatus = "failed"
)

// ParseOCRStatus converts a string to an OCRStatus.
// Returns OCRPending if the string is not recognized.
func ParseOCRStatus(s string) OCRStatus {
	switch s {
	case "completed":
		return OCRCompleted
	case "failed":
		return OCRFailed
	case "pending":
		return OCRPending
	default:
		return OCRPending
	}
}

// Page is the page record exchanged with the storage collaborator.
// The pipeline updates the OCR fields after each processing attempt.
type Page struct {
	ID            string     `json:"id"`
	IssueID       string     `json:"issue_id,omitempty"`
	PublicationID string     `json:"publication_id,omitempty"`
	Number        int        `json:"number"`
	ImagePath     string     `json:"image_path"`
	OCRStatus     OCRStatus  `json:"ocr_status"`
	OCREngine     string     `json:"ocr_engine,omitempty"`
	OCRConfidence float64    `json:"ocr_confidence,omitempty"`
	ProcessedAt   *time.Time `json:"processed_at,omitempty"`
	HasText       bool       `json:"has_text"`
}

// Issue groups the pages of one published newspaper issue.
type Issue struct {
	ID            string `json:"id"`
	PublicationID string `json:"publication_id,omitempty"`
	Title         string `json:"title,omitempty"`
	Date          string `json:"date,omitempty"`
	PageCount     int    `json:"page_count"`
	Pages         []Page `json:"pages,omitempty"`
}

// Publication is a newspaper title spanning many issues.
type Publication struct {
	ID     string  `json:"id"`
	Title  string  `json:"title"`
	Issues []Issue `json:"issues,omitempty"`
}
