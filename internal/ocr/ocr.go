// Package ocr defines the recognition engine interface and the engines
// shipped with the service.
package ocr

import (
	"context"
	"fmt"

	"github.com/broadsheet-archive/broadsheet/internal/press"
)

// Result is the output of one recognition call.
type Result struct {
	// PlainText is the recognized text in reading order.
	PlainText string
	// HOCR is the engine's positional markup, kept verbatim for layout
	// analysis and archival.
	HOCR string
	// MeanConfidence is the average word confidence on a 0..1 scale.
	MeanConfidence float64
}

// Engine turns a page image into text with positional markup. Engines must
// be safe for concurrent calls.
type Engine interface {
	// Name returns the engine identifier, e.g. "tesseract".
	Name() string

	// Recognize runs OCR on an encoded page image. The language and page
	// segmentation mode come from the job's config snapshot. Implementations
	// honor ctx cancellation, though an in-flight native call runs to
	// completion in the background.
	Recognize(ctx context.Context, image []byte, cfg press.ProcessingConfig) (*Result, error)
}

// OCRError represents a failed engine invocation.
type OCRError struct {
	Engine string
	Op     string
	Err    error
}

func (e *OCRError) Error() string {
	return fmt.Sprintf("ocr engine %s: %s: %v", e.Engine, e.Op, e.Err)
}

func (e *OCRError) Unwrap() error {
	return e.Err
}
