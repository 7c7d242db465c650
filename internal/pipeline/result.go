// Package pipeline runs claimed queue jobs through preprocessing,
// recognition, layout analysis and article grouping, and owns the worker
// pool and coordinator around that flow.
package pipeline

import (
	"context"
	"time"

	"github.com/broadsheet-archive/broadsheet/internal/layout"
	"github.com/broadsheet-archive/broadsheet/internal/segment"
)

// Result is the outcome of one processed job, delivered once to registered
// handlers and not retained afterwards.
type Result struct {
	JobID   string
	PageID  string
	IssueID string
	Success bool

	// Recognition output, populated on success.
	PlainText        string
	PositionalMarkup string
	Regions          []layout.TextRegion
	Articles         []segment.Article
	Confidence       float64

	Elapsed time.Duration
	Err     error
}

// ResultHandler consumes a terminal job outcome. Handlers returning an
// error are retried a few times before the delivery is dropped; they must
// tolerate being called again with the same result.
type ResultHandler func(ctx context.Context, res *Result) error
