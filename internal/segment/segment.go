// Package segment groups classified text regions into articles.
package segment

import (
	"sort"
	"strings"

	"github.com/broadsheet-archive/broadsheet/internal/layout"
	"github.com/broadsheet-archive/broadsheet/internal/press"
)

// ArticleType distinguishes editorial content from paid notices.
type ArticleType string

const (
	ArticleNews          ArticleType = "news"
	ArticleAdvertisement ArticleType = "advertisement"
)

// Article is the terminal pipeline output: one logical newspaper piece
// assembled from classified regions. Regions is never empty.
type Article struct {
	Title      string               `json:"title,omitempty"`
	Subtitle   string               `json:"subtitle,omitempty"`
	Content    string               `json:"content"`
	Regions    []layout.TextRegion  `json:"regions"`
	Confidence float64              `json:"confidence"`
	Type       ArticleType          `json:"type"`
	PageID     string               `json:"page_id,omitempty"`
	IssueID    string               `json:"issue_id,omitempty"`
}

// Segmenter groups regions into articles. Stateless; safe for concurrent
// use.
type Segmenter struct{}

// New returns a segmenter.
func New() *Segmenter {
	return &Segmenter{}
}

// Segment runs the title-run strategy, then the column fallback when that
// produces nothing. Masthead and page-number regions never join articles.
// Returns a SegmentationError when both strategies come up empty.
func (s *Segmenter) Segment(regions []layout.TextRegion, pageWidth int, cfg press.ProcessingConfig) ([]Article, error) {
	included := make([]layout.TextRegion, 0, len(regions))
	for _, r := range regions {
		if r.Type == layout.RegionMasthead || r.Type == layout.RegionPageNumber {
			continue
		}
		included = append(included, r)
	}

	articles := titleRuns(included)
	if len(articles) == 0 {
		articles = columnFallback(included, pageWidth, cfg)
	}
	if len(articles) == 0 {
		return nil, &layout.SegmentationError{
			Stage:   "grouping",
			Details: "no regions groupable into articles",
		}
	}
	return articles, nil
}

// titleRuns opens an article at each title region and joins everything up
// to the next title into it. Regions ahead of the first title form a
// leading untitled article so page-top content is not lost. A page with no
// titles at all yields nothing here; the column fallback covers it, since
// a missing-title page usually means recognition failed on the headlines
// rather than the page having none.
func titleRuns(regions []layout.TextRegion) []Article {
	sawTitle := false
	for _, r := range regions {
		if r.Type == layout.RegionTitle {
			sawTitle = true
			break
		}
	}
	if !sawTitle {
		return nil
	}

	var articles []Article
	var run []layout.TextRegion
	for _, r := range regions {
		if r.Type == layout.RegionTitle && len(run) > 0 {
			articles = append(articles, buildArticle(run, ""))
			run = nil
		}
		run = append(run, r)
	}
	if len(run) > 0 {
		articles = append(articles, buildArticle(run, ""))
	}
	return articles
}

// columnFallback clusters regions into vertical columns by x proximity and
// emits one article per column, first region as pseudo-title. The cluster
// threshold comes from the narrowest region, bounded by the configured
// column width ratios of the page width.
func columnFallback(regions []layout.TextRegion, pageWidth int, cfg press.ProcessingConfig) []Article {
	if len(regions) == 0 {
		return nil
	}

	narrowest := regions[0].Width
	for _, r := range regions[1:] {
		narrowest = min(narrowest, r.Width)
	}
	threshold := float64(narrowest)
	if pageWidth > 0 {
		threshold = max(threshold, cfg.MinColumnWidthRatio*float64(pageWidth))
		threshold = min(threshold, cfg.MaxColumnWidthRatio*float64(pageWidth))
	}

	byX := make([]layout.TextRegion, len(regions))
	copy(byX, regions)
	sort.Slice(byX, func(i, j int) bool { return byX[i].X < byX[j].X })

	var columns [][]layout.TextRegion
	var anchor int
	for i, r := range byX {
		if i == 0 || float64(r.X-anchor) > threshold {
			columns = append(columns, nil)
			anchor = r.X
		}
		columns[len(columns)-1] = append(columns[len(columns)-1], r)
	}

	articles := make([]Article, 0, len(columns))
	for _, col := range columns {
		sort.Slice(col, func(i, j int) bool {
			if col[i].Y != col[j].Y {
				return col[i].Y < col[j].Y
			}
			return col[i].X < col[j].X
		})
		articles = append(articles, buildArticle(col, col[0].Text))
	}
	return articles
}

// buildArticle assembles one article from its member regions. Title comes
// from the run's title region, or pseudoTitle on the fallback path.
// Content joins article-typed members; on the fallback path, where
// classification is unreliable, it joins everything after the pseudo-title
// instead.
func buildArticle(members []layout.TextRegion, pseudoTitle string) Article {
	a := Article{
		Title:   pseudoTitle,
		Type:    ArticleNews,
		Regions: members,
	}

	var parts []string
	var confSum float64
	for i, r := range members {
		confSum += r.Confidence
		switch {
		case pseudoTitle != "":
			if i > 0 {
				parts = append(parts, r.Text)
			}
		case r.Type == layout.RegionTitle:
			if a.Title == "" {
				a.Title = r.Text
			}
		case r.Type == layout.RegionSubtitle:
			if a.Subtitle == "" {
				a.Subtitle = r.Text
			}
		case r.Type == layout.RegionArticle:
			parts = append(parts, r.Text)
		}
		if r.Type == layout.RegionAdvertisement {
			a.Type = ArticleAdvertisement
		}
	}

	a.Content = strings.Join(parts, "\n\n")
	a.Confidence = confSum / float64(len(members))
	return a
}
