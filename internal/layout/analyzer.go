// Package layout turns positional OCR markup into a flat, reading-order
// list of classified text regions.
package layout

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/broadsheet-archive/broadsheet/internal/hocr"
	"github.com/broadsheet-archive/broadsheet/internal/press"
)

// SegmentationError reports a page whose recognized layout yields nothing
// usable, either zero surviving regions or zero groupable articles.
type SegmentationError struct {
	Stage   string
	Details string
}

func (e *SegmentationError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("segmentation failed: %s - %s", e.Stage, e.Details)
	}
	return fmt.Sprintf("segmentation failed: %s", e.Stage)
}

// Classification thresholds, all relative to page dimensions. A region is
// only considered for a class if every listed condition holds; rules are
// evaluated in a fixed precedence order so e.g. a tall all-caps block near
// the page top becomes a masthead, never a title.
const (
	mastheadMaxYRatio      = 0.10
	mastheadMinHeightRatio = 0.03
	pageNumberMaxWRatio    = 0.08
	pageNumberMaxHRatio    = 0.02
	pageNumberMaxDigits    = 4
	dateMaxYRatio          = 0.15
	dateMaxWords           = 8
	subtitleMinHeightRatio = 0.010
	subtitleMaxWords       = 12
	titleMaxWords          = 6
	captionMaxWords        = 10
	captionMaxWRatio       = 0.30

	// minRegionDim filters recognition debris. Boxes under this size in
	// either dimension carry no usable newspaper content.
	minRegionDim = 10
)

// Analyzer converts hierarchical OCR markup into classified TextRegions.
// Stateless; safe for concurrent use.
type Analyzer struct{}

// New returns a layout analyzer.
func New() *Analyzer {
	return &Analyzer{}
}

// Analyze parses positional markup and returns the page's classified
// regions sorted by (y, x). Area-level boxes are preferred; pages without
// an area hierarchy fall back to paragraph- then line-level boxes. Returns
// a SegmentationError when no region survives filtering.
func (a *Analyzer) Analyze(markup string, pageWidth, pageHeight int, cfg press.ProcessingConfig) ([]TextRegion, error) {
	doc, err := hocr.ParseString(markup)
	if err != nil {
		return nil, err
	}

	var regions []TextRegion
	for _, page := range doc.Pages {
		for _, area := range page.Areas {
			if r, ok := buildRegion(area.BBox, area.Text(), area.Words(), pageWidth, pageHeight); ok {
				regions = append(regions, r)
			}
		}
		for _, par := range page.Paragraphs {
			if r, ok := buildRegion(par.BBox, par.Text(), par.Words(), pageWidth, pageHeight); ok {
				regions = append(regions, r)
			}
		}
		for _, line := range page.Lines {
			if r, ok := buildRegion(line.BBox, line.Text(), line.Words, pageWidth, pageHeight); ok {
				regions = append(regions, r)
			}
		}
	}

	if len(regions) == 0 {
		return nil, &SegmentationError{
			Stage:   "layout",
			Details: "no usable text regions in recognition output",
		}
	}

	for i := range regions {
		regions[i].Type = classify(regions[i], pageWidth, pageHeight, cfg)
	}

	sort.Slice(regions, func(i, j int) bool {
		if regions[i].Y != regions[j].Y {
			return regions[i].Y < regions[j].Y
		}
		return regions[i].X < regions[j].X
	})
	return regions, nil
}

// buildRegion converts one box into an unclassified region. Boxes smaller
// than 10x10 px or with empty text are dropped; coordinates are clamped to
// the page bounds. Confidence is the mean of the contained word confidences
// rescaled to 0..1, zero when none parsed.
func buildRegion(bbox hocr.BBox, text string, words []hocr.Word, pageWidth, pageHeight int) (TextRegion, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return TextRegion{}, false
	}

	x1, y1, x2, y2 := bbox.X1, bbox.Y1, bbox.X2, bbox.Y2
	x1 = max(x1, 0)
	y1 = max(y1, 0)
	if pageWidth > 0 {
		x2 = min(x2, pageWidth)
	}
	if pageHeight > 0 {
		y2 = min(y2, pageHeight)
	}
	if x2-x1 < minRegionDim || y2-y1 < minRegionDim {
		return TextRegion{}, false
	}

	var sum float64
	var n int
	for _, w := range words {
		if w.HasConfidence {
			sum += w.Confidence
			n++
		}
	}
	var conf float64
	if n > 0 {
		conf = sum / float64(n) / 100.0
	}

	return TextRegion{
		X:          x1,
		Y:          y1,
		Width:      x2 - x1,
		Height:     y2 - y1,
		Type:       RegionUnknown,
		Text:       text,
		Confidence: conf,
	}, true
}

// classify applies the position and content rules in precedence order.
func classify(r TextRegion, pageWidth, pageHeight int, cfg press.ProcessingConfig) RegionType {
	pw := float64(pageWidth)
	ph := float64(pageHeight)
	y := float64(r.Y)
	w := float64(r.Width)
	h := float64(r.Height)
	words := len(strings.Fields(r.Text))

	switch {
	case y < mastheadMaxYRatio*ph && h >= mastheadMinHeightRatio*ph:
		return RegionMasthead
	case w < pageNumberMaxWRatio*pw && h < pageNumberMaxHRatio*ph && isPageNumber(r.Text):
		return RegionPageNumber
	case y < dateMaxYRatio*ph && words <= dateMaxWords && containsDateToken(r.Text):
		return RegionDate
	case h >= cfg.MinTitleHeightRatio*ph && (isAllUpper(r.Text) || words <= titleMaxWords):
		return RegionTitle
	case h >= subtitleMinHeightRatio*ph && h < cfg.MinTitleHeightRatio*ph &&
		!isAllUpper(r.Text) && words <= subtitleMaxWords:
		return RegionSubtitle
	case containsAdToken(r.Text):
		return RegionAdvertisement
	case words <= captionMaxWords && w < captionMaxWRatio*pw:
		return RegionCaption
	default:
		return RegionArticle
	}
}

// isPageNumber reports whether text is a plausible printed page number,
// digits only and at most four of them.
func isPageNumber(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" || len(text) > pageNumberMaxDigits {
		return false
	}
	for _, r := range text {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// isAllUpper reports whether text contains letters and none are lowercase.
func isAllUpper(text string) bool {
	hasLetter := false
	for _, r := range text {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsLetter(r) {
			hasLetter = true
		}
	}
	return hasLetter
}

var dateTokens = map[string]bool{
	"january": true, "february": true, "march": true, "april": true,
	"may": true, "june": true, "july": true, "august": true,
	"september": true, "october": true, "november": true, "december": true,
	"jan": true, "feb": true, "mar": true, "apr": true, "jun": true,
	"jul": true, "aug": true, "sep": true, "sept": true, "oct": true,
	"nov": true, "dec": true,
	"monday": true, "tuesday": true, "wednesday": true, "thursday": true,
	"friday": true, "saturday": true, "sunday": true,
}

// containsDateToken reports whether any word of text, stripped of
// punctuation, is a month or weekday name.
func containsDateToken(text string) bool {
	for _, f := range strings.Fields(strings.ToLower(text)) {
		if dateTokens[strings.Trim(f, ".,;:()")] {
			return true
		}
	}
	return false
}

var adTokens = []string{
	"advertisement",
	"advt",
	"for sale",
	"to let",
	"to rent",
}

// containsAdToken reports whether text carries a classified-advertising
// indicator phrase.
func containsAdToken(text string) bool {
	lower := strings.ToLower(text)
	for _, tok := range adTokens {
		if strings.Contains(lower, tok) {
			return true
		}
	}
	return false
}
