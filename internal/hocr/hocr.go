// Package hocr models the positional markup OCR engines emit: a hierarchy
// of page, content area, paragraph, line and word elements, each carrying a
// pixel bounding box and, for words, a recognition confidence.
package hocr

import "strings"

// BBox is a rectangle in page pixel coordinates. X1,Y1 is the top-left
// corner, X2,Y2 the bottom-right.
type BBox struct {
	X1 int
	Y1 int
	X2 int
	Y2 int
}

// Width returns the horizontal extent of the box.
func (b BBox) Width() int { return b.X2 - b.X1 }

// Height returns the vertical extent of the box.
func (b BBox) Height() int { return b.Y2 - b.Y1 }

// Word is a recognized word. Corresponds to class ocrx_word.
type Word struct {
	ID   string
	Text string
	BBox BBox
	// Confidence is the x_wconf value on a 0-100 scale. HasConfidence
	// is false when the element carried none that parsed.
	Confidence    float64
	HasConfidence bool
}

// Line is a text line. Corresponds to class ocr_line.
type Line struct {
	ID    string
	BBox  BBox
	Words []Word
}

// Text joins the line's words with single spaces.
func (l Line) Text() string {
	parts := make([]string, 0, len(l.Words))
	for _, w := range l.Words {
		if w.Text != "" {
			parts = append(parts, w.Text)
		}
	}
	return strings.Join(parts, " ")
}

// Paragraph groups lines. Corresponds to class ocr_par.
type Paragraph struct {
	ID    string
	BBox  BBox
	Lines []Line
}

// Text joins the paragraph's lines with single spaces.
func (p Paragraph) Text() string {
	parts := make([]string, 0, len(p.Lines))
	for _, l := range p.Lines {
		if t := l.Text(); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

// Words returns every word under the paragraph.
func (p Paragraph) Words() []Word {
	var words []Word
	for _, l := range p.Lines {
		words = append(words, l.Words...)
	}
	return words
}

// Area is a content area, typically one newspaper column block.
// Corresponds to class ocr_carea.
type Area struct {
	ID         string
	BBox       BBox
	Paragraphs []Paragraph
}

// Text joins the area's paragraphs with single spaces.
func (a Area) Text() string {
	parts := make([]string, 0, len(a.Paragraphs))
	for _, p := range a.Paragraphs {
		if t := p.Text(); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

// Words returns every word under the area.
func (a Area) Words() []Word {
	var words []Word
	for _, p := range a.Paragraphs {
		words = append(words, p.Words()...)
	}
	return words
}

// Page is one recognized page. Corresponds to class ocr_page.
// Paragraphs and Lines hold elements that appear outside any enclosing
// area or paragraph, which noisy scans produce routinely.
type Page struct {
	ID         string
	Image      string
	BBox       BBox
	Areas      []Area
	Paragraphs []Paragraph
	Lines      []Line
}

// Document is a parsed hOCR file.
type Document struct {
	Pages []Page
}
