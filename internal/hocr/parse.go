package hocr

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Parse reads hOCR markup and builds the element hierarchy. Elements with
// malformed or missing bbox properties are kept with a zero box so callers
// can filter them by size. Paragraphs and lines that sit outside the usual
// nesting are collected on the page directly rather than dropped.
func Parse(r io.Reader) (*Document, error) {
	root, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing ocr markup: %w", err)
	}

	var doc Document
	root.Find(".ocr_page").Each(func(_ int, pg *goquery.Selection) {
		title := pg.AttrOr("title", "")
		page := Page{
			ID:    pg.AttrOr("id", ""),
			Image: titleImage(title),
			BBox:  titleBBox(title),
		}

		pg.Find(".ocr_carea").Each(func(_ int, sel *goquery.Selection) {
			page.Areas = append(page.Areas, parseArea(sel))
		})
		pg.Find(".ocr_par").Each(func(_ int, sel *goquery.Selection) {
			if sel.Closest(".ocr_carea").Length() > 0 {
				return
			}
			page.Paragraphs = append(page.Paragraphs, parseParagraph(sel))
		})
		pg.Find(".ocr_line").Each(func(_ int, sel *goquery.Selection) {
			if sel.Closest(".ocr_par").Length() > 0 || sel.Closest(".ocr_carea").Length() > 0 {
				return
			}
			page.Lines = append(page.Lines, parseLine(sel))
		})

		doc.Pages = append(doc.Pages, page)
	})
	return &doc, nil
}

// ParseString is Parse over an in-memory markup string.
func ParseString(markup string) (*Document, error) {
	return Parse(strings.NewReader(markup))
}

func parseArea(sel *goquery.Selection) Area {
	area := Area{
		ID:   sel.AttrOr("id", ""),
		BBox: titleBBox(sel.AttrOr("title", "")),
	}
	sel.Find(".ocr_par").Each(func(_ int, par *goquery.Selection) {
		area.Paragraphs = append(area.Paragraphs, parseParagraph(par))
	})
	return area
}

func parseParagraph(sel *goquery.Selection) Paragraph {
	par := Paragraph{
		ID:   sel.AttrOr("id", ""),
		BBox: titleBBox(sel.AttrOr("title", "")),
	}
	sel.Find(".ocr_line").Each(func(_ int, line *goquery.Selection) {
		par.Lines = append(par.Lines, parseLine(line))
	})
	return par
}

func parseLine(sel *goquery.Selection) Line {
	line := Line{
		ID:   sel.AttrOr("id", ""),
		BBox: titleBBox(sel.AttrOr("title", "")),
	}
	sel.Find(".ocrx_word").Each(func(_ int, word *goquery.Selection) {
		title := word.AttrOr("title", "")
		w := Word{
			ID:   word.AttrOr("id", ""),
			Text: strings.TrimSpace(word.Text()),
			BBox: titleBBox(title),
		}
		w.Confidence, w.HasConfidence = titleWConf(title)
		line.Words = append(line.Words, w)
	})
	return line
}

// titleBBox extracts the `bbox x1 y1 x2 y2` property from an hOCR title
// attribute. Returns the zero box when the property is absent or malformed.
func titleBBox(title string) BBox {
	fields := titleProperty(title, "bbox")
	if len(fields) != 4 {
		return BBox{}
	}
	var coords [4]int
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return BBox{}
		}
		coords[i] = n
	}
	return BBox{X1: coords[0], Y1: coords[1], X2: coords[2], Y2: coords[3]}
}

// titleWConf extracts the `x_wconf` recognition confidence, 0-100.
func titleWConf(title string) (float64, bool) {
	fields := titleProperty(title, "x_wconf")
	if len(fields) == 0 {
		return 0, false
	}
	conf, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, false
	}
	return conf, true
}

// titleImage extracts the source image path from a page title attribute.
func titleImage(title string) string {
	fields := titleProperty(title, "image")
	if len(fields) == 0 {
		return ""
	}
	return strings.Trim(strings.Join(fields, " "), `"`)
}

// titleProperty returns the value fields of one semicolon-separated hOCR
// title property, or nil when the key is not present.
func titleProperty(title, key string) []string {
	for _, part := range strings.Split(title, ";") {
		fields := strings.Fields(strings.TrimSpace(part))
		if len(fields) > 0 && fields[0] == key {
			return fields[1:]
		}
	}
	return nil
}
