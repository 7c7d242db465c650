package layout

// RegionType labels what a block of recognized text is on the page.
type RegionType string

const (
	RegionTitle         RegionType = "title"
	RegionSubtitle      RegionType = "subtitle"
	RegionArticle       RegionType = "article"
	RegionAdvertisement RegionType = "advertisement"
	RegionCaption       RegionType = "caption"
	RegionMasthead      RegionType = "masthead"
	RegionPageNumber    RegionType = "page_number"
	RegionDate          RegionType = "date"
	RegionUnknown       RegionType = "unknown"
)

// TextRegion is one classified block of recognized text in page pixel
// coordinates. Regions are immutable once produced by the analyzer.
type TextRegion struct {
	X          int        `json:"x"`
	Y          int        `json:"y"`
	Width      int        `json:"width"`
	Height     int        `json:"height"`
	Type       RegionType `json:"type"`
	Text       string     `json:"text"`
	Confidence float64    `json:"confidence"`
}
