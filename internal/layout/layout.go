package layout

// Rect is an axis-aligned bounding rectangle in page coordinate space.
type Rect struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
}

// Font flag bits, following the common renderer convention.
const (
	FlagItalic = 2
	FlagBold   = 16
)

// TextRun is a span of text rendered with a single font.
type TextRun struct {
	Text      string
	FontName  string
	FontSize  float64
	FontFlags int
}

// TextBlock is an ordered group of runs sharing a bounding box.
type TextBlock struct {
	Rect Rect
	Runs []TextRun
}

// ImageBox marks a placed image.
type ImageBox struct {
	Rect Rect
}

// TableBox is a detected table with its cell grid. Absent cells are
// normalized to empty strings by the renderer.
type TableBox struct {
	Rect  Rect
	Cells [][]string
}

// Page holds the layout primitives of one page. Within a page the
// emission order is blocks, then images, then tables; consumers must
// preserve that order.
type Page struct {
	Number int // 1-based
	Blocks []TextBlock
	Images []ImageBox
	Tables []TableBox
}

// Document is the root of a rendered document.
type Document struct {
	Title string
	Pages []Page
}

// PageCount returns the number of pages in the document.
func (d *Document) PageCount() int {
	return len(d.Pages)
}
