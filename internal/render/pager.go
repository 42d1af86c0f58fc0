package render

import "github.com/dgallion1/docstruct/internal/layout"

// Markup formats carry no page geometry, so the renderers lay blocks
// out top-down on a nominal US Letter page and break to a new page when
// the cursor runs out of room. The synthesized rectangles keep the core
// pipeline format-agnostic.
const (
	pageWidth  = 612.0
	pageHeight = 792.0
	pageMargin = 72.0
	lineGap    = 6.0
)

// pager accumulates synthesized pages for markup renderers.
type pager struct {
	pages   []layout.Page
	current layout.Page
	cursorY float64
}

func newPager() *pager {
	return &pager{
		current: layout.Page{Number: 1},
		cursorY: pageHeight - pageMargin,
	}
}

// place reserves a box of the given height at the cursor, breaking to a
// new page first when it would not fit.
func (p *pager) place(height float64) layout.Rect {
	if p.cursorY-height < pageMargin {
		p.breakPage()
	}
	r := layout.Rect{
		X0: pageMargin,
		Y0: p.cursorY - height,
		X1: pageWidth - pageMargin,
		Y1: p.cursorY,
	}
	p.cursorY = r.Y0 - lineGap
	return r
}

func (p *pager) breakPage() {
	p.pages = append(p.pages, p.current)
	p.current = layout.Page{Number: p.current.Number + 1}
	p.cursorY = pageHeight - pageMargin
}

func (p *pager) addBlock(text, fontName string, fontSize float64, fontFlags int) {
	// Rough line estimate from rendered width at ~0.5em per glyph.
	charsPerLine := int((pageWidth - 2*pageMargin) / (fontSize * 0.5))
	if charsPerLine < 1 {
		charsPerLine = 1
	}
	lines := (len(text) + charsPerLine - 1) / charsPerLine
	if lines < 1 {
		lines = 1
	}
	rect := p.place(float64(lines) * fontSize * 1.4)
	p.current.Blocks = append(p.current.Blocks, layout.TextBlock{
		Rect: rect,
		Runs: []layout.TextRun{{
			Text:      text,
			FontName:  fontName,
			FontSize:  fontSize,
			FontFlags: fontFlags,
		}},
	})
}

func (p *pager) addImage() {
	rect := p.place(120)
	p.current.Images = append(p.current.Images, layout.ImageBox{Rect: rect})
}

func (p *pager) addTable(cells [][]string) {
	rows := len(cells)
	if rows < 1 {
		rows = 1
	}
	rect := p.place(float64(rows) * bodyFontSize * 1.6)
	p.current.Tables = append(p.current.Tables, layout.TableBox{Rect: rect, Cells: cells})
}

// finish returns the accumulated pages. A document with no content
// still yields a single empty page.
func (p *pager) finish() []layout.Page {
	p.pages = append(p.pages, p.current)
	return p.pages
}

// Synthetic font ladder for markup headings. Markup has no point sizes,
// so heading levels map onto the conventional sizes the classifier
// thresholds expect.
const (
	bodyFontSize = 11.0

	bodyFontName    = "Helvetica"
	headingFontName = "Helvetica-Bold"
)

// headingFont returns size and flags for a heading level (1-based).
func headingFont(level int) (float64, int) {
	switch level {
	case 1:
		return 20, layout.FlagBold
	case 2:
		return 16, layout.FlagBold
	case 3:
		return 14, layout.FlagBold
	default:
		return 12, layout.FlagBold
	}
}
