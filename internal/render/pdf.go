package render

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/dgallion1/docstruct/internal/layout"
	pdflib "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PDFRenderer extracts layout primitives from PDF files. Text runs come
// from the char-level content stream; image placements are located via
// the page's image XObjects.
type PDFRenderer struct {
	// RowTolerance is the Y distance within which chars belong to the
	// same visual row. Zero means the default.
	RowTolerance float64
}

const (
	defaultRowTolerance = 3.0
	wordSpaceMultiplier = 0.3
	rowMergeMultiplier  = 1.6
)

func (p *PDFRenderer) Render(r io.Reader, filename string) (*layout.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}

	reader, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	numPages := reader.NumPage()
	if numPages == 0 {
		return nil, fmt.Errorf("pdf has no pages")
	}

	// Image enumeration is best-effort: a PDF whose object table trips
	// up pdfcpu still renders its text.
	images := pdfImageBoxes(data)

	doc := &layout.Document{
		Title: strings.TrimSuffix(filename, ".pdf"),
	}
	tol := p.RowTolerance
	if tol <= 0 {
		tol = defaultRowTolerance
	}

	for i := 1; i <= numPages; i++ {
		page := layout.Page{Number: i, Images: images[i]}
		src := reader.Page(i)
		if !src.V.IsNull() {
			page.Blocks = blocksFromChars(src.Content().Text, tol)
		}
		doc.Pages = append(doc.Pages, page)
	}

	return doc, nil
}

// blocksFromChars groups char-level text into visual rows by Y
// proximity, then merges adjacent rows into blocks.
func blocksFromChars(chars []pdflib.Text, rowTolerance float64) []layout.TextBlock {
	filtered := make([]pdflib.Text, 0, len(chars))
	for _, c := range chars {
		if strings.TrimSpace(c.S) != "" {
			filtered = append(filtered, c)
		}
	}
	if len(filtered) == 0 {
		return nil
	}

	// Top of page first (PDF Y origin is bottom-left), then left to right.
	sort.SliceStable(filtered, func(i, j int) bool {
		if absDiff(filtered[i].Y, filtered[j].Y) > rowTolerance {
			return filtered[i].Y > filtered[j].Y
		}
		return filtered[i].X < filtered[j].X
	})

	var rows [][]pdflib.Text
	current := []pdflib.Text{filtered[0]}
	for _, c := range filtered[1:] {
		if absDiff(c.Y, current[0].Y) <= rowTolerance {
			current = append(current, c)
		} else {
			rows = append(rows, current)
			current = []pdflib.Text{c}
		}
	}
	rows = append(rows, current)

	var blocks []layout.TextBlock
	var block layout.TextBlock
	blockOpen := false

	flush := func() {
		if blockOpen {
			blocks = append(blocks, block)
			blockOpen = false
		}
	}

	prevY := 0.0
	for _, row := range rows {
		rect, runs := rowRuns(row)
		size := row[0].FontSize
		if size <= 0 {
			size = defaultRowTolerance
		}
		if blockOpen && prevY-row[0].Y <= size*rowMergeMultiplier {
			// Same block: keep a line break between rows.
			block.Runs[len(block.Runs)-1].Text += "\n"
			block.Runs = append(block.Runs, runs...)
			block.Rect = union(block.Rect, rect)
		} else {
			flush()
			block = layout.TextBlock{Rect: rect, Runs: runs}
			blockOpen = true
		}
		prevY = row[0].Y
	}
	flush()

	return blocks
}

// rowRuns assembles one visual row into text runs, starting a new run
// whenever the font changes and inserting spaces at word gaps.
func rowRuns(row []pdflib.Text) (layout.Rect, []layout.TextRun) {
	rect := layout.Rect{
		X0: row[0].X,
		Y0: row[0].Y,
		X1: row[0].X + row[0].W,
		Y1: row[0].Y + row[0].FontSize,
	}

	var runs []layout.TextRun
	run := layout.TextRun{
		FontName:  row[0].Font,
		FontSize:  row[0].FontSize,
		FontFlags: fontFlags(row[0].Font),
	}
	var text strings.Builder
	prevEnd := row[0].X

	for i, c := range row {
		rect = union(rect, layout.Rect{X0: c.X, Y0: c.Y, X1: c.X + c.W, Y1: c.Y + c.FontSize})

		if c.Font != run.FontName || c.FontSize != run.FontSize {
			run.Text = text.String()
			runs = append(runs, run)
			text.Reset()
			run = layout.TextRun{
				FontName:  c.Font,
				FontSize:  c.FontSize,
				FontFlags: fontFlags(c.Font),
			}
		}
		if i > 0 && c.X-prevEnd > c.FontSize*wordSpaceMultiplier {
			text.WriteByte(' ')
		}
		text.WriteString(c.S)
		prevEnd = c.X + c.W
	}
	run.Text = text.String()
	runs = append(runs, run)

	return rect, runs
}

// fontFlags derives the flags bitfield from the font name; PDF base
// fonts encode weight and slant in the name (e.g. "Helvetica-BoldOblique").
func fontFlags(name string) int {
	lower := strings.ToLower(name)
	flags := 0
	if strings.Contains(lower, "bold") || strings.Contains(lower, "black") || strings.Contains(lower, "heavy") {
		flags |= layout.FlagBold
	}
	if strings.Contains(lower, "italic") || strings.Contains(lower, "oblique") {
		flags |= layout.FlagItalic
	}
	return flags
}

// pdfImageBoxes finds image XObjects per page. Placement on the page
// would require interpreting the content stream transform, so the page
// box stands in for the image rectangle.
func pdfImageBoxes(data []byte) map[int][]layout.ImageBox {
	conf := model.NewDefaultConfiguration()
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil || ctx.Optimize == nil {
		return nil
	}

	dims, err := ctx.PageDims()
	if err != nil {
		dims = nil
	}

	boxes := make(map[int][]layout.ImageBox)
	for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
		objNrs := pdfcpu.ImageObjNrs(ctx, pageNr)
		if len(objNrs) == 0 {
			continue
		}
		w, h := pageWidth, pageHeight
		if pageNr-1 < len(dims) {
			w, h = dims[pageNr-1].Width, dims[pageNr-1].Height
		}
		for range objNrs {
			boxes[pageNr] = append(boxes[pageNr], layout.ImageBox{
				Rect: layout.Rect{X1: w, Y1: h},
			})
		}
	}
	return boxes
}

func absDiff(a, b float64) float64 {
	if a > b {
		return a - b
	}
	return b - a
}

func union(a, b layout.Rect) layout.Rect {
	if b.X0 < a.X0 {
		a.X0 = b.X0
	}
	if b.Y0 < a.Y0 {
		a.Y0 = b.Y0
	}
	if b.X1 > a.X1 {
		a.X1 = b.X1
	}
	if b.Y1 > a.Y1 {
		a.Y1 = b.Y1
	}
	return a
}
