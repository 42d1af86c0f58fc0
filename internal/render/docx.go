package render

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dgallion1/docstruct/internal/layout"
	"github.com/fumiama/go-docx"
)

// DOCXRenderer handles .docx files. Word paragraphs carry no page
// geometry, so positions are synthesized by the pager; heading styles
// map onto the synthetic font ladder and tables become cell grids.
type DOCXRenderer struct{}

func (d *DOCXRenderer) Render(r io.Reader, filename string) (*layout.Document, error) {
	// go-docx needs a ReadSeeker+size, so write to a temp file.
	tmp, err := os.CreateTemp("", "docstruct-docx-*.docx")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	size, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("seek temp file: %w", err)
	}

	doc, err := docx.Parse(tmp, int64(size))
	tmp.Close()
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	pg := newPager()
	for _, item := range doc.Document.Body.Items {
		switch node := item.(type) {
		case *docx.Paragraph:
			text := docxParagraphText(node)
			if text == "" {
				continue
			}
			if level := docxHeadingLevel(node); level > 0 {
				fontSize, fontFlags := headingFont(level)
				pg.addBlock(text, headingFontName, fontSize, fontFlags)
			} else {
				pg.addBlock(text, bodyFontName, bodyFontSize, 0)
			}
		case *docx.Table:
			if cells := docxTableCells(node); len(cells) > 0 {
				pg.addTable(cells)
			}
		}
	}

	return &layout.Document{
		Title: strings.TrimSuffix(filename, ".docx"),
		Pages: pg.finish(),
	}, nil
}

func docxHeadingLevel(para *docx.Paragraph) int {
	if para.Properties == nil || para.Properties.Style == nil {
		return 0
	}
	style := strings.ToLower(strings.ReplaceAll(para.Properties.Style.Val, " ", ""))
	for level := 1; level <= 6; level++ {
		if style == fmt.Sprintf("heading%d", level) {
			return level
		}
	}
	return 0
}

// docxTableCells flattens a Word table into a row-major cell grid.
// Multi-paragraph cells are joined with spaces.
func docxTableCells(tbl *docx.Table) [][]string {
	var cells [][]string
	for _, row := range tbl.TableRows {
		var cols []string
		for _, cell := range row.TableCells {
			var buf strings.Builder
			for _, para := range cell.Paragraphs {
				if buf.Len() > 0 {
					buf.WriteByte(' ')
				}
				buf.WriteString(docxParagraphText(para))
			}
			cols = append(cols, strings.TrimSpace(buf.String()))
		}
		if len(cols) > 0 {
			cells = append(cells, cols)
		}
	}
	return cells
}

func docxParagraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
