package render

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/docstruct/internal/layout"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownRenderer handles Markdown files using goldmark with the GFM
// table extension. Headings map onto the synthetic font ladder; list
// items keep their source marker so downstream classification sees it.
type MarkdownRenderer struct{}

func (m *MarkdownRenderer) Render(r io.Reader, filename string) (*layout.Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	doc := md.Parser().Parse(text.NewReader(src))

	pg := newPager()

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			title := string(node.Text(src))
			if title == "" {
				continue
			}
			fontSize, fontFlags := headingFont(node.Level)
			pg.addBlock(title, headingFontName, fontSize, fontFlags)

		case *ast.List:
			renderList(pg, node, src)

		case *east.Table:
			if cells := markdownTableCells(node, src); len(cells) > 0 {
				pg.addTable(cells)
			}

		default:
			for range countImages(n) {
				pg.addImage()
			}
			if t := extractText(n, src); t != "" {
				pg.addBlock(t, bodyFontName, bodyFontSize, 0)
			}
		}
	}

	return &layout.Document{
		Title: strings.TrimSuffix(strings.TrimSuffix(filename, ".md"), ".markdown"),
		Pages: pg.finish(),
	}, nil
}

// renderList emits one block per list item, prefixed with the marker
// the source used (restored for ordered lists as "N.").
func renderList(pg *pager, list *ast.List, src []byte) {
	index := list.Start
	if index == 0 {
		index = 1
	}
	for item := list.FirstChild(); item != nil; item = item.NextSibling() {
		t := extractText(item, src)
		if t == "" {
			continue
		}
		var marker string
		if list.IsOrdered() {
			marker = fmt.Sprintf("%d. ", index)
			index++
		} else {
			marker = string(list.Marker) + " "
		}
		pg.addBlock(marker+t, bodyFontName, bodyFontSize, 0)
	}
}

func markdownTableCells(table *east.Table, src []byte) [][]string {
	var cells [][]string
	for row := table.FirstChild(); row != nil; row = row.NextSibling() {
		var cols []string
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			cols = append(cols, extractText(cell, src))
		}
		if len(cols) > 0 {
			cells = append(cells, cols)
		}
	}
	return cells
}

func countImages(n ast.Node) int {
	count := 0
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if _, ok := c.(*ast.Image); ok {
			count++
			continue
		}
		count += countImages(c)
	}
	return count
}

// extractText gets the text content of a goldmark AST node. Leaf
// blocks without inline children (code blocks, HTML blocks) fall back
// to their raw source lines.
func extractText(n ast.Node, src []byte) string {
	if n.ChildCount() == 0 {
		if n.Type() == ast.TypeBlock {
			var buf bytes.Buffer
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				buf.Write(seg.Value(src))
			}
			return strings.TrimSpace(buf.String())
		}
		return ""
	}

	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Value(src))
			if t.HardLineBreak() || t.SoftLineBreak() {
				buf.WriteByte('\n')
			}
		} else {
			buf.WriteString(extractText(c, src))
		}
	}
	return strings.TrimSpace(buf.String())
}
