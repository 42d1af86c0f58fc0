package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/docstruct/internal/layout"
	"golang.org/x/net/html"
)

// HTMLRenderer handles HTML files. Headings, paragraphs, list items,
// tables, and images become layout primitives with synthesized
// positions and fonts; list items get their bullet glyph back since the
// markup strips it.
type HTMLRenderer struct{}

func (h *HTMLRenderer) Render(r io.Reader, filename string) (*layout.Document, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	title := strings.TrimSuffix(strings.TrimSuffix(filename, ".html"), ".htm")
	if t := findTitle(doc); t != "" {
		title = t
	}

	pg := newPager()

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if level := headingLevel(n.Data); level > 0 {
				if text := textContent(n); text != "" {
					fontSize, fontFlags := headingFont(level)
					pg.addBlock(text, headingFontName, fontSize, fontFlags)
				}
				return
			}

			switch n.Data {
			case "script", "style", "nav", "footer", "header":
				return
			case "p", "blockquote":
				if text := textContent(n); text != "" {
					pg.addBlock(text, bodyFontName, bodyFontSize, 0)
				}
				return
			case "li":
				if text := textContent(n); text != "" {
					pg.addBlock("• "+text, bodyFontName, bodyFontSize, 0)
				}
				return
			case "table":
				if cells := tableCells(n); len(cells) > 0 {
					pg.addTable(cells)
				}
				return
			case "img":
				pg.addImage()
				return
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	if body := findBody(doc); body != nil {
		walk(body)
	} else {
		walk(doc)
	}

	return &layout.Document{
		Title: title,
		Pages: pg.finish(),
	}, nil
}

// tableCells flattens a <table> into a row-major cell grid.
func tableCells(table *html.Node) [][]string {
	var cells [][]string
	var findRows func(*html.Node)
	findRows = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "tr" {
			var row []string
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.ElementNode && (c.Data == "td" || c.Data == "th") {
					row = append(row, textContent(c))
				}
			}
			if len(row) > 0 {
				cells = append(cells, row)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			findRows(c)
		}
	}
	findRows(table)
	return cells
}

func headingLevel(tag string) int {
	switch tag {
	case "h1":
		return 1
	case "h2":
		return 2
	case "h3":
		return 3
	case "h4":
		return 4
	case "h5":
		return 5
	case "h6":
		return 6
	}
	return 0
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(buf.String())
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		return textContent(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}
