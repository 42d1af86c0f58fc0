// Package element converts page-scoped layout primitives into
// semantically typed document elements.
package element

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dgallion1/docstruct/internal/layout"
)

// ErrInvalidInput reports a primitive that violates the caller contract,
// e.g. a non-empty text block without usable font metadata.
var ErrInvalidInput = errors.New("element: invalid input")

// ElementType is the closed set of semantic element types.
type ElementType string

const (
	TypeTitle     ElementType = "title"
	TypeSubtitle  ElementType = "subtitle"
	TypeSection   ElementType = "section"
	TypeParagraph ElementType = "paragraph"
	TypeListItem  ElementType = "list_item"
	TypeTable     ElementType = "table"
	TypeImage     ElementType = "image"
)

// Valid reports whether t is one of the closed enumeration.
func (t ElementType) Valid() bool {
	switch t {
	case TypeTitle, TypeSubtitle, TypeSection, TypeParagraph,
		TypeListItem, TypeTable, TypeImage:
		return true
	}
	return false
}

// Hierarchical reports whether t counts toward the hierarchical depth
// metric (title, subtitle, section).
func (t ElementType) Hierarchical() bool {
	return t == TypeTitle || t == TypeSubtitle || t == TypeSection
}

// Font flag bits: italic is bit 2, bold is bit 4 of the flags
// bitfield.
const (
	FlagItalic = layout.FlagItalic
	FlagBold   = layout.FlagBold
)

// FontInfo carries the font attributes of a text block. Empty for
// image and table elements.
type FontInfo struct {
	Name  string  `json:"name,omitempty"`
	Size  float64 `json:"size,omitempty"`
	Flags int     `json:"flags,omitempty"`
}

// Element is a single classified primitive. Immutable once built.
type Element struct {
	Type       ElementType `json:"element_type"`
	Content    string      `json:"content"`
	PageNumber int         `json:"page_number"`
	Position   layout.Rect `json:"position"`
	Font       FontInfo    `json:"font_info"`
}

var contentReplacer = strings.NewReplacer("\n", " ", "\r", " ", "\t", " ")

// NormalizeContent prepares block text for storage: leading/trailing
// whitespace stripped, newlines and tabs replaced with single spaces.
// Classification runs on the raw concatenation, not on this form.
func NormalizeContent(text string) string {
	return contentReplacer.Replace(strings.TrimSpace(text))
}

// FromTextBlock builds a classified element from a text block. The
// second return value is false for blocks whose trimmed text is empty;
// those are skipped, never classified. A non-empty block without a
// positive font size violates the renderer contract and yields
// ErrInvalidInput rather than a silently defaulted font.
func FromTextBlock(b layout.TextBlock, pageNumber int) (Element, bool, error) {
	var text strings.Builder
	for _, run := range b.Runs {
		text.WriteString(run.Text)
	}
	raw := text.String()
	if strings.TrimSpace(raw) == "" {
		return Element{}, false, nil
	}

	// First run's font describes the block.
	font := FontInfo{
		Name:  b.Runs[0].FontName,
		Size:  b.Runs[0].FontSize,
		Flags: b.Runs[0].FontFlags,
	}
	if font.Size <= 0 {
		return Element{}, false, fmt.Errorf("%w: text block on page %d has no font size", ErrInvalidInput, pageNumber)
	}

	return Element{
		Type:       Classify(raw, font),
		Content:    NormalizeContent(raw),
		PageNumber: pageNumber,
		Position:   b.Rect,
		Font:       font,
	}, true, nil
}

// FromImage builds an image element with a synthetic identifier.
// imageIndex is the 0-based index of the image within its page.
func FromImage(img layout.ImageBox, pageNumber, imageIndex int) Element {
	return Element{
		Type:       TypeImage,
		Content:    fmt.Sprintf("Image_%d_%d", pageNumber, imageIndex),
		PageNumber: pageNumber,
		Position:   img.Rect,
	}
}

// FromTable builds a table element. The cell grid is flattened with
// tabs between cells and newlines between rows; unlike text blocks the
// grid separators are kept verbatim in the stored content.
func FromTable(tbl layout.TableBox, pageNumber int) Element {
	rows := make([]string, len(tbl.Cells))
	for i, row := range tbl.Cells {
		rows[i] = strings.Join(row, "\t")
	}
	return Element{
		Type:       TypeTable,
		Content:    strings.Join(rows, "\n"),
		PageNumber: pageNumber,
		Position:   tbl.Rect,
	}
}

// FromPage converts one page of layout primitives into elements,
// preserving the renderer's emission order: text blocks first, then
// images, then tables. The ordering is not vertical-position order and
// must not be re-sorted.
func FromPage(p layout.Page) ([]Element, error) {
	elements := make([]Element, 0, len(p.Blocks)+len(p.Images)+len(p.Tables))

	for _, b := range p.Blocks {
		elem, ok, err := FromTextBlock(b, p.Number)
		if err != nil {
			return nil, err
		}
		if ok {
			elements = append(elements, elem)
		}
	}
	for i, img := range p.Images {
		elements = append(elements, FromImage(img, p.Number, i))
	}
	for _, tbl := range p.Tables {
		elements = append(elements, FromTable(tbl, p.Number))
	}
	return elements, nil
}
