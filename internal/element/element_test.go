package element

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/dgallion1/docstruct/internal/layout"
)

func textBlock(text string, size float64, flags int) layout.TextBlock {
	return layout.TextBlock{
		Rect: layout.Rect{X0: 72, Y0: 700, X1: 300, Y1: 712},
		Runs: []layout.TextRun{{Text: text, FontName: "Helvetica", FontSize: size, FontFlags: flags}},
	}
}

func TestNormalizeContent(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"  plain  ", "plain"},
		{"line\none", "line one"},
		{"a\r\nb", "a  b"},
		{"col\tvalue", "col value"},
		{"\n\ttrim me\t\n", "trim me"},
	}
	for _, c := range cases {
		if got := NormalizeContent(c.in); got != c.want {
			t.Errorf("NormalizeContent(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestFromTextBlock(t *testing.T) {
	el, ok, err := FromTextBlock(textBlock("Annual Report", 18, layout.FlagBold), 1)
	if err != nil {
		t.Fatalf("FromTextBlock: %v", err)
	}
	if !ok {
		t.Fatal("expected element for non-empty block")
	}
	if el.Type != TypeTitle {
		t.Errorf("type = %q, want %q", el.Type, TypeTitle)
	}
	if el.Content != "Annual Report" {
		t.Errorf("content = %q", el.Content)
	}
	if el.PageNumber != 1 {
		t.Errorf("page = %d", el.PageNumber)
	}
	if el.Font.Size != 18 || el.Font.Name != "Helvetica" {
		t.Errorf("font info not carried: %+v", el.Font)
	}
	if el.Position != (layout.Rect{X0: 72, Y0: 700, X1: 300, Y1: 712}) {
		t.Errorf("position not carried: %+v", el.Position)
	}
}

func TestFromTextBlock_SkipsWhitespaceOnly(t *testing.T) {
	_, ok, err := FromTextBlock(textBlock(" \n\t ", 11, 0), 1)
	if err != nil {
		t.Fatalf("FromTextBlock: %v", err)
	}
	if ok {
		t.Error("whitespace-only block should be skipped, not emitted")
	}
	_, ok, err = FromTextBlock(layout.TextBlock{}, 1)
	if err != nil || ok {
		t.Errorf("empty block: ok=%v err=%v, want skip", ok, err)
	}
}

func TestFromTextBlock_RejectsBadFontSize(t *testing.T) {
	_, _, err := FromTextBlock(textBlock("hello", 0, 0), 1)
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("size 0: err = %v, want ErrInvalidInput", err)
	}
	_, _, err = FromTextBlock(textBlock("hello", -3, 0), 1)
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("negative size: err = %v, want ErrInvalidInput", err)
	}
}

func TestFromTextBlock_FirstRunFontWins(t *testing.T) {
	b := layout.TextBlock{
		Rect: layout.Rect{X0: 72, Y0: 700, X1: 300, Y1: 712},
		Runs: []layout.TextRun{
			{Text: "Bold lead", FontName: "Helvetica-Bold", FontSize: 18, FontFlags: layout.FlagBold},
			{Text: " then small tail", FontName: "Helvetica", FontSize: 9},
		},
	}
	el, ok, err := FromTextBlock(b, 2)
	if err != nil || !ok {
		t.Fatalf("FromTextBlock: ok=%v err=%v", ok, err)
	}
	if el.Type != TypeTitle {
		t.Errorf("type = %q, want title from the leading run", el.Type)
	}
	if el.Content != "Bold lead then small tail" {
		t.Errorf("content = %q", el.Content)
	}
}

func TestFromImage(t *testing.T) {
	img := layout.ImageBox{Rect: layout.Rect{X0: 10, Y0: 10, X1: 200, Y1: 150}}
	el := FromImage(img, 3, 0)
	if el.Type != TypeImage {
		t.Errorf("type = %q", el.Type)
	}
	if el.Content != "Image_3_0" {
		t.Errorf("content = %q, want Image_3_0", el.Content)
	}
	if el.Font != (FontInfo{}) {
		t.Error("image element must not carry font info")
	}
}

func TestFromTable(t *testing.T) {
	tbl := layout.TableBox{Cells: [][]string{{"Name", "Qty"}, {"widget", "3"}}}
	el := FromTable(tbl, 2)
	if el.Type != TypeTable {
		t.Errorf("type = %q", el.Type)
	}
	want := "Name\tQty\nwidget\t3"
	if el.Content != want {
		t.Errorf("content = %q, want %q", el.Content, want)
	}
}

func TestFromPage_Order(t *testing.T) {
	page := layout.Page{
		Number: 1,
		Blocks: []layout.TextBlock{
			textBlock("Title Text", 18, layout.FlagBold),
			textBlock("body paragraph with more than enough words to land well past the twenty word section cutoff so it classifies as a paragraph instead", 11, 0),
		},
		Images: []layout.ImageBox{{}, {}},
		Tables: []layout.TableBox{{Cells: [][]string{{"a"}}}},
	}
	els, err := FromPage(page)
	if err != nil {
		t.Fatalf("FromPage: %v", err)
	}
	wantTypes := []ElementType{TypeTitle, TypeParagraph, TypeImage, TypeImage, TypeTable}
	if len(els) != len(wantTypes) {
		t.Fatalf("got %d elements, want %d", len(els), len(wantTypes))
	}
	for i, want := range wantTypes {
		if els[i].Type != want {
			t.Errorf("element %d: type = %q, want %q", i, els[i].Type, want)
		}
	}
	if els[2].Content != "Image_1_0" || els[3].Content != "Image_1_1" {
		t.Errorf("image naming: %q, %q", els[2].Content, els[3].Content)
	}
}

func TestElementJSONRoundTrip(t *testing.T) {
	el := Element{
		Type:       TypeSection,
		Content:    "Overview",
		PageNumber: 4,
		Position:   layout.Rect{X0: 72, Y0: 640, X1: 240, Y1: 652},
		Font:       FontInfo{Name: "Helvetica", Size: 12},
	}
	data, err := json.Marshal(el)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got Element
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got != el {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, el)
	}
}

func TestElementTypeValid(t *testing.T) {
	for _, typ := range []ElementType{TypeTitle, TypeSubtitle, TypeSection, TypeParagraph, TypeListItem, TypeTable, TypeImage} {
		if !typ.Valid() {
			t.Errorf("%q should be valid", typ)
		}
	}
	if ElementType("heading").Valid() {
		t.Error("unknown type should not be valid")
	}
}

func TestHierarchical(t *testing.T) {
	hier := map[ElementType]bool{
		TypeTitle: true, TypeSubtitle: true, TypeSection: true,
		TypeParagraph: false, TypeListItem: false, TypeTable: false, TypeImage: false,
	}
	for typ, want := range hier {
		if got := typ.Hierarchical(); got != want {
			t.Errorf("%q.Hierarchical() = %v, want %v", typ, got, want)
		}
	}
}
