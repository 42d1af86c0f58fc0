package render

import (
	"strings"
	"testing"
)

func TestPager_SinglePage(t *testing.T) {
	pg := newPager()
	pg.addBlock("hello", bodyFontName, bodyFontSize, 0)
	pages := pg.finish()
	if len(pages) != 1 {
		t.Fatalf("got %d pages", len(pages))
	}
	if pages[0].Number != 1 {
		t.Errorf("page number = %d", pages[0].Number)
	}
	b := pages[0].Blocks[0]
	if b.Rect.X0 != pageMargin || b.Rect.X1 != pageWidth-pageMargin {
		t.Errorf("block rect = %+v", b.Rect)
	}
	if b.Rect.Y1 != pageHeight-pageMargin {
		t.Errorf("first block should start at the top margin: %+v", b.Rect)
	}
}

func TestPager_BreaksWhenFull(t *testing.T) {
	pg := newPager()
	// Each block is ~15pt tall plus the gap; enough of them overflow the
	// 648pt writable height.
	for range 60 {
		pg.addBlock("line", bodyFontName, bodyFontSize, 0)
	}
	pages := pg.finish()
	if len(pages) < 2 {
		t.Fatalf("expected a page break, got %d pages", len(pages))
	}
	for i, p := range pages {
		if p.Number != i+1 {
			t.Errorf("page %d numbered %d", i, p.Number)
		}
	}
	// Blocks descend within each page.
	for _, p := range pages {
		for i := 1; i < len(p.Blocks); i++ {
			if p.Blocks[i].Rect.Y1 >= p.Blocks[i-1].Rect.Y1 {
				t.Fatalf("page %d: block %d does not descend", p.Number, i)
			}
		}
	}
}

func TestPager_LongTextWrapsTall(t *testing.T) {
	pg := newPager()
	long := strings.Repeat("word ", 200)
	pg.addBlock(long, bodyFontName, bodyFontSize, 0)
	pg.addBlock("short", bodyFontName, bodyFontSize, 0)
	pages := pg.finish()
	first := pages[0].Blocks[0].Rect
	if first.Y1-first.Y0 <= bodyFontSize*1.4 {
		t.Errorf("long text should occupy more than one line height: %+v", first)
	}
}

func TestPager_EmptyStillOnePage(t *testing.T) {
	pages := newPager().finish()
	if len(pages) != 1 {
		t.Fatalf("got %d pages, want 1", len(pages))
	}
	if len(pages[0].Blocks) != 0 {
		t.Errorf("empty page should have no blocks")
	}
}

func TestHeadingFontLadder(t *testing.T) {
	cases := []struct {
		level int
		size  float64
	}{
		{1, 20}, {2, 16}, {3, 14}, {4, 12}, {5, 12}, {6, 12},
	}
	for _, c := range cases {
		size, flags := headingFont(c.level)
		if size != c.size {
			t.Errorf("level %d: size = %v, want %v", c.level, size, c.size)
		}
		if flags&16 == 0 {
			t.Errorf("level %d: missing bold flag", c.level)
		}
	}
}
