// Package stats derives document-level structural statistics from a
// classified element stream.
package stats

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/docstruct/internal/element"
)

// ErrInvalidInput reports an aggregation input that makes the averages
// undefined, e.g. a page count below 1.
var ErrInvalidInput = errors.New("stats: invalid input")

// DocumentStatistics is the fixed set of structural metrics computed
// once per document. Never mutated after creation.
//
// Subtitle and list_item elements have no dedicated count field; only
// the four types below are tallied.
type DocumentStatistics struct {
	TitleCount   int `json:"title_count"`
	SectionCount int `json:"section_count"`
	TableCount   int `json:"table_count"`
	ImageCount   int `json:"image_count"`

	AvgTextDensityPerPage float64 `json:"avg_text_density_per_page"`
	AvgHierarchicalDepth  float64 `json:"avg_hierarchical_depth"`
	AvgParagraphLength    float64 `json:"avg_paragraph_length"`

	// SectionDistribution maps page number to the count of section
	// elements on that page. Sparse: pages without sections are absent.
	// encoding/json writes the int keys as a string-keyed object and
	// recovers them on decode.
	SectionDistribution map[int]int `json:"section_distribution"`
}

// Aggregate computes statistics over the full ordered element list of a
// document. It is a pure function of its inputs: the same arguments
// always produce identical results. pageCount must be at least 1; an
// empty element list is valid and degrades all metrics to zero.
func Aggregate(pageCount int, elements []element.Element) (DocumentStatistics, error) {
	if pageCount < 1 {
		return DocumentStatistics{}, fmt.Errorf("%w: page count %d, must be at least 1", ErrInvalidInput, pageCount)
	}

	st := DocumentStatistics{
		SectionDistribution: make(map[int]int),
	}

	charsPerPage := make(map[int]int)
	hierPerPage := make(map[int]int)
	paragraphWords := 0
	paragraphCount := 0

	for _, e := range elements {
		switch e.Type {
		case element.TypeTitle:
			st.TitleCount++
		case element.TypeSection:
			st.SectionCount++
			st.SectionDistribution[e.PageNumber]++
		case element.TypeTable:
			st.TableCount++
		case element.TypeImage:
			st.ImageCount++
		case element.TypeParagraph:
			paragraphWords += wordCount(e.Content)
			paragraphCount++
		}

		charsPerPage[e.PageNumber] += utf8.RuneCountInString(e.Content)
		if e.Type.Hierarchical() {
			hierPerPage[e.PageNumber]++
		}
	}

	// Density averages over every page 1..pageCount; pages with no
	// elements contribute zero length.
	totalChars := 0
	for _, n := range charsPerPage {
		totalChars += n
	}
	st.AvgTextDensityPerPage = round2(float64(totalChars) / float64(pageCount))

	// Hierarchical depth averages only over pages that have at least
	// one hierarchical element; pages without any are excluded from the
	// denominator, not treated as zero.
	if len(hierPerPage) > 0 {
		totalHier := 0
		for _, n := range hierPerPage {
			totalHier += n
		}
		st.AvgHierarchicalDepth = round2(float64(totalHier) / float64(len(hierPerPage)))
	}

	if paragraphCount > 0 {
		st.AvgParagraphLength = round2(float64(paragraphWords) / float64(paragraphCount))
	}

	return st, nil
}

// round2 rounds half away from zero at 2 decimal places. Applied
// uniformly to every derived average.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}
