package element

import (
	"regexp"
	"strings"
)

// Leading-token patterns that mark a block as a list item, checked
// against the trimmed text.
var listMarkerPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\s*[•·▪▫‣⁃]\s+`),    // bullet glyphs
	regexp.MustCompile(`^\s*\d+[.)]\s+`),     // numbered lists
	regexp.MustCompile(`^\s*[a-zA-Z][.)]\s+`), // lettered lists
	regexp.MustCompile(`^\s*[-*+]\s+`),       // dash/asterisk lists
}

// Classifier thresholds. Lower bounds are inclusive.
const (
	titleMinSize    = 16
	subtitleMinSize = 14
	sectionMinSize  = 10

	subtitleMaxWords = 10
	sectionMaxWords  = 20
)

// Classify maps a text block to a semantic element type based on its
// content and font attributes. It is a total function: every input maps
// to exactly one type. Rules are checked in strict precedence order and
// list-marker patterns win over all font-based rules.
func Classify(text string, font FontInfo) ElementType {
	trimmed := strings.TrimSpace(text)
	wordCount := len(strings.Fields(trimmed))
	bold := font.Flags&FlagBold != 0

	for _, re := range listMarkerPatterns {
		if re.MatchString(trimmed) {
			return TypeListItem
		}
	}

	switch {
	case font.Size >= titleMinSize && bold:
		return TypeTitle
	case font.Size >= subtitleMinSize && (bold || wordCount <= subtitleMaxWords):
		return TypeSubtitle
	case font.Size >= sectionMinSize && wordCount <= sectionMaxWords:
		return TypeSection
	default:
		return TypeParagraph
	}
}
