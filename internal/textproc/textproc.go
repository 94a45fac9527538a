package textproc

import (
	"math"
	"regexp"
	"strings"
	"unicode"
)

// TokensPerWord is the heuristic ratio between whitespace-delimited words
// and model tokens. Every token figure reported or budgeted by the pipeline
// uses this estimate, not a real tokenizer.
const TokensPerWord = 1.3

var (
	controlChars   = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F\x7F]`)
	horizontalRuns = regexp.MustCompile(`[ \t]+`)
	spaceRuns      = regexp.MustCompile(`  +`)
	atxHeading     = regexp.MustCompile(`(?m)^(#{1,6})\s+(.+)$`)

	fillerPatterns = compileFillerPatterns()
)

func compileFillerPatterns() []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, len(fillerPhrases))
	for i, phrase := range fillerPhrases {
		patterns[i] = regexp.MustCompile(`(?i)` + regexp.QuoteMeta(phrase))
	}
	return patterns
}

// Normalize collapses horizontal whitespace, strips control characters and
// trims every line.
func Normalize(text string) string {
	cleaned := controlChars.ReplaceAllString(text, "")
	collapsed := horizontalRuns.ReplaceAllString(cleaned, " ")

	lines := strings.Split(collapsed, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// Section is a markdown heading with the content that follows it.
type Section struct {
	Heading string
	Content string
}

// ExtractMarkdownSections splits text on ATX headings. Text before the first
// heading is discarded; text without any heading becomes a single
// "(no heading)" section.
func ExtractMarkdownSections(text string) []Section {
	matches := atxHeading.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			return nil
		}
		return []Section{{Heading: "(no heading)", Content: trimmed}}
	}

	sections := make([]Section, 0, len(matches))
	for i, m := range matches {
		heading := text[m[4]:m[5]]
		start := m[1]
		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		sections = append(sections, Section{
			Heading: heading,
			Content: strings.TrimSpace(text[start:end]),
		})
	}
	return sections
}

// RemoveFillerPhrases deletes all case-insensitive occurrences of the filler
// catalog and collapses the double spaces left behind.
func RemoveFillerPhrases(text string) string {
	result := text
	for _, pattern := range fillerPatterns {
		result = pattern.ReplaceAllString(result, "")
	}
	return strings.TrimSpace(spaceRuns.ReplaceAllString(result, " "))
}

// RemoveStopwords drops catalog stopwords from text while always keeping
// negation tokens. Surviving tokens are rejoined with single spaces.
func RemoveStopwords(text string) string {
	fields := strings.Fields(text)
	kept := fields[:0]
	for _, word := range fields {
		clean := NormalizeToken(word)
		if _, isNegation := negationSet[clean]; isNegation {
			kept = append(kept, word)
			continue
		}
		if _, isStopword := stopwordSet[clean]; !isStopword {
			kept = append(kept, word)
		}
	}
	return strings.Join(kept, " ")
}

// NormalizeToken lowercases a word and trims leading/trailing runes that are
// neither alphanumeric nor an apostrophe. Used for catalog lookups and for
// keyword-score term matching.
func NormalizeToken(word string) string {
	lower := strings.ToLower(word)
	return strings.TrimFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}

// TrimNonAlnum trims leading/trailing runes that are not alphanumeric.
// Unlike NormalizeToken it does not preserve apostrophes and does not
// lowercase.
func TrimNonAlnum(word string) string {
	return strings.TrimFunc(word, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Compress applies both lossy passes: filler phrases first, stopwords second.
func Compress(text string) string {
	return RemoveStopwords(RemoveFillerPhrases(text))
}

// EstimateTokens returns ceil(word_count * 1.3).
func EstimateTokens(text string) int {
	words := len(strings.Fields(text))
	return int(math.Ceil(float64(words) * TokensPerWord))
}

// CompressionRatio returns 1 - distilled/original in token estimates, or 0
// when the original estimate is zero. Negative values are possible and valid.
func CompressionRatio(original, compressed string) float64 {
	orig := EstimateTokens(original)
	if orig == 0 {
		return 0
	}
	comp := EstimateTokens(compressed)
	return 1.0 - float64(comp)/float64(orig)
}
