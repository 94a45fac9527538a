package textproc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	input := "Hello  \x07 World\t\ttab"
	assert.Equal(t, "Hello World tab", Normalize(input))
}

func TestNormalizeTrimsLines(t *testing.T) {
	input := "  first line  \n\t second line \n"
	assert.Equal(t, "first line\nsecond line", Normalize(input))
}

func TestExtractMarkdownSections(t *testing.T) {
	md := "# Title\nSome intro\n## Section A\nContent A\n## Section B\nContent B"
	sections := ExtractMarkdownSections(md)
	require.Len(t, sections, 3)
	assert.Equal(t, "Title", sections[0].Heading)
	assert.Equal(t, "Some intro", sections[0].Content)
	assert.Equal(t, "Section A", sections[1].Heading)
	assert.Equal(t, "Section B", sections[2].Heading)
	assert.Equal(t, "Content B", sections[2].Content)
}

func TestExtractMarkdownSectionsNoHeading(t *testing.T) {
	sections := ExtractMarkdownSections("plain text without headings")
	require.Len(t, sections, 1)
	assert.Equal(t, "(no heading)", sections[0].Heading)
	assert.Equal(t, "plain text without headings", sections[0].Content)
}

func TestExtractMarkdownSectionsEmpty(t *testing.T) {
	assert.Empty(t, ExtractMarkdownSections("   \n  "))
}

func TestRemoveStopwordsPreservesNegation(t *testing.T) {
	result := RemoveStopwords("This is not a good idea")
	assert.Contains(t, result, "not")
	assert.Contains(t, result, "good")
	assert.Contains(t, result, "idea")
	assert.NotContains(t, result, "This")
}

func TestRemoveStopwordsKeepsContractions(t *testing.T) {
	result := RemoveStopwords("You can't always win")
	assert.Contains(t, result, "can't")
	// "always" is not in the stopword catalog
	assert.Contains(t, result, "always")
	assert.NotContains(t, result, "You")
}

func TestRemoveStopwordsAllNegations(t *testing.T) {
	for _, neg := range negations {
		result := RemoveStopwords("prefix " + neg + " suffix")
		assert.Contains(t, strings.Fields(result), neg, "negation %q must survive", neg)
	}
}

func TestRemoveFillerPhrases(t *testing.T) {
	result := RemoveFillerPhrases("It is important to note that the system works well")
	assert.NotContains(t, strings.ToLower(result), "it is important to note that")
	assert.Contains(t, result, "system works well")
}

func TestRemoveFillerPhrasesCaseInsensitive(t *testing.T) {
	result := RemoveFillerPhrases("We do this IN ORDER TO succeed")
	assert.NotContains(t, strings.ToLower(result), "in order to")
	assert.Contains(t, result, "succeed")
}

func TestEstimateTokens(t *testing.T) {
	// 8 words * 1.3 = 10.4 -> ceil 11
	assert.Equal(t, 11, EstimateTokens("This is a test sentence with seven words"))
	assert.Equal(t, 0, EstimateTokens(""))
	assert.Equal(t, 2, EstimateTokens("one"))
}

func TestCompressionRatio(t *testing.T) {
	original := "This is a very important and absolutely critical document"
	compressed := Compress(original)
	ratio := CompressionRatio(original, compressed)
	assert.Greater(t, ratio, 0.0)
	assert.Less(t, ratio, 1.0)
}

func TestCompressionRatioEmptyOriginal(t *testing.T) {
	assert.Equal(t, 0.0, CompressionRatio("", "anything"))
}

func TestCompressPreservesContentWordsVerbatim(t *testing.T) {
	result := Compress("The quantum firmware must never overwrite calibration data")
	fields := strings.Fields(result)
	assert.Contains(t, fields, "quantum")
	assert.Contains(t, fields, "firmware")
	assert.Contains(t, fields, "never")
	assert.Contains(t, fields, "overwrite")
	assert.Contains(t, fields, "calibration")
	assert.Contains(t, fields, "data")
	assert.NotContains(t, fields, "The")
	assert.NotContains(t, fields, "must")
}

func TestNormalizeToken(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Hello,", "hello"},
		{"(world)", "world"},
		{"don't!", "don't"},
		{"--", ""},
		{"C3PO?", "c3po"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeToken(tt.in), "input %q", tt.in)
	}
}
