package ingest

import (
	"strings"

	"github.com/ghostlib/ghost/internal/textproc"
)

// DefaultMaxChunkChars bounds chunk size in characters.
const DefaultMaxChunkChars = 2000

// Chunk is one embeddable unit of a document.
type Chunk struct {
	Section string
	Text    string
	Index   int // position within the document
}

// SplitSections breaks section contents into chunks no larger than maxChars,
// preferring paragraph boundaries. Oversized single paragraphs are split on
// word boundaries. Chunk indexes run across the whole document.
func SplitSections(sections []textproc.Section, maxChars int) []Chunk {
	if maxChars <= 0 {
		maxChars = DefaultMaxChunkChars
	}

	chunks := make([]Chunk, 0, len(sections))
	index := 0
	for _, section := range sections {
		for _, text := range splitContent(section.Content, maxChars) {
			chunks = append(chunks, Chunk{
				Section: section.Heading,
				Text:    text,
				Index:   index,
			})
			index++
		}
	}
	return chunks
}

// splitContent packs paragraphs greedily up to maxChars per chunk.
func splitContent(content string, maxChars int) []string {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}
	if len(content) <= maxChars {
		return []string{content}
	}

	paragraphs := strings.Split(content, "\n\n")
	var chunks []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, strings.TrimSpace(current.String()))
			current.Reset()
		}
	}

	for _, para := range paragraphs {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		if len(para) > maxChars {
			flush()
			chunks = append(chunks, splitWords(para, maxChars)...)
			continue
		}

		if current.Len() > 0 && current.Len()+len(para)+2 > maxChars {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
	}
	flush()

	return chunks
}

// splitWords breaks a single oversized paragraph on word boundaries. A word
// longer than maxChars becomes its own chunk rather than being cut.
func splitWords(text string, maxChars int) []string {
	words := strings.Fields(text)
	var chunks []string
	var current strings.Builder

	for _, word := range words {
		if current.Len() > 0 && current.Len()+len(word)+1 > maxChars {
			chunks = append(chunks, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}
