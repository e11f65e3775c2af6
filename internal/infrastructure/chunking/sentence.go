package chunking

import (
	"strings"
	"unicode"
)

// SentenceChunker splits text at sentence boundaries and greedily packs
// whole sentences into chunks bounded by a whitespace-word budget.
// Sentences are never split mid-way: a single sentence longer than the
// budget is emitted as its own oversized chunk.
type SentenceChunker struct{}

func NewSentenceChunker() *SentenceChunker {
	return &SentenceChunker{}
}

func (c *SentenceChunker) Chunk(text string, maxTokens int) []string {
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return nil
	}
	if maxTokens < 1 {
		maxTokens = 1
	}

	chunks := make([]string, 0, len(sentences))
	current := ""
	for _, sentence := range sentences {
		candidate := sentence
		if current != "" {
			candidate = current + " " + sentence
		}
		if wordCount(candidate) > maxTokens && current != "" {
			chunks = append(chunks, strings.TrimSpace(current))
			current = sentence
			continue
		}
		current = candidate
	}
	if current != "" {
		chunks = append(chunks, strings.TrimSpace(current))
	}
	return chunks
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}

// splitSentences breaks text after runs of terminal punctuation followed
// by whitespace (or end of input). Punctuation stays with its sentence.
func splitSentences(text string) []string {
	rs := []rune(text)
	sentences := make([]string, 0, 8)
	start := 0
	for i := 0; i < len(rs); i++ {
		if !isTerminal(rs[i]) {
			continue
		}
		j := i
		for j+1 < len(rs) && isTerminal(rs[j+1]) {
			j++
		}
		if j+1 >= len(rs) || unicode.IsSpace(rs[j+1]) {
			if s := strings.TrimSpace(string(rs[start : j+1])); s != "" {
				sentences = append(sentences, s)
			}
			start = j + 1
		}
		i = j
	}
	if tail := strings.TrimSpace(string(rs[start:])); tail != "" {
		sentences = append(sentences, tail)
	}
	return sentences
}

func isTerminal(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}
