package ingest

import (
	"strings"
	"unicode/utf8"
)

// EstimateTokens approximates the token cost of one word as a quarter of its length plus one.
func EstimateTokens(word string) int {
	return utf8.RuneCountInString(word)/4 + 1
}

// Split groups the whitespace-separated words of text into chunks whose estimated token
// count stays within maxTokens. Words are never split or dropped, so a single oversized word
// becomes a chunk of its own. A maxTokens below 1 is treated as 1.
func Split(text string, maxTokens int) []string {
	if maxTokens < 1 {
		maxTokens = 1
	}

	var (
		chunks  []string
		current []string
		size    int
	)
	for _, word := range strings.Fields(text) {
		cost := EstimateTokens(word)
		if len(current) > 0 && size+cost > maxTokens {
			chunks = append(chunks, strings.Join(current, " "))
			current = current[:0]
			size = 0
		}
		current = append(current, word)
		size += cost
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}
	return chunks
}
