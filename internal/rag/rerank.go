package rag

import (
	"sort"
	"strings"
	"unicode"
)

const (
	lexicalLengthScale = float32(10.0)
	maxLexicalScore    = float32(0.4)
	tagMatchBonus      = float32(0.1)
)

var lexicalStopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {}, "but": {}, "by": {},
	"for": {}, "from": {}, "has": {}, "have": {}, "in": {}, "is": {}, "it": {}, "of": {}, "on": {},
	"or": {}, "the": {}, "to": {}, "was": {}, "were": {}, "with": {},
}

// hit is one retrieved entry with its vector and blended scores.
type hit struct {
	text        string
	tags        string
	ref         Reference
	vectorScore float32
	finalScore  float32
}

// rerank blends each hit's vector score with its lexical overlap with the question and
// orders the hits best first. Ties keep the vector store's order.
func rerank(question string, hits []hit) {
	for i := range hits {
		hits[i].finalScore = hits[i].vectorScore + lexicalScore(question, hits[i].text, hits[i].tags)
		hits[i].ref.Score = hits[i].finalScore
	}
	sort.SliceStable(hits, func(a, b int) bool {
		return hits[a].finalScore > hits[b].finalScore
	})
}

// lexicalScore computes a lightweight lexical relevance score for an entry relative to a query.
// Query words that appear among the entry's tags add a fixed bonus.
// The score is normalized to remain in a predictable range so it can be blended with vector scores.
func lexicalScore(query, entryText, tags string) float32 {
	queryTokens := filterStopwords(tokenize(query))
	if len(queryTokens) == 0 {
		return 0
	}

	var score float32
	if entryTokens := tokenize(entryText); len(entryTokens) > 0 {
		entryFreq := make(map[string]int, len(entryTokens))
		for _, token := range entryTokens {
			entryFreq[token]++
		}

		var rawMatches int
		for _, token := range queryTokens {
			rawMatches += entryFreq[token]
		}
		score = (float32(rawMatches) / (1 + float32(len(entryTokens)))) * lexicalLengthScale
	}

	if tagTokens := tokenize(tags); len(tagTokens) > 0 {
		tagSet := make(map[string]struct{}, len(tagTokens))
		for _, token := range tagTokens {
			tagSet[token] = struct{}{}
		}
		var tagMatches int
		for _, token := range queryTokens {
			if _, ok := tagSet[token]; ok {
				tagMatches++
			}
		}
		score += float32(tagMatches) * tagMatchBonus
	}

	if score > maxLexicalScore {
		return maxLexicalScore
	}
	if score < 0 {
		return 0
	}
	return score
}

func tokenize(text string) []string {
	if text == "" {
		return nil
	}

	var builder strings.Builder
	builder.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			builder.WriteRune(r)
		} else {
			builder.WriteRune(' ')
		}
	}
	clean := builder.String()
	tokens := strings.Fields(clean)
	if len(tokens) == 0 {
		return nil
	}
	return tokens
}

func filterStopwords(tokens []string) []string {
	if len(tokens) == 0 {
		return nil
	}

	result := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if _, isStop := lexicalStopwords[token]; isStop {
			continue
		}
		result = append(result, token)
	}
	if len(result) == 0 {
		return nil
	}
	return result
}
