package service

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/samber/lo"

	"dreamweaver-ai/internal/storage"
)

// TopTagLimit bounds the tag ranking in Insights.
const TopTagLimit = 10

// DefaultMoodColor is used for moods without an entry in MoodColors.
const DefaultMoodColor = "#CCCCCC"

// MoodColors maps mood labels to display colours.
var MoodColors = map[string]string{
	"joy":        "#FFE066",
	"happy":      "#FFD700",
	"excited":    "#FFA500",
	"calm":       "#A0E7E5",
	"reflective": "#B0C4DE",
	"anxious":    "#FF6F61",
	"sad":        "#778899",
	"angry":      "#FF4500",
	"stress":     "#B22222",
	"grateful":   "#98FB98",
	"motivated":  "#00CED1",
}

var wordPattern = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// TagCount is one row of the tag ranking.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// MoodCount is one row of the mood distribution.
type MoodCount struct {
	Mood  string `json:"mood"`
	Count int    `json:"count"`
	Color string `json:"color"`
}

// Insights summarizes the journal.
type Insights struct {
	TotalEntries     int            `json:"total_entries"`
	AverageWordCount int            `json:"average_word_count"`
	EntriesPerDay    map[string]int `json:"entries_per_day"`
	EntriesPerWeek   map[string]int `json:"entries_per_week"` // keyed by ISO week, e.g. 2024-W05
	TopTags          []TagCount     `json:"top_tags"`
	MoodDistribution []MoodCount    `json:"mood_distribution"`
}

// Insights computes analytics over every stored entry.
func (s *EntryService) Insights(ctx context.Context) (Insights, error) {
	entries, err := s.entries.ListAll(ctx)
	if err != nil {
		return Insights{}, WrapError(err, "failed to list entries")
	}
	return ComputeInsights(entries), nil
}

// ComputeInsights aggregates entries. Rankings are ordered by count, ties by
// first appearance.
func ComputeInsights(entries []storage.JournalEntry) Insights {
	insights := Insights{
		TotalEntries:     len(entries),
		EntriesPerDay:    map[string]int{},
		EntriesPerWeek:   map[string]int{},
		TopTags:          []TagCount{},
		MoodDistribution: []MoodCount{},
	}
	if len(entries) == 0 {
		return insights
	}

	var tags, moods []string
	totalWords := 0
	for _, entry := range entries {
		insights.EntriesPerDay[entry.DateString()]++
		year, week := entry.Date.ISOWeek()
		insights.EntriesPerWeek[fmt.Sprintf("%d-W%02d", year, week)]++

		totalWords += len(wordPattern.FindAllString(entry.Text, -1))

		for _, tag := range entry.TagList() {
			tags = append(tags, strings.ToLower(tag))
		}
		if mood := strings.ToLower(strings.TrimSpace(entry.MoodLabel)); mood != "" {
			moods = append(moods, mood)
		}
	}
	insights.AverageWordCount = totalWords / len(entries)

	tagOrder, tagCounts := mostCommon(tags)
	for _, tag := range lo.Subset(tagOrder, 0, TopTagLimit) {
		insights.TopTags = append(insights.TopTags, TagCount{Tag: tag, Count: tagCounts[tag]})
	}
	moodOrder, moodCounts := mostCommon(moods)
	for _, mood := range moodOrder {
		insights.MoodDistribution = append(insights.MoodDistribution, MoodCount{
			Mood:  mood,
			Count: moodCounts[mood],
			Color: lo.ValueOr(MoodColors, mood, DefaultMoodColor),
		})
	}
	return insights
}

// mostCommon returns the distinct values of items ordered by frequency, ties by
// first appearance, along with their counts.
func mostCommon(items []string) ([]string, map[string]int) {
	counts := lo.CountValues(items)
	order := lo.Uniq(items)
	slices.SortStableFunc(order, func(a, b string) int {
		return counts[b] - counts[a]
	})
	return order, counts
}
