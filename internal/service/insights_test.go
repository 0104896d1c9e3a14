package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"dreamweaver-ai/internal/storage"
)

func entryOn(date, text, tags, mood string) storage.JournalEntry {
	day, _ := storage.ParseDate(date)
	return storage.JournalEntry{Date: day, Text: text, Tags: tags, MoodLabel: mood}
}

func TestComputeInsights_Empty(t *testing.T) {
	got := ComputeInsights(nil)

	assert.Zero(t, got.TotalEntries)
	assert.Zero(t, got.AverageWordCount)
	assert.NotNil(t, got.EntriesPerDay)
	assert.NotNil(t, got.EntriesPerWeek)
	assert.NotNil(t, got.TopTags)
	assert.NotNil(t, got.MoodDistribution)
}

func TestComputeInsights(t *testing.T) {
	entries := []storage.JournalEntry{
		// 2024-12-30 belongs to ISO week 2025-W01.
		entryOn("2024-12-30", "New year plans, finally!", "Goals, Work", "Motivated"),
		entryOn("2024-12-31", "Quiet evening", "work", "calm"),
		entryOn("2024-12-31", "Café trip with Zoë", "Friends", "calm"),
		entryOn("2025-01-06", "Back at it", "", "mystery"),
	}

	got := ComputeInsights(entries)

	assert.Equal(t, 4, got.TotalEntries)
	// 4 + 2 + 4 + 3 words
	assert.Equal(t, 13/4, got.AverageWordCount)
	assert.Equal(t, map[string]int{"2024-12-30": 1, "2024-12-31": 2, "2025-01-06": 1}, got.EntriesPerDay)
	assert.Equal(t, map[string]int{"2025-W01": 3, "2025-W02": 1}, got.EntriesPerWeek)

	assert.Equal(t, []TagCount{
		{Tag: "work", Count: 2},
		{Tag: "goals", Count: 1},
		{Tag: "friends", Count: 1},
	}, got.TopTags)

	assert.Equal(t, []MoodCount{
		{Mood: "calm", Count: 2, Color: "#A0E7E5"},
		{Mood: "motivated", Count: 1, Color: "#00CED1"},
		{Mood: "mystery", Count: 1, Color: DefaultMoodColor},
	}, got.MoodDistribution)
}

func TestComputeInsights_TopTagLimit(t *testing.T) {
	var entries []storage.JournalEntry
	for i := 0; i < TopTagLimit+3; i++ {
		entries = append(entries, storage.JournalEntry{
			Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			Text: "x",
			Tags: string(rune('a' + i)),
		})
	}

	got := ComputeInsights(entries)
	assert.Len(t, got.TopTags, TopTagLimit)
	assert.Equal(t, "a", got.TopTags[0].Tag)
}

func TestMostCommon(t *testing.T) {
	order, counts := mostCommon([]string{"b", "a", "b", "c", "a", "b"})
	assert.Equal(t, []string{"b", "a", "c"}, order)
	assert.Equal(t, 3, counts["b"])
}
