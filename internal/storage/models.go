package storage

import (
	"strings"
	"time"
)

// DateLayout is the canonical calendar-date format used in the table and in vector payloads.
const DateLayout = "2006-01-02"

// SourceType records where an entry's text came from.
type SourceType string

const (
	SourceText  SourceType = "text"
	SourceAudio SourceType = "audio"
	SourceImage SourceType = "image"
)

// Valid reports whether s is one of the known source types.
func (s SourceType) Valid() bool {
	switch s {
	case SourceText, SourceAudio, SourceImage:
		return true
	}
	return false
}

// JournalEntry is one journaled unit of text attributed to a calendar date.
// It is the authoritative record; the vector index is derived from it.
type JournalEntry struct {
	ID         int64      // Assigned by the store on insert
	Date       time.Time  // Calendar date (UTC midnight)
	Text       string     // Cleaned entry body, never empty
	SourceType SourceType // text, audio or image
	Tags       string     // Comma-separated, may be empty
	MoodLabel  string     // Single lowercase word, may be empty
}

// DateString returns the entry date formatted as YYYY-MM-DD.
func (e JournalEntry) DateString() string {
	return e.Date.Format(DateLayout)
}

// TagList splits the stored tag string into trimmed, non-empty tags.
func (e JournalEntry) TagList() []string {
	if strings.TrimSpace(e.Tags) == "" {
		return nil
	}
	parts := strings.Split(e.Tags, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// HasTag reports whether the entry carries tag, compared case-insensitively.
func (e JournalEntry) HasTag(tag string) bool {
	want := strings.ToLower(strings.TrimSpace(tag))
	if want == "" {
		return false
	}
	for _, t := range e.TagList() {
		if strings.ToLower(t) == want {
			return true
		}
	}
	return false
}

// ParseDate parses a YYYY-MM-DD string into a UTC calendar date.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.UTC)
}

// TruncateDate drops the time-of-day component, keeping the calendar day of t.
func TruncateDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
