package ingest

import (
	"github.com/google/uuid"

	"dreamweaver-ai/internal/storage"
	"dreamweaver-ai/internal/vectorstore"
)

// Payload keys stored alongside each vector.
const (
	PayloadDate    = "date"
	PayloadTags    = "tags"
	PayloadMood    = "mood"
	PayloadText    = "text"
	PayloadSource  = "source"
	PayloadEntryID = "entry_id"
)

// BuildPoint pairs a stored entry with its embedding under a fresh identifier.
// The payload mirrors the relational row so search results can be shown without a lookup.
func BuildPoint(entry *storage.JournalEntry, vector []float32) vectorstore.Point {
	return vectorstore.Point{
		ID:  uuid.New().String(),
		Vec: vector,
		Meta: map[string]any{
			PayloadDate:    entry.DateString(),
			PayloadTags:    entry.Tags,
			PayloadMood:    entry.MoodLabel,
			PayloadText:    entry.Text,
			PayloadSource:  string(entry.SourceType),
			PayloadEntryID: entry.ID,
		},
	}
}
