package ingest

// Status is the final state of one content unit.
type Status string

const (
	// StatusImported means the entry was stored in both stores.
	StatusImported Status = "imported"
	// StatusDuplicate means an entry with the same text and date already existed.
	StatusDuplicate Status = "duplicate"
	// StatusSkipped means the unit had no usable text.
	StatusSkipped Status = "skipped"
	// StatusFailed means the unit could not be processed. Nothing was stored.
	StatusFailed Status = "failed"
	// StatusDiverged means the relational row exists but its vector was not stored.
	StatusDiverged Status = "diverged"
)

// Outcome reports what happened to one content unit.
type Outcome struct {
	// Index is the unit's position in the file, starting at 0.
	Index int `json:"index"`
	// Status is the final state of the unit.
	Status Status `json:"status"`
	// EntryID is the stored entry, or the existing one for duplicates.
	EntryID int64 `json:"entry_id,omitempty"`
	// Date is the attributed calendar date.
	Date string `json:"date,omitempty"`
	Tags string `json:"tags,omitempty"`
	Mood string `json:"mood,omitempty"`
	// Error describes why a unit was skipped or failed.
	Error string `json:"error,omitempty"`
}

// Report summarizes one import call.
type Report struct {
	File string `json:"file"`
	Kind Kind   `json:"kind"`
	// Online is the connectivity probe result, when a probe is configured.
	Online   *bool     `json:"online,omitempty"`
	Outcomes []Outcome `json:"outcomes"`
}

// Count returns how many units ended with status.
func (r *Report) Count(status Status) int {
	if r == nil {
		return 0
	}
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == status {
			n++
		}
	}
	return n
}

// Imported returns the number of newly stored entries.
func (r *Report) Imported() int {
	return r.Count(StatusImported) + r.Count(StatusDiverged)
}
