package rag

// Filters narrows retrieval to entries whose payload matches exactly.
type Filters struct {
	// Date is a YYYY-MM-DD calendar date.
	Date string `json:"date,omitempty"`
	// Mood is a mood label such as "calm".
	Mood string `json:"mood,omitempty"`
	// Source is text, audio or image.
	Source string `json:"source,omitempty"`
}

// AskRequest represents a question over the journal.
type AskRequest struct {
	// Question is the user's question to answer.
	Question string `json:"question"`
	// K is the number of entries to retrieve. Zero uses DefaultK; values above MaxK are clamped.
	K int `json:"k,omitempty"`
	// Filters restricts the search to matching entries.
	Filters Filters `json:"filters,omitempty"`
}

// Reference is an entry used as context for an answer.
type Reference struct {
	EntryID int64   `json:"entry_id,omitempty"`
	Date    string  `json:"date"`
	Mood    string  `json:"mood,omitempty"`
	Tags    string  `json:"tags,omitempty"`
	Score   float32 `json:"score"`
}

// AskResponse represents the answer to a question.
type AskResponse struct {
	// Answer is the generated answer, or NoContextAnswer when nothing matched.
	Answer string `json:"answer"`
	// References are the entries given to the model, best match first.
	References []Reference `json:"references"`
}

// ReflectResponse is a short reflection on one stored entry.
type ReflectResponse struct {
	EntryID    int64  `json:"entry_id"`
	Reflection string `json:"reflection"`
}
