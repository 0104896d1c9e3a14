package ingest

import "fmt"

// RecordCleanupPrompt asks the model to recover an entry from a JSON element missing its date or text.
func RecordCleanupPrompt(fallbackDate, rawJSON string) string {
	return fmt.Sprintf("Clean this journal entry and add context if needed. Date: %s\n\n%s", fallbackDate, rawJSON)
}

// TextCleanupPrompt asks the model to turn raw text into a readable reflection dated today.
func TextCleanupPrompt(today, raw string) string {
	return fmt.Sprintf("Clean this journal entry and output a readable reflection with date %s:\n\n%s", today, raw)
}
