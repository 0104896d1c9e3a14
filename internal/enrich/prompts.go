package enrich

import (
	"fmt"
	"strings"
)

// TaggingPrompt asks for a short comma-separated tag list.
func TaggingPrompt(text string) string {
	return fmt.Sprintf(`You are a tagging assistant for journal entries.
Read the entry and generate 3 to 7 relevant, comma-separated tags (single-word if possible).
Reply with the tags only.

Journal Entry:
"""%s"""

Tags:`, text)
}

// MoodPrompt asks for a one-word emotional tone drawn from Vocabulary.
func MoodPrompt(text string) string {
	return fmt.Sprintf(`Based on the journal entry below, label the overall emotional tone using one word.
Choose only from these: %s

Entry:
"""%s"""

Mood:`, strings.Join(Vocabulary, ", "), text)
}
