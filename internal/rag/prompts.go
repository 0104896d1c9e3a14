package rag

import "fmt"

// QAPrompt asks the model to answer a question from retrieved journal context.
func QAPrompt(context, question string) string {
	return fmt.Sprintf(`You are an insightful AI journaling assistant.
Use the provided journal context to help the user reflect on or answer questions about their past experiences.

Context:
"""%s"""

Question:
"""%s"""

Thoughtful Answer:`, context, question)
}

// ReflectionPrompt asks for a short reflection on one entry.
func ReflectionPrompt(entryText string) string {
	return fmt.Sprintf(`You are a reflective journaling assistant.
Read the user's journal entry and respond with a short reflection that helps them process their thoughts.

Journal Entry:
"""
%s
"""

Reflection:`, entryText)
}
