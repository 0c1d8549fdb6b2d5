package flashcard

import (
	"fmt"
	"strings"
)

const systemInstruction = `You are an expert educational assistant tasked with creating concise question-answer flashcards from the provided educational content.
Generate a minimum of 10-15 flashcards.
For each flashcard, ensure the question is clear and concise, and the answer is factually correct, grounded in the content and self-contained.
If possible, identify a relevant topic or section from the text for each flashcard.
Output the flashcards as a JSON array, where each object has "question" (string), "answer" (string) and "topic" (string, or null if no clear topic is found).
If you must return an object, put the array under a "flashcards" key.
Do not include any other text or explanation outside the JSON.`

// Prompt is what a backend receives for one completion.
type Prompt struct {
	System string
	User   string
	// JSON asks the backend for structured output when it supports it.
	JSON bool
}

// BuildPrompt builds the instruction prompt for a request.
func BuildPrompt(req Request) Prompt {
	var b strings.Builder
	if hint := SubjectHint(strings.TrimSpace(req.Subject)); hint != "" {
		fmt.Fprintf(&b, "Subject: %s\nTailor questions and answers to this domain where appropriate.\n\n", hint)
	}
	b.WriteString("Educational Content:\n\n")
	b.WriteString(req.Content)

	return Prompt{
		System: systemInstruction,
		User:   b.String(),
		JSON:   true,
	}
}
