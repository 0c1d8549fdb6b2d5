// Package export renders flashcards as CSV, JSON and Anki decks.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"flashgen/internal/flashcard"
	"fmt"
	"strings"
)

var ErrUnknownFormat = errors.New("unknown export format")

var csvHeader = []string{"Question", "Answer", "Topic", "Difficulty"}

// ToCSV renders one row per card under a Question,Answer,Topic,Difficulty
// header. Rows end in CRLF and fields are quoted as RFC 4180 requires.
func ToCSV(cards []flashcard.Card) (string, error) {
	var buf bytes.Buffer

	w := csv.NewWriter(&buf)
	w.UseCRLF = true

	if err := w.Write(csvHeader); err != nil {
		return "", fmt.Errorf("error writing csv header: %w", err)
	}

	for _, card := range cards {
		record := []string{card.Question, card.Answer, deref(card.Topic), deref(card.Difficulty)}
		if err := w.Write(record); err != nil {
			return "", fmt.Errorf("error writing csv row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("error flushing csv: %w", err)
	}

	return buf.String(), nil
}

// ToJSON renders cards as an indented JSON array. Absent optional fields are
// written as null and an empty list as [].
func ToJSON(cards []flashcard.Card) (string, error) {
	if cards == nil {
		cards = []flashcard.Card{}
	}

	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(cards); err != nil {
		return "", fmt.Errorf("error encoding cards: %w", err)
	}

	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// ParseJSON reads back the output of ToJSON.
func ParseJSON(data string) ([]flashcard.Card, error) {
	var cards []flashcard.Card
	if err := json.Unmarshal([]byte(data), &cards); err != nil {
		return nil, fmt.Errorf("error decoding cards: %w", err)
	}

	for i, card := range cards {
		if card.Question == "" || card.Answer == "" {
			return nil, fmt.Errorf("card %d is missing question or answer", i)
		}
	}

	if cards == nil {
		cards = []flashcard.Card{}
	}

	return cards, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
