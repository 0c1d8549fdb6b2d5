package flashcard

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const fence = "```"

// SkippedItem describes a reply element that did not become a Card.
type SkippedItem struct {
	Index  int
	Reason string
	Raw    string
}

// rawCard leaves the optional fields undecoded; see optionalField.
type rawCard struct {
	Question   *string         `json:"question"`
	Answer     *string         `json:"answer"`
	Topic      json.RawMessage `json:"topic"`
	Difficulty json.RawMessage `json:"difficulty"`
}

// StripFence removes a markdown code fence (optionally tagged, e.g. ```json)
// around the reply. Text without a leading fence is returned trimmed.
func StripFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, fence) {
		return text
	}

	body := text[len(fence):]
	if nl := strings.IndexByte(body, '\n'); nl != -1 {
		body = body[nl+1:]
	} else {
		// single line: ```json [...]```
		body = strings.TrimLeft(body, "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ")
	}

	if end := strings.LastIndex(body, fence); end != -1 {
		body = body[:end]
	}

	return strings.TrimSpace(body)
}

// ParseCards turns a backend reply into cards. The reply may be fenced and may
// be a bare array or an object holding the array under "flashcards".
// Elements without a non-empty question and answer are skipped and reported.
func ParseCards(reply string) ([]Card, []SkippedItem, error) {
	items, err := cardItems(StripFence(reply))
	if err != nil {
		return nil, nil, err
	}

	cards := make([]Card, 0, len(items))
	var skipped []SkippedItem

	for i, item := range items {
		var rc rawCard
		if err := json.Unmarshal(item, &rc); err != nil {
			skipped = append(skipped, SkippedItem{Index: i, Reason: "not a card object", Raw: string(item)})
			continue
		}

		card, ok := rc.toCard()
		if !ok {
			skipped = append(skipped, SkippedItem{Index: i, Reason: "missing question or answer", Raw: string(item)})
			continue
		}

		cards = append(cards, card)
	}

	return cards, skipped, nil
}

func cardItems(text string) ([]json.RawMessage, error) {
	data := []byte(text)
	if !json.Valid(data) {
		return nil, fmt.Errorf("%w: reply is not valid JSON", ErrInvalidResponse)
	}

	switch trimmed := bytes.TrimSpace(data); {
	case len(trimmed) > 0 && trimmed[0] == '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
		}
		return items, nil

	case len(trimmed) > 0 && trimmed[0] == '{':
		var wrapper map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &wrapper); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
		}

		inner, ok := wrapper["flashcards"]
		if !ok {
			return nil, fmt.Errorf("%w: object has no flashcards key", ErrInvalidResponse)
		}

		var items []json.RawMessage
		if err := json.Unmarshal(inner, &items); err != nil {
			return nil, fmt.Errorf("%w: flashcards is not an array", ErrInvalidResponse)
		}
		return items, nil

	default:
		return nil, fmt.Errorf("%w: expected a JSON array or object", ErrInvalidResponse)
	}
}

func (rc rawCard) toCard() (Card, bool) {
	if rc.Question == nil || rc.Answer == nil {
		return Card{}, false
	}

	question := strings.TrimSpace(*rc.Question)
	answer := strings.TrimSpace(*rc.Answer)
	if question == "" || answer == "" {
		return Card{}, false
	}

	return Card{
		Question:   question,
		Answer:     answer,
		Topic:      optionalField(rc.Topic),
		Difficulty: optionalField(rc.Difficulty),
	}, true
}

// optionalField keeps strings, renders numbers and booleans as text and maps
// null, blanks, arrays and objects to nil.
func optionalField(raw json.RawMessage) *string {
	var v any
	if len(raw) == 0 || json.Unmarshal(raw, &v) != nil {
		return nil
	}

	var text string
	switch v := v.(type) {
	case string:
		text = strings.TrimSpace(v)
	case float64:
		text = strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		text = strconv.FormatBool(v)
	}

	if text == "" {
		return nil
	}
	return strPtr(text)
}
