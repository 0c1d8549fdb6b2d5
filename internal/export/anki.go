package export

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"flashgen/internal/anki"
	"flashgen/internal/flashcard"
	"fmt"
	"github.com/google/uuid"
	"strings"
)

const noteModelName = "flashgen Basic"

// ToAnkiCloze renders one "{{c1::question}}:: answer" line per card.
func ToAnkiCloze(cards []flashcard.Card) string {
	var b strings.Builder
	for _, card := range cards {
		fmt.Fprintf(&b, "{{c1::%s}}:: %s\n", card.Question, card.Answer)
	}
	return b.String()
}

// DeckName names the deck for cards generated under subject.
func DeckName(subject string) string {
	if hint := flashcard.SubjectHint(subject); hint != "" {
		return "Flashcards - " + hint
	}
	return "Flashcards"
}

// ToCrowdAnki returns a zip archive importable with the CrowdAnki add-on.
// Identifiers derive from the deck name and card text, so the same input
// always produces the same archive contents.
func ToCrowdAnki(cards []flashcard.Card, deckName string) ([]byte, error) {
	if deckName == "" {
		deckName = DeckName("")
	}

	deck := BuildDeck(cards, deckName)

	var buf bytes.Buffer
	if err := anki.WriteDeck(&buf, deckDir(deckName), deck); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// BuildDeck maps cards onto a CrowdAnki deck with a Question/Answer/Topic
// note model. The topic also becomes a tag.
func BuildDeck(cards []flashcard.Card, deckName string) *anki.Export {
	deckUUID := uuid.NewSHA1(uuid.NameSpaceURL, []byte("flashgen:deck:"+deckName)).String()
	modelUUID := uuid.NewSHA1(uuid.NameSpaceURL, []byte("flashgen:model:"+noteModelName)).String()

	model := anki.Model{
		Type: anki.TypeNoteModel,
		UUID: modelUUID,
		Name: noteModelName,
		CSS:  ".card { font-family: arial; font-size: 20px; text-align: center; }",
		Fields: []anki.Field{
			{Name: "Question", Ord: 0},
			{Name: "Answer", Ord: 1},
			{Name: "Topic", Ord: 2},
		},
		Templates: []anki.Template{{
			Name: "Card 1",
			Ord:  0,
			QFmt: "{{Question}}",
			AFmt: "{{FrontSide}}<hr id=answer>{{Answer}}",
		}},
	}

	notes := make([]anki.Note, 0, len(cards))
	for _, card := range cards {
		tags := []string{}
		if card.Topic != nil {
			tags = append(tags, topicTag(*card.Topic))
		}

		notes = append(notes, anki.Note{
			Type:      anki.TypeNote,
			Fields:    []string{card.Question, card.Answer, deref(card.Topic)},
			GUID:      noteGUID(card),
			ModelUUID: modelUUID,
			Tags:      tags,
		})
	}

	return &anki.Export{
		Type:        anki.TypeDeck,
		UUID:        deckUUID,
		Name:        deckName,
		Description: "Generated by flashgen",
		MediaFiles:  []string{},
		Notes:       notes,
		NoteModels:  []anki.Model{model},
		Children:    []anki.Export{},
	}
}

func noteGUID(card flashcard.Card) string {
	sum := sha1.Sum([]byte(card.Question + "\x00" + card.Answer))
	return hex.EncodeToString(sum[:8])
}

// Anki tags cannot contain spaces.
func topicTag(topic string) string {
	return strings.Join(strings.Fields(topic), "_")
}

func deckDir(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':':
			return '_'
		}
		return r
	}, name)
}
