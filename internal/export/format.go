package export

import (
	"flashgen/internal/flashcard"
	"fmt"
	"strings"
)

type Format string

const (
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
	FormatAnki  Format = "anki"
	FormatCloze Format = "cloze"
)

var Formats = []Format{FormatCSV, FormatJSON, FormatAnki, FormatCloze}

func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatJSON:
		return "application/json; charset=utf-8"
	case FormatAnki:
		return "application/zip"
	default:
		return "text/plain; charset=utf-8"
	}
}

// FileName returns the download name for base, e.g. flashcards.csv.
func (f Format) FileName(base string) string {
	switch f {
	case FormatAnki:
		return base + ".zip"
	case FormatCloze:
		return base + "_cloze.txt"
	default:
		return base + "." + string(f)
	}
}

// Render serializes cards in the given format. deckName is only used by
// FormatAnki.
func Render(f Format, cards []flashcard.Card, deckName string) ([]byte, error) {
	switch f {
	case FormatCSV:
		out, err := ToCSV(cards)
		return []byte(out), err
	case FormatJSON:
		out, err := ToJSON(cards)
		return []byte(out), err
	case FormatAnki:
		return ToCrowdAnki(cards, deckName)
	case FormatCloze:
		return []byte(ToAnkiCloze(cards)), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
}
