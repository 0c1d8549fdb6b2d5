package anki

// Export is the deck.json document of a CrowdAnki export
type Export struct {
	Type           string   `json:"__type__"`
	UUID           string   `json:"crowdanki_uuid"`
	Name           string   `json:"name"`
	Description    string   `json:"desc"`
	DeckConfigUUID string   `json:"deck_config_uuid,omitempty"`
	MediaFiles     []string `json:"media_files"`
	Notes          []Note   `json:"notes"`
	NoteModels     []Model  `json:"note_models"`
	Children       []Export `json:"children"`
}

// Note is a single note; Fields follow the order of its model's fields
type Note struct {
	Type      string   `json:"__type__"`
	Fields    []string `json:"fields"`
	GUID      string   `json:"guid"`
	ModelUUID string   `json:"note_model_uuid"`
	Tags      []string `json:"tags"`
}

// Model is a note type
type Model struct {
	Type      string     `json:"__type__"`
	UUID      string     `json:"crowdanki_uuid"`
	Name      string     `json:"name"`
	CSS       string     `json:"css,omitempty"`
	Fields    []Field    `json:"flds"`
	Templates []Template `json:"tmpls"`
	Kind      int        `json:"type"`
}

type Field struct {
	Name string `json:"name"`
	Ord  int    `json:"ord"`
}

// Template renders one card from a note
type Template struct {
	Name string `json:"name"`
	Ord  int    `json:"ord"`
	QFmt string `json:"qfmt"`
	AFmt string `json:"afmt"`
}

const (
	TypeDeck      = "Deck"
	TypeNote      = "Note"
	TypeNoteModel = "NoteModel"
)
