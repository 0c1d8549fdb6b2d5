package flashcard

// Card is a single question/answer study card.
type Card struct {
	Question   string  `json:"question"`
	Answer     string  `json:"answer"`
	Topic      *string `json:"topic"`
	Difficulty *string `json:"difficulty"`
}

// Request pairs normalized source text with an optional subject hint.
type Request struct {
	Content string
	Subject string
}

// Subjects are the hints offered to users. General means no hint.
var Subjects = []string{
	"General",
	"Biology",
	"History",
	"Computer Science",
	"Physics",
	"Chemistry",
	"Mathematics",
	"Other",
}

// SubjectHint returns the hint to merge into the prompt, or "" for General.
func SubjectHint(subject string) string {
	if subject == "" || subject == "General" {
		return ""
	}
	return subject
}

func strPtr(s string) *string {
	return &s
}
