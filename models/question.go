package models

// QuestionType is the single-letter type code of an attendee question.
type QuestionType string

const (
	QuestionTypeNumber         QuestionType = "N"
	QuestionTypeString         QuestionType = "S"
	QuestionTypeText           QuestionType = "T"
	QuestionTypeBoolean        QuestionType = "B"
	QuestionTypeChoice         QuestionType = "C"
	QuestionTypeMultipleChoice QuestionType = "M"
	QuestionTypeFile           QuestionType = "F"
	QuestionTypeDate           QuestionType = "D"
	QuestionTypeTime           QuestionType = "H"
	QuestionTypeDateTime       QuestionType = "W"
)

// Question is the decoded payload of a "questions" replica record. Items
// lists the server ids of the catalog items the question applies to.
type Question struct {
	ID               int64            `json:"id"`
	Question         I18nString       `json:"question"`
	Type             QuestionType     `json:"type"`
	Required         bool             `json:"required"`
	Identifier       string           `json:"identifier"`
	Position         int64            `json:"position"`
	AskDuringCheckIn bool             `json:"ask_during_checkin"`
	Items            []int64          `json:"items"`
	Options          []QuestionOption `json:"options,omitempty"`
}

// QuestionOption is one selectable option of a choice question.
type QuestionOption struct {
	ID         int64      `json:"id"`
	Identifier string     `json:"identifier"`
	Position   int64      `json:"position"`
	Answer     I18nString `json:"answer"`
}

// AppliesTo reports whether the question is asked for the given item.
func (q Question) AppliesTo(itemID int64) bool {
	for _, id := range q.Items {
		if id == itemID {
			return true
		}
	}
	return false
}

// Answer is one supplied answer to a question, as embedded in order
// positions and in redemption requests.
type Answer struct {
	Question int64   `json:"question"`
	Answer   string  `json:"answer"`
	Options  []int64 `json:"options,omitempty"`
}
