package validators

import "fmt"

// ValidationError describes why one supplied answer was rejected.
type ValidationError struct {
	QuestionID int64
	Reason     string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("question %d: %s", e.QuestionID, e.Reason)
}

func invalid(questionID int64, reason string) error {
	return &ValidationError{QuestionID: questionID, Reason: reason}
}
