package mastery

import (
	"errors"
	"fmt"
)

// ErrEmptySelection is returned when RecordAnswer receives an empty option.
var ErrEmptySelection = errors.New("selected option must not be empty")

// ConfigurationError indicates the catalog cannot back a session.
type ConfigurationError struct {
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid capsule catalog: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid capsule catalog: %s", e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// NotFoundError indicates a capsule or question reference that does not exist.
type NotFoundError struct {
	CapsuleID     string
	QuestionIndex int // -1 when the capsule itself is missing
}

func (e *NotFoundError) Error() string {
	if e.QuestionIndex < 0 {
		return fmt.Sprintf("capsule %q not found", e.CapsuleID)
	}
	return fmt.Sprintf("capsule %q has no question %d", e.CapsuleID, e.QuestionIndex)
}

// MissingAnswerError is returned when an answer is submitted before an
// option was selected.
type MissingAnswerError struct {
	CapsuleID     string
	QuestionIndex int
}

func (e *MissingAnswerError) Error() string {
	return fmt.Sprintf("please select an answer (capsule %q, question %d)", e.CapsuleID, e.QuestionIndex)
}

// UserMessage is the short text shown inline to the learner.
func (e *MissingAnswerError) UserMessage() string {
	return "Please select an answer"
}

// IsNotFound reports whether err is (or wraps) a *NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsMissingAnswer reports whether err is (or wraps) a *MissingAnswerError.
func IsMissingAnswer(err error) bool {
	var ma *MissingAnswerError
	return errors.As(err, &ma)
}
