package signup

import (
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// ErrConflict is returned when the email is already on the list.
// Repo implementations wrap it.
var ErrConflict = errors.New("email already registered")

// InputError reports invalid submission fields.
type InputError struct {
	Err error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid signup: %v", e.Err)
}

func (e *InputError) Unwrap() error { return e.Err }

// Fields returns a field-name to message map suitable for a form.
func (e *InputError) Fields() map[string]string {
	out := make(map[string]string)
	var verrs validation.Errors
	if errors.As(e.Err, &verrs) {
		for k, v := range verrs {
			out[k] = v.Error()
		}
		return out
	}
	out["_"] = e.Err.Error()
	return out
}

// PersistenceError wraps any storage failure other than a conflict.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("signup %s failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// UserMessage maps a Submit error to the text shown to the person signing up.
func UserMessage(err error) string {
	var inErr *InputError
	switch {
	case err == nil:
		return "You're on the list"
	case errors.As(err, &inErr):
		return "Please check the highlighted fields"
	case errors.Is(err, ErrConflict):
		return "This email is already on the list"
	default:
		return "Something went wrong, please try again later"
	}
}
