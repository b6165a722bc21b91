package entity

import (
	"errors"
	"fmt"
)

// ErrInput marks a raw record that cannot be resolved. It is scoped to the
// record: callers log it and continue with the next one.
var ErrInput = errors.New("invalid input record")

// InputError names the record and field that failed validation.
type InputError struct {
	Type   Type
	Source string
	RawKey string
	Field  string
	Reason string
}

func (e *InputError) Error() string {
	subject := string(e.Type)
	if subject == "" {
		subject = "record"
	}
	if e.Source != "" || e.RawKey != "" {
		subject = fmt.Sprintf("%s %s/%s", subject, e.Source, e.RawKey)
	}
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", subject, e.Reason)
	}
	return fmt.Sprintf("%s: %s %s", subject, e.Field, e.Reason)
}

func (e *InputError) Unwrap() error {
	return ErrInput
}
