package config

import (
	"errors"
	"fmt"
)

// ErrConfiguration marks invalid configuration detected at startup.
var ErrConfiguration = errors.New("invalid configuration")

// ConfigurationError names the component and field that failed validation.
type ConfigurationError struct {
	Component string
	Field     string
	Reason    string
}

func (e *ConfigurationError) Error() string {
	switch {
	case e.Component != "" && e.Field != "":
		return fmt.Sprintf("%s: %s %s", e.Component, e.Field, e.Reason)
	case e.Component != "":
		return fmt.Sprintf("%s: %s", e.Component, e.Reason)
	case e.Field != "":
		return fmt.Sprintf("%s %s", e.Field, e.Reason)
	default:
		return e.Reason
	}
}

func (e *ConfigurationError) Unwrap() error {
	return ErrConfiguration
}

func invalid(field, reason string) error {
	return &ConfigurationError{Field: field, Reason: reason}
}
