package model

import (
	"errors"
	"fmt"
)

// Sentinels matched with errors.Is against the typed errors below.
var (
	ErrConfiguration = errors.New("invalid transform composition")
	ErrNotFound      = errors.New("not found")
	ErrValidation    = errors.New("validation failed")
)

// ConfigurationError reports a transform that cannot be placed on any branch
// of its pipeline.
type ConfigurationError struct {
	Pipeline  string
	Transform string
	Field     string
	Branch    string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf(
		"transform %s on pipeline %s references field %q from unknown branch %q",
		e.Transform, e.Pipeline, e.Field, e.Branch,
	)
}

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// NotFoundError reports a lookup of something that does not exist
type NotFoundError struct {
	Kind string
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Name)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// ValidationError reports a malformed definition
type ValidationError struct {
	Subject string
	Reason  string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid %s: %s: %v", e.Subject, e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid %s: %s", e.Subject, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func (e *ValidationError) Unwrap() error { return e.Err }
