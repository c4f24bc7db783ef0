// Package validate holds the pure input rules for Model names, Machine names,
// Mapping Configuration ids, free-text headers/measurements and field-mapping
// selections. Nothing in this package touches the filesystem.
package validate

import (
	"errors"
	"fmt"
)

// Kind classifies a validation failure.
type Kind string

const (
	BlankName         Kind = "blank_name"
	InvalidLength     Kind = "invalid_length"
	InvalidCharacters Kind = "invalid_characters"
	DuplicateName     Kind = "duplicate_name"
	DuplicateID       Kind = "duplicate_id"
	IncompleteMapping Kind = "incomplete_mapping"
	FieldTooLong      Kind = "field_too_long"
	MissingFieldValue Kind = "missing_field_value"
	UnknownItem       Kind = "unknown_item"
)

// Sentinel errors, one per Kind, for errors.Is support.
var (
	ErrBlankName         = errors.New("validate: blank name")
	ErrInvalidLength     = errors.New("validate: invalid length")
	ErrInvalidCharacters = errors.New("validate: invalid characters")
	ErrDuplicateName     = errors.New("validate: duplicate name")
	ErrDuplicateID       = errors.New("validate: duplicate id")
	ErrIncompleteMapping = errors.New("validate: incomplete mapping")
	ErrFieldTooLong      = errors.New("validate: field too long")
	ErrMissingFieldValue = errors.New("validate: missing field value")
	ErrUnknownItem       = errors.New("validate: unknown item")
)

var sentinels = map[Kind]error{
	BlankName:         ErrBlankName,
	InvalidLength:     ErrInvalidLength,
	InvalidCharacters: ErrInvalidCharacters,
	DuplicateName:     ErrDuplicateName,
	DuplicateID:       ErrDuplicateID,
	IncompleteMapping: ErrIncompleteMapping,
	FieldTooLong:      ErrFieldTooLong,
	MissingFieldValue: ErrMissingFieldValue,
	UnknownItem:       ErrUnknownItem,
}

// Error is a single rejected input. Message is written for the end user and
// is shown verbatim.
type Error struct {
	Kind    Kind
	Field   string
	Message string
	Value   any
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the sentinel for the failure kind.
func (e *Error) Unwrap() error {
	return sentinels[e.Kind]
}

// Detail returns a log-friendly description including the field and value.
func (e *Error) Detail() string {
	if e.Value != nil {
		return fmt.Sprintf("validation error: field %q: %s (got: %v)", e.Field, e.Kind, e.Value)
	}
	return fmt.Sprintf("validation error: field %q: %s", e.Field, e.Kind)
}

func fail(kind Kind, field string, value any, format string, args ...any) *Error {
	return &Error{Kind: kind, Field: field, Value: value, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the Kind of a validation error anywhere in err's chain.
func KindOf(err error) (Kind, bool) {
	var ve *Error
	if errors.As(err, &ve) {
		return ve.Kind, true
	}
	return "", false
}
