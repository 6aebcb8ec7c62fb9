package protocol

import (
	"errors"
	"strings"
)

var (
	// ErrDecode matches every *DecodeError.
	ErrDecode = errors.New("protocol: decode error") //nolint:gochecknoglobals // sentinel error
	// ErrValidation matches every *ValidationError.
	ErrValidation = errors.New("protocol: validation error") //nolint:gochecknoglobals // sentinel error

	errMissingType = errors.New("missing type field") //nolint:gochecknoglobals // sentinel error
)

// DecodeError reports an inbound frame that is not a JSON object with a
// string "type" member.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return "protocol: decode envelope: " + e.Err.Error()
}

func (e *DecodeError) Unwrap() []error { return []error{ErrDecode, e.Err} }

// ValidationError reports a well-formed envelope that lacks the members its
// type requires, or carries them with the wrong shape.
type ValidationError struct {
	Type   Type
	Fields []string // offending members, dotted paths in wire naming
	Err    error
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString("protocol: invalid ")
	b.WriteString(string(e.Type))
	if len(e.Fields) > 0 {
		b.WriteString(" (")
		b.WriteString(strings.Join(e.Fields, ", "))
		b.WriteString(")")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *ValidationError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrValidation}
	}
	return []error{ErrValidation, e.Err}
}
