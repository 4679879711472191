package fault

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a failure so callers can decide how to surface it.
type Kind string

const (
	KindUnknown           Kind = "unknown"
	KindConfiguration     Kind = "configuration"
	KindAuthentication    Kind = "authentication"
	KindPermission        Kind = "permission"
	KindNotFound          Kind = "not_found"
	KindEmptyThread       Kind = "empty_thread"
	KindValidation        Kind = "validation"
	KindUpstream          Kind = "upstream"
	KindContractViolation Kind = "contract_violation"
)

// Error is the domain error returned across component boundaries.
// Message is what a user should read, Hint is remediation, Detail is
// diagnostic payload (for example the raw model output).
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Hint    string
	Detail  string
	Err     error
}

func (e *Error) Error() string {
	var sb strings.Builder
	if e.Op != "" {
		sb.WriteString(e.Op)
		sb.WriteString(": ")
	}
	sb.WriteString(e.Message)
	if e.Hint != "" {
		sb.WriteString(" (")
		sb.WriteString(e.Hint)
		sb.WriteString(")")
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

func (e *Error) Unwrap() error { return e.Err }

// UserMessage is the message plus hint, without the op prefix or cause.
func (e *Error) UserMessage() string {
	if e.Hint == "" {
		return e.Message
	}
	return e.Message + ". " + e.Hint
}

// New builds an Error of the given kind.
func New(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an Error of the given kind around a lower-level cause.
func Wrap(kind Kind, op string, err error, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Err: err}
}

// WithHint sets the remediation hint and returns e.
func (e *Error) WithHint(hint string) *Error {
	e.Hint = hint
	return e
}

// WithDetail sets the diagnostic detail and returns e.
func (e *Error) WithDetail(detail string) *Error {
	e.Detail = detail
	return e
}

// KindOf reports the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindUnknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// As returns the *Error in err's chain, if any.
func As(err error) (*Error, bool) {
	var fe *Error
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}
