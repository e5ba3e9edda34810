package storage

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// Error codes surfaced to handlers and the router summary logs.
const (
	CodeNotFound   = "not_found"
	CodeValidation = "validation"
	CodeTransient  = "transient_store"
	CodeConflict   = "integrity_conflict"
)

// Error is a classified storage failure. Code() feeds the handler summary
// logging and lets the session layer decide between re-prompt, specific
// reply and generic retry.
type Error struct {
	code string
	msg  string
	err  error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.err)
	}
	return e.msg
}

func (e *Error) Code() string { return e.code }

func (e *Error) Unwrap() error { return e.err }

func NotFound(msg string) *Error {
	return &Error{code: CodeNotFound, msg: msg}
}

func Validation(msg string) *Error {
	return &Error{code: CodeValidation, msg: msg}
}

func Transient(msg string, err error) *Error {
	return &Error{code: CodeTransient, msg: msg, err: err}
}

func Conflict(msg string, err error) *Error {
	return &Error{code: CodeConflict, msg: msg, err: err}
}

func hasCode(err error, code string) bool {
	var se *Error
	return errors.As(err, &se) && se.code == code
}

func IsNotFound(err error) bool   { return hasCode(err, CodeNotFound) }
func IsConflict(err error) bool   { return hasCode(err, CodeConflict) }
func IsTransient(err error) bool  { return hasCode(err, CodeTransient) }
func IsValidation(err error) bool { return hasCode(err, CodeValidation) }

// classify maps a raw driver error. Unique-constraint violations become
// conflicts; everything else is a transient store failure.
func classify(op string, err error) *Error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return Conflict(op, err)
	}
	return Transient(op, err)
}
