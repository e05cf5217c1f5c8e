package domain

import (
	"errors"
	"fmt"
)

// Kind classifies identity store failures so callers can branch without
// matching on message text.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidArgument
	KindDuplicateLogin
	KindPrecondition
	KindNotFound
	KindConflict
	KindStore
)

func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "invalid argument"
	case KindDuplicateLogin:
		return "duplicate login"
	case KindPrecondition:
		return "precondition failed"
	case KindNotFound:
		return "not found"
	case KindConflict:
		return "concurrency conflict"
	case KindStore:
		return "store failure"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is. Any *Error matches the sentinel of its Kind.
var (
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrDuplicateLogin      = errors.New("duplicate login")
	ErrPrecondition        = errors.New("precondition failed")
	ErrNotFound            = errors.New("not found")
	ErrConcurrencyConflict = errors.New("concurrency conflict")
	ErrStore               = errors.New("store failure")
)

var sentinels = map[Kind]error{
	KindInvalidArgument: ErrInvalidArgument,
	KindDuplicateLogin:  ErrDuplicateLogin,
	KindPrecondition:    ErrPrecondition,
	KindNotFound:        ErrNotFound,
	KindConflict:        ErrConcurrencyConflict,
	KindStore:           ErrStore,
}

// Error is the failure result of an identity store operation.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	s, ok := sentinels[e.Kind]
	return ok && s == target
}

// InvalidArgument reports a required argument that was not supplied.
func InvalidArgument(op, arg string) *Error {
	return &Error{Kind: KindInvalidArgument, Op: op, Msg: fmt.Sprintf("%s is required", arg)}
}

func DuplicateLogin(op, provider, key string) *Error {
	return &Error{Kind: KindDuplicateLogin, Op: op, Msg: fmt.Sprintf("login %s/%s is already linked", provider, key)}
}

func Precondition(op, msg string) *Error {
	return &Error{Kind: KindPrecondition, Op: op, Msg: msg}
}

func NotFound(op, id string) *Error {
	return &Error{Kind: KindNotFound, Op: op, Msg: fmt.Sprintf("document %q not found", id)}
}

func Conflict(op, id string, expected, actual int64) *Error {
	return &Error{Kind: KindConflict, Op: op, Msg: fmt.Sprintf("document %q is at version %d, expected %d", id, actual, expected)}
}

// StoreFailure wraps a driver error. Errors that already carry a Kind are
// returned as is so the original classification survives.
func StoreFailure(op string, err error) error {
	if err == nil {
		return nil
	}
	var de *Error
	if errors.As(err, &de) {
		return err
	}
	return &Error{Kind: KindStore, Op: op, Err: err}
}

// KindOf returns the Kind of err, or KindUnknown.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindUnknown
}
