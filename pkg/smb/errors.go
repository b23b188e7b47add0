package smb

import (
	"errors"
	"fmt"
)

// Sentinel errors exposed by this package. Callers should match these with
// errors.Is; the concrete error returned is always a *StatusError wrapping
// one of them.
var (
	ErrNotFound    = errors.New("no such file or directory")
	ErrIO          = errors.New("input/output error")
	ErrBadHandle   = errors.New("bad file descriptor")
	ErrBusy        = errors.New("resource temporarily unavailable")
	ErrAccess      = errors.New("permission denied")
	ErrExists      = errors.New("file exists")
	ErrIsDir       = errors.New("is a directory")
	ErrInvalid     = errors.New("invalid argument")
	ErrTooBig      = errors.New("file too large")
	ErrNoSpace     = errors.New("no space left on device")
	ErrIllegalSeek = errors.New("illegal seek")
	ErrTimedOut    = errors.New("operation timed out")
	ErrConnReset   = errors.New("connection reset by peer")

	// ErrClosed is returned for any operation attempted on a handle after
	// Close. This is a caller contract violation surfaced explicitly rather
	// than silently accepted.
	ErrClosed = errors.New("file handle is closed")
)

// StatusError is the error produced by the bridge for every failed protocol
// operation. It carries the raw negative status, the human-readable message
// (the session's last-error description when one was available) and the
// sentinel error kind the status mapped to.
type StatusError struct {
	// Code is the negative status delivered by the session.
	Code Status

	// Kind is the sentinel error the code translated to, or the operation's
	// default error when the code is not a recognized error number.
	Kind error

	// Message is the session's last-error description, or the default
	// error's text when the session had none.
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("smb: %s (status %d %s)", e.Message, e.Code, e.Code.Name())
}

// Unwrap lets errors.Is match the sentinel kind.
func (e *StatusError) Unwrap() error {
	return e.Kind
}

// errorForStatus maps a recognized status code to its sentinel error.
// Returns nil for codes with no specific mapping.
func errorForStatus(s Status) error {
	switch s {
	case StatusNotFound:
		return ErrNotFound
	case StatusIO:
		return ErrIO
	case StatusBadHandle:
		return ErrBadHandle
	case StatusBusy:
		return ErrBusy
	case StatusAccess:
		return ErrAccess
	case StatusExists:
		return ErrExists
	case StatusIsDir:
		return ErrIsDir
	case StatusInvalid:
		return ErrInvalid
	case StatusTooBig:
		return ErrTooBig
	case StatusNoSpace:
		return ErrNoSpace
	case StatusIllegalSeek:
		return ErrIllegalSeek
	case StatusTimedOut:
		return ErrTimedOut
	case StatusConnReset:
		return ErrConnReset
	default:
		return nil
	}
}

// translateStatus builds the single error value for a failed operation.
//
// The message prefers the session's last-error description when non-empty;
// the kind prefers the sentinel mapped from the status code. Both fall back
// to the operation's default error. Translation happens exactly once, here:
// layers above the bridge only propagate the result.
func translateStatus(sess Session, s Status, defaultErr error) error {
	kind := errorForStatus(s)
	if kind == nil {
		kind = defaultErr
	}

	msg := sess.LastError()
	if msg == "" {
		msg = defaultErr.Error()
	}

	return &StatusError{
		Code:    s,
		Kind:    kind,
		Message: msg,
	}
}
