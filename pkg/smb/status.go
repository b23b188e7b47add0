package smb

// Status is the result code used across the session's asynchronous surface.
//
// Non-negative values indicate success. For counted operations (read, write)
// the value is the number of bytes the server acknowledged. Negative values
// carry a POSIX-style error number, negated, the same convention the
// underlying protocol library uses for its completion callbacks.
type Status int32

// StatusOK is the generic success status.
const StatusOK Status = 0

// Recognized negative status codes.
//
// The session may deliver any negative value; only the codes below map to a
// specific sentinel error. Everything else falls back to the operation's
// default error at translation time.
const (
	StatusNotFound    Status = -2   // ENOENT
	StatusIO          Status = -5   // EIO
	StatusBadHandle   Status = -9   // EBADF
	StatusBusy        Status = -11  // EAGAIN
	StatusNoMemory    Status = -12  // ENOMEM
	StatusAccess      Status = -13  // EACCES
	StatusExists      Status = -17  // EEXIST
	StatusIsDir       Status = -21  // EISDIR
	StatusInvalid     Status = -22  // EINVAL
	StatusTooBig      Status = -27  // EFBIG
	StatusNoSpace     Status = -28  // ENOSPC
	StatusIllegalSeek Status = -29  // ESPIPE
	StatusTimedOut    Status = -110 // ETIMEDOUT
	StatusConnReset   Status = -104 // ECONNRESET
)

// Name returns a human-readable name for a status code.
// Unrecognized negative codes render as their numeric value.
func (s Status) Name() string {
	switch {
	case s >= 0:
		return "OK"
	case s == StatusNotFound:
		return "NOT_FOUND"
	case s == StatusIO:
		return "IO_ERROR"
	case s == StatusBadHandle:
		return "BAD_HANDLE"
	case s == StatusBusy:
		return "TRY_AGAIN"
	case s == StatusNoMemory:
		return "NO_MEMORY"
	case s == StatusAccess:
		return "ACCESS_DENIED"
	case s == StatusExists:
		return "ALREADY_EXISTS"
	case s == StatusIsDir:
		return "IS_A_DIRECTORY"
	case s == StatusInvalid:
		return "INVALID_ARGUMENT"
	case s == StatusTooBig:
		return "FILE_TOO_BIG"
	case s == StatusNoSpace:
		return "NO_SPACE"
	case s == StatusIllegalSeek:
		return "ILLEGAL_SEEK"
	case s == StatusTimedOut:
		return "TIMED_OUT"
	case s == StatusConnReset:
		return "CONNECTION_RESET"
	default:
		return "UNKNOWN"
	}
}
