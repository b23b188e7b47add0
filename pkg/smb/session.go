package smb

import (
	"sync"
	"time"
)

// Handle is the opaque, protocol-assigned token for an open remote file.
// The zero value is never a valid token.
type Handle uint64

// FileInfo is the attribute record returned by Stat.
//
// Fields are protocol-defined; sessions fill in what the server reports and
// leave the rest zero.
type FileInfo struct {
	// Size is the file size in bytes.
	Size uint64

	// Attributes holds the protocol-level attribute bits
	// (FILE_ATTRIBUTE_* for SMB2 servers).
	Attributes uint32

	// AccessTime, ModTime and ChangeTime are the last access, last data
	// modification and last attribute change timestamps.
	AccessTime time.Time
	ModTime    time.Time
	ChangeTime time.Time

	// IsDir reports whether the entry is a directory.
	IsDir bool
}

// OpenFlags is the fixed access/creation flag combination derived from an
// OpenMode. Sessions map these bits onto their protocol's CREATE semantics.
type OpenFlags uint32

const (
	// AccessRead requests read access.
	AccessRead OpenFlags = 1 << iota

	// AccessWrite requests write access.
	AccessWrite

	// FlagCreate creates the file when it does not exist.
	FlagCreate

	// FlagExclusive fails the open when combined with FlagCreate and the
	// file already exists.
	FlagExclusive

	// FlagTruncate truncates an existing file to zero length on open.
	FlagTruncate

	// FlagAppend positions every write at end of file.
	FlagAppend
)

// completion is the one result delivered for a pending operation.
type completion struct {
	status  Status
	payload any
}

// Pending is the per-call completion token. One is created for every
// blocking call, handed opaquely to the session's submission surface, and
// completed exactly once by the session's dispatch path. Its lifetime is
// strictly nested inside the blocking call that created it; tokens are
// never reused.
type Pending struct {
	once sync.Once
	done chan completion
}

// NewPending creates a completion token ready for one submission.
func NewPending() *Pending {
	return &Pending{
		// Buffered so the dispatch goroutine never blocks on delivery.
		done: make(chan completion, 1),
	}
}

// Complete delivers the operation's result to the waiter. Only the first
// call has any effect; the exactly-once discipline is enforced here rather
// than trusted to every session implementation.
func (p *Pending) Complete(status Status, payload any) {
	p.once.Do(func() {
		p.done <- completion{status: status, payload: payload}
	})
}

// wait blocks until the session delivers the completion.
func (p *Pending) wait() completion {
	return <-p.done
}

// Session is the shared connection this package issues operations through.
//
// One session serves many file handles concurrently. Every Submit method
// must enqueue the operation and return immediately: a non-negative status
// means the operation was accepted and the token will be completed exactly
// once from the session's dispatch goroutine; a negative status means
// submission itself failed and the token will never be completed.
//
// The session owns negotiation, transport and callback dispatch. On
// disconnect or shutdown it must fail every outstanding token, otherwise a
// blocked caller would hang forever.
type Session interface {
	// SubmitOpen opens path with the given flags. Completion payload is the
	// new Handle.
	SubmitOpen(path string, flags OpenFlags, p *Pending) Status

	// SubmitRead reads into buf at the handle's implicit position, advancing
	// it. Completion status is the byte count.
	SubmitRead(h Handle, buf []byte, p *Pending) Status

	// SubmitReadAt reads into buf at an explicit offset without moving the
	// implicit position. Completion status is the byte count.
	SubmitReadAt(h Handle, buf []byte, offset uint64, p *Pending) Status

	// SubmitWrite writes data at the handle's implicit position, advancing
	// it. Completion status is the byte count.
	SubmitWrite(h Handle, data []byte, p *Pending) Status

	// SubmitWriteAt writes data at an explicit offset without moving the
	// implicit position. Completion status is the byte count.
	SubmitWriteAt(h Handle, data []byte, offset uint64, p *Pending) Status

	// SubmitStat queries the handle's attributes. Completion payload is a
	// *FileInfo.
	SubmitStat(h Handle, p *Pending) Status

	// SubmitTruncate sets the file length.
	SubmitTruncate(h Handle, size uint64, p *Pending) Status

	// SubmitSync flushes buffered data to stable storage.
	SubmitSync(h Handle, p *Pending) Status

	// SubmitClose releases the handle token. Close is fire-and-forget: p may
	// be nil, in which case no completion is ever delivered.
	SubmitClose(h Handle, p *Pending) Status

	// Seek adjusts the handle's implicit position synchronously. There is no
	// protocol round-trip for seek; the session answers from local state.
	// Returns the new position, or a negative status on failure.
	Seek(h Handle, offset int64, whence int) int64

	// MaxReadSize and MaxWriteSize return the negotiated transfer ceilings.
	// They are queried per call since renegotiation may change them.
	MaxReadSize() uint32
	MaxWriteSize() uint32

	// LastError returns the session's description of the most recent
	// failure. Valid at the moment a failure completion is observed.
	LastError() string

	// WithExclusiveAccess runs fn while holding the session's internal
	// guard, excluding callback dispatch. Used for operations that must not
	// race the dispatch goroutine, such as close. fn must not block on a
	// pending completion: the dispatch path may need the same guard to
	// deliver it.
	WithExclusiveAccess(fn func())
}
