package smb

import (
	"math"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/marmos91/smbfile/internal/logger"
	"github.com/marmos91/smbfile/pkg/bufpool"
	"github.com/marmos91/smbfile/pkg/metrics"
)

// Transfer ceilings applied on top of the negotiated maxima.
const (
	// maxSingleRead caps a single read request. Negotiated read sizes can be
	// large (1MB and up); bounding the single-shot buffer keeps allocation
	// predictable and stays under known server-side quirks near 64KB.
	maxSingleRead = 65000

	// maxSingleWrite caps a single write chunk. Deliberately more
	// conservative than the read cap: some servers reset the connection on
	// larger single writes.
	maxSingleWrite = 21000
)

// OpenMode selects the access and creation semantics for OpenFile.
// Each mode maps to a fixed OpenFlags combination; there is no free-form
// flag surface.
type OpenMode int

const (
	// ModeRead opens an existing file for reading.
	ModeRead OpenMode = iota

	// ModeWrite opens an existing file for writing.
	ModeWrite

	// ModeCreate opens for writing, creating the file or truncating an
	// existing one.
	ModeCreate

	// ModeCreateExclusive creates the file for writing, failing when it
	// already exists.
	ModeCreateExclusive

	// ModeReadWrite opens an existing file for reading and writing.
	ModeReadWrite

	// ModePipe opens read-write in append mode without truncation, the
	// combination named pipes expect.
	ModePipe
)

func (m OpenMode) flags() OpenFlags {
	switch m {
	case ModeRead:
		return AccessRead
	case ModeWrite:
		return AccessWrite
	case ModeCreate:
		return AccessWrite | FlagCreate | FlagTruncate
	case ModeCreateExclusive:
		return AccessWrite | FlagCreate | FlagExclusive
	case ModeReadWrite:
		return AccessRead | AccessWrite
	case ModePipe:
		return AccessRead | AccessWrite | FlagCreate | FlagAppend
	default:
		return AccessRead
	}
}

func (m OpenMode) String() string {
	switch m {
	case ModeRead:
		return "read"
	case ModeWrite:
		return "write"
	case ModeCreate:
		return "create"
	case ModeCreateExclusive:
		return "create-exclusive"
	case ModeReadWrite:
		return "read-write"
	case ModePipe:
		return "pipe"
	default:
		return "unknown"
	}
}

// fileMetrics is resolved once, on first use. Enable the metrics registry
// before issuing file operations or the recorder stays a no-op.
var fileMetrics = sync.OnceValue(metrics.NewFileMetrics)

// handleState is the part of a File the discard cleanup needs. It is split
// out so the cleanup function never references the File itself.
type handleState struct {
	handle Handle
	open   atomic.Bool
}

// releaseArg carries everything the implicit close needs.
type releaseArg struct {
	sess Session
	st   *handleState
}

// releaseHandle is the implicit close-on-discard path. Best effort, side
// effect only: there is no caller left to report an error to. The open flag
// guarantees exactly one close submission per handle no matter which path
// gets there first.
func releaseHandle(a releaseArg) {
	if !a.st.open.CompareAndSwap(true, false) {
		return
	}
	a.sess.WithExclusiveAccess(func() {
		a.sess.SubmitClose(a.st.handle, nil)
	})
}

// File is one open remote file.
//
// A File holds a non-owning reference to its Session; many files share one
// session concurrently. It owns exactly one protocol handle token, released
// exactly once, by Close or by the garbage collector's cleanup when the
// caller forgets.
//
// All methods block the calling goroutine for the duration of one protocol
// round-trip (writes: one per chunk). After Close every method returns
// ErrClosed.
type File struct {
	sess    Session
	st      *handleState
	cleanup runtime.Cleanup
}

// OpenFile opens path on the session with the given mode and returns the
// handle. A session that reports success but hands back a null token is
// treated as not-found.
func OpenFile(sess Session, path string, mode OpenMode) (*File, error) {
	flags := mode.flags()

	_, payload, err := blockingCall(sess, ErrNotFound, func(s Session, p *Pending) Status {
		return s.SubmitOpen(path, flags, p)
	})
	if err != nil {
		fileMetrics().RecordError("open")
		return nil, err
	}

	h, _ := payload.(Handle)
	if h == 0 {
		fileMetrics().RecordError("open")
		return nil, &StatusError{
			Code:    StatusNotFound,
			Kind:    ErrNotFound,
			Message: ErrNotFound.Error(),
		}
	}

	st := &handleState{handle: h}
	st.open.Store(true)

	f := &File{sess: sess, st: st}
	f.cleanup = runtime.AddCleanup(f, releaseHandle, releaseArg{sess: sess, st: st})

	logger.Debug("file opened",
		logger.KeyPath, path,
		logger.KeyMode, mode.String(),
		logger.KeyHandle, uint64(h))
	fileMetrics().RecordOp("open")

	return f, nil
}

// Close releases the handle token.
//
// The close request is issued under the session's exclusive-access guard and
// is fire-and-forget: no completion is awaited. A rejected submission is
// returned to the caller. Calling Close twice returns ErrClosed.
func (f *File) Close() error {
	if !f.st.open.CompareAndSwap(true, false) {
		return ErrClosed
	}
	f.cleanup.Stop()

	var st Status
	f.sess.WithExclusiveAccess(func() {
		st = f.sess.SubmitClose(f.st.handle, nil)
	})

	logger.Debug("file closed", logger.KeyHandle, uint64(f.st.handle), logger.KeyStatus, int32(st))
	fileMetrics().RecordOp("close")

	if st < 0 {
		return translateStatus(f.sess, st, ErrIO)
	}
	return nil
}

// Stat returns the file's attribute record.
func (f *File) Stat() (*FileInfo, error) {
	if !f.st.open.Load() {
		return nil, ErrClosed
	}

	_, payload, err := blockingCall(f.sess, ErrBadHandle, func(s Session, p *Pending) Status {
		return s.SubmitStat(f.st.handle, p)
	})
	if err != nil {
		fileMetrics().RecordError("stat")
		return nil, err
	}

	info, ok := payload.(*FileInfo)
	if !ok || info == nil {
		return nil, &StatusError{Code: StatusIO, Kind: ErrIO, Message: "stat completed without an attribute record"}
	}

	fileMetrics().RecordOp("stat")
	return info, nil
}

// Truncate sets the file length to size.
func (f *File) Truncate(size uint64) error {
	if !f.st.open.Load() {
		return ErrClosed
	}

	_, _, err := blockingCall(f.sess, ErrIO, func(s Session, p *Pending) Status {
		return s.SubmitTruncate(f.st.handle, size, p)
	})
	if err != nil {
		fileMetrics().RecordError("truncate")
		return err
	}

	fileMetrics().RecordOp("truncate")
	return nil
}

// Sync flushes buffered data for the file to stable storage.
func (f *File) Sync() error {
	if !f.st.open.Load() {
		return ErrClosed
	}

	_, _, err := blockingCall(f.sess, ErrIO, func(s Session, p *Pending) Status {
		return s.SubmitSync(f.st.handle, p)
	})
	if err != nil {
		fileMetrics().RecordError("sync")
		return err
	}

	fileMetrics().RecordOp("sync")
	return nil
}

// Seek adjusts the file's implicit position and returns the new position.
//
// Seek does not go through the bridge: the protocol keeps the position
// client-side, so the session answers synchronously from connection state.
func (f *File) Seek(offset int64, whence int) (int64, error) {
	if !f.st.open.Load() {
		return 0, ErrClosed
	}

	pos := f.sess.Seek(f.st.handle, offset, whence)
	if pos < 0 {
		err := translateStatus(f.sess, Status(pos), ErrIllegalSeek)
		fileMetrics().RecordError("seek")
		return 0, err
	}
	return pos, nil
}

// Read reads up to length bytes at the file's implicit position, advancing
// it by the number of bytes the server acknowledged.
//
// When length is zero or negative the optimized read size is used. Exactly
// one request is issued; a short read is a final result, not retried here.
// The returned slice holds only the acknowledged bytes.
func (f *File) Read(length int) ([]byte, error) {
	return f.read(length, 0, false)
}

// ReadAt reads up to length bytes at an explicit offset. The implicit
// position is not moved. Sizing and short-read semantics match Read.
func (f *File) ReadAt(length int, offset uint64) ([]byte, error) {
	return f.read(length, offset, true)
}

func (f *File) read(length int, offset uint64, positioned bool) ([]byte, error) {
	if !f.st.open.Load() {
		return nil, ErrClosed
	}

	size := length
	if size <= 0 {
		size = int(f.OptimizedReadSize())
	}

	buf := bufpool.Get(size)
	defer bufpool.Put(buf)
	// Pooled buffers carry old contents; the contract is a zeroed buffer.
	clear(buf)

	var (
		st  Status
		err error
	)
	if positioned {
		st, _, err = blockingCall(f.sess, ErrIO, func(s Session, p *Pending) Status {
			return s.SubmitReadAt(f.st.handle, buf, offset, p)
		})
	} else {
		st, _, err = blockingCall(f.sess, ErrIO, func(s Session, p *Pending) Status {
			return s.SubmitRead(f.st.handle, buf, p)
		})
	}
	if err != nil {
		fileMetrics().RecordError("read")
		return nil, err
	}

	// The buffer goes back to the pool, so the acknowledged bytes are
	// copied out rather than sliced.
	out := make([]byte, st)
	copy(out, buf[:st])

	logger.Debug("read complete",
		logger.KeyHandle, uint64(f.st.handle),
		logger.KeyOffset, offset,
		logger.KeyCount, size,
		logger.KeyBytesRead, len(out))
	fileMetrics().RecordBytesRead(len(out))

	return out, nil
}

// Write writes data at the file's implicit position, advancing it. Returns
// the number of bytes the server acknowledged.
//
// Payloads larger than the effective write ceiling are split into ordered
// chunks, each its own protocol round-trip, each waiting for the previous
// one. On the first failed chunk no further chunks are submitted and the
// count written so far is returned together with the error; completed
// chunks are not rolled back.
//
// data larger than the protocol's 32-bit length field is a programmer
// error and panics.
func (f *File) Write(data []byte) (int, error) {
	return f.write(data, 0, false)
}

// WriteAt writes data at an explicit offset; each chunk targets the base
// offset plus the chunk's position within data. The implicit position is
// not moved. Chunking and error semantics match Write.
func (f *File) WriteAt(data []byte, offset uint64) (int, error) {
	return f.write(data, offset, true)
}

func (f *File) write(data []byte, base uint64, positioned bool) (int, error) {
	if !f.st.open.Load() {
		return 0, ErrClosed
	}
	if uint64(len(data)) > math.MaxUint32 {
		panic("smb: write payload exceeds the protocol's 32-bit length field")
	}

	ceiling := int(f.OptimizedWriteSize())
	if ceiling < 1 {
		// A session reporting a zero write ceiling must not stall the
		// chunk loop; degrade to byte-at-a-time rather than spin.
		ceiling = 1
	}
	written := 0

	for off := 0; off < len(data); {
		end := min(off+ceiling, len(data))
		chunk := data[off:end]

		var (
			st  Status
			err error
		)
		if positioned {
			target := base + uint64(off)
			st, _, err = blockingCall(f.sess, ErrIO, func(s Session, p *Pending) Status {
				return s.SubmitWriteAt(f.st.handle, chunk, target, p)
			})
		} else {
			st, _, err = blockingCall(f.sess, ErrIO, func(s Session, p *Pending) Status {
				return s.SubmitWrite(f.st.handle, chunk, p)
			})
		}
		if err != nil {
			// First error wins: stop submitting, keep what was written.
			fileMetrics().RecordError("write")
			return written, err
		}

		written += int(st)
		off = end
	}

	logger.Debug("write complete",
		logger.KeyHandle, uint64(f.st.handle),
		logger.KeyOffset, base,
		logger.KeyCount, len(data),
		logger.KeyBytesWritten, written)
	fileMetrics().RecordBytesWritten(written)

	return written, nil
}

// MaxReadSize is the session's negotiated read ceiling.
func (f *File) MaxReadSize() uint32 {
	return f.sess.MaxReadSize()
}

// OptimizedReadSize is the effective single-request read size: the
// negotiated ceiling capped at this package's conservative maximum.
func (f *File) OptimizedReadSize() uint32 {
	return min(f.sess.MaxReadSize(), maxSingleRead)
}

// MaxWriteSize is the session's negotiated write ceiling.
func (f *File) MaxWriteSize() uint32 {
	return f.sess.MaxWriteSize()
}

// OptimizedWriteSize is the effective single-chunk write size: the
// negotiated ceiling capped at this package's conservative maximum.
func (f *File) OptimizedWriteSize() uint32 {
	return min(f.sess.MaxWriteSize(), maxSingleWrite)
}
