// Package loopback provides an in-process smb.Session backed by a billy
// filesystem.
//
// Operations are executed by a single dispatch goroutine, so completions
// arrive from a different goroutine than the submitter, exactly like a real
// protocol session's callback loop. That makes loopback both the dev/test
// backend and the reference for the bridge's cross-goroutine discipline.
//
// Use NewMemory for an ephemeral in-memory filesystem or NewLocal to serve
// files from a local directory.
package loopback

import (
	"errors"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/google/uuid"

	"github.com/marmos91/smbfile/internal/logger"
	"github.com/marmos91/smbfile/pkg/smb"
)

// Defaults applied by New when the config leaves them zero.
const (
	// DefaultMaxTransferSize is the negotiated read and write ceiling.
	DefaultMaxTransferSize = 1 << 20

	// DefaultQueueDepth is the submission queue length.
	DefaultQueueDepth = 64
)

// Config configures a loopback session.
type Config struct {
	// FS is the backing filesystem. Defaults to an in-memory filesystem.
	FS billy.Filesystem

	// MaxReadSize and MaxWriteSize are the advertised transfer ceilings.
	MaxReadSize  uint32
	MaxWriteSize uint32

	// QueueDepth bounds the submission queue. Submissions beyond it fail
	// with a busy status instead of blocking.
	QueueDepth int
}

type opKind int

const (
	opOpen opKind = iota
	opRead
	opReadAt
	opWrite
	opWriteAt
	opStat
	opTruncate
	opSync
	opClose
)

// op is one queued operation descriptor.
type op struct {
	kind       opKind
	path       string
	flags      smb.OpenFlags
	handle     smb.Handle
	buf        []byte
	data       []byte
	offset     uint64
	positioned bool
	size       uint64
	pending    *smb.Pending
}

// openFile is the session-side state for one handle token.
type openFile struct {
	mu     sync.Mutex
	f      billy.File
	path   string
	pos    int64
	append bool
}

// Session is an in-process smb.Session. One dispatch goroutine drains the
// submission queue and delivers completions; callers block on the smb
// package's completion tokens the same way they would against a remote
// server.
type Session struct {
	// id is the client GUID advertised for this connection, carried in
	// every session-scoped log record.
	id string

	fs       billy.Filesystem
	maxRead  uint32
	maxWrite uint32

	// submitMu serializes submission against shutdown so the queue channel
	// can be closed safely. Submitters take the read side and never block
	// while holding it: enqueueing is a non-blocking send.
	submitMu sync.RWMutex
	closed   bool
	ops      chan *op

	// exclMu is the guard handed out by WithExclusiveAccess. The dispatcher
	// holds it while executing an operation, so fn never races dispatch.
	exclMu sync.Mutex

	lastErr atomic.Value // string

	filesMu    sync.RWMutex
	files      map[smb.Handle]*openFile
	nextHandle atomic.Uint64

	done chan struct{}
}

// New starts a loopback session with the given configuration.
func New(cfg Config) *Session {
	if cfg.FS == nil {
		cfg.FS = memfs.New()
	}
	if cfg.MaxReadSize == 0 {
		cfg.MaxReadSize = DefaultMaxTransferSize
	}
	if cfg.MaxWriteSize == 0 {
		cfg.MaxWriteSize = DefaultMaxTransferSize
	}
	if cfg.QueueDepth <= 0 {
		cfg.QueueDepth = DefaultQueueDepth
	}

	s := &Session{
		id:       uuid.NewString(),
		fs:       cfg.FS,
		maxRead:  cfg.MaxReadSize,
		maxWrite: cfg.MaxWriteSize,
		ops:      make(chan *op, cfg.QueueDepth),
		files:    make(map[smb.Handle]*openFile),
		done:     make(chan struct{}),
	}
	s.lastErr.Store("")

	go s.dispatch()
	logger.Debug("loopback: session started", logger.KeySession, s.id)
	return s
}

// ID is the session's client GUID, assigned at construction.
func (s *Session) ID() string {
	return s.id
}

// NewMemory starts a loopback session over a fresh in-memory filesystem.
func NewMemory() *Session {
	return New(Config{})
}

// NewLocal starts a loopback session serving files under root on the local
// filesystem.
func NewLocal(root string) *Session {
	return New(Config{FS: osfs.New(root)})
}

// Close shuts the session down. Operations already queued but not yet
// executed receive a connection-reset failure completion, so no blocked
// caller is left hanging. Open handles are released.
func (s *Session) Close() error {
	s.submitMu.Lock()
	if s.closed {
		s.submitMu.Unlock()
		return nil
	}
	s.closed = true
	close(s.ops)
	s.submitMu.Unlock()

	<-s.done

	s.filesMu.Lock()
	defer s.filesMu.Unlock()
	for h, of := range s.files {
		_ = of.f.Close()
		delete(s.files, h)
	}

	logger.Debug("loopback: session closed", logger.KeySession, s.id)
	return nil
}

// dispatch is the session's event loop: it drains the queue one operation
// at a time and delivers exactly one completion per token.
func (s *Session) dispatch() {
	defer close(s.done)

	for o := range s.ops {
		s.exclMu.Lock()
		st, payload := s.run(o)
		s.exclMu.Unlock()

		if o.pending != nil {
			o.pending.Complete(st, payload)
		}
	}
}

// submit enqueues one operation and returns immediately: a full queue is a
// busy submission failure, never a blocking send. Blocking here would wedge
// the whole session — a submitter waiting on queue space can be the same
// caller the dispatcher is excluded for (close runs under the exclusive
// guard). On any negative status the token is never completed, matching the
// submission-failure contract.
func (s *Session) submit(o *op) smb.Status {
	s.submitMu.RLock()
	defer s.submitMu.RUnlock()

	if s.closed {
		s.setLastError("session is shut down")
		return smb.StatusConnReset
	}

	select {
	case s.ops <- o:
		return smb.StatusOK
	default:
		s.setLastError("submission queue is full")
		return smb.StatusBusy
	}
}

func (s *Session) setLastError(msg string) {
	s.lastErr.Store(msg)
}

// ----------------------------------------------------------------------------
// smb.Session implementation
// ----------------------------------------------------------------------------

func (s *Session) SubmitOpen(path string, flags smb.OpenFlags, p *smb.Pending) smb.Status {
	return s.submit(&op{kind: opOpen, path: path, flags: flags, pending: p})
}

func (s *Session) SubmitRead(h smb.Handle, buf []byte, p *smb.Pending) smb.Status {
	if len(buf) > int(s.maxRead) {
		s.setLastError("read request exceeds negotiated maximum")
		return smb.StatusInvalid
	}
	return s.submit(&op{kind: opRead, handle: h, buf: buf, pending: p})
}

func (s *Session) SubmitReadAt(h smb.Handle, buf []byte, offset uint64, p *smb.Pending) smb.Status {
	if len(buf) > int(s.maxRead) {
		s.setLastError("read request exceeds negotiated maximum")
		return smb.StatusInvalid
	}
	return s.submit(&op{kind: opReadAt, handle: h, buf: buf, offset: offset, positioned: true, pending: p})
}

func (s *Session) SubmitWrite(h smb.Handle, data []byte, p *smb.Pending) smb.Status {
	if len(data) > int(s.maxWrite) {
		s.setLastError("write request exceeds negotiated maximum")
		return smb.StatusInvalid
	}
	return s.submit(&op{kind: opWrite, handle: h, data: data, pending: p})
}

func (s *Session) SubmitWriteAt(h smb.Handle, data []byte, offset uint64, p *smb.Pending) smb.Status {
	if len(data) > int(s.maxWrite) {
		s.setLastError("write request exceeds negotiated maximum")
		return smb.StatusInvalid
	}
	return s.submit(&op{kind: opWriteAt, handle: h, data: data, offset: offset, positioned: true, pending: p})
}

func (s *Session) SubmitStat(h smb.Handle, p *smb.Pending) smb.Status {
	return s.submit(&op{kind: opStat, handle: h, pending: p})
}

func (s *Session) SubmitTruncate(h smb.Handle, size uint64, p *smb.Pending) smb.Status {
	return s.submit(&op{kind: opTruncate, handle: h, size: size, pending: p})
}

func (s *Session) SubmitSync(h smb.Handle, p *smb.Pending) smb.Status {
	return s.submit(&op{kind: opSync, handle: h, pending: p})
}

func (s *Session) SubmitClose(h smb.Handle, p *smb.Pending) smb.Status {
	return s.submit(&op{kind: opClose, handle: h, pending: p})
}

// Seek is answered synchronously from session state; the protocol keeps the
// implicit position client-side.
func (s *Session) Seek(h smb.Handle, offset int64, whence int) int64 {
	of, ok := s.lookup(h)
	if !ok {
		s.setLastError("seek on unknown handle")
		return int64(smb.StatusBadHandle)
	}

	of.mu.Lock()
	defer of.mu.Unlock()

	var base int64
	switch whence {
	case io.SeekStart:
		base = 0
	case io.SeekCurrent:
		base = of.pos
	case io.SeekEnd:
		info, err := s.fs.Stat(of.path)
		if err != nil {
			s.setLastError(err.Error())
			return int64(statusFromError(err))
		}
		base = info.Size()
	default:
		s.setLastError("invalid seek whence")
		return int64(smb.StatusInvalid)
	}

	target := base + offset
	if target < 0 {
		s.setLastError("seek before start of file")
		return int64(smb.StatusInvalid)
	}

	of.pos = target
	return target
}

func (s *Session) MaxReadSize() uint32  { return s.maxRead }
func (s *Session) MaxWriteSize() uint32 { return s.maxWrite }

func (s *Session) LastError() string {
	msg, _ := s.lastErr.Load().(string)
	return msg
}

// WithExclusiveAccess runs fn while dispatch is quiescent.
func (s *Session) WithExclusiveAccess(fn func()) {
	s.exclMu.Lock()
	defer s.exclMu.Unlock()
	fn()
}

// ----------------------------------------------------------------------------
// Operation execution (dispatch goroutine only)
// ----------------------------------------------------------------------------

func (s *Session) run(o *op) (smb.Status, any) {
	// Everything still queued when the session shuts down fails with a
	// connection reset, so waiters are released.
	s.submitMu.RLock()
	closed := s.closed
	s.submitMu.RUnlock()
	if closed {
		s.setLastError("session is shut down")
		return smb.StatusConnReset, nil
	}

	switch o.kind {
	case opOpen:
		return s.runOpen(o)
	case opRead, opReadAt:
		return s.runRead(o)
	case opWrite, opWriteAt:
		return s.runWrite(o)
	case opStat:
		return s.runStat(o)
	case opTruncate:
		return s.runTruncate(o)
	case opSync:
		return s.runSync(o)
	case opClose:
		return s.runClose(o)
	default:
		s.setLastError("unknown operation kind")
		return smb.StatusInvalid, nil
	}
}

func (s *Session) runOpen(o *op) (smb.Status, any) {
	f, err := s.fs.OpenFile(o.path, osFlags(o.flags), 0o666)
	if err != nil {
		s.setLastError(err.Error())
		return statusFromError(err), nil
	}

	h := smb.Handle(s.nextHandle.Add(1))
	of := &openFile{
		f:      f,
		path:   o.path,
		append: o.flags&smb.FlagAppend != 0,
	}

	s.filesMu.Lock()
	s.files[h] = of
	s.filesMu.Unlock()

	logger.Debug("loopback: opened", logger.KeyPath, o.path, logger.KeyHandle, uint64(h))
	return smb.StatusOK, h
}

func (s *Session) runRead(o *op) (smb.Status, any) {
	of, ok := s.lookup(o.handle)
	if !ok {
		s.setLastError("read on unknown handle")
		return smb.StatusBadHandle, nil
	}

	of.mu.Lock()
	defer of.mu.Unlock()

	offset := int64(o.offset)
	if !o.positioned {
		offset = of.pos
	}

	n, err := of.f.ReadAt(o.buf, offset)
	if err != nil && !errors.Is(err, io.EOF) {
		s.setLastError(err.Error())
		return statusFromError(err), nil
	}

	if !o.positioned {
		of.pos += int64(n)
	}
	return smb.Status(n), nil
}

func (s *Session) runWrite(o *op) (smb.Status, any) {
	of, ok := s.lookup(o.handle)
	if !ok {
		s.setLastError("write on unknown handle")
		return smb.StatusBadHandle, nil
	}

	of.mu.Lock()
	defer of.mu.Unlock()

	var offset int64
	switch {
	case o.positioned:
		offset = int64(o.offset)
	case of.append:
		info, err := s.fs.Stat(of.path)
		if err != nil {
			s.setLastError(err.Error())
			return statusFromError(err), nil
		}
		offset = info.Size()
	default:
		offset = of.pos
	}

	if _, err := of.f.Seek(offset, io.SeekStart); err != nil {
		s.setLastError(err.Error())
		return statusFromError(err), nil
	}
	n, err := of.f.Write(o.data)
	if err != nil {
		s.setLastError(err.Error())
		return statusFromError(err), nil
	}

	if !o.positioned {
		of.pos = offset + int64(n)
	}
	return smb.Status(n), nil
}

func (s *Session) runStat(o *op) (smb.Status, any) {
	of, ok := s.lookup(o.handle)
	if !ok {
		s.setLastError("stat on unknown handle")
		return smb.StatusBadHandle, nil
	}

	info, err := s.fs.Stat(of.path)
	if err != nil {
		s.setLastError(err.Error())
		return statusFromError(err), nil
	}

	// The backing filesystem only tracks one timestamp; the protocol's
	// three all report it.
	attrs := uint32(fileAttributeNormal)
	if info.IsDir() {
		attrs = fileAttributeDirectory
	}
	return smb.StatusOK, &smb.FileInfo{
		Size:       uint64(info.Size()),
		Attributes: attrs,
		AccessTime: info.ModTime(),
		ModTime:    info.ModTime(),
		ChangeTime: info.ModTime(),
		IsDir:      info.IsDir(),
	}
}

func (s *Session) runTruncate(o *op) (smb.Status, any) {
	of, ok := s.lookup(o.handle)
	if !ok {
		s.setLastError("truncate on unknown handle")
		return smb.StatusBadHandle, nil
	}

	of.mu.Lock()
	defer of.mu.Unlock()

	if err := of.f.Truncate(int64(o.size)); err != nil {
		s.setLastError(err.Error())
		return statusFromError(err), nil
	}
	return smb.StatusOK, nil
}

func (s *Session) runSync(o *op) (smb.Status, any) {
	of, ok := s.lookup(o.handle)
	if !ok {
		s.setLastError("sync on unknown handle")
		return smb.StatusBadHandle, nil
	}

	// billy.File has no Sync; local files expose it through *os.File.
	if syncer, ok := of.f.(interface{ Sync() error }); ok {
		if err := syncer.Sync(); err != nil {
			s.setLastError(err.Error())
			return statusFromError(err), nil
		}
	}
	return smb.StatusOK, nil
}

func (s *Session) runClose(o *op) (smb.Status, any) {
	s.filesMu.Lock()
	of, ok := s.files[o.handle]
	delete(s.files, o.handle)
	s.filesMu.Unlock()

	if !ok {
		s.setLastError("close on unknown handle")
		return smb.StatusBadHandle, nil
	}

	if err := of.f.Close(); err != nil {
		s.setLastError(err.Error())
		return statusFromError(err), nil
	}

	logger.Debug("loopback: closed", logger.KeyHandle, uint64(o.handle))
	return smb.StatusOK, nil
}

func (s *Session) lookup(h smb.Handle) (*openFile, bool) {
	s.filesMu.RLock()
	defer s.filesMu.RUnlock()
	of, ok := s.files[h]
	return of, ok
}

// Protocol attribute bits reported by Stat.
const (
	fileAttributeDirectory = 0x10
	fileAttributeNormal    = 0x80
)

// osFlags maps the protocol-level open flags onto os.OpenFile flags.
func osFlags(flags smb.OpenFlags) int {
	var f int
	switch {
	case flags&accessBoth == accessBoth:
		f = os.O_RDWR
	case flags&smb.AccessWrite != 0:
		f = os.O_WRONLY
	default:
		f = os.O_RDONLY
	}

	if flags&smb.FlagCreate != 0 {
		f |= os.O_CREATE
	}
	if flags&smb.FlagExclusive != 0 {
		f |= os.O_EXCL
	}
	if flags&smb.FlagTruncate != 0 {
		f |= os.O_TRUNC
	}
	if flags&smb.FlagAppend != 0 {
		f |= os.O_APPEND
	}
	return f
}

// accessBoth is the read-write access combination.
const accessBoth = smb.AccessRead | smb.AccessWrite

// statusFromError maps a filesystem error onto a protocol status.
func statusFromError(err error) smb.Status {
	switch {
	case errors.Is(err, os.ErrNotExist):
		return smb.StatusNotFound
	case errors.Is(err, os.ErrExist):
		return smb.StatusExists
	case errors.Is(err, os.ErrPermission):
		return smb.StatusAccess
	}

	var errno syscall.Errno
	if errors.As(err, &errno) && errno != 0 {
		return smb.Status(-int32(errno))
	}
	return smb.StatusIO
}
