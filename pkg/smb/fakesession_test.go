package smb

import (
	"sync"
)

// submitRecord captures one submission the fake observed.
type submitRecord struct {
	op     string
	path   string
	flags  OpenFlags
	handle Handle
	bufLen int
	data   []byte
	offset uint64
}

// fakeSession is a fully scriptable Session. Completions are delivered from
// a separate goroutine so tests exercise the real cross-goroutine path.
type fakeSession struct {
	mu sync.Mutex

	maxRead  uint32
	maxWrite uint32
	lastErr  string

	// Scripts. Zero values mean "succeed".
	openSubmitStatus Status // returned by SubmitOpen itself when negative
	openStatus       Status // completion status
	openHandle       Handle // completion payload (defaults to 1 when openStatus >= 0)
	readStatus       Status // completion status; >= 0 is the ack count override
	readAck          int    // bytes acked per read when readStatus == 0 (-1 = full buffer)
	writeStatuses    []Status
	statInfo         *FileInfo
	statStatus       Status
	truncateStatus   Status
	syncStatus       Status
	closeStatus      Status
	seekResult       int64
	wantNullHandle   bool // successful open delivers a zero handle token

	// Observations.
	records     []submitRecord
	closeCount  int
	seekCount   int
	exclusive   int
	inExclusive bool // true while WithExclusiveAccess runs fn
	closedUnder bool // close was submitted inside WithExclusiveAccess
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		maxRead:  1 << 20,
		maxWrite: 1 << 20,
		readAck:  -1,
	}
}

func (f *fakeSession) complete(p *Pending, st Status, payload any) {
	go p.Complete(st, payload)
}

func (f *fakeSession) record(r submitRecord) {
	f.mu.Lock()
	f.records = append(f.records, r)
	f.mu.Unlock()
}

func (f *fakeSession) recorded(op string) []submitRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []submitRecord
	for _, r := range f.records {
		if r.op == op {
			out = append(out, r)
		}
	}
	return out
}

func (f *fakeSession) SubmitOpen(path string, flags OpenFlags, p *Pending) Status {
	f.record(submitRecord{op: "open", path: path, flags: flags})
	if f.openSubmitStatus < 0 {
		return f.openSubmitStatus
	}
	if f.openStatus < 0 {
		f.complete(p, f.openStatus, nil)
		return StatusOK
	}
	h := f.openHandle
	if h == 0 && f.openStatus >= 0 && !f.wantNullHandle {
		h = 1
	}
	f.complete(p, f.openStatus, h)
	return StatusOK
}

func (f *fakeSession) SubmitRead(h Handle, buf []byte, p *Pending) Status {
	f.record(submitRecord{op: "read", handle: h, bufLen: len(buf)})
	return f.completeRead(buf, p)
}

func (f *fakeSession) SubmitReadAt(h Handle, buf []byte, offset uint64, p *Pending) Status {
	f.record(submitRecord{op: "read_at", handle: h, bufLen: len(buf), offset: offset})
	return f.completeRead(buf, p)
}

func (f *fakeSession) completeRead(buf []byte, p *Pending) Status {
	if f.readStatus < 0 {
		f.complete(p, f.readStatus, nil)
		return StatusOK
	}
	ack := f.readAck
	if ack < 0 || ack > len(buf) {
		ack = len(buf)
	}
	for i := range ack {
		buf[i] = byte(i)
	}
	f.complete(p, Status(ack), nil)
	return StatusOK
}

func (f *fakeSession) SubmitWrite(h Handle, data []byte, p *Pending) Status {
	f.record(submitRecord{op: "write", handle: h, data: append([]byte(nil), data...)})
	return f.completeWrite(len(data), p)
}

func (f *fakeSession) SubmitWriteAt(h Handle, data []byte, offset uint64, p *Pending) Status {
	f.record(submitRecord{op: "write_at", handle: h, data: append([]byte(nil), data...), offset: offset})
	return f.completeWrite(len(data), p)
}

func (f *fakeSession) completeWrite(n int, p *Pending) Status {
	f.mu.Lock()
	var st Status
	if len(f.writeStatuses) > 0 {
		st = f.writeStatuses[0]
		f.writeStatuses = f.writeStatuses[1:]
	}
	f.mu.Unlock()

	if st < 0 {
		f.complete(p, st, nil)
		return StatusOK
	}
	f.complete(p, Status(n), nil)
	return StatusOK
}

func (f *fakeSession) SubmitStat(h Handle, p *Pending) Status {
	f.record(submitRecord{op: "stat", handle: h})
	if f.statStatus < 0 {
		f.complete(p, f.statStatus, nil)
		return StatusOK
	}
	info := f.statInfo
	if info == nil {
		info = &FileInfo{Size: 4096}
	}
	f.complete(p, StatusOK, info)
	return StatusOK
}

func (f *fakeSession) SubmitTruncate(h Handle, size uint64, p *Pending) Status {
	f.record(submitRecord{op: "truncate", handle: h, offset: size})
	f.complete(p, f.truncateStatus, nil)
	return StatusOK
}

func (f *fakeSession) SubmitSync(h Handle, p *Pending) Status {
	f.record(submitRecord{op: "sync", handle: h})
	f.complete(p, f.syncStatus, nil)
	return StatusOK
}

func (f *fakeSession) SubmitClose(h Handle, p *Pending) Status {
	f.mu.Lock()
	f.closeCount++
	f.closedUnder = f.inExclusive
	f.mu.Unlock()
	f.record(submitRecord{op: "close", handle: h})

	if f.closeStatus < 0 {
		return f.closeStatus
	}
	if p != nil {
		f.complete(p, StatusOK, nil)
	}
	return StatusOK
}

func (f *fakeSession) Seek(h Handle, offset int64, whence int) int64 {
	f.mu.Lock()
	f.seekCount++
	f.mu.Unlock()
	return f.seekResult
}

func (f *fakeSession) MaxReadSize() uint32  { return f.maxRead }
func (f *fakeSession) MaxWriteSize() uint32 { return f.maxWrite }

func (f *fakeSession) LastError() string { return f.lastErr }

func (f *fakeSession) WithExclusiveAccess(fn func()) {
	f.mu.Lock()
	f.exclusive++
	f.inExclusive = true
	f.mu.Unlock()

	fn()

	f.mu.Lock()
	f.inExclusive = false
	f.mu.Unlock()
}
