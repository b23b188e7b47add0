package loopback

import (
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/smbfile/pkg/smb"
)

func newTestSession(t *testing.T) *Session {
	t.Helper()
	sess := NewMemory()
	t.Cleanup(func() { _ = sess.Close() })
	return sess
}

func writeFile(t *testing.T, sess *Session, path string, data []byte) {
	t.Helper()
	f, err := smb.OpenFile(sess, path, smb.ModeCreate)
	require.NoError(t, err)
	n, err := f.Write(data)
	require.NoError(t, err)
	require.Equal(t, len(data), n)
	require.NoError(t, f.Close())
}

func TestOpenMissingFile(t *testing.T) {
	sess := newTestSession(t)

	_, err := smb.OpenFile(sess, "nope.txt", smb.ModeRead)
	assert.ErrorIs(t, err, smb.ErrNotFound)

	_, err = smb.OpenFile(sess, "nope.txt", smb.ModeReadWrite)
	assert.ErrorIs(t, err, smb.ErrNotFound)
}

func TestOpenExclusiveExisting(t *testing.T) {
	sess := newTestSession(t)
	writeFile(t, sess, "a.txt", []byte("hi"))

	_, err := smb.OpenFile(sess, "a.txt", smb.ModeCreateExclusive)
	assert.ErrorIs(t, err, smb.ErrExists)
}

func TestRoundTrip(t *testing.T) {
	// N below, at and above one write chunk ceiling.
	sizes := []int{100, 21000, 21001, 50000, 70000}

	for _, size := range sizes {
		t.Run(fmt.Sprintf("size_%d", size), func(t *testing.T) {
			sess := newTestSession(t)
			payload := []byte(gofakeit.LetterN(uint(size)))

			f, err := smb.OpenFile(sess, "data.bin", smb.ModeCreate)
			require.NoError(t, err)
			n, err := f.WriteAt(payload, 64)
			require.NoError(t, err)
			require.Equal(t, size, n)
			require.NoError(t, f.Close())

			r, err := smb.OpenFile(sess, "data.bin", smb.ModeRead)
			require.NoError(t, err)
			defer r.Close()

			var got []byte
			off := uint64(64)
			for len(got) < size {
				chunk, err := r.ReadAt(size-len(got), off)
				require.NoError(t, err)
				require.NotEmpty(t, chunk)
				got = append(got, chunk...)
				off += uint64(len(chunk))
			}
			assert.Equal(t, payload, got)
		})
	}
}

func TestImplicitPositionAdvances(t *testing.T) {
	sess := newTestSession(t)
	writeFile(t, sess, "seq.bin", []byte("abcdefghij"))

	f, err := smb.OpenFile(sess, "seq.bin", smb.ModeRead)
	require.NoError(t, err)
	defer f.Close()

	first, err := f.Read(4)
	require.NoError(t, err)
	assert.Equal(t, []byte("abcd"), first)

	second, err := f.Read(4)
	require.NoError(t, err)
	assert.Equal(t, []byte("efgh"), second)
}

func TestPositionedReadDoesNotMovePosition(t *testing.T) {
	sess := newTestSession(t)
	writeFile(t, sess, "pos.bin", []byte("0123456789"))

	f, err := smb.OpenFile(sess, "pos.bin", smb.ModeRead)
	require.NoError(t, err)
	defer f.Close()

	at, err := f.ReadAt(3, 5)
	require.NoError(t, err)
	assert.Equal(t, []byte("567"), at)

	head, err := f.Read(3)
	require.NoError(t, err)
	assert.Equal(t, []byte("012"), head)
}

func TestSeek(t *testing.T) {
	sess := newTestSession(t)
	writeFile(t, sess, "seek.bin", []byte("0123456789"))

	f, err := smb.OpenFile(sess, "seek.bin", smb.ModeRead)
	require.NoError(t, err)
	defer f.Close()

	pos, err := f.Seek(4, io.SeekStart)
	require.NoError(t, err)
	assert.Equal(t, int64(4), pos)

	data, err := f.Read(2)
	require.NoError(t, err)
	assert.Equal(t, []byte("45"), data)

	pos, err = f.Seek(-3, io.SeekEnd)
	require.NoError(t, err)
	assert.Equal(t, int64(7), pos)

	pos, err = f.Seek(1, io.SeekCurrent)
	require.NoError(t, err)
	assert.Equal(t, int64(8), pos)

	_, err = f.Seek(-100, io.SeekStart)
	assert.ErrorIs(t, err, smb.ErrInvalid)
}

func TestReadAtEOF(t *testing.T) {
	sess := newTestSession(t)
	writeFile(t, sess, "tiny.bin", []byte("xy"))

	f, err := smb.OpenFile(sess, "tiny.bin", smb.ModeRead)
	require.NoError(t, err)
	defer f.Close()

	data, err := f.ReadAt(10, 2)
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestStat(t *testing.T) {
	sess := newTestSession(t)
	writeFile(t, sess, "info.bin", make([]byte, 1234))

	f, err := smb.OpenFile(sess, "info.bin", smb.ModeRead)
	require.NoError(t, err)
	defer f.Close()

	info, err := f.Stat()
	require.NoError(t, err)
	assert.Equal(t, uint64(1234), info.Size)
	assert.False(t, info.IsDir)
	assert.False(t, info.ModTime.IsZero())
}

func TestTruncate(t *testing.T) {
	sess := newTestSession(t)
	writeFile(t, sess, "trunc.bin", make([]byte, 1000))

	f, err := smb.OpenFile(sess, "trunc.bin", smb.ModeReadWrite)
	require.NoError(t, err)
	defer f.Close()

	require.NoError(t, f.Truncate(10))

	info, err := f.Stat()
	require.NoError(t, err)
	assert.Equal(t, uint64(10), info.Size)
}

func TestPipeModeAppends(t *testing.T) {
	sess := newTestSession(t)
	writeFile(t, sess, "log.txt", []byte("first"))

	f, err := smb.OpenFile(sess, "log.txt", smb.ModePipe)
	require.NoError(t, err)

	_, err = f.Write([]byte("|second"))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	r, err := smb.OpenFile(sess, "log.txt", smb.ModeRead)
	require.NoError(t, err)
	defer r.Close()

	data, err := r.Read(100)
	require.NoError(t, err)
	assert.Equal(t, []byte("first|second"), data)
}

func TestSync(t *testing.T) {
	sess := newTestSession(t)
	writeFile(t, sess, "s.bin", []byte("x"))

	f, err := smb.OpenFile(sess, "s.bin", smb.ModeReadWrite)
	require.NoError(t, err)
	defer f.Close()

	assert.NoError(t, f.Sync())
}

func TestNegotiatedCeilingsAreEnforced(t *testing.T) {
	sess := New(Config{MaxReadSize: 512, MaxWriteSize: 256})
	t.Cleanup(func() { _ = sess.Close() })

	f, err := smb.OpenFile(sess, "c.bin", smb.ModeCreate)
	require.NoError(t, err)
	defer f.Close()

	// The handle layer must size requests within the negotiated maxima, so
	// a large write goes through in 256-byte chunks rather than failing.
	n, err := f.Write(make([]byte, 1000))
	require.NoError(t, err)
	assert.Equal(t, 1000, n)
	assert.Equal(t, uint32(512), f.OptimizedReadSize())
	assert.Equal(t, uint32(256), f.OptimizedWriteSize())
}

func TestSubmitAfterShutdown(t *testing.T) {
	sess := NewMemory()

	f, err := smb.OpenFile(sess, "x.bin", smb.ModeCreate)
	require.NoError(t, err)

	require.NoError(t, sess.Close())

	_, err = f.Write([]byte("late"))
	require.Error(t, err)
	assert.ErrorIs(t, err, smb.ErrConnReset)
}

func TestSubmitReturnsImmediatelyWhenQueueIsFull(t *testing.T) {
	sess := New(Config{QueueDepth: 1})

	// Park the dispatcher behind the exclusive guard so nothing drains.
	release := make(chan struct{})
	held := make(chan struct{})
	go sess.WithExclusiveAccess(func() {
		close(held)
		<-release
	})
	<-held

	// Submissions now pile up until the queue rejects them with a busy
	// status. Every call must return, never block: a submitter stuck on
	// queue space while dispatch is excluded would wedge the session.
	sawBusy := false
	for i := 0; i < 5 && !sawBusy; i++ {
		done := make(chan smb.Status, 1)
		go func() { done <- sess.SubmitStat(smb.Handle(99), smb.NewPending()) }()

		select {
		case st := <-done:
			sawBusy = st == smb.StatusBusy
			if !sawBusy {
				require.Equal(t, smb.StatusOK, st)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("submission blocked on a full queue")
		}
	}
	require.True(t, sawBusy, "full queue never reported busy")

	close(release)

	// Shutdown must drain the backlog, not hang behind it.
	closed := make(chan struct{})
	go func() {
		_ = sess.Close()
		close(closed)
	}()
	select {
	case <-closed:
	case <-time.After(5 * time.Second):
		t.Fatal("shutdown blocked behind a full queue")
	}
}

func TestLocalSession(t *testing.T) {
	sess := NewLocal(t.TempDir())
	t.Cleanup(func() { _ = sess.Close() })

	f, err := smb.OpenFile(sess, "on-disk.txt", smb.ModeCreate)
	require.NoError(t, err)
	_, err = f.Write([]byte("persisted"))
	require.NoError(t, err)
	require.NoError(t, f.Sync())
	require.NoError(t, f.Close())

	r, err := smb.OpenFile(sess, "on-disk.txt", smb.ModeRead)
	require.NoError(t, err)
	defer r.Close()

	data, err := r.Read(0)
	require.NoError(t, err)
	assert.Equal(t, []byte("persisted"), data)
}
