// Package bufpool provides pooled transfer buffers for protocol I/O.
//
// Every read request allocates a buffer the size of the effective transfer
// ceiling and drops it one call later. Recycling those buffers through
// sync.Pool removes the dominant allocation on the hot path.
//
// Two size classes cover this client's traffic:
//   - chunk buffers (32KB): write chunks, which never exceed the write
//     chunk ceiling, and small explicit reads
//   - transfer buffers (64KB): full-size reads, which top out just under
//     this class when the negotiated maximum allows it
//
// Requests above the transfer class are allocated directly and never pooled,
// so an occasional oversized transfer cannot pin memory.
//
// Callers must pair every Get with a Put on all exit paths and must not
// retain a buffer after Put.
package bufpool

import "sync"

// Size classes.
const (
	// ChunkSize backs write chunks and small reads.
	ChunkSize = 32 << 10

	// TransferSize backs full-size read requests.
	TransferSize = 64 << 10
)

var (
	chunkPool = sync.Pool{
		New: func() any {
			buf := make([]byte, ChunkSize)
			return &buf
		},
	}
	transferPool = sync.Pool{
		New: func() any {
			buf := make([]byte, TransferSize)
			return &buf
		},
	}
)

// Get returns a byte slice with length exactly size. The backing array may
// be larger and may contain data from a previous use; callers that need a
// zeroed buffer must clear it.
//
// Safe for concurrent use.
func Get(size int) []byte {
	var bufPtr *[]byte

	switch {
	case size <= ChunkSize:
		bufPtr = chunkPool.Get().(*[]byte)
	case size <= TransferSize:
		bufPtr = transferPool.Get().(*[]byte)
	default:
		// Oversized transfers bypass the pool.
		return make([]byte, size)
	}

	return (*bufPtr)[:size]
}

// Put returns a buffer obtained from Get to its pool. Buffers whose
// capacity matches no size class (oversized allocations) are left for the
// garbage collector.
func Put(buf []byte) {
	if buf == nil {
		return
	}

	full := buf[:cap(buf)]
	switch cap(buf) {
	case ChunkSize:
		chunkPool.Put(&full)
	case TransferSize:
		transferPool.Put(&full)
	}
}
