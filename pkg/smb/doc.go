// Package smb provides blocking file handles over an asynchronous SMB
// session.
//
// The underlying protocol library completes every operation through
// out-of-band callbacks on a shared session. This package bridges that model
// into ordinary blocking calls: each method creates a one-shot completion
// token, submits the request, parks the goroutine until the session's
// dispatch path delivers the result, and translates failures into a single
// error value.
//
// # Usage
//
//	f, err := smb.OpenFile(sess, "reports/q3.xlsx", smb.ModeRead)
//	if err != nil {
//	    return err
//	}
//	defer f.Close()
//
//	data, err := f.ReadAt(4096, 0)
//
// # Transfer sizing
//
// Reads and writes never exceed the session's negotiated maxima, further
// capped by conservative constants (see OptimizedReadSize and
// OptimizedWriteSize). Writes larger than the effective ceiling are split
// into ordered chunks; on the first failed chunk the call stops and returns
// the bytes written so far together with the error.
//
// # Handle lifetime
//
// A File owns exactly one protocol handle token. Close releases it; a File
// discarded without Close is closed best-effort by a GC cleanup, never
// twice. Operations on a closed File return ErrClosed.
//
// The session itself — negotiation, transport, callback dispatch,
// authentication — lives behind the Session interface and is provided by
// the caller. See the loopback subpackage for an in-process implementation.
package smb
