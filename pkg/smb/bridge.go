package smb

// blockingCall turns one asynchronous protocol exchange into one blocking
// call.
//
// It creates a fresh completion token, lets submit hand it to the session's
// asynchronous surface, and parks the calling goroutine until the session's
// dispatch goroutine delivers the result. Every protocol operation in this
// package (open, read, write, stat, truncate, sync) goes through here, so
// status translation and the waiting discipline exist in exactly one place.
//
// Failure handling:
//   - submit returning a negative status means the request could not even be
//     enqueued; the error is translated immediately, without waiting.
//   - a negative completion status is translated the same way: the session's
//     last-error description when non-empty (default error text otherwise),
//     with the status mapped to a recognized sentinel when possible.
//
// The caller must not hold the session's exclusive-access guard across this
// call: completion is delivered from the dispatch goroutine, which may need
// that guard, and waiting while holding it deadlocks the session.
//
// On success the raw status and the operation-specific payload are returned
// for the caller to interpret (a byte count for transfers, a *FileInfo for
// stat, a Handle for open).
func blockingCall(sess Session, defaultErr error, submit func(Session, *Pending) Status) (Status, any, error) {
	p := NewPending()

	if st := submit(sess, p); st < 0 {
		return st, nil, translateStatus(sess, st, defaultErr)
	}

	c := p.wait()
	if c.status < 0 {
		return c.status, nil, translateStatus(sess, c.status, defaultErr)
	}

	return c.status, c.payload, nil
}
