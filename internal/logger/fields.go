package logger

// Standard field keys for structured logging. Using the same keys everywhere
// keeps the output queryable in log aggregation.
const (
	KeyPath   = "path"   // remote file path
	KeyMode   = "mode"   // open mode
	KeyHandle = "handle" // protocol handle token
	KeyStatus = "status" // protocol status code

	KeyOffset       = "offset"        // file offset for read/write
	KeyCount        = "count"         // byte count requested
	KeyBytesRead    = "bytes_read"    // bytes acknowledged by a read
	KeyBytesWritten = "bytes_written" // bytes acknowledged by a write

	KeyServer  = "server"  // server host
	KeyShare   = "share"   // share name
	KeySession = "session" // session client GUID
	KeyError   = "error"   // error detail
)
