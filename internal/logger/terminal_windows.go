//go:build windows

package logger

// isTerminal always reports false on Windows; colored output is disabled
// rather than probing the console API.
func isTerminal(uintptr) bool {
	return false
}
