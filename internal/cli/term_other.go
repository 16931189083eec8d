//go:build !(linux || darwin || freebsd || netbsd || openbsd)

package cli

// isTerminal assumes a terminal where termios is unavailable.
func isTerminal(uintptr) bool { return true }
