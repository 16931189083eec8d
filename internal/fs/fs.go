// Package fs provides the filesystem operations canon needs behind an
// interface, so output handling can be tested with injected failures.
//
// The main types are:
//   - [FS]: interface for filesystem operations
//   - [Real]: production implementation using the [os] package
//   - [Faulty]: testing wrapper that fails selected operations
package fs

import (
	"io"
	"os"
)

// FS defines the filesystem operations used by the CLI.
type FS interface {
	// Open opens a file for reading. See [os.Open].
	Open(path string) (io.ReadCloser, error)

	// ReadFile reads an entire file into memory. See [os.ReadFile].
	ReadFile(path string) ([]byte, error)

	// WriteFileAtomic replaces path with data via temp file and rename.
	// Readers see either the old content or the new, never a mix.
	WriteFileAtomic(path string, data []byte, perm os.FileMode) error

	// MkdirAll creates a directory and all parents. See [os.MkdirAll].
	MkdirAll(path string, perm os.FileMode) error

	// Exists reports whether a file or directory exists.
	// Returns (false, nil) if not found, (false, err) on other errors.
	Exists(path string) (bool, error)
}
