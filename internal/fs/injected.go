package fs

import (
	"errors"
	"io"
	iofs "io/fs"
	"os"
)

// Op names an [FS] method for fault injection.
type Op string

// Injectable operations.
const (
	OpOpen            Op = "open"
	OpReadFile        Op = "readfile"
	OpWriteFileAtomic Op = "writefileatomic"
	OpMkdirAll        Op = "mkdirall"
	OpExists          Op = "exists"
)

// ErrInjected is the default error returned by [Faulty].
var ErrInjected = errors.New("injected failure")

// InjectedError marks an error as intentionally injected by [Faulty].
//
// It wraps the underlying error so errors.Is/As continue to work.
type InjectedError struct {
	Op  Op
	Err error
}

func (e *InjectedError) Error() string {
	return string(e.Op) + ": " + e.Err.Error()
}

func (e *InjectedError) Unwrap() error {
	return e.Err
}

// IsInjected reports whether err (or any wrapped error) was injected by
// [Faulty]. Returns false if err is nil.
func IsInjected(err error) bool {
	var injected *InjectedError
	return errors.As(err, &injected)
}

// Faulty wraps an [FS] and fails the configured operations. Operations not
// listed in Fail pass through to the wrapped FS.
type Faulty struct {
	FS   FS
	Fail map[Op]error // nil value means ErrInjected
}

// NewFaulty returns a Faulty that fails every op in ops with [ErrInjected].
func NewFaulty(inner FS, ops ...Op) *Faulty {
	fail := make(map[Op]error, len(ops))
	for _, op := range ops {
		fail[op] = nil
	}

	return &Faulty{FS: inner, Fail: fail}
}

func (f *Faulty) check(op Op, path string) error {
	err, ok := f.Fail[op]
	if !ok {
		return nil
	}

	if err == nil {
		err = ErrInjected
	}

	return &InjectedError{Op: op, Err: &iofs.PathError{Op: string(op), Path: path, Err: err}}
}

func (f *Faulty) Open(path string) (io.ReadCloser, error) {
	if err := f.check(OpOpen, path); err != nil {
		return nil, err
	}

	return f.FS.Open(path)
}

func (f *Faulty) ReadFile(path string) ([]byte, error) {
	if err := f.check(OpReadFile, path); err != nil {
		return nil, err
	}

	return f.FS.ReadFile(path)
}

func (f *Faulty) WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	if err := f.check(OpWriteFileAtomic, path); err != nil {
		return err
	}

	return f.FS.WriteFileAtomic(path, data, perm)
}

func (f *Faulty) MkdirAll(path string, perm os.FileMode) error {
	if err := f.check(OpMkdirAll, path); err != nil {
		return err
	}

	return f.FS.MkdirAll(path, perm)
}

func (f *Faulty) Exists(path string) (bool, error) {
	if err := f.check(OpExists, path); err != nil {
		return false, err
	}

	return f.FS.Exists(path)
}

var _ FS = (*Faulty)(nil)
