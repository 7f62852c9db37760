// Package core implements the DBF table engine: header codec, schema
// model, record cache, value codec, and schema mutation, all built above
// a pluggable I/O capability set rather than direct filesystem calls.
package core

import (
	"errors"
	"io"
	"os"
	"strconv"
	"strings"
)

// Stream is the minimal byte-stream surface the engine needs from an open
// file: read, write, seek, tell, flush and close. DefaultHooks satisfies
// it with osStream, a thin wrapper over *os.File; a caller may supply any
// in-memory or mocked substitute.
type Stream interface {
	io.ReadWriteSeeker
	io.Closer
	Tell() (int64, error)
	Flush() error
}

// Hooks is the capability set the engine performs all I/O through. The
// engine never calls the operating system directly; every open, remove,
// error report and locale-independent float parse goes through a Hooks
// value supplied by the caller. DefaultHooks implements it over the host
// filesystem.
type Hooks interface {
	// Open opens path under the given access mode, creating it first if
	// create is true (truncating any existing file).
	Open(path string, mode AccessMode, create bool) (Stream, error)
	// Remove deletes path. Absence of the file is not an error.
	Remove(path string) error
	// ReadAll reads an entire sidecar-sized file (used for .cpg lookups).
	// Returns os.ErrNotExist (wrapped) when the file is absent.
	ReadAll(path string, maxBytes int) ([]byte, error)
	// Error reports a non-fatal I/O diagnostic. The default hooks write
	// nothing; callers that want visibility supply their own.
	Error(op string, err error)
	// Atof parses a decimal number using '.' as the decimal separator,
	// independent of the process locale.
	Atof(s string) (float64, error)
}

// AccessMode is the normalized open mode.
type AccessMode int

const (
	// ReadOnly corresponds to caller-supplied "r" or "rb".
	ReadOnly AccessMode = iota
	// ReadWrite corresponds to caller-supplied "r+", "rb+" or "r+b".
	ReadWrite
)

// ErrUnknownMode is returned by ParseAccessMode for any string outside
// the recognized fopen-style mode families.
var ErrUnknownMode = errors.New("dbf: unrecognized open mode")

// ParseAccessMode normalizes a caller-supplied fopen-style mode string:
// "r"/"rb" collapse to read-only, "r+"/"rb+"/"r+b" collapse to
// read-write; anything else is rejected.
func ParseAccessMode(mode string) (AccessMode, error) {
	switch mode {
	case "r", "rb":
		return ReadOnly, nil
	case "r+", "rb+", "r+b":
		return ReadWrite, nil
	default:
		return 0, ErrUnknownMode
	}
}

// DefaultHooks is the Hooks implementation backed by the host
// filesystem.
type DefaultHooks struct{}

// NewDefaultHooks returns the standard os.File-backed Hooks.
func NewDefaultHooks() *DefaultHooks { return &DefaultHooks{} }

func (DefaultHooks) Open(path string, mode AccessMode, create bool) (Stream, error) {
	if create {
		f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
		if err != nil {
			return nil, err
		}
		return &osStream{f}, nil
	}
	flag := os.O_RDONLY
	if mode == ReadWrite {
		flag = os.O_RDWR
	}
	f, err := os.OpenFile(path, flag, 0644)
	if err != nil {
		return nil, err
	}
	return &osStream{f}, nil
}

func (DefaultHooks) Remove(path string) error {
	err := os.Remove(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func (DefaultHooks) ReadAll(path string, maxBytes int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	buf := make([]byte, maxBytes)
	n, err := f.Read(buf)
	if err != nil && err != io.EOF {
		return nil, err
	}
	return buf[:n], nil
}

func (DefaultHooks) Error(op string, err error) {
	// The default hooks are silent; callers that want diagnostics supply
	// their own Hooks.Error.
}

// Atof parses s as a decimal number using '.' as the separator
// regardless of process locale.
func (DefaultHooks) Atof(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

// osStream adapts *os.File to Stream, adding Tell and Flush. os.File has
// no user-space buffer, so Flush calls Sync, which commits the file's
// contents to stable storage.
type osStream struct {
	*os.File
}

func (s *osStream) Tell() (int64, error) {
	return s.Seek(0, io.SeekCurrent)
}

func (s *osStream) Flush() error {
	return s.Sync()
}
