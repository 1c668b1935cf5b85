package interp

import (
	"bufio"
	"io"
	"os"
)

const (
	inputBufSize  = 64 * 1024
	maxLineLength = 10 * 1024 * 1024
)

// newLineScanner returns a line scanner that tolerates lines far
// beyond bufio's default token limit.
func newLineScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, inputBufSize), maxLineLength)
	return scanner
}

// LineSource yields input lines one at a time. It has the shape of
// bufio.Scanner so readers based on one are thin wrappers.
type LineSource interface {
	// Scan advances to the next line, reporting false at end of
	// input or on error.
	Scan() bool
	// Text returns the current line without its trailing newline.
	Text() string
	// Err returns the first error encountered, if any.
	Err() error
}

// ReaderSource reads lines from an io.Reader.
type ReaderSource struct {
	scanner *bufio.Scanner
}

// NewReaderSource returns a LineSource over r.
func NewReaderSource(r io.Reader) *ReaderSource {
	return &ReaderSource{scanner: newLineScanner(r)}
}

func (s *ReaderSource) Scan() bool   { return s.scanner.Scan() }
func (s *ReaderSource) Text() string { return s.scanner.Text() }
func (s *ReaderSource) Err() error   { return s.scanner.Err() }

// FilesSource reads lines from a list of files in order, as one
// continuous stream. Files are opened lazily and closed as each is
// exhausted, so line numbering runs across file boundaries.
type FilesSource struct {
	paths   []string
	file    *os.File
	scanner *bufio.Scanner
	err     error
}

// NewFilesSource returns a LineSource over the named files.
func NewFilesSource(paths []string) *FilesSource {
	return &FilesSource{paths: paths}
}

func (s *FilesSource) Scan() bool {
	for {
		if s.err != nil {
			return false
		}
		if s.scanner != nil {
			if s.scanner.Scan() {
				return true
			}
			s.err = s.scanner.Err()
			s.scanner = nil
			closeErr := s.file.Close()
			s.file = nil
			if s.err == nil {
				s.err = closeErr
			}
			continue
		}
		if len(s.paths) == 0 {
			return false
		}
		s.file, s.err = os.Open(s.paths[0])
		s.paths = s.paths[1:]
		if s.err != nil {
			return false
		}
		s.scanner = newLineScanner(s.file)
	}
}

func (s *FilesSource) Text() string {
	if s.scanner == nil {
		return ""
	}
	return s.scanner.Text()
}

func (s *FilesSource) Err() error { return s.err }
