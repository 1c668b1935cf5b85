// Package lexer provides the character-level script reader and the
// regex literal scanner used by the sled parser.
package lexer

import (
	"bufio"
	"io"
)

// Position is a location in the script (1-based), for error messages.
type Position struct {
	Line   int
	Column int
}

// Reader is a rune cursor over script text. In-memory scripts are
// held whole; streaming scripts are refilled one source line at a
// time with a newline appended after each, so a script may span any
// number of physical lines.
type Reader struct {
	scanner *bufio.Scanner // nil for in-memory scripts
	buf     []rune
	off     int
	pos     Position
	err     error
}

// NewStringReader returns a Reader over an in-memory script.
func NewStringReader(src string) *Reader {
	return &Reader{buf: []rune(src), pos: Position{Line: 1, Column: 1}}
}

// Scripts can carry long regex literals and inserts; allow lines
// well past bufio's default token limit.
const maxScriptLine = 10 * 1024 * 1024

// NewScriptReader returns a Reader that streams the script from r.
func NewScriptReader(r io.Reader) *Reader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxScriptLine)
	return &Reader{scanner: scanner, pos: Position{Line: 1, Column: 1}}
}

// Peek returns the next rune without consuming it. The second result
// is false at end of input or after a read error.
func (r *Reader) Peek() (rune, bool) {
	if !r.fill() {
		return 0, false
	}
	return r.buf[r.off], true
}

// Next consumes and returns the next rune.
func (r *Reader) Next() (rune, bool) {
	if !r.fill() {
		return 0, false
	}
	ch := r.buf[r.off]
	r.off++
	if ch == '\n' {
		r.pos.Line++
		r.pos.Column = 1
	} else {
		r.pos.Column++
	}
	return ch, true
}

// Skip consumes the next rune, discarding it.
func (r *Reader) Skip() {
	r.Next()
}

// NextIs consumes the next rune and reports true if it equals c;
// otherwise the cursor doesn't move.
func (r *Reader) NextIs(c rune) bool {
	if ch, ok := r.Peek(); ok && ch == c {
		r.Skip()
		return true
	}
	return false
}

// Pos reports the position of the rune Peek would return.
func (r *Reader) Pos() Position { return r.pos }

// Err returns the first I/O error encountered while refilling, if
// any. In-memory readers never fail.
func (r *Reader) Err() error { return r.err }

func (r *Reader) fill() bool {
	for r.off >= len(r.buf) {
		if r.scanner == nil || r.err != nil {
			return false
		}
		if !r.scanner.Scan() {
			r.err = r.scanner.Err()
			return false
		}
		r.buf = []rune(r.scanner.Text() + "\n")
		r.off = 0
	}
	return true
}
