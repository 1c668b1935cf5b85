// Program representation: addresses, commands, and the compiled
// instruction stream.

package parser

import (
	"fmt"
	"strconv"
	"strings"
)

// Line is one line of input: a 1-based index and its text.
type Line struct {
	Num  int
	Text string
}

// Address is a predicate over input lines.
type Address interface {
	// Match reports whether the address selects line. Range
	// addresses also update their interior state; dispatch is
	// single-threaded, so no locking is involved.
	Match(line Line) bool
	fmt.Stringer
}

// Always matches every line. It is what an instruction with no
// address gets, and any OR-set containing it collapses to it.
type Always struct{}

// Final matches no line during normal iteration; it marks the
// finalize block, whose commands run once after input ends.
type Final struct{}

// Location matches the line with index N.
type Location struct {
	N int
}

// Pattern matches lines whose text matches the regex.
type Pattern struct {
	Regex *Regex
}

// Negate inverts its operand. Use negate to build one so double
// negation collapses.
type Negate struct {
	Inner Address
}

// Set is a short-circuit OR over its members, in declaration order.
// Nested sets are flattened at parse time.
type Set struct {
	Addrs []Address
}

// Deferred is the `?` placeholder: "the pattern of the substitution
// that follows". It is rewritten to a Pattern during compilation and
// never survives into a runnable program.
type Deferred struct{}

// Range matches from the line where Lo matches through the line
// where Hi matches, inclusive. The inside flag is interior mutable
// state owned by the compiled program: a Range lives behind its
// pointer for the whole run and must not be value-copied.
type Range struct {
	Lo, Hi Address
	inside bool
}

func (Always) Match(Line) bool   { return true }
func (Final) Match(Line) bool    { return false }
func (Deferred) Match(Line) bool { return false }

func (a Location) Match(line Line) bool { return a.N == line.Num }
func (a Pattern) Match(line Line) bool  { return a.Regex.MatchString(line.Text) }
func (a Negate) Match(line Line) bool   { return !a.Inner.Match(line) }

func (a Set) Match(line Line) bool {
	for _, addr := range a.Addrs {
		if addr.Match(line) {
			return true
		}
	}
	return false
}

func (r *Range) Match(line Line) bool {
	if r.inside {
		if r.Hi.Match(line) {
			r.inside = false
		}
		return true
	}
	if r.Lo.Match(line) {
		// A range that closes on its opening line doesn't stay open.
		if !r.Hi.Match(line) {
			r.inside = true
		}
		return true
	}
	return false
}

// negate inverts addr, collapsing double negation.
func negate(addr Address) Address {
	if n, ok := addr.(Negate); ok {
		return n.Inner
	}
	return Negate{Inner: addr}
}

func (Always) String() string     { return "*" }
func (Final) String() string      { return "$" }
func (Deferred) String() string   { return "?" }
func (a Location) String() string { return strconv.Itoa(a.N) }
func (a Pattern) String() string  { return "/" + a.Regex.String() + "/" }
func (a Negate) String() string   { return a.Inner.String() + "!" }
func (r *Range) String() string   { return r.Lo.String() + "-" + r.Hi.String() }

func (a Set) String() string {
	parts := make([]string, len(a.Addrs))
	for i, addr := range a.Addrs {
		parts[i] = addr.String()
	}
	return strings.Join(parts, ",")
}

// Command is one executable sled command. Commands are plain data;
// the interp package gives them behavior.
type Command interface {
	fmt.Stringer
	command()
}

type (
	// Println (p) prints the pattern buffer followed by a newline.
	Println struct{}
	// Print (P) prints the pattern buffer with no newline.
	Print struct{}
	// Escape (l) prints the pattern buffer in escaped form.
	Escape struct{}
	// LineNum (=) prints the current line number.
	LineNum struct{}
	// Insert prints a constant string.
	Insert struct {
		Text string
	}
	// Substitute (s/src/dst/[g|N]) replaces matches of Regex in the
	// pattern buffer with the expanded Template. Limit 0 means all
	// occurrences, otherwise only the first Limit.
	Substitute struct {
		Regex    *Regex
		Template string
		Limit    int
	}
	// Keep (k) re-slices the pattern buffer by rune count: Skip
	// runes dropped from the front, then Take runes kept (Take < 0
	// keeps everything to the end).
	Keep struct {
		Skip int
		Take int
	}
	// Reset (z) clears the pattern buffer.
	Reset struct{}
	// Hold (h) copies the pattern buffer into the hold buffer.
	Hold struct{}
	// Get (g) copies the hold buffer into the pattern buffer.
	Get struct{}
	// Exchange (x) swaps the two buffers.
	Exchange struct{}
	// JoinNL (j) appends a newline plus the hold buffer.
	JoinNL struct{}
	// Join (J) appends the hold buffer.
	Join struct{}
	// ReadLines (r N) pulls up to N more input lines into the
	// pattern buffer, each preceded by a newline.
	ReadLines struct {
		N int
	}
	// ReadReplace (R) replaces the pattern buffer and line index
	// with the next input line, or breaks if input is exhausted.
	ReadReplace struct{}
	// Delete (d) clears the pattern buffer and suppresses printing.
	Delete struct{}
	// Break (.) leaves the innermost loop, or ends the line.
	Break struct{}
	// Quit (q [code]) stops the run with the given exit code.
	Quit struct {
		Code int
	}
	// Shell (e) pipes the pattern buffer to the shell and replaces
	// it with the captured output.
	Shell struct{}
	// Loop (:{…}) re-runs its body until something inside breaks.
	Loop struct {
		Body []Action
	}
)

func (Println) command()     {}
func (Print) command()       {}
func (Escape) command()      {}
func (LineNum) command()     {}
func (Insert) command()      {}
func (Substitute) command()  {}
func (Keep) command()        {}
func (Reset) command()       {}
func (Hold) command()        {}
func (Get) command()         {}
func (Exchange) command()    {}
func (JoinNL) command()      {}
func (Join) command()        {}
func (ReadLines) command()   {}
func (ReadReplace) command() {}
func (Delete) command()      {}
func (Break) command()       {}
func (Quit) command()        {}
func (Shell) command()       {}
func (Loop) command()        {}

func (Println) String() string     { return "p" }
func (Print) String() string       { return "P" }
func (Escape) String() string      { return "l" }
func (LineNum) String() string     { return "=" }
func (Reset) String() string       { return "z" }
func (Hold) String() string        { return "h" }
func (Get) String() string         { return "g" }
func (Exchange) String() string    { return "x" }
func (JoinNL) String() string      { return "j" }
func (Join) String() string        { return "J" }
func (ReadReplace) String() string { return "R" }
func (Delete) String() string      { return "d" }
func (Break) String() string       { return "." }
func (Shell) String() string       { return "e" }

func (c Insert) String() string    { return strconv.Quote(c.Text) }
func (c ReadLines) String() string { return "r" + strconv.Itoa(c.N) }
func (c Quit) String() string      { return "q" + strconv.Itoa(c.Code) }

func (c Substitute) String() string {
	s := "s/" + c.Regex.String() + "/" + c.Template + "/"
	if c.Limit > 0 {
		s += strconv.Itoa(c.Limit)
	}
	return s
}

func (c Keep) String() string {
	if c.Take < 0 {
		return "k" + strconv.Itoa(c.Skip+1) + "-"
	}
	return "k" + strconv.Itoa(c.Skip+1) + "-" + strconv.Itoa(c.Skip+c.Take)
}

func (c Loop) String() string {
	parts := make([]string, len(c.Body))
	for i, a := range c.Body {
		parts[i] = a.String()
	}
	return ":{ " + strings.Join(parts, " ") + " }"
}

// Action is one slot in the compiled instruction stream: either a
// guarded condition carrying the number of following actions to jump
// over when the match fails, or a command.
type Action struct {
	Cond Address // nil for command actions
	Skip int
	Cmd  Command // nil for condition actions
}

func (a Action) String() string {
	if a.Cond != nil {
		return "[" + a.Cond.String() + " +" + strconv.Itoa(a.Skip) + "]"
	}
	return a.Cmd.String()
}

// Program is a compiled script: the main instruction body plus the
// finalize commands run once after input ends. A Program is immutable
// after compilation except for the interior state of its Range
// addresses, which persists across lines and belongs to the run.
type Program struct {
	Body     []Action
	Finalize []Command
}

// String renders the compiled instruction stream, one action after
// another. It is the form the parser tests compare against and what
// the CLI's dump flag prints.
func (p *Program) String() string {
	parts := make([]string, 0, len(p.Body)+1)
	for _, a := range p.Body {
		parts = append(parts, a.String())
	}
	if len(p.Finalize) > 0 {
		fin := make([]string, len(p.Finalize))
		for i, cmd := range p.Finalize {
			fin[i] = cmd.String()
		}
		parts = append(parts, "$: "+strings.Join(fin, " "))
	}
	return strings.Join(parts, " ")
}
