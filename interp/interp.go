// Package interp executes compiled sled programs against a line
// source, one line at a time through the pattern and hold buffers.
package interp

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/sledlang/sled/parser"
)

// Status is the control signal a run terminates with.
type Status int

const (
	// Normal means dispatch ran to completion on the last line.
	Normal Status = iota
	// NoPrint means the last line was deleted from the output.
	NoPrint
	// Break means dispatch was cut short on the last line, or a
	// read-replace found no more input.
	Break
	// Quit means the run was stopped early with an exit code.
	Quit
)

func (s Status) String() string {
	switch s {
	case Normal:
		return "normal"
	case NoPrint:
		return "noprint"
	case Break:
		return "break"
	case Quit:
		return "quit"
	}
	return "unknown"
}

// Sentinel errors carry command statuses out of nested dispatch.
// They never escape the engine.
var (
	errDelete = errors.New("delete")
	errBreak  = errors.New("break")
	errQuit   = errors.New("quit")
)

// Config holds the I/O and process environment for a run. The zero
// value is usable: output and error default to the process's own.
type Config struct {
	// Output is where pattern-buffer text, escaped text, line
	// numbers, and inserted literals are written. Defaults to
	// os.Stdout.
	Output io.Writer

	// Error is where shell evaluations send their standard error.
	// Defaults to os.Stderr.
	Error io.Writer

	// PrintAll prints every line's final pattern buffer, newline
	// terminated, unless the line was deleted.
	PrintAll bool

	// Exec overrides shell evaluation, mainly for tests. When nil a
	// real shell is spawned.
	Exec Executor

	// ShellCommand is the argv prefix the pattern buffer is passed
	// to for shell evaluation. Defaults to {"sh", "-c"}.
	ShellCommand []string
}

// Result is what a completed run reports.
type Result struct {
	// Status is the final control signal: the last line's, unless
	// the finalize block overrode it.
	Status Status

	// ExitCode is the code attached to a Quit status.
	ExitCode int

	// Matches counts the input lines on which at least one
	// condition matched.
	Matches int
}

type interp struct {
	program  *parser.Program
	src      LineSource
	output   *bufio.Writer
	errorOut io.Writer
	exec     Executor

	printAll bool
	pattern  parser.Line
	hold     string
	lineNum  int
	matched  bool
	exitCode int
}

// ExecProgram runs a compiled program over the given line source.
func ExecProgram(program *parser.Program, src LineSource, config *Config) (Result, error) {
	if config == nil {
		config = &Config{}
	}
	output := config.Output
	if output == nil {
		output = os.Stdout
	}
	errorOut := config.Error
	if errorOut == nil {
		errorOut = os.Stderr
	}
	p := &interp{
		program:  program,
		src:      src,
		output:   bufio.NewWriter(output),
		errorOut: errorOut,
		exec:     config.Exec,
		printAll: config.PrintAll,
	}
	if p.exec == nil {
		p.exec = &shellExecutor{shell: config.ShellCommand, stderr: errorOut}
	}

	result, err := p.run()
	if flushErr := p.output.Flush(); err == nil {
		err = flushErr
	}
	return result, err
}

// Exec compiles and runs a script in one step, reading lines from
// input. It is the convenience entry point for simple embedding.
func Exec(script string, input io.Reader, output io.Writer, printAll bool) (Result, error) {
	program, err := parser.ParseProgram(script)
	if err != nil {
		return Result{}, err
	}
	return ExecProgram(program, NewReaderSource(input), &Config{
		Output:   output,
		PrintAll: printAll,
	})
}

func (p *interp) run() (Result, error) {
	status := Normal
	matches := 0

	for {
		line, ok, err := p.nextLine()
		if err != nil {
			// The reader failed: stop at once, skipping finalize.
			return Result{}, err
		}
		if !ok {
			break
		}
		p.pattern = line
		p.matched = false
		status = Normal

		err = p.execActions(p.program.Body)
		switch err {
		case nil:
		case errDelete:
			status = NoPrint
		case errBreak:
			status = Break
		case errQuit:
			status = Quit
		default:
			return Result{}, err
		}
		if p.matched {
			matches++
		}

		if status == NoPrint {
			continue
		}
		if p.printAll {
			if err := p.writeString(p.pattern.Text + "\n"); err != nil {
				return Result{}, err
			}
		}
		if status == Quit {
			break
		}
	}

	for _, cmd := range p.program.Finalize {
		err := p.execCommand(cmd)
		switch err {
		case nil:
			continue
		case errDelete:
			status = NoPrint
		case errBreak:
			status = Break
		case errQuit:
			status = Quit
		default:
			return Result{}, err
		}
		break
	}

	return Result{Status: status, ExitCode: p.exitCode, Matches: matches}, nil
}

// nextLine pulls one line from the source, numbering it.
func (p *interp) nextLine() (parser.Line, bool, error) {
	if !p.src.Scan() {
		if err := p.src.Err(); err != nil {
			return parser.Line{}, false, fmt.Errorf("reading input: %w", err)
		}
		return parser.Line{}, false, nil
	}
	p.lineNum++
	return parser.Line{Num: p.lineNum, Text: p.src.Text()}, true, nil
}

// execActions dispatches one instruction stream against the current
// line. A failed condition jumps over its command block; a command
// status other than normal stops dispatch and propagates.
func (p *interp) execActions(body []parser.Action) error {
	pos := 0
	for pos < len(body) {
		action := body[pos]
		if action.Cond != nil {
			if action.Cond.Match(p.pattern) {
				p.matched = true
			} else {
				pos += action.Skip
			}
		} else if err := p.execCommand(action.Cmd); err != nil {
			return err
		}
		pos++
	}
	return nil
}

func (p *interp) execCommand(cmd parser.Command) error {
	switch c := cmd.(type) {
	case parser.Println:
		return p.writeString(p.pattern.Text + "\n")
	case parser.Print:
		return p.writeString(p.pattern.Text)
	case parser.Escape:
		quoted := strconv.Quote(p.pattern.Text)
		return p.writeString(quoted[1:len(quoted)-1] + "\n")
	case parser.LineNum:
		return p.writeString(strconv.Itoa(p.pattern.Num))
	case parser.Insert:
		return p.writeString(c.Text)
	case parser.Substitute:
		p.pattern.Text = c.Regex.Replace(p.pattern.Text, c.Template, c.Limit)
	case parser.Keep:
		runes := []rune(p.pattern.Text)
		if c.Skip >= len(runes) {
			p.pattern.Text = ""
			break
		}
		runes = runes[c.Skip:]
		if c.Take >= 0 && c.Take < len(runes) {
			runes = runes[:c.Take]
		}
		p.pattern.Text = string(runes)
	case parser.Reset:
		p.pattern.Text = ""
	case parser.Hold:
		p.hold = p.pattern.Text
	case parser.Get:
		p.pattern.Text = p.hold
	case parser.Exchange:
		p.pattern.Text, p.hold = p.hold, p.pattern.Text
	case parser.JoinNL:
		p.pattern.Text += "\n" + p.hold
	case parser.Join:
		p.pattern.Text += p.hold
	case parser.ReadLines:
		for i := 0; i < c.N; i++ {
			line, ok, err := p.nextLine()
			if err != nil {
				return err
			}
			if !ok {
				break
			}
			p.pattern.Text += "\n" + line.Text
		}
	case parser.ReadReplace:
		line, ok, err := p.nextLine()
		if err != nil {
			return err
		}
		if !ok {
			return errBreak
		}
		p.pattern = line
	case parser.Delete:
		p.pattern.Text = ""
		return errDelete
	case parser.Break:
		return errBreak
	case parser.Quit:
		p.exitCode = c.Code
		return errQuit
	case parser.Shell:
		return p.execShell()
	case parser.Loop:
		for {
			err := p.execActions(c.Body)
			if err == errBreak {
				return nil
			}
			if err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("unknown command %s", cmd)
	}
	return nil
}

// execShell pipes the pattern buffer to the shell and replaces it
// with the captured output, minus one trailing newline. A non-zero
// exit from the shell quits the run with that code.
func (p *interp) execShell() error {
	// Anything already printed must land before the subprocess's
	// own writes.
	if err := p.output.Flush(); err != nil {
		return err
	}
	out, code, err := p.exec.Execute(p.pattern.Text)
	if err != nil {
		return fmt.Errorf("shell evaluation: %w", err)
	}
	if !utf8.ValidString(out) {
		return errors.New("shell evaluation: output is not valid UTF-8")
	}
	p.pattern.Text = strings.TrimSuffix(out, "\n")
	if code != 0 {
		p.exitCode = code
		return errQuit
	}
	return nil
}

func (p *interp) writeString(s string) error {
	_, err := p.output.WriteString(s)
	return err
}
