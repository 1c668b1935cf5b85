// Package parser compiles sled scripts into executable programs.
//
// A script is a sequence of instructions, each an optional address
// followed by commands. The parser emits the flat, jump-annotated
// instruction stream directly: every instruction contributes one
// condition action carrying the length of its command list (the
// skip count), followed by the command actions themselves. The
// execution engine lives in the interp package.
package parser

import (
	"fmt"
	"os"
	"strconv"
	"unicode"

	"github.com/sledlang/sled/lexer"
)

// ParseError is a compile error, with the script position at which
// it was detected. No program is produced when one is returned.
type ParseError struct {
	Position lexer.Position
	Message  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %d:%d: %s", e.Position.Line, e.Position.Column, e.Message)
}

// ParseProgram compiles an in-memory script.
func ParseProgram(src string) (*Program, error) {
	return parse(lexer.NewStringReader(src))
}

// ParseFile compiles a script file. The script may span any number
// of physical lines.
func ParseFile(path string) (*Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return parse(lexer.NewScriptReader(f))
}

type parser struct {
	r *lexer.Reader
}

func parse(r *lexer.Reader) (prog *Program, err error) {
	defer func() {
		// Compile errors are raised with panic so the grammar code
		// doesn't thread errors through every call; they're
		// recovered here.
		if e := recover(); e != nil {
			parseErr, ok := e.(*ParseError)
			if !ok {
				panic(e)
			}
			prog = nil
			err = parseErr
		}
	}()

	p := &parser{r: r}
	prog = &Program{}
	for {
		p.skipWhitespace()
		ch, ok := r.Peek()
		if !ok {
			break
		}
		if ch == '}' {
			p.errorf("unexpected '}'")
		}
		p.parseInstruction(&prog.Body, &prog.Finalize)
	}
	if readErr := r.Err(); readErr != nil {
		return nil, readErr
	}
	return prog, nil
}

// parseInstruction parses one [address][commands] instruction and
// appends its actions. Instructions guarded by the final address go
// to the finalize list instead (only at top level: finalize is nil
// inside loop bodies, where `$` is just a condition that never
// matches).
func (p *parser) parseInstruction(body *[]Action, finalize *[]Command) {
	p.skipWhitespace()
	addr := p.parseAddress()
	p.skipWhitespace()
	cmds := p.parseCommands()

	if _, ok := addr.(Final); ok && finalize != nil {
		for _, cmd := range cmds {
			if _, isLoop := cmd.(Loop); isLoop {
				p.errorf("loops are not allowed in the finalize block")
			}
			*finalize = append(*finalize, cmd)
		}
		return
	}

	addr = p.resolveDeferred(addr, cmds)
	*body = append(*body, Action{Cond: addr, Skip: len(cmds)})
	for _, cmd := range cmds {
		*body = append(*body, Action{Cmd: cmd})
	}
}

// resolveDeferred rewrites `?` placeholders to the pattern of the
// instruction's leading substitution. The rewrite never changes the
// command list, so skip counts computed from it stay valid.
func (p *parser) resolveDeferred(addr Address, cmds []Command) Address {
	switch a := addr.(type) {
	case Deferred:
		if len(cmds) > 0 {
			if sub, ok := cmds[0].(Substitute); ok {
				return Pattern{Regex: sub.Regex}
			}
		}
		p.errorf("deferred address must be followed by a substitution")
	case Negate:
		return Negate{Inner: p.resolveDeferred(a.Inner, cmds)}
	case *Range:
		a.Lo = p.resolveDeferred(a.Lo, cmds)
		a.Hi = p.resolveDeferred(a.Hi, cmds)
		return a
	case Set:
		for i, member := range a.Addrs {
			a.Addrs[i] = p.resolveDeferred(member, cmds)
		}
		return a
	}
	return addr
}

func (p *parser) errorf(format string, args ...interface{}) {
	panic(&ParseError{Position: p.r.Pos(), Message: fmt.Sprintf(format, args...)})
}

func (p *parser) skipWhitespace() {
	for {
		ch, ok := p.r.Peek()
		if !ok || !unicode.IsSpace(ch) {
			return
		}
		p.r.Skip()
	}
}

func (p *parser) skipLine() {
	for {
		ch, ok := p.r.Next()
		if !ok || ch == '\n' {
			return
		}
	}
}

// readInteger consumes a run of ASCII digits, possibly empty.
func (p *parser) readInteger() string {
	var digits []rune
	for {
		ch, ok := p.r.Peek()
		if !ok || ch < '0' || ch > '9' {
			return string(digits)
		}
		digits = append(digits, ch)
		p.r.Skip()
	}
}

func (p *parser) atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		p.errorf("invalid number %q: %s", s, err)
	}
	return n
}

// parseInt reads an optional integer, returning def when absent.
func (p *parser) parseInt(def int) int {
	s := p.readInteger()
	if s == "" {
		return def
	}
	return p.atoi(s)
}

// parseRegexLiteral extracts the text of a regex literal.
func (p *parser) parseRegexLiteral() string {
	src, err := lexer.ScanRegex(p.r)
	if err != nil {
		p.errorf("%s", err)
	}
	return src
}

func (p *parser) compileRegex(src string) *Regex {
	re, err := CompileRegex(src)
	if err != nil {
		p.errorf("invalid regular expression /%s/: %s", src, err)
	}
	return re
}
