package parser

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/coregx/coregex/meta"
)

// Regex is a compiled regular-expression capability. The boolean
// match used by pattern addresses runs on the coregex meta engine;
// substitution needs capture-group template expansion, which that
// engine doesn't provide, so it runs on the standard library's.
// Both are compiled from the same literal, so they agree on what
// matches.
type Regex struct {
	src    string
	engine *meta.Engine
	re     *regexp.Regexp
}

// CompileRegex compiles a regex literal as extracted by the lexer.
// Verbose-mode syntax is resolved first: neither engine has an x
// flag, so its comments and insignificant whitespace are stripped
// here instead.
func CompileRegex(src string) (*Regex, error) {
	expr := rewriteVerbose(src)
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, err
	}
	engine, err := meta.Compile(expr)
	if err != nil {
		return nil, err
	}
	return &Regex{src: src, engine: engine, re: re}, nil
}

// MatchString reports whether the regex matches anywhere in s.
func (r *Regex) MatchString(s string) bool {
	return r.engine.IsMatch([]byte(s))
}

// Replace substitutes matches of r in s with the expanded template
// (group references in $1 or ${1} form). A limit of 0 or less
// replaces every match; otherwise only the first limit matches.
func (r *Regex) Replace(s, template string, limit int) string {
	if limit <= 0 {
		return r.re.ReplaceAllString(s, template)
	}
	var out []byte
	pos := 0
	for n := 0; n < limit && pos <= len(s); n++ {
		m := r.re.FindStringSubmatchIndex(s[pos:])
		if m == nil {
			break
		}
		for i := range m {
			if m[i] >= 0 {
				m[i] += pos
			}
		}
		start, end := m[0], m[1]
		out = append(out, s[pos:start]...)
		out = r.re.ExpandString(out, template, s, m)
		pos = end
		if start == end {
			// empty match: step one rune so the loop makes progress
			if pos >= len(s) {
				break
			}
			_, size := utf8.DecodeRuneInString(s[pos:])
			out = append(out, s[pos:pos+size]...)
			pos += size
		}
	}
	return string(out) + s[pos:]
}

func (r *Regex) String() string { return r.src }

// rewriteVerbose drops x flags from group flag lists and, while a
// verbose flag is in effect, strips comments and unescaped
// whitespace. Flag scope follows the literal scanner: a flag-only
// group applies to the rest of its enclosing group, an inline group
// only to its own body.
func rewriteVerbose(src string) string {
	if !strings.Contains(src, "(?") {
		return src
	}
	v := &verboseRewriter{in: []rune(src)}
	v.rewrite(false, false)
	return string(v.out)
}

type verboseRewriter struct {
	in  []rune
	pos int
	out []rune
}

// rewrite copies runes until end of input or, inside a group, the
// group's closing paren (which is emitted before returning).
func (v *verboseRewriter) rewrite(verbose, inGroup bool) {
	for v.pos < len(v.in) {
		ch := v.in[v.pos]
		switch {
		case ch == '\\':
			v.copy(2)
		case ch == '[':
			v.class()
		case ch == ')' && inGroup:
			v.copy(1)
			return
		case ch == '(':
			v.pos++
			verbose = v.group(verbose)
		case verbose && ch == '#':
			v.comment()
		case verbose && unicode.IsSpace(ch):
			v.pos++
		default:
			v.copy(1)
		}
	}
}

// group handles an opening paren that has been consumed but not yet
// emitted, returning the verbose mode for the rest of the enclosing
// group.
func (v *verboseRewriter) group(verbose bool) bool {
	if v.pos >= len(v.in) || v.in[v.pos] != '?' {
		v.out = append(v.out, '(')
		v.rewrite(verbose, true)
		return verbose
	}
	v.pos++

	var on, off []rune
	neg := false
	local := verbose
	for v.pos < len(v.in) && v.in[v.pos] != ':' && v.in[v.pos] != ')' {
		switch ch := v.in[v.pos]; {
		case ch == '-':
			neg = true
		case ch == 'x':
			local = !neg
		case neg:
			off = append(off, ch)
		default:
			on = append(on, ch)
		}
		v.pos++
	}
	flags := string(on)
	if len(off) > 0 {
		flags += "-" + string(off)
	}

	if v.pos < len(v.in) && v.in[v.pos] == ':' {
		v.pos++
		v.out = append(v.out, []rune("(?"+flags+":")...)
		v.rewrite(local, true)
		return verbose
	}
	if v.pos < len(v.in) && v.in[v.pos] == ')' {
		v.pos++
		// a flag group left with no flags disappears entirely
		if flags != "" {
			v.out = append(v.out, []rune("(?"+flags+")")...)
		}
		return local
	}
	// unterminated; the compiler will report it
	v.out = append(v.out, []rune("(?"+flags)...)
	return local
}

// class copies a character class verbatim: whitespace inside one is
// always significant.
func (v *verboseRewriter) class() {
	v.copy(1)
	if v.pos < len(v.in) && v.in[v.pos] == '^' {
		v.copy(1)
	}
	if v.pos < len(v.in) && v.in[v.pos] == ']' {
		v.copy(1)
	}
	for v.pos < len(v.in) {
		if v.in[v.pos] == '\\' {
			v.copy(2)
			continue
		}
		closing := v.in[v.pos] == ']'
		v.copy(1)
		if closing {
			return
		}
	}
}

func (v *verboseRewriter) comment() {
	for v.pos < len(v.in) {
		ch := v.in[v.pos]
		v.pos++
		if ch == '\n' {
			return
		}
	}
}

func (v *verboseRewriter) copy(n int) {
	for i := 0; i < n && v.pos < len(v.in); i++ {
		v.out = append(v.out, v.in[v.pos])
		v.pos++
	}
}
