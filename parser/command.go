// Command grammar: one symbol per command, with sub-grammars for
// substitution, character ranges, quoted literals, and loop bodies.

package parser

import "unicode"

// parseCommands parses the command list of one instruction. The list
// ends at ';', at end of script, at '}' (left for the loop parser to
// consume), or at '.', which emits a break and hard-stops the list.
func (p *parser) parseCommands() []Command {
	var cmds []Command
loop:
	for {
		ch, ok := p.r.Peek()
		if !ok {
			break
		}
		switch {
		case ch == ';':
			p.r.Skip()
			break loop
		case ch == '}':
			break loop
		case ch == '.':
			p.r.Skip()
			cmds = append(cmds, Break{})
			break loop
		case ch == '#':
			p.skipLine()
			continue
		case unicode.IsSpace(ch):
			p.r.Skip()
			continue
		}

		p.r.Skip()
		var cmd Command
		switch ch {
		case 'p':
			cmd = Println{}
		case 'P':
			cmd = Print{}
		case 'l':
			cmd = Escape{}
		case '=':
			cmd = LineNum{}
		case 'd':
			cmd = Delete{}
		case 'z':
			cmd = Reset{}
		case 'h':
			cmd = Hold{}
		case 'g':
			cmd = Get{}
		case 'x':
			cmd = Exchange{}
		case 'j':
			cmd = JoinNL{}
		case 'J':
			cmd = Join{}
		case 'e':
			cmd = Shell{}
		case 'R':
			cmd = ReadReplace{}
		case 's':
			cmd = p.parseSubstitute()
		case 'k':
			p.skipWhitespace()
			cmd = p.parseKeep()
		case 'r':
			p.skipWhitespace()
			cmd = ReadLines{N: p.parseInt(1)}
		case 'q':
			p.skipWhitespace()
			cmd = Quit{Code: p.parseInt(0)}
		case '\'', '"':
			cmd = Insert{Text: p.parseQuoted(ch)}
		case ':':
			cmd = p.parseLoop()
		default:
			p.errorf("unexpected %q", ch)
		}
		cmds = append(cmds, cmd)
	}
	return cmds
}

// parseSubstitute parses s/src/dst/[g|N], the s having already been
// consumed.
func (p *parser) parseSubstitute() Command {
	if ch, ok := p.r.Peek(); !ok || ch != '/' {
		p.errorf("missing '/' after s")
	}
	src := p.parseRegexLiteral()
	if src == "" {
		p.errorf("empty regular expression in substitution")
	}
	re := p.compileRegex(src)
	template := p.parseTemplate()

	limit := 0
	if ch, ok := p.r.Peek(); ok {
		if ch == 'g' {
			p.r.Skip() // g is the default: no limit
		} else if ch >= '0' && ch <= '9' {
			limit = p.atoi(p.readInteger())
		}
	}
	return Substitute{Regex: re, Template: template, Limit: limit}
}

// parseTemplate reads the substitution's replacement text up to the
// next unescaped '/'. A digit run right after '$' is wrapped in
// braces so that "$123abc" reads as the group reference "${123}abc"
// rather than "${123abc}"; digits on their own stay literal. Escape
// sequences are decoded here.
func (p *parser) parseTemplate() string {
	var acc []rune
	for {
		ch, ok := p.r.Peek()
		if !ok {
			p.errorf("unterminated substitution: missing '/'")
		}
		switch {
		case ch == '/':
			p.r.Skip()
			return string(acc)
		case ch == '$':
			p.r.Skip()
			acc = append(acc, '$')
			if d, ok := p.r.Peek(); ok && d >= '0' && d <= '9' {
				acc = append(acc, '{')
				acc = append(acc, []rune(p.readInteger())...)
				acc = append(acc, '}')
			}
		case ch == '\\':
			p.r.Skip()
			esc, ok := p.r.Next()
			if !ok {
				p.errorf("unterminated substitution: missing '/'")
			}
			if esc == '/' {
				acc = append(acc, '/')
			} else {
				acc = append(acc, p.decodeEscape(esc))
			}
		default:
			p.r.Skip()
			acc = append(acc, ch)
		}
	}
}

// parseKeep parses k[S][-[E]] into a 0-based skip plus a take count
// (-1 meaning to end of line). Indexes are 1-based in the script.
func (p *parser) parseKeep() Command {
	skip := 0
	if s := p.readInteger(); s != "" {
		n := p.atoi(s)
		if n == 0 {
			p.errorf("character indexes are 1-based")
		}
		skip = n - 1
	}

	if !p.r.NextIs('-') {
		return Keep{Skip: skip, Take: 1}
	}

	s := p.readInteger()
	if s == "" {
		return Keep{Skip: skip, Take: -1}
	}
	end := p.atoi(s)
	if end == 0 || end <= skip {
		p.errorf("invalid character range: %d-%d", skip+1, end)
	}
	return Keep{Skip: skip, Take: end - skip}
}

// parseQuoted reads a string literal up to the closing quote,
// decoding escape sequences as it goes.
func (p *parser) parseQuoted(quote rune) string {
	var acc []rune
	for {
		ch, ok := p.r.Next()
		if !ok {
			p.errorf("unterminated string: missing %q", quote)
		}
		switch ch {
		case quote:
			return string(acc)
		case '\\':
			esc, ok := p.r.Next()
			if !ok {
				p.errorf("unterminated string: missing %q", quote)
			}
			if esc == quote {
				acc = append(acc, quote)
			} else {
				acc = append(acc, p.decodeEscape(esc))
			}
		default:
			acc = append(acc, ch)
		}
	}
}

func (p *parser) decodeEscape(ch rune) rune {
	switch ch {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	case 'r':
		return '\r'
	case '0':
		return 0
	case '\\', '\'', '"':
		return ch
	}
	p.errorf("unrecognized escape sequence \\%c", ch)
	return 0
}

// parseLoop parses :{ instruction* }. The body is a complete nested
// instruction list, dispatched repeatedly by the engine until a
// break from inside it.
func (p *parser) parseLoop() Command {
	if !p.r.NextIs('{') {
		p.errorf("missing '{' after ':'")
	}
	var body []Action
	for {
		p.skipWhitespace()
		ch, ok := p.r.Peek()
		if !ok {
			p.errorf("unterminated loop: missing '}'")
		}
		if ch == '}' {
			p.r.Skip()
			break
		}
		p.parseInstruction(&body, nil)
	}
	return Loop{Body: body}
}
