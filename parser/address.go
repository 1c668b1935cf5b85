// Address grammar: comma-separated OR-sets of terms, each term an
// atom or a range of atoms, any of which may be negated or grouped
// in parentheses.

package parser

// parseAddress parses a comma-separated OR-set of address terms.
// Nested sets flatten, and a member that always matches collapses
// the whole set.
func (p *parser) parseAddress() Address {
	var addrs []Address
	hasAlways := false
	for {
		addr := p.parseGroup()
		switch a := addr.(type) {
		case Always:
			hasAlways = true
		case Set:
			addrs = append(addrs, a.Addrs...)
		default:
			addrs = append(addrs, addr)
		}

		p.skipWhitespace()
		if !p.r.NextIs(',') {
			break
		}
		p.skipWhitespace()
	}

	if hasAlways {
		return Always{}
	}
	if len(addrs) == 1 {
		return addrs[0]
	}
	return Set{Addrs: addrs}
}

// parseGroup parses a parenthesized address or a range term, plus an
// optional trailing negation.
func (p *parser) parseGroup() Address {
	if p.r.NextIs('(') {
		p.skipWhitespace()
		addr := p.parseAddress()
		p.skipWhitespace()
		if !p.r.NextIs(')') {
			p.errorf("missing ')' in address")
		}
		return p.maybeNegate(addr)
	}
	addr := p.parseRange()
	p.skipWhitespace()
	return p.maybeNegate(addr)
}

// parseRange parses atom ['-' atom]. A missing left bound defaults
// to line 1 and a missing right bound to end of input, so "-" spans
// the whole stream. When both bounds are literal locations the pair
// is validated here.
func (p *parser) parseRange() Address {
	addr, ok := p.parseAtom()
	p.skipWhitespace()
	if ch, peeked := p.r.Peek(); peeked && ch == '-' {
		p.r.Skip()
		p.skipWhitespace()
		lo := addr
		if !ok {
			lo = Location{N: 1}
		}
		hi, hiOK := p.parseAtom()
		if !hiOK {
			hi = Final{}
		}
		if l, isLoc := lo.(Location); isLoc {
			if h, isLoc := hi.(Location); isLoc && l.N > h.N {
				p.errorf("invalid address range: %d > %d in %d-%d", l.N, h.N, l.N, h.N)
			}
		}
		return &Range{Lo: lo, Hi: hi}
	}
	if !ok {
		return Always{}
	}
	return addr
}

// parseAtom parses one address atom, reporting false when the next
// character doesn't start one (the command list begins there).
func (p *parser) parseAtom() (Address, bool) {
	ch, ok := p.r.Peek()
	if !ok {
		return nil, false
	}
	switch {
	case ch == '#':
		p.skipLine()
		p.skipWhitespace()
		return p.parseAtom()
	case ch == '/' || ch == '^':
		src := p.parseRegexLiteral()
		return Pattern{Regex: p.compileRegex(src)}, true
	case ch >= '0' && ch <= '9':
		s := p.readInteger()
		n := p.atoi(s)
		if n == 0 {
			p.errorf("invalid address: line numbers are 1-based")
		}
		return Location{N: n}, true
	case ch == '*':
		p.r.Skip()
		return Always{}, true
	case ch == '$':
		p.r.Skip()
		return Final{}, true
	case ch == '?':
		p.r.Skip()
		return Deferred{}, true
	}
	return nil, false
}

func (p *parser) maybeNegate(addr Address) Address {
	if p.r.NextIs('!') {
		return negate(addr)
	}
	return addr
}
