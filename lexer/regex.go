package lexer

import "fmt"

// ScanRegex extracts a regular-expression literal from the script,
// leaving the cursor just past its closing delimiter. Two forms are
// recognized: /…/ (delimiters dropped, \/ un-escaped to /) and ^…$
// (anchors kept). The scanner only decides where the literal ends;
// compiling the result is the caller's business.
//
// Delimiters inside parenthesized groups don't end the literal, and
// while a group's verbose flag (?x) is in effect an unescaped #
// starts a comment that is copied through verbatim up to and
// including the next newline.
func ScanRegex(r *Reader) (string, error) {
	var acc []rune
	ch, ok := r.Next()
	if !ok {
		return "", fmt.Errorf("expected a regular expression")
	}
	switch ch {
	case '/':
		if err := scanUntil(r, '/', false, &acc); err != nil {
			return "", err
		}
		acc = acc[:len(acc)-1] // drop the closing delimiter
	case '^':
		acc = append(acc, '^')
		if err := scanUntil(r, '$', false, &acc); err != nil {
			return "", err
		}
	default:
		return "", fmt.Errorf("unexpected %q at start of regular expression", ch)
	}
	return string(acc), nil
}

// scanUntil copies runes into acc up to and including delim. Escapes
// hide the delimiter: \/ collapses to /, any other \x passes through
// untouched.
func scanUntil(r *Reader, delim rune, verbose bool, acc *[]rune) error {
	for {
		ch, ok := r.Next()
		if !ok {
			return fmt.Errorf("unterminated regular expression: missing %q", delim)
		}
		switch {
		case ch == delim:
			*acc = append(*acc, ch)
			return nil
		case ch == '\\':
			esc, ok := r.Next()
			if !ok {
				return fmt.Errorf("unterminated regular expression: dangling escape")
			}
			if esc != '/' {
				*acc = append(*acc, ch)
			}
			*acc = append(*acc, esc)
		case ch == '(':
			*acc = append(*acc, ch)
			v, err := scanGroup(r, verbose, acc)
			if err != nil {
				return err
			}
			verbose = v
		case ch == '#' && verbose:
			*acc = append(*acc, ch)
			scanComment(r, acc)
		default:
			*acc = append(*acc, ch)
		}
	}
}

// scanGroup scans a parenthesized group whose opening paren has just
// been consumed. It returns the verbose mode in effect after the
// group: a flag-only group like (?x) applies to the rest of the
// enclosing group, while an inline group (?x:…) or a plain group
// leaves the enclosing mode alone.
func scanGroup(r *Reader, verbose bool, acc *[]rune) (bool, error) {
	if !r.NextIs('?') {
		if err := scanUntil(r, ')', verbose, acc); err != nil {
			return false, err
		}
		return verbose, nil
	}
	*acc = append(*acc, '?')
	local := verbose
	for {
		ch, ok := r.Next()
		if !ok {
			return false, fmt.Errorf("unterminated group: missing %q", ')')
		}
		*acc = append(*acc, ch)
		switch ch {
		case ':':
			// flag list ends, inline content follows
			if err := scanUntil(r, ')', local, acc); err != nil {
				return false, err
			}
			return verbose, nil
		case ')':
			return local, nil
		case 'x':
			local = true
		case '-':
			if r.NextIs('x') {
				*acc = append(*acc, 'x')
				local = false
			}
		}
	}
}

func scanComment(r *Reader, acc *[]rune) {
	for {
		ch, ok := r.Next()
		if !ok {
			return
		}
		*acc = append(*acc, ch)
		if ch == '\n' {
			return
		}
	}
}
