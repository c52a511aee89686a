package condition

import (
	"strconv"
	"strings"
)

type tokenKind int

const (
	tokAtom tokenKind = iota
	tokAnd
	tokOr
	tokNot
	tokLParen
	tokRParen
	tokEOF
)

type token struct {
	kind tokenKind
	atom *Atom
	pos  int
}

type lexer struct {
	input string
	pos   int
}

func isNameChar(r byte) bool {
	return r == '_' || r == ' ' ||
		(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

func isWordChar(r byte) bool {
	return r == '_' ||
		(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

func keywordToken(word string) (tokenKind, bool) {
	switch strings.ToUpper(word) {
	case "AND":
		return tokAnd, true
	case "OR":
		return tokOr, true
	case "NOT":
		return tokNot, true
	}
	return 0, false
}

func (l *lexer) skipSpace() {
	for l.pos < len(l.input) && (l.input[l.pos] == ' ' || l.input[l.pos] == '\t' || l.input[l.pos] == '\n' || l.input[l.pos] == '\r') {
		l.pos++
	}
}

// peekWord returns the word starting at off without consuming it.
func (l *lexer) peekWord(off int) string {
	end := off
	for end < len(l.input) && isWordChar(l.input[end]) {
		end++
	}
	return l.input[off:end]
}

func (l *lexer) next() (token, error) {
	l.skipSpace()
	if l.pos >= len(l.input) {
		return token{kind: tokEOF, pos: l.pos}, nil
	}

	start := l.pos
	switch c := l.input[l.pos]; {
	case c == '(':
		l.pos++
		return token{kind: tokLParen, pos: start}, nil
	case c == ')':
		l.pos++
		return token{kind: tokRParen, pos: start}, nil
	case c == '!':
		l.pos++
		return token{kind: tokNot, pos: start}, nil
	case c == '&':
		if l.pos+1 < len(l.input) && l.input[l.pos+1] == '&' {
			l.pos += 2
			return token{kind: tokAnd, pos: start}, nil
		}
		return token{}, parseErrorf(start, "unexpected character %q", string(c))
	case c == '|':
		if l.pos+1 < len(l.input) && l.input[l.pos+1] == '|' {
			l.pos += 2
			return token{kind: tokOr, pos: start}, nil
		}
		return token{}, parseErrorf(start, "unexpected character %q", string(c))
	case isWordChar(c):
		return l.lexWord(start)
	default:
		return token{}, parseErrorf(start, "unexpected character %q", string(c))
	}
}

// lexWord reads either an operator keyword or a group atom. Group names may
// contain spaces, so the scan keeps absorbing words until it reaches the
// opening bracket, stopping early before any embedded keyword.
func (l *lexer) lexWord(start int) (token, error) {
	first := l.peekWord(l.pos)
	if kind, ok := keywordToken(first); ok {
		l.pos += len(first)
		return token{kind: kind, pos: start}, nil
	}

	end := l.pos + len(first)
	for end < len(l.input) && isNameChar(l.input[end]) {
		if l.input[end] == ' ' {
			probe := end
			for probe < len(l.input) && l.input[probe] == ' ' {
				probe++
			}
			if _, ok := keywordToken(l.peekWord(probe)); ok {
				break
			}
			end = probe
			continue
		}
		end++
	}

	name := strings.TrimRight(l.input[l.pos:end], " ")
	l.pos = l.pos + len(name)
	if name == "" {
		return token{}, parseErrorf(start, "empty group name")
	}
	l.skipSpace()
	if l.pos >= len(l.input) || l.input[l.pos] != '[' {
		return token{}, parseErrorf(start, "expected '[' after group name %q", name)
	}

	close := strings.IndexByte(l.input[l.pos:], ']')
	if close < 0 {
		return token{}, parseErrorf(start, "unbalanced brackets in atom %q", name)
	}
	body := l.input[l.pos+1 : l.pos+close]
	l.pos += close + 1

	atom, err := parseAtomBody(name, body, start)
	if err != nil {
		return token{}, err
	}
	return token{kind: tokAtom, atom: atom, pos: start}, nil
}

func parseAtomBody(name, body string, pos int) (*Atom, error) {
	body = strings.TrimSpace(body)
	switch {
	case body == "completed":
		return &Atom{Group: name, Kind: AtomCompleted}, nil
	case strings.HasPrefix(body, "has_all:"):
		tags, err := splitTagList(name, strings.TrimPrefix(body, "has_all:"), pos)
		if err != nil {
			return nil, err
		}
		return &Atom{Group: name, Kind: AtomHasAll, Tags: tags}, nil
	case strings.HasPrefix(body, "has:"):
		tags, err := splitTagList(name, strings.TrimPrefix(body, "has:"), pos)
		if err != nil {
			return nil, err
		}
		return &Atom{Group: name, Kind: AtomHas, Tags: tags}, nil
	case strings.HasPrefix(body, "count"):
		return parseCountBody(name, strings.TrimPrefix(body, "count"), pos)
	}
	return nil, parseErrorf(pos, "atom %q: unrecognized body %q", name, body)
}

func splitTagList(name, list string, pos int) ([]string, error) {
	parts := strings.Split(list, ",")
	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			tags = append(tags, trimmed)
		}
	}
	if len(tags) == 0 {
		return nil, parseErrorf(pos, "atom %q: empty tag list", name)
	}
	return tags, nil
}

var countOps = []string{">=", "<=", "=", ">", "<"}

func parseCountBody(name, rest string, pos int) (*Atom, error) {
	rest = strings.TrimSpace(rest)
	for _, op := range countOps {
		if !strings.HasPrefix(rest, op) {
			continue
		}
		numText := strings.TrimSpace(strings.TrimPrefix(rest, op))
		n, err := strconv.Atoi(numText)
		if err != nil {
			return nil, parseErrorf(pos, "atom %q: count needs an integer, got %q", name, numText)
		}
		return &Atom{Group: name, Kind: AtomCount, Cmp: op, N: n}, nil
	}
	return nil, parseErrorf(pos, "atom %q: count needs a comparison operator", name)
}
