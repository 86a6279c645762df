package expression

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenKind uint8

const (
	tokEOF tokenKind = iota
	tokIdent
	tokNumber
	tokString
	tokTemplate
	tokPunct
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

func (t token) String() string {
	if t.kind == tokEOF {
		return "end of input"
	}
	return fmt.Sprintf("%q", t.text)
}

// ParseError reports where an expression failed to parse.
type ParseError struct {
	Input string
	Pos   int
	Msg   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("expression: %s at %d in %q", e.Msg, e.Pos, e.Input)
}

var punctuators = []string{
	"===", "!==", "==", "!=", "<=", ">=", "&&", "||",
	"(", ")", "[", "]", "{", "}", ".", ",", ":", "?", ";",
	"+", "-", "*", "/", "%", "<", ">", "!", "=", "|", "&",
}

type lexer struct {
	input string
	pos   int
}

func (l *lexer) errorf(pos int, format string, args ...any) error {
	return &ParseError{Input: l.input, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

func (l *lexer) next() (token, error) {
	for l.pos < len(l.input) {
		r, size := utf8.DecodeRuneInString(l.input[l.pos:])
		if !unicode.IsSpace(r) {
			break
		}
		l.pos += size
	}
	start := l.pos
	if l.pos >= len(l.input) {
		return token{kind: tokEOF, pos: start}, nil
	}
	c := l.input[l.pos]
	switch {
	case isIdentStart(c):
		for l.pos < len(l.input) && isIdentPart(l.input[l.pos]) {
			l.pos++
		}
		return token{kind: tokIdent, text: l.input[start:l.pos], pos: start}, nil
	case isDigit(c) || (c == '.' && l.pos+1 < len(l.input) && isDigit(l.input[l.pos+1])):
		return l.number(start)
	case c == '\'' || c == '"':
		return l.quoted(start, c)
	case c == '`':
		return l.template(start)
	}
	for _, p := range punctuators {
		if strings.HasPrefix(l.input[l.pos:], p) {
			l.pos += len(p)
			return token{kind: tokPunct, text: p, pos: start}, nil
		}
	}
	return token{}, l.errorf(start, "unexpected character %q", c)
}

func (l *lexer) number(start int) (token, error) {
	seenDot, seenExp := false, false
	for l.pos < len(l.input) {
		c := l.input[l.pos]
		switch {
		case isDigit(c):
		case c == '.' && !seenDot && !seenExp:
			seenDot = true
		case (c == 'e' || c == 'E') && !seenExp:
			seenExp = true
			if l.pos+1 < len(l.input) && (l.input[l.pos+1] == '+' || l.input[l.pos+1] == '-') {
				l.pos++
			}
		default:
			return token{kind: tokNumber, text: l.input[start:l.pos], pos: start}, nil
		}
		l.pos++
	}
	return token{kind: tokNumber, text: l.input[start:l.pos], pos: start}, nil
}

func (l *lexer) quoted(start int, quote byte) (token, error) {
	var sb strings.Builder
	l.pos++
	for l.pos < len(l.input) {
		c := l.input[l.pos]
		switch c {
		case quote:
			l.pos++
			return token{kind: tokString, text: sb.String(), pos: start}, nil
		case '\\':
			if l.pos+1 >= len(l.input) {
				return token{}, l.errorf(l.pos, "unterminated escape")
			}
			sb.WriteByte(unescape(l.input[l.pos+1]))
			l.pos += 2
		default:
			sb.WriteByte(c)
			l.pos++
		}
	}
	return token{}, l.errorf(start, "unterminated string")
}

// template returns the raw body of a backtick literal; the parser splits
// it into parts.
func (l *lexer) template(start int) (token, error) {
	l.pos++
	depth := 0
	for l.pos < len(l.input) {
		switch c := l.input[l.pos]; {
		case c == '\\':
			l.pos += 2
			continue
		case c == '$' && depth == 0 && strings.HasPrefix(l.input[l.pos:], "${"):
			depth++
			l.pos += 2
			continue
		case c == '{' && depth > 0:
			depth++
		case c == '}' && depth > 0:
			depth--
		case c == '`' && depth == 0:
			body := l.input[start+1 : l.pos]
			l.pos++
			return token{kind: tokTemplate, text: body, pos: start + 1}, nil
		}
		l.pos++
	}
	return token{}, l.errorf(start, "unterminated template literal")
}

func unescape(c byte) byte {
	switch c {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	case 'r':
		return '\r'
	case '0':
		return 0
	}
	return c
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// splitInterpolation cuts s at each ${...} and returns the literal parts,
// which always outnumber the expression sources by one, and the offset of
// each expression source within s.
func splitInterpolation(s string) (parts, sources []string, offsets []int, err error) {
	var lit strings.Builder
	i := 0
	for i < len(s) {
		if s[i] == '\\' && i+1 < len(s) {
			lit.WriteByte(unescape(s[i+1]))
			i += 2
			continue
		}
		if !strings.HasPrefix(s[i:], "${") {
			lit.WriteByte(s[i])
			i++
			continue
		}
		start := i + 2
		depth := 1
		j := start
		var quote byte
		for ; j < len(s) && depth > 0; j++ {
			c := s[j]
			switch {
			case quote != 0:
				if c == '\\' {
					j++
				} else if c == quote {
					quote = 0
				}
			case c == '\'' || c == '"' || c == '`':
				quote = c
			case c == '{':
				depth++
			case c == '}':
				depth--
			}
		}
		if depth > 0 {
			return nil, nil, nil, &ParseError{Input: s, Pos: i, Msg: "unterminated ${"}
		}
		parts = append(parts, lit.String())
		lit.Reset()
		sources = append(sources, s[start:j-1])
		offsets = append(offsets, start)
		i = j
	}
	parts = append(parts, lit.String())
	return parts, sources, offsets, nil
}
