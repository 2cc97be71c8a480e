package typeparse

import (
	"unicode"
	"unicode/utf8"
)

type TokenType int

const (
	ILLEGAL TokenType = iota
	EOF

	IDENT    // int, non-empty-string, Foo\Bar
	VARIABLE // $x
	INT      // 5, -3
	FLOAT    // 1.5
	STRING   // 'a', "b"

	PIPE         // |
	AMP          // &
	QUESTION     // ?
	LT           // <
	GT           // >
	LBRACE       // {
	RBRACE       // }
	LPAREN       // (
	RPAREN       // )
	LBRACKET     // [
	RBRACKET     // ]
	COMMA        // ,
	COLON        // :
	DOUBLE_COLON // ::
	ELLIPSIS     // ...
	ASSIGN       // =
	STAR         // *
)

type Token struct {
	Type    TokenType
	Literal string
	Pos     int
}

type Lexer struct {
	input        string
	position     int  // current position in input (points to current char)
	readPosition int  // current reading position in input (after current char)
	ch           rune // current char under examination
}

func NewLexer(input string) *Lexer {
	l := &Lexer{input: input}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	l.position = l.readPosition
	if l.readPosition >= len(l.input) {
		l.ch = 0
		return
	}
	r, w := utf8.DecodeRuneInString(l.input[l.readPosition:])
	l.ch = r
	l.readPosition += w
}

func (l *Lexer) peekChar() rune {
	if l.readPosition >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPosition:])
	return r
}

func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
		l.readChar()
	}
}

func (l *Lexer) NextToken() Token {
	l.skipWhitespace()
	pos := l.position

	simple := func(t TokenType) Token {
		lit := string(l.ch)
		l.readChar()
		return Token{Type: t, Literal: lit, Pos: pos}
	}

	switch l.ch {
	case 0:
		return Token{Type: EOF, Pos: pos}
	case '|':
		return simple(PIPE)
	case '&':
		return simple(AMP)
	case '?':
		return simple(QUESTION)
	case '<':
		return simple(LT)
	case '>':
		return simple(GT)
	case '{':
		return simple(LBRACE)
	case '}':
		return simple(RBRACE)
	case '(':
		return simple(LPAREN)
	case ')':
		return simple(RPAREN)
	case '[':
		return simple(LBRACKET)
	case ']':
		return simple(RBRACKET)
	case ',':
		return simple(COMMA)
	case '=':
		return simple(ASSIGN)
	case '*':
		return simple(STAR)
	case ':':
		if l.peekChar() == ':' {
			l.readChar()
			l.readChar()
			return Token{Type: DOUBLE_COLON, Literal: "::", Pos: pos}
		}
		return simple(COLON)
	case '.':
		if l.peekChar() == '.' {
			l.readChar()
			if l.peekChar() == '.' {
				l.readChar()
				l.readChar()
				return Token{Type: ELLIPSIS, Literal: "...", Pos: pos}
			}
		}
		return simple(ILLEGAL)
	case '\'', '"':
		return l.readString()
	case '$':
		l.readChar()
		name := l.readWhile(isIdentPart)
		return Token{Type: VARIABLE, Literal: "$" + name, Pos: pos}
	case '-':
		if isDigit(l.peekChar()) {
			l.readChar()
			tok := l.readNumber(pos)
			tok.Literal = "-" + tok.Literal
			return tok
		}
		return simple(ILLEGAL)
	}

	if isDigit(l.ch) {
		return l.readNumber(pos)
	}
	if isIdentStart(l.ch) {
		return Token{Type: IDENT, Literal: l.readIdent(), Pos: pos}
	}
	return simple(ILLEGAL)
}

func (l *Lexer) readWhile(pred func(rune) bool) string {
	start := l.position
	for l.ch != 0 && pred(l.ch) {
		l.readChar()
	}
	return l.input[start:l.position]
}

// readIdent reads names such as non-empty-string or \Foo\Bar. A hyphen
// belongs to the name only when a letter follows it.
func (l *Lexer) readIdent() string {
	start := l.position
	for l.ch != 0 {
		if isIdentPart(l.ch) || l.ch == '\\' {
			l.readChar()
			continue
		}
		if l.ch == '-' && unicode.IsLetter(l.peekChar()) {
			l.readChar()
			continue
		}
		break
	}
	return l.input[start:l.position]
}

func (l *Lexer) readNumber(pos int) Token {
	start := l.position
	l.readWhile(func(r rune) bool { return isDigit(r) || r == '_' })
	if l.ch == '.' && isDigit(l.peekChar()) {
		l.readChar()
		l.readWhile(isDigit)
		return Token{Type: FLOAT, Literal: l.input[start:l.position], Pos: pos}
	}
	return Token{Type: INT, Literal: l.input[start:l.position], Pos: pos}
}

func (l *Lexer) readString() Token {
	pos := l.position
	quote := l.ch
	l.readChar()
	start := l.position
	for l.ch != quote {
		if l.ch == 0 {
			return Token{Type: ILLEGAL, Literal: l.input[pos:], Pos: pos}
		}
		if l.ch == '\\' && l.peekChar() == quote {
			l.readChar()
		}
		l.readChar()
	}
	lit := l.input[start:l.position]
	l.readChar()
	return Token{Type: STRING, Literal: unescape(lit, quote), Pos: pos}
}

func unescape(s string, quote rune) string {
	out := make([]rune, 0, len(s))
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		if runes[i] == '\\' && i+1 < len(runes) && runes[i+1] == quote {
			continue
		}
		out = append(out, runes[i])
	}
	return string(out)
}

func isDigit(r rune) bool { return '0' <= r && r <= '9' }

func isIdentStart(r rune) bool {
	return r == '_' || r == '\\' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
