package lexer

import (
	"strings"
	"unicode"

	"github.com/lomotos10/GCM-bot/internal/token"
)

// Lexer tokenizes bot command input.
type Lexer interface {
	NextToken() token.Token
	PeekToken() token.Token
	Position() token.Position
}

type lexer struct {
	runes   []rune
	pos     int
	readPos int
	ch      rune
	line    int
	col     int
	offset  int
	peeked  *token.Token
}

// isQuote returns true for ASCII and common Unicode double-quote characters
// (phones and chat clients often send curly quotes).
func isQuote(r rune) bool {
	switch r {
	case '"', '“', '”', '„', '‟', '＂':
		return true
	}
	return false
}

// New creates a lexer for the given input.
func New(input string) Lexer {
	l := &lexer{
		runes: []rune(input),
		line:  1,
		col:   0,
	}
	l.readChar()
	return l
}

func (l *lexer) readChar() {
	if l.readPos >= len(l.runes) {
		l.ch = 0
	} else {
		l.ch = l.runes[l.readPos]
	}
	l.pos = l.readPos
	l.offset = l.readPos
	l.readPos++
	if l.pos > 0 && l.pos <= len(l.runes) && l.runes[l.pos-1] == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
}

func (l *lexer) skipWhitespace() {
	for l.ch != 0 && unicode.IsSpace(l.ch) {
		l.readChar()
	}
}

func (l *lexer) Position() token.Position {
	return token.Position{Line: l.line, Column: l.col, Offset: l.offset}
}

func (l *lexer) NextToken() token.Token {
	if l.peeked != nil {
		t := *l.peeked
		l.peeked = nil
		return t
	}
	return l.nextToken()
}

func (l *lexer) nextToken() token.Token {
	l.skipWhitespace()
	pos := l.Position()
	if l.ch == 0 {
		return token.Token{Type: token.EOF, Pos: pos}
	}
	if isQuote(l.ch) {
		return l.readString(pos)
	}
	return l.readWord(pos)
}

func (l *lexer) readString(start token.Position) token.Token {
	l.readChar() // consume opening quote
	var b strings.Builder
	for l.ch != 0 && !isQuote(l.ch) {
		if l.ch == '\\' && isQuote(l.peekChar()) {
			l.readChar()
		}
		b.WriteRune(l.ch)
		l.readChar()
	}
	if !isQuote(l.ch) {
		return token.Token{Type: token.ILLEGAL, Literal: "unterminated string", Pos: start}
	}
	l.readChar() // consume closing quote
	return token.Token{Type: token.STRING, Literal: b.String(), Pos: start}
}

func (l *lexer) peekChar() rune {
	if l.readPos >= len(l.runes) {
		return 0
	}
	return l.runes[l.readPos]
}

func (l *lexer) readWord(start token.Position) token.Token {
	var b strings.Builder
	for l.ch != 0 && !unicode.IsSpace(l.ch) && !isQuote(l.ch) {
		b.WriteRune(l.ch)
		l.readChar()
	}
	lit := b.String()
	return token.Token{Type: lookupIdent(strings.ToLower(lit)), Literal: lit, Pos: start}
}

func lookupIdent(ident string) token.TokenType {
	switch {
	case ident == "help":
		return token.HELP
	case ident == "add-alias":
		return token.ADD_ALIAS
	case strings.HasPrefix(ident, "detailed-") && strings.HasSuffix(ident, "-info") &&
		len(ident) > len("detailed--info"):
		return token.DETAILED_INFO
	case strings.HasSuffix(ident, "-info") && len(ident) > len("-info"):
		return token.INFO
	case strings.HasSuffix(ident, "-jacket") && len(ident) > len("-jacket"):
		return token.JACKET
	default:
		return token.WORD
	}
}

// PeekToken returns the next token without consuming it.
func (l *lexer) PeekToken() token.Token {
	if l.peeked != nil {
		return *l.peeked
	}
	t := l.nextToken()
	l.peeked = &t
	return t
}
