package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/lomotos10/GCM-bot/internal/ast"
	"github.com/lomotos10/GCM-bot/internal/errors"
	"github.com/lomotos10/GCM-bot/internal/game"
	"github.com/lomotos10/GCM-bot/internal/lexer"
	"github.com/lomotos10/GCM-bot/internal/token"
)

// Parser parses one bot command (prefix already stripped) and produces an AST.
type Parser interface {
	Parse() (ast.Command, error)
}

type parser struct {
	lex   lexer.Lexer
	cur   token.Token
	peek  token.Token
	query string
	runes []rune
}

// New creates a parser that reads from the given lexer.
// Without the raw input, free-text titles are rebuilt from token literals.
func New(l lexer.Lexer) Parser {
	p := &parser{lex: l}
	p.cur = p.lex.NextToken()
	p.peek = p.lex.NextToken()
	return p
}

// NewFromString creates a parser for the given command text.
func NewFromString(input string) Parser {
	p := New(lexer.New(input)).(*parser)
	p.query = input
	p.runes = []rune(input)
	return p
}

// NewFromReader reads all of r and creates a parser for it.
func NewFromReader(r io.Reader) (Parser, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return NewFromString(string(b)), nil
}

func (p *parser) advance() {
	p.cur = p.peek
	p.peek = p.lex.NextToken()
}

func (p *parser) curIs(tt token.TokenType) bool {
	return p.cur.Type == tt
}

func (p *parser) peekIs(tt token.TokenType) bool {
	return p.peek.Type == tt
}

func (p *parser) errorf(hint, format string, args ...any) *errors.ParseError {
	return &errors.ParseError{
		Pos:     p.cur.Pos,
		Message: fmt.Sprintf(format, args...),
		Query:   p.query,
		Hint:    hint,
	}
}

// Parse parses the input and returns an AST Command.
func (p *parser) Parse() (ast.Command, error) {
	if p.curIs(token.EOF) {
		return nil, &errors.ParseError{Message: "empty command", Hint: "try help"}
	}
	if p.curIs(token.ILLEGAL) {
		return nil, p.errorf("", "%s", p.cur.Literal)
	}

	switch p.cur.Type {
	case token.INFO:
		g, err := p.commandGame("-info")
		if err != nil {
			return nil, err
		}
		p.advance()
		title, err := p.parseRest("title")
		if err != nil {
			return nil, err
		}
		return &ast.InfoCommand{Game: g, Title: title}, nil
	case token.DETAILED_INFO:
		word := strings.TrimPrefix(strings.ToLower(p.cur.Literal), "detailed-")
		g, err := game.Parse(strings.TrimSuffix(word, "-info"))
		if err != nil || g != game.Maimai {
			return nil, p.errorf("detailed info is only available for maimai", "unknown command %q", p.cur.Literal)
		}
		p.advance()
		title, err := p.parseRest("title")
		if err != nil {
			return nil, err
		}
		return &ast.DetailedInfoCommand{Game: g, Title: title}, nil
	case token.JACKET:
		g, err := p.commandGame("-jacket")
		if err != nil {
			return nil, err
		}
		p.advance()
		title, err := p.parseRest("title")
		if err != nil {
			return nil, err
		}
		return &ast.JacketCommand{Game: g, Title: title}, nil
	case token.ADD_ALIAS:
		p.advance()
		return p.parseAddAlias()
	case token.HELP:
		p.advance()
		topic := ""
		if p.curIs(token.WORD) || p.cur.Type.IsCommand() {
			topic = strings.ToLower(p.cur.Literal)
		}
		return &ast.HelpCommand{Topic: topic}, nil
	default:
		return nil, p.errorf("try help", "unknown command %q", p.cur.Literal)
	}
}

// commandGame reads the game from a "<game><suffix>" command word.
func (p *parser) commandGame(suffix string) (game.Game, error) {
	word := strings.ToLower(p.cur.Literal)
	g, err := game.Parse(strings.TrimSuffix(word, suffix))
	if err != nil {
		return "", p.errorf("games: mai, chuni, ongeki", "unknown command %q", p.cur.Literal)
	}
	return g, nil
}

func (p *parser) parseAddAlias() (ast.Command, error) {
	if !p.curIs(token.WORD) {
		return nil, p.errorf("add-alias <game> \"<title>\" <alias>", "missing game")
	}
	g, err := game.Parse(p.cur.Literal)
	if err != nil {
		return nil, p.errorf("games: mai, chuni, ongeki", "unknown game %q", p.cur.Literal)
	}
	p.advance()

	if !p.curIs(token.STRING) && !p.curIs(token.WORD) {
		return nil, p.errorf("add-alias <game> \"<title>\" <alias>", "missing title")
	}
	title := strings.TrimSpace(p.cur.Literal)
	if title == "" {
		return nil, p.errorf("add-alias <game> \"<title>\" <alias>", "missing title")
	}
	p.advance()

	alias, err := p.parseRest("alias")
	if err != nil {
		return nil, err
	}
	return &ast.AddAliasCommand{Game: g, Title: title, Alias: alias}, nil
}

// parseRest consumes every remaining token and returns the free text they span.
// A lone quoted string yields its unquoted contents.
func (p *parser) parseRest(what string) (string, error) {
	if p.curIs(token.EOF) {
		return "", p.errorf("", "missing %s", what)
	}
	if p.curIs(token.STRING) && p.peekIs(token.EOF) {
		s := strings.TrimSpace(p.cur.Literal)
		if s == "" {
			return "", p.errorf("", "missing %s", what)
		}
		p.advance()
		return s, nil
	}

	start := p.cur.Pos.Offset
	var parts []string
	for !p.curIs(token.EOF) {
		if p.curIs(token.ILLEGAL) {
			// an unmatched quote inside free text is part of the text
			if p.runes == nil {
				return "", p.errorf("", "%s", p.cur.Literal)
			}
		}
		parts = append(parts, p.cur.Literal)
		p.advance()
	}
	if p.runes != nil && start <= len(p.runes) {
		return strings.TrimSpace(string(p.runes[start:])), nil
	}
	return strings.Join(parts, " "), nil
}
