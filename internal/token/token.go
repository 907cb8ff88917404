package token

// TokenType identifies the type of lexer token.
type TokenType int

const (
	EOF TokenType = iota
	ILLEGAL

	// Command verbs; the literal keeps the full word, e.g. "mai-info".
	INFO
	DETAILED_INFO
	JACKET
	ADD_ALIAS
	HELP

	// Literals
	WORD
	STRING
)

var tokens = [...]string{
	ILLEGAL: "<illegal>",
	EOF:     "<eof>",

	INFO:          "INFO",
	DETAILED_INFO: "DETAILED-INFO",
	JACKET:        "JACKET",
	ADD_ALIAS:     "ADD-ALIAS",
	HELP:          "HELP",

	WORD:   "<word>",
	STRING: "<string>",
}

func (tt TokenType) String() string {
	if int(tt) < len(tokens) {
		return tokens[tt]
	}
	return "<unknown>"
}

// IsCommand reports whether tt is a command verb.
func (tt TokenType) IsCommand() bool {
	return tt >= INFO && tt <= HELP
}

// Token represents a single lexer token.
type Token struct {
	Type    TokenType
	Literal string
	Pos     Position
}

// Position represents a source position. Offset counts runes.
type Position struct {
	Line   int
	Column int
	Offset int
}
