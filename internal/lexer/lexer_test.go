package lexer

import (
	"testing"

	"github.com/lomotos10/GCM-bot/internal/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLexer_NextToken_Commands(t *testing.T) {
	tests := []struct {
		input string
		want  []token.TokenType
	}{
		{"mai-info", []token.TokenType{token.INFO, token.EOF}},
		{"CHUNI-INFO halcyon", []token.TokenType{token.INFO, token.WORD, token.EOF}},
		{"ongeki-jacket Singularity", []token.TokenType{token.JACKET, token.WORD, token.EOF}},
		{"add-alias mai \"Freedom Dive\" fd", []token.TokenType{token.ADD_ALIAS, token.WORD, token.STRING, token.WORD, token.EOF}},
		{"help", []token.TokenType{token.HELP, token.EOF}},
		{"detailed-mai-info halcyon", []token.TokenType{token.DETAILED_INFO, token.WORD, token.EOF}},
		{"detailed-info", []token.TokenType{token.INFO, token.EOF}},
		{"-info info", []token.TokenType{token.WORD, token.WORD, token.EOF}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			l := New(tt.input)
			for i, wantType := range tt.want {
				tok := l.NextToken()
				assert.Equal(t, wantType, tok.Type, "token %d: want %s got %s (literal %q)", i, wantType, tok.Type, tok.Literal)
				if tok.Type == token.EOF {
					break
				}
			}
		})
	}
}

func TestLexer_NextToken_KeepsLiteralCase(t *testing.T) {
	l := New("MAI-Info")
	require.Equal(t, token.Token{Type: token.INFO, Literal: "MAI-Info"}, tokenWithoutPos(l.NextToken()))
}

func TestLexer_NextToken_Strings(t *testing.T) {
	l := New(`"Freedom Dive" “Oshama Scramble!”`)
	require.Equal(t, token.Token{Type: token.STRING, Literal: "Freedom Dive"}, tokenWithoutPos(l.NextToken()))
	require.Equal(t, token.Token{Type: token.STRING, Literal: "Oshama Scramble!"}, tokenWithoutPos(l.NextToken()))
	require.Equal(t, token.EOF, l.NextToken().Type)
}

func TestLexer_NextToken_EscapedQuote(t *testing.T) {
	l := New(`"say \"hi\""`)
	require.Equal(t, token.Token{Type: token.STRING, Literal: `say "hi"`}, tokenWithoutPos(l.NextToken()))
	require.Equal(t, token.EOF, l.NextToken().Type)
}

func TestLexer_NextToken_Unterminated(t *testing.T) {
	l := New(`"Freedom Dive`)
	tok := l.NextToken()
	require.Equal(t, token.ILLEGAL, tok.Type)
	require.Equal(t, token.EOF, l.NextToken().Type)
}

func TestLexer_Positions(t *testing.T) {
	l := New("mai-info  フリーダム dive")
	assert.Equal(t, 0, l.NextToken().Pos.Offset)
	tok := l.NextToken()
	assert.Equal(t, 10, tok.Pos.Offset)
	assert.Equal(t, 11, tok.Pos.Column)
	assert.Equal(t, 16, l.NextToken().Pos.Offset)
}

func TestLexer_PeekToken(t *testing.T) {
	l := New("mai-info dive")
	require.Equal(t, token.INFO, l.PeekToken().Type)
	require.Equal(t, token.INFO, l.PeekToken().Type)
	require.Equal(t, token.INFO, l.NextToken().Type)
	require.Equal(t, token.WORD, l.NextToken().Type)
	require.Equal(t, token.EOF, l.NextToken().Type)
}

func tokenWithoutPos(t token.Token) token.Token {
	t.Pos = token.Position{}
	return t
}
