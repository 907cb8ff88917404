package errors

import (
	"fmt"
	"strings"

	"github.com/lomotos10/GCM-bot/internal/token"
)

// ParseError is a command parsing error with position and hint.
type ParseError struct {
	Pos     token.Position
	Message string
	Query   string
	Hint    string
}

func (e *ParseError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "parse error at column %d: %s", e.Pos.Column, e.Message)
	if e.Query != "" {
		fmt.Fprintf(&b, "\n  %s\n", e.Query)
		pad := e.Pos.Offset
		if n := len([]rune(e.Query)); pad > n {
			pad = n
		}
		fmt.Fprintf(&b, "  %s^", strings.Repeat(" ", pad))
	}
	if e.Hint != "" {
		fmt.Fprintf(&b, "\nHint: %s", e.Hint)
	}
	return b.String()
}

// BotError is a command execution error with optional suggestions and hint.
// Its Error text is safe to show to chat users.
type BotError struct {
	Type        ErrorType
	Message     string
	Cause       error
	Suggestions []string
	Hint        string
}

type ErrorType int

const (
	ErrTitleNotFound ErrorType = iota
	ErrUnknownGame
	ErrUnknownCommand
	ErrCooldown
	ErrNoCatalog
	ErrInvalidAlias
)

func (e *BotError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Type.String(), e.Message)
	if len(e.Suggestions) > 0 {
		fmt.Fprint(&b, "\nDid you mean:")
		for _, s := range e.Suggestions {
			fmt.Fprintf(&b, "\n  - %s", s)
		}
	}
	if e.Hint != "" {
		fmt.Fprintf(&b, "\nHint: %s", e.Hint)
	}
	return b.String()
}

// Unwrap returns the underlying cause, which is never shown to users.
func (e *BotError) Unwrap() error {
	return e.Cause
}

func (t ErrorType) String() string {
	switch t {
	case ErrTitleNotFound:
		return "title not found"
	case ErrUnknownGame:
		return "unknown game"
	case ErrUnknownCommand:
		return "unknown command"
	case ErrCooldown:
		return "on cooldown"
	case ErrNoCatalog:
		return "catalog not loaded"
	case ErrInvalidAlias:
		return "invalid alias"
	default:
		return "command error"
	}
}
