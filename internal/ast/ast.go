package ast

import "github.com/lomotos10/GCM-bot/internal/game"

// Command is the top-level AST node for any bot command.
type Command interface {
	commandNode()
	// Name returns the command word as typed, lowercased.
	Name() string
}

func (*InfoCommand) commandNode()         {}
func (*DetailedInfoCommand) commandNode() {}
func (*JacketCommand) commandNode()       {}
func (*AddAliasCommand) commandNode()     {}
func (*HelpCommand) commandNode()         {}

// InfoCommand represents: <game>-info title
type InfoCommand struct {
	Game  game.Game
	Title string
}

func (c *InfoCommand) Name() string { return c.Game.CommandPrefix() + "-info" }

// DetailedInfoCommand represents: detailed-mai-info title
type DetailedInfoCommand struct {
	Game  game.Game
	Title string
}

func (c *DetailedInfoCommand) Name() string { return "detailed-" + c.Game.CommandPrefix() + "-info" }

// JacketCommand represents: <game>-jacket title
type JacketCommand struct {
	Game  game.Game
	Title string
}

func (c *JacketCommand) Name() string { return c.Game.CommandPrefix() + "-jacket" }

// AddAliasCommand represents: add-alias game "title" alias
type AddAliasCommand struct {
	Game  game.Game
	Title string
	Alias string
}

func (*AddAliasCommand) Name() string { return "add-alias" }

// HelpCommand represents: help [topic]
type HelpCommand struct {
	Topic string
}

func (*HelpCommand) Name() string { return "help" }

// TitleOf returns the queried title of info and jacket commands.
func TitleOf(c Command) (game.Game, string, bool) {
	switch c := c.(type) {
	case *InfoCommand:
		return c.Game, c.Title, true
	case *DetailedInfoCommand:
		return c.Game, c.Title, true
	case *JacketCommand:
		return c.Game, c.Title, true
	}
	return "", "", false
}
