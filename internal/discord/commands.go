package discord

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/lomotos10/GCM-bot/internal/ast"
	"github.com/lomotos10/GCM-bot/internal/formatter"
	"github.com/lomotos10/GCM-bot/internal/game"
)

const titleHelp = "Song title e.g. \"Selector\", \"bbb\", etc. You don't have to be exact; try things out!"

// Commands are the application commands registered on start.
func Commands() []*discordgo.ApplicationCommand {
	title := func() []*discordgo.ApplicationCommandOption {
		return []*discordgo.ApplicationCommandOption{{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "title",
			Description: titleHelp,
			Required:    true,
		}}
	}
	var out []*discordgo.ApplicationCommand
	var choices []*discordgo.ApplicationCommandOptionChoice
	for _, g := range game.All() {
		p := g.CommandPrefix()
		out = append(out,
			&discordgo.ApplicationCommand{Name: p + "-info", Description: "Get " + g.DisplayName() + " song info", Options: title()},
			&discordgo.ApplicationCommand{Name: p + "-jacket", Description: "Get " + g.DisplayName() + " song jacket", Options: title()},
		)
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{Name: g.DisplayName(), Value: p})
	}
	out = append(out,
		&discordgo.ApplicationCommand{Name: "detailed-mai-info", Description: "Get maimai chart info with note counts and designers", Options: title()},
		&discordgo.ApplicationCommand{
			Name:        "add-alias",
			Description: "Add a song alias for this server",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionString, Name: "game", Description: "Game", Required: true, Choices: choices},
				{Type: discordgo.ApplicationCommandOptionString, Name: "title", Description: "Song title", Required: true},
				{Type: discordgo.ApplicationCommandOptionString, Name: "alias", Description: "New alias", Required: true},
			},
		},
		&discordgo.ApplicationCommand{Name: "help", Description: "Print help message"},
	)
	return out
}

// CommandFromInteraction maps slash command data to a command.
func CommandFromInteraction(data discordgo.ApplicationCommandInteractionData) (ast.Command, error) {
	opts := map[string]string{}
	for _, o := range data.Options {
		if s, ok := o.Value.(string); ok {
			opts[o.Name] = strings.TrimSpace(s)
		}
	}
	switch data.Name {
	case "help":
		return &ast.HelpCommand{}, nil
	case "detailed-mai-info":
		return &ast.DetailedInfoCommand{Game: game.Maimai, Title: opts["title"]}, nil
	case "add-alias":
		g, err := game.Parse(opts["game"])
		if err != nil {
			return nil, err
		}
		return &ast.AddAliasCommand{Game: g, Title: opts["title"], Alias: opts["alias"]}, nil
	}
	for _, g := range game.All() {
		switch data.Name {
		case g.CommandPrefix() + "-info":
			return &ast.InfoCommand{Game: g, Title: opts["title"]}, nil
		case g.CommandPrefix() + "-jacket":
			return &ast.JacketCommand{Game: g, Title: opts["title"]}, nil
		}
	}
	return nil, fmt.Errorf("unknown command %q", data.Name)
}

// Embed converts a rendered embed to its Discord form.
func Embed(e *formatter.Embed) *discordgo.MessageEmbed {
	if e == nil {
		return nil
	}
	out := &discordgo.MessageEmbed{
		Title:       e.Title,
		Description: e.Description,
		Color:       e.Color,
	}
	if e.ThumbnailURL != "" {
		out.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: e.ThumbnailURL}
	}
	if e.ImageURL != "" {
		out.Image = &discordgo.MessageEmbedImage{URL: e.ImageURL}
	}
	return out
}

const confirmPrefix = "confirm:"

func confirmButton(promptID, label string) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{Label: label, Style: discordgo.PrimaryButton, CustomID: confirmPrefix + promptID},
		}},
	}
}
