// Package discord connects the command dispatcher to a Discord gateway session: slash
// commands with confirmation buttons, and prefix or mention messages.
package discord

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"github.com/lomotos10/GCM-bot/internal/ast"
	"github.com/lomotos10/GCM-bot/internal/bot"
	"github.com/lomotos10/GCM-bot/internal/config"
	"github.com/lomotos10/GCM-bot/internal/formatter"
	"github.com/lomotos10/GCM-bot/internal/resolver"
)

// API is the part of *discordgo.Session the bot uses.
type API interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	FollowupMessageCreate(interaction *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Executor runs commands; *bot.Dispatcher implements it.
type Executor interface {
	Execute(ctx context.Context, msg bot.Message, conv bot.Conversation) error
	ExecuteCommand(ctx context.Context, cmd ast.Command, msg bot.Message, conv bot.Conversation) error
}

// Bot routes gateway events to an Executor.
type Bot struct {
	api    API
	exec   Executor
	prefix string
	logger zerolog.Logger

	mu      sync.Mutex
	selfID  string
	pending map[string]*pending
}

type pending struct {
	userID string
	key    string
	clicks chan *discordgo.Interaction
}

// Option configures a Bot.
type Option func(*Bot)

// WithPrefix sets the message command prefix. Mentions of the bot always work as a prefix.
func WithPrefix(p string) Option {
	return func(b *Bot) { b.prefix = p }
}

func WithLogger(l zerolog.Logger) Option {
	return func(b *Bot) { b.logger = l }
}

// New returns a Bot that answers through api.
func New(api API, exec Executor, opts ...Option) *Bot {
	b := &Bot{
		api:     api,
		exec:    exec,
		prefix:  "!",
		logger:  zerolog.Nop(),
		pending: map[string]*pending{},
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Serve opens a gateway session, registers the application commands and handles events
// until ctx is done.
func Serve(ctx context.Context, cfg config.Discord, exec Executor, opts ...Option) error {
	s, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return err
	}
	s.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentsDirectMessages | discordgo.IntentMessageContent
	b := New(s, exec, append([]Option{WithPrefix(cfg.Prefix)}, opts...)...)

	s.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) {
		b.setSelf(r.User.ID)
		b.logger.Info().Str("user", r.User.Username).Int("guilds", len(r.Guilds)).Msg("discord ready")
	})
	s.AddHandler(func(_ *discordgo.Session, m *discordgo.MessageCreate) {
		b.HandleMessage(ctx, m.Message)
	})
	s.AddHandler(func(_ *discordgo.Session, i *discordgo.InteractionCreate) {
		b.HandleInteraction(ctx, i.Interaction)
	})

	if err := s.Open(); err != nil {
		return err
	}
	defer s.Close()

	if _, err := s.ApplicationCommandBulkOverwrite(s.State.User.ID, cfg.GuildID, Commands()); err != nil {
		b.logger.Error().Err(err).Msg("register application commands")
	}
	<-ctx.Done()
	b.logger.Info().Msg("discord session closing")
	return nil
}

func (b *Bot) setSelf(id string) {
	b.mu.Lock()
	b.selfID = id
	b.mu.Unlock()
}

// strip removes the prefix or a leading mention of the bot.
func (b *Bot) strip(content string) (string, bool) {
	content = strings.TrimSpace(content)
	b.mu.Lock()
	self := b.selfID
	b.mu.Unlock()
	if self != "" {
		for _, m := range []string{"<@" + self + ">", "<@!" + self + ">"} {
			if rest, ok := strings.CutPrefix(content, m); ok {
				return strings.TrimSpace(rest), true
			}
		}
	}
	if b.prefix != "" {
		if rest, ok := strings.CutPrefix(content, b.prefix); ok {
			return strings.TrimSpace(rest), true
		}
	}
	return "", false
}

// HandleMessage runs a prefix or mention command. Other messages are ignored.
func (b *Bot) HandleMessage(ctx context.Context, m *discordgo.Message) {
	if m == nil || m.Author == nil || m.Author.Bot {
		return
	}
	text, ok := b.strip(m.Content)
	if !ok || text == "" {
		return
	}
	msg := bot.Message{
		Text:          text,
		GuildID:       m.GuildID,
		ChannelID:     m.ChannelID,
		UserID:        m.Author.ID,
		Discriminator: m.Author.Discriminator,
	}
	conv := &messageConv{
		api:     b.api,
		channel: m.ChannelID,
		ref:     &discordgo.MessageReference{MessageID: m.ID, ChannelID: m.ChannelID, GuildID: m.GuildID},
	}
	if err := b.exec.Execute(ctx, msg, conv); err != nil {
		b.logger.Error().Err(err).Str("text", text).Msg("message command failed")
	}
}

// HandleInteraction runs slash commands and delivers confirmation clicks.
func (b *Bot) HandleInteraction(ctx context.Context, i *discordgo.Interaction) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		data := i.ApplicationCommandData()
		cmd, err := CommandFromInteraction(data)
		if err != nil {
			b.logger.Warn().Err(err).Msg("unknown application command")
			return
		}
		u := userOf(i)
		msg := bot.Message{
			Text:      data.Name,
			GuildID:   i.GuildID,
			ChannelID: i.ChannelID,
		}
		if u != nil {
			msg.UserID, msg.Discriminator = u.ID, u.Discriminator
		}
		conv := &interactionConv{bot: b, i: i}
		if err := b.exec.ExecuteCommand(ctx, cmd, msg, conv); err != nil {
			b.logger.Error().Err(err).Str("command", data.Name).Msg("slash command failed")
		}
	case discordgo.InteractionMessageComponent:
		b.click(i)
	}
}

func (b *Bot) click(i *discordgo.Interaction) {
	id, ok := strings.CutPrefix(i.MessageComponentData().CustomID, confirmPrefix)
	if !ok {
		return
	}
	var userID string
	if u := userOf(i); u != nil {
		userID = u.ID
	}

	b.mu.Lock()
	p, found := b.pending[id]
	owner := found && p.userID == userID
	if owner {
		delete(b.pending, id)
		// buffered; the prompt leaves the map on the first owner click
		p.clicks <- i
	}
	b.mu.Unlock()

	switch {
	case !found:
		b.ephemeral(i, formatter.TimedOut)
	case !owner:
		b.ephemeral(i, "This button belongs to someone else's query.")
	}
}

func (b *Bot) ephemeral(i *discordgo.Interaction, content string) {
	err := b.api.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: content, Flags: discordgo.MessageFlagsEphemeral},
	})
	if err != nil {
		b.logger.Warn().Err(err).Msg("respond to component")
	}
}

func (b *Bot) register(id, userID, key string) *pending {
	p := &pending{userID: userID, key: key, clicks: make(chan *discordgo.Interaction, 1)}
	b.mu.Lock()
	b.pending[id] = p
	b.mu.Unlock()
	return p
}

// release drops prompt id. A click that was delivered after the waiter stopped
// listening is answered as timed out.
func (b *Bot) release(id string, p *pending) {
	b.mu.Lock()
	delete(b.pending, id)
	var late *discordgo.Interaction
	select {
	case late = <-p.clicks:
	default:
	}
	b.mu.Unlock()
	if late != nil {
		b.ephemeral(late, formatter.TimedOut)
	}
}

// Pending is the number of prompts awaiting a click.
func (b *Bot) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

func userOf(i *discordgo.Interaction) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}

// interactionConv answers a slash command. After a confirmation click the clicked
// component becomes the interaction answered next, so the result is posted publicly.
type interactionConv struct {
	bot       *Bot
	i         *discordgo.Interaction
	responded bool
}

func (c *interactionConv) send(content string, embed *formatter.Embed, ephemeral bool, components []discordgo.MessageComponent) error {
	var flags discordgo.MessageFlags
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}
	var embeds []*discordgo.MessageEmbed
	if e := Embed(embed); e != nil {
		embeds = []*discordgo.MessageEmbed{e}
	}
	if !c.responded {
		c.responded = true
		return c.bot.api.InteractionRespond(c.i, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Content:    content,
				Embeds:     embeds,
				Flags:      flags,
				Components: components,
			},
		})
	}
	_, err := c.bot.api.FollowupMessageCreate(c.i, true, &discordgo.WebhookParams{
		Content:    content,
		Embeds:     embeds,
		Flags:      flags,
		Components: components,
	})
	return err
}

func (c *interactionConv) Reply(_ context.Context, r bot.Reply) error {
	return c.send(r.Content, r.Embed, r.Ephemeral, nil)
}

func (c *interactionConv) Confirm(ctx context.Context, p resolver.Prompt) (resolver.Signal, error) {
	var userID string
	if u := userOf(c.i); u != nil {
		userID = u.ID
	}
	key := p.Suggestion.Key
	pend := c.bot.register(p.ID, userID, key)
	defer c.bot.release(p.ID, pend)

	label := formatter.ConfirmLabel(time.Until(p.Deadline))
	content := formatter.Suggestion(p.Query, key, p.Suggestion.Title)
	if err := c.send(content, nil, true, confirmButton(p.ID, label)); err != nil {
		return resolver.Signal{}, err
	}

	select {
	case clicked := <-pend.clicks:
		c.i = clicked
		c.responded = false
		return resolver.Signal{Key: key}, nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return resolver.Signal{}, resolver.ErrConfirmationTimeout
		}
		return resolver.Signal{}, ctx.Err()
	}
}

// messageConv answers a prefix command in the channel. Messages cannot carry a
// per-user prompt, so confirmation is unsupported and the suggestion is sent as text.
type messageConv struct {
	api     API
	channel string
	ref     *discordgo.MessageReference
}

func (c *messageConv) Reply(_ context.Context, r bot.Reply) error {
	send := &discordgo.MessageSend{Content: r.Content, Reference: c.ref}
	if e := Embed(r.Embed); e != nil {
		send.Embeds = []*discordgo.MessageEmbed{e}
	}
	_, err := c.api.ChannelMessageSendComplex(c.channel, send)
	return err
}

func (c *messageConv) Confirm(context.Context, resolver.Prompt) (resolver.Signal, error) {
	return resolver.Signal{}, resolver.ErrConfirmationUnsupported
}
