// Package bot turns parsed commands into replies: it resolves titles through the
// confirmation flow, renders charts and records community aliases.
package bot

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/lomotos10/GCM-bot/internal/alias"
	"github.com/lomotos10/GCM-bot/internal/ast"
	"github.com/lomotos10/GCM-bot/internal/cooldown"
	"github.com/lomotos10/GCM-bot/internal/data"
	"github.com/lomotos10/GCM-bot/internal/errors"
	"github.com/lomotos10/GCM-bot/internal/formatter"
	"github.com/lomotos10/GCM-bot/internal/game"
	"github.com/lomotos10/GCM-bot/internal/parser"
	"github.com/lomotos10/GCM-bot/internal/resolver"
)

// Message is one incoming command.
type Message struct {
	Text          string // command text without the prefix
	GuildID       string // community; empty in direct messages
	ChannelID     string
	UserID        string
	Discriminator string
}

// Reply is one outgoing message.
type Reply struct {
	Content   string
	Embed     *formatter.Embed
	Ephemeral bool
}

// Conversation is the transport side of one command. Confirm may return
// resolver.ErrConfirmationUnsupported when the transport has no buttons.
type Conversation interface {
	Reply(ctx context.Context, r Reply) error
	resolver.ConfirmationTransport
}

// Recorder receives command and resolution counts.
type Recorder interface {
	Command(name, result string)
	Resolved(g game.Game, res resolver.Resolution)
}

type nopRecorder struct{}

func (nopRecorder) Command(string, string)                   {}
func (nopRecorder) Resolved(game.Game, resolver.Resolution) {}

// Dispatcher runs commands end-to-end.
type Dispatcher struct {
	flow            *resolver.Flow
	registry        *resolver.Registry
	catalog         data.Catalog
	writer          *alias.ManualWriter
	cooldown        *cooldown.Limiter
	recorder        Recorder
	notifyOnTimeout bool
	prefix          string
	logger          zerolog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithManualWriter enables add-alias.
func WithManualWriter(w *alias.ManualWriter) Option {
	return func(d *Dispatcher) { d.writer = w }
}

func WithCooldown(l *cooldown.Limiter) Option {
	return func(d *Dispatcher) { d.cooldown = l }
}

func WithRecorder(r Recorder) Option {
	return func(d *Dispatcher) {
		if r != nil {
			d.recorder = r
		}
	}
}

// NotifyOnTimeout sends "Timed out." when a confirmation expires.
func NotifyOnTimeout(notify bool) Option {
	return func(d *Dispatcher) { d.notifyOnTimeout = notify }
}

// WithPrefix sets the command prefix shown in help.
func WithPrefix(p string) Option {
	return func(d *Dispatcher) { d.prefix = p }
}

func WithLogger(l zerolog.Logger) Option {
	return func(d *Dispatcher) { d.logger = l }
}

// New builds a Dispatcher. registry must be the registry flow reads from.
func New(flow *resolver.Flow, registry *resolver.Registry, catalog data.Catalog, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		flow:     flow,
		registry: registry,
		catalog:  catalog,
		recorder: nopRecorder{},
		prefix:   "/",
		logger:   zerolog.Nop(),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Execute parses msg.Text and runs it.
func (d *Dispatcher) Execute(ctx context.Context, msg Message, conv Conversation) error {
	cmd, err := parser.NewFromString(msg.Text).Parse()
	if err != nil {
		d.recorder.Command("parse", "error")
		return conv.Reply(ctx, Reply{Content: "```\n" + err.Error() + "\n```", Ephemeral: true})
	}
	return d.ExecuteCommand(ctx, cmd, msg, conv)
}

// ExecuteCommand runs an already parsed command. The returned error is a transport or
// storage failure; user mistakes are answered with a reply.
func (d *Dispatcher) ExecuteCommand(ctx context.Context, cmd ast.Command, msg Message, conv Conversation) error {
	switch c := cmd.(type) {
	case *ast.InfoCommand:
		return d.chart(ctx, c.Name(), c.Game, c.Title, msg, conv, formatter.Info)
	case *ast.DetailedInfoCommand:
		return d.chart(ctx, c.Name(), c.Game, c.Title, msg, conv, formatter.Detailed)
	case *ast.JacketCommand:
		return d.chart(ctx, c.Name(), c.Game, c.Title, msg, conv, formatter.Jacket)
	case *ast.AddAliasCommand:
		return d.addAlias(ctx, c, msg, conv)
	case *ast.HelpCommand:
		d.recorder.Command(c.Name(), "ok")
		return conv.Reply(ctx, Reply{Content: Help(d.prefix, c.Topic), Ephemeral: true})
	default:
		return fmt.Errorf("unsupported command %T", cmd)
	}
}

func (d *Dispatcher) chart(ctx context.Context, name string, g game.Game, title string, msg Message, conv Conversation, render func(*data.Chart) formatter.Embed) error {
	if v := d.cooldown.Check(msg.GuildID, msg.ChannelID, msg.UserID); v.Blocked() {
		d.recorder.Command(name, "cooldown")
		return conv.Reply(ctx, Reply{Content: v.Message(), Ephemeral: true})
	}

	out, err := d.flow.Run(ctx, resolver.Request{
		Game:        g,
		Query:       title,
		CommunityID: msg.GuildID,
		UserID:      msg.UserID,
		Transport:   conv,
	})
	if err != nil {
		d.recorder.Command(name, "error")
		if stderrors.Is(err, resolver.ErrNotReady) {
			be := &errors.BotError{Type: errors.ErrNoCatalog, Message: g.DisplayName() + " charts are still loading", Cause: err}
			return conv.Reply(ctx, Reply{Content: be.Error(), Ephemeral: true})
		}
		return fmt.Errorf("%s %q: %w", name, title, err)
	}

	switch out.State {
	case resolver.Resolved:
		if out.Resolution != nil {
			d.recorder.Resolved(g, *out.Resolution)
		}
		c, err := d.catalog.Chart(ctx, g, out.Title)
		if err != nil {
			d.recorder.Command(name, "error")
			return fmt.Errorf("load chart %q: %w", out.Title, err)
		}
		if c == nil {
			d.recorder.Command(name, "not_found")
			be := &errors.BotError{Type: errors.ErrTitleNotFound, Message: fmt.Sprintf("**%s** is no longer in the catalog", out.Title)}
			return conv.Reply(ctx, Reply{Content: be.Error(), Ephemeral: true})
		}
		e := render(c)
		if e.ImageURL == "" && e.Description == "" {
			d.recorder.Command(name, "no_jacket")
			return conv.Reply(ctx, Reply{Content: fmt.Sprintf("No jacket available for **%s**.", e.Title), Ephemeral: true})
		}
		r := Reply{Embed: &e}
		if out.Confirmed {
			r.Content = formatter.QueryBy(msg.UserID)
		}
		d.recorder.Command(name, "ok")
		return conv.Reply(ctx, r)

	default:
		switch out.Reason {
		case resolver.AbandonUnsupported:
			d.recorder.Command(name, "suggested")
			s := out.Suggestion
			return conv.Reply(ctx, Reply{Content: formatter.Suggestion(title, s.Key, s.Title), Ephemeral: true})
		case resolver.AbandonTimeout:
			d.recorder.Command(name, "timeout")
			if d.notifyOnTimeout {
				return conv.Reply(ctx, Reply{Content: formatter.TimedOut, Ephemeral: true})
			}
			return nil
		default:
			d.recorder.Command(name, "not_found")
			return conv.Reply(ctx, Reply{Content: formatter.NotFound(title), Ephemeral: true})
		}
	}
}

func (d *Dispatcher) addAlias(ctx context.Context, c *ast.AddAliasCommand, msg Message, conv Conversation) error {
	fail := func(t errors.ErrorType, m string) error {
		d.recorder.Command(c.Name(), "rejected")
		be := &errors.BotError{Type: t, Message: m}
		return conv.Reply(ctx, Reply{Content: be.Error(), Ephemeral: true})
	}
	if d.writer == nil {
		return fail(errors.ErrUnknownCommand, "adding aliases is disabled")
	}
	if msg.GuildID == "" {
		return fail(errors.ErrInvalidAlias, "aliases can only be added inside a server")
	}
	nick := strings.TrimSpace(c.Alias)
	if nick == "" || strings.ContainsAny(nick, "\t\r\n") {
		return fail(errors.ErrInvalidAlias, "an alias must be one line of text")
	}
	if len([]rune(nick)) > 100 {
		return fail(errors.ErrInvalidAlias, "an alias may be at most 100 characters")
	}

	snap, err := d.registry.Snapshot(c.Game)
	if err != nil {
		return fail(errors.ErrNoCatalog, c.Game.DisplayName()+" charts are still loading")
	}
	res, err := resolver.Lookup(snap, c.Title, msg.GuildID)
	var nf *resolver.ErrTitleNotFound
	if stderrors.As(err, &nf) {
		be := &errors.BotError{Type: errors.ErrTitleNotFound, Message: fmt.Sprintf("no title matches **%s**", c.Title), Cause: err, Hint: "use the exact title or an existing alias"}
		if nf.Suggestion != nil {
			be.Suggestions = []string{nf.Suggestion.Title}
		}
		d.recorder.Command(c.Name(), "rejected")
		return conv.Reply(ctx, Reply{Content: be.Error(), Ephemeral: true})
	}
	if err != nil {
		return err
	}
	if existing, ok := snap.Resolve(nick, msg.GuildID); ok && existing.Title == res.Title {
		return fail(errors.ErrInvalidAlias, fmt.Sprintf("**%s** already finds **%s**", nick, res.Title))
	}

	row := alias.ManualAlias{
		Title:                  res.Title,
		Nickname:               nick,
		SubmitterID:            msg.UserID,
		SubmitterDiscriminator: msg.Discriminator,
		CommunityID:            msg.GuildID,
	}
	if err := d.writer.Append(ctx, string(c.Game), row); err != nil {
		d.recorder.Command(c.Name(), "error")
		return fmt.Errorf("append alias: %w", err)
	}
	d.logger.Info().
		Str("game", string(c.Game)).
		Str("title", res.Title).
		Str("alias", nick).
		Str("community", msg.GuildID).
		Str("submitter", row.Submitter()).
		Msg("alias added")
	d.recorder.Command(c.Name(), "ok")
	return conv.Reply(ctx, Reply{Content: formatter.AliasAdded(nick, res.Title)})
}

// Help lists the commands, or describes one.
func Help(prefix, topic string) string {
	lines := map[string]string{
		"info":      "`%s<game>-info <title>`: chart levels, version and BPM (games: mai, chuni, ongeki)",
		"detailed":  "`%sdetailed-mai-info <title>`: note counts and designer of every maimai chart",
		"jacket":    "`%s<game>-jacket <title>`: the jacket image",
		"add-alias": "`%sadd-alias <game> \"<title>\" <alias>`: add an alias for this server",
		"help":      "`%shelp [command]`: this message",
	}
	order := []string{"info", "detailed", "jacket", "add-alias", "help"}
	if topic != "" {
		key := topic
		switch {
		case strings.HasPrefix(topic, "detailed-"):
			key = "detailed"
		case strings.HasSuffix(topic, "-info"):
			key = "info"
		case strings.HasSuffix(topic, "-jacket"):
			key = "jacket"
		}
		if l, ok := lines[key]; ok {
			return fmt.Sprintf(l, prefix)
		}
	}
	var b strings.Builder
	b.WriteString("**GCM-bot: chart info for GekiChuMai**\n\nNicknames for songs are supported; try stuff out!\n")
	for _, k := range order {
		b.WriteString("\n")
		fmt.Fprintf(&b, lines[k], prefix)
	}
	return b.String()
}
