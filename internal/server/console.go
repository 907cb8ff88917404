package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/lomotos10/GCM-bot/internal/ast"
	"github.com/lomotos10/GCM-bot/internal/bot"
	"github.com/lomotos10/GCM-bot/internal/formatter"
	"github.com/lomotos10/GCM-bot/internal/parser"
	"github.com/lomotos10/GCM-bot/internal/resolver"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Executor runs console commands; *bot.Dispatcher implements it.
type Executor interface {
	Execute(ctx context.Context, msg bot.Message, conv bot.Conversation) error
}

// ConsoleMessage is the frame exchanged with console clients.
//
// Clients send "command" (Text) and "confirm" (PromptID). The server sends "reply",
// "prompt", "error" and "snapshot".
type ConsoleMessage struct {
	Type      string           `json:"type"`
	Text      string           `json:"text,omitempty"`
	PromptID  string           `json:"prompt_id,omitempty"`
	Content   string           `json:"content,omitempty"`
	Embed     *formatter.Embed `json:"embed,omitempty"`
	Ephemeral bool             `json:"ephemeral,omitempty"`
	Game      string           `json:"game,omitempty"`
	Title     string           `json:"title,omitempty"`
	Key       string           `json:"key,omitempty"`
	Label     string           `json:"label,omitempty"`
	Titles    int              `json:"titles,omitempty"`
	Deadline  *time.Time       `json:"deadline,omitempty"`
	Error     string           `json:"error,omitempty"`
	At        time.Time        `json:"at"`
}

type client struct {
	ws        *websocket.Conn
	user      string
	community string
	wmu       sync.Mutex
}

func (c *client) write(m ConsoleMessage) error {
	if m.At.IsZero() {
		m.At = time.Now().UTC()
	}
	c.wmu.Lock()
	defer c.wmu.Unlock()
	return c.ws.WriteJSON(m)
}

type prompt struct {
	owner  *client
	accept chan struct{}
}

// Hub tracks console connections and their open confirmation prompts.
type Hub struct {
	exec   Executor
	prefix string
	logger zerolog.Logger

	mu      sync.Mutex
	clients map[*client]struct{}
	prompts map[string]*prompt
}

// NewHub returns a console hub running commands through exec. A leading prefix on
// command text is optional.
func NewHub(exec Executor, prefix string, logger zerolog.Logger) *Hub {
	return &Hub{
		exec:    exec,
		prefix:  prefix,
		logger:  logger,
		clients: make(map[*client]struct{}),
		prompts: make(map[string]*prompt),
	}
}

// Clients is the number of open consoles.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Snapshot tells every console that a game's index was swapped.
func (h *Hub) Snapshot(s *resolver.Snapshot) {
	h.Broadcast(ConsoleMessage{Type: "snapshot", Game: string(s.Game), Titles: s.Global.Titles()})
}

// Broadcast writes m to every console, dropping those that fail.
func (h *Hub) Broadcast(m ConsoleMessage) {
	h.mu.Lock()
	targets := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.Unlock()
	for _, c := range targets {
		if err := c.write(m); err != nil {
			h.leave(c)
		}
	}
}

// Close disconnects every console.
func (h *Hub) Close() {
	h.mu.Lock()
	targets := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.Unlock()
	for _, c := range targets {
		h.leave(c)
	}
}

func (h *Hub) join(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) leave(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	for id, p := range h.prompts {
		if p.owner == c {
			delete(h.prompts, id)
		}
	}
	h.mu.Unlock()
	_ = c.ws.Close()
}

func (h *Hub) await(id string, c *client) *prompt {
	p := &prompt{owner: c, accept: make(chan struct{}, 1)}
	h.mu.Lock()
	h.prompts[id] = p
	h.mu.Unlock()
	return p
}

func (h *Hub) drop(id string) {
	h.mu.Lock()
	delete(h.prompts, id)
	h.mu.Unlock()
}

// accept delivers a confirmation from c. Only the console that received the prompt may answer it.
func (h *Hub) accept(id string, c *client) bool {
	h.mu.Lock()
	p, ok := h.prompts[id]
	if ok && p.owner == c {
		delete(h.prompts, id)
	}
	h.mu.Unlock()
	if !ok || p.owner != c {
		return false
	}
	p.accept <- struct{}{}
	return true
}

// Handler upgrades GET /ws?community=<id>&user=<id> to a console session.
func (h *Hub) Handler() gin.HandlerFunc {
	return func(gc *gin.Context) {
		user := strings.TrimSpace(gc.Query("user"))
		if user == "" {
			user = "console-" + uuid.NewString()[:8]
		}
		ws, err := upgrader.Upgrade(gc.Writer, gc.Request, nil)
		if err != nil {
			return
		}
		c := &client{ws: ws, user: user, community: strings.TrimSpace(gc.Query("community"))}
		h.join(c)
		h.serve(c)
	}
}

func (h *Hub) serve(c *client) {
	ctx, cancel := context.WithCancel(context.Background())
	var running sync.WaitGroup
	defer func() {
		cancel()
		running.Wait()
		h.leave(c)
	}()

	for {
		_, payload, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		var in ConsoleMessage
		if err := json.Unmarshal(payload, &in); err != nil {
			// bare text is a command
			in = ConsoleMessage{Type: "command", Text: string(payload)}
		}
		switch in.Type {
		case "command":
			text := strings.TrimSpace(in.Text)
			if h.prefix != "" {
				text = strings.TrimSpace(strings.TrimPrefix(text, h.prefix))
			}
			if text == "" {
				continue
			}
			running.Add(1)
			go func() {
				defer running.Done()
				h.run(ctx, c, text)
			}()
		case "confirm":
			if !h.accept(in.PromptID, c) {
				_ = c.write(ConsoleMessage{Type: "error", PromptID: in.PromptID, Error: "unknown or expired prompt"})
			}
		default:
			_ = c.write(ConsoleMessage{Type: "error", Error: "unknown message type " + in.Type})
		}
	}
}

// errConsoleAddAlias is sent for add-alias: console identities come from the query
// string and cannot vouch for community membership.
const errConsoleAddAlias = "add-alias is not available from the console"

func (h *Hub) run(ctx context.Context, c *client, text string) {
	if cmd, err := parser.NewFromString(text).Parse(); err == nil {
		if _, ok := cmd.(*ast.AddAliasCommand); ok {
			h.logger.Warn().Str("user", c.user).Str("community", c.community).Msg("console add-alias refused")
			_ = c.write(ConsoleMessage{Type: "error", Error: errConsoleAddAlias})
			return
		}
	}
	msg := bot.Message{
		Text:      text,
		GuildID:   c.community,
		ChannelID: "console",
		UserID:    c.user,
	}
	if err := h.exec.Execute(ctx, msg, &consoleConv{hub: h, client: c}); err != nil {
		h.logger.Error().Err(err).Str("text", text).Msg("console command failed")
		_ = c.write(ConsoleMessage{Type: "error", Error: err.Error()})
	}
}

type consoleConv struct {
	hub    *Hub
	client *client
}

func (cc *consoleConv) Reply(_ context.Context, r bot.Reply) error {
	return cc.client.write(ConsoleMessage{Type: "reply", Content: r.Content, Embed: r.Embed, Ephemeral: r.Ephemeral})
}

func (cc *consoleConv) Confirm(ctx context.Context, p resolver.Prompt) (resolver.Signal, error) {
	pend := cc.hub.await(p.ID, cc.client)
	defer cc.hub.drop(p.ID)

	deadline := p.Deadline
	err := cc.client.write(ConsoleMessage{
		Type:     "prompt",
		PromptID: p.ID,
		Game:     string(p.Game),
		Content:  formatter.Suggestion(p.Query, p.Suggestion.Key, p.Suggestion.Title),
		Title:    p.Suggestion.Title,
		Key:      p.Suggestion.Key,
		Label:    formatter.ConfirmLabel(time.Until(deadline)),
		Deadline: &deadline,
	})
	if err != nil {
		return resolver.Signal{}, err
	}
	select {
	case <-pend.accept:
		return resolver.Signal{Key: p.Suggestion.Key}, nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return resolver.Signal{}, resolver.ErrConfirmationTimeout
		}
		return resolver.Signal{}, ctx.Err()
	}
}
