package resolver

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lomotos10/GCM-bot/internal/game"
)

// DefaultConfirmTimeout is how long a "did you mean" prompt waits for an answer.
const DefaultConfirmTimeout = 10 * time.Second

var (
	// ErrConfirmationTimeout is returned by transports when the prompt expired unanswered.
	ErrConfirmationTimeout = errors.New("confirmation timed out")
	// ErrConfirmationUnsupported is returned by transports that cannot collect an answer.
	ErrConfirmationUnsupported = errors.New("confirmation not supported by transport")
)

// State is a step of the confirmation flow.
type State int

const (
	AwaitingQuery State = iota
	AwaitingConfirmation
	Resolved
	Abandoned
)

func (s State) String() string {
	switch s {
	case AwaitingQuery:
		return "awaiting_query"
	case AwaitingConfirmation:
		return "awaiting_confirmation"
	case Resolved:
		return "resolved"
	case Abandoned:
		return "abandoned"
	}
	return "unknown"
}

// Prompt is what a transport shows the user while awaiting confirmation.
type Prompt struct {
	ID          string
	Game        game.Game
	Query       string
	CommunityID string
	UserID      string
	Suggestion  Suggestion
	Deadline    time.Time
}

// Signal is the user's acceptance; Key is the suggestion key being confirmed.
type Signal struct {
	Key string
}

// ConfirmationTransport shows a prompt and blocks until the user accepts or ctx expires.
// Expiry is reported as ErrConfirmationTimeout or the context's error.
type ConfirmationTransport interface {
	Confirm(ctx context.Context, p Prompt) (Signal, error)
}

// UnresolvedQuery is one failed resolution kept for alias curation.
type UnresolvedQuery struct {
	ID          string
	Game        game.Game
	Query       string
	CommunityID string
	UserID      string
	GuessKey    string
	GuessTitle  string
	Score       float64
	At          time.Time
}

// UnresolvedQueryLog stores unresolved queries. Failures never affect the user's request.
type UnresolvedQueryLog interface {
	Record(ctx context.Context, q UnresolvedQuery) error
}

// Observer is told about every state transition.
type Observer interface {
	Transition(g game.Game, from, to State)
}

// Request is one query to resolve.
type Request struct {
	Game        game.Game
	Query       string
	CommunityID string
	UserID      string
	Transport   ConfirmationTransport
}

// AbandonReason tells why a flow ended without a title.
type AbandonReason string

const (
	AbandonTimeout     AbandonReason = "timeout"
	AbandonUnsupported AbandonReason = "unsupported"
	AbandonNoCandidate AbandonReason = "no_candidate"
	AbandonError       AbandonReason = "error"
)

// Outcome is the final state of a flow.
type Outcome struct {
	State      State
	Title      string
	Confirmed  bool
	Resolution *Resolution
	Suggestion *Suggestion
	Reason     AbandonReason
}

// Flow runs the resolve, suggest and confirm protocol.
type Flow struct {
	registry *Registry
	log      UnresolvedQueryLog
	observer Observer
	timeout  time.Duration
	logger   zerolog.Logger
	now      func() time.Time
}

// FlowOption configures a Flow.
type FlowOption func(*Flow)

// WithUnresolvedLog records every failed resolution to l.
func WithUnresolvedLog(l UnresolvedQueryLog) FlowOption {
	return func(f *Flow) { f.log = l }
}

// WithObserver reports transitions to o.
func WithObserver(o Observer) FlowOption {
	return func(f *Flow) { f.observer = o }
}

// WithTimeout sets the confirmation window.
func WithTimeout(d time.Duration) FlowOption {
	return func(f *Flow) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithFlowLogger sets the flow's logger.
func WithFlowLogger(l zerolog.Logger) FlowOption {
	return func(f *Flow) { f.logger = l }
}

// NewFlow returns a Flow over reg.
func NewFlow(reg *Registry, opts ...FlowOption) *Flow {
	f := &Flow{
		registry: reg,
		timeout:  DefaultConfirmTimeout,
		logger:   zerolog.Nop(),
		now:      time.Now,
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Timeout is the confirmation window.
func (f *Flow) Timeout() time.Duration { return f.timeout }

// Run resolves req.Query. The returned error is non-nil only when the game has no index or
// the transport failed in an unexpected way; the outcome is valid in both cases.
func (f *Flow) Run(ctx context.Context, req Request) (Outcome, error) {
	snap, err := f.registry.Snapshot(req.Game)
	if err != nil {
		return Outcome{State: Abandoned, Reason: AbandonError}, err
	}
	if res, ok := snap.Resolve(req.Query, req.CommunityID); ok {
		f.transition(req.Game, AwaitingQuery, Resolved)
		return Outcome{State: Resolved, Title: res.Title, Resolution: &res}, nil
	}

	sug, ok := snap.Suggest(req.Query, req.CommunityID)
	if !ok {
		f.transition(req.Game, AwaitingQuery, Abandoned)
		return Outcome{State: Abandoned, Reason: AbandonNoCandidate}, nil
	}
	f.transition(req.Game, AwaitingQuery, AwaitingConfirmation)
	f.record(ctx, req, sug)

	out := Outcome{State: Abandoned, Suggestion: &sug}
	if req.Transport == nil {
		out.Reason = AbandonUnsupported
		f.transition(req.Game, AwaitingConfirmation, Abandoned)
		return out, nil
	}

	wait, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()
	deadline, _ := wait.Deadline()
	prompt := Prompt{
		ID:          uuid.NewString(),
		Game:        req.Game,
		Query:       req.Query,
		CommunityID: req.CommunityID,
		UserID:      req.UserID,
		Suggestion:  sug,
		Deadline:    deadline,
	}
	sig, err := req.Transport.Confirm(wait, prompt)
	switch {
	case err == nil:
	case errors.Is(err, ErrConfirmationTimeout), errors.Is(err, context.DeadlineExceeded):
		out.Reason = AbandonTimeout
		f.transition(req.Game, AwaitingConfirmation, Abandoned)
		f.logger.Debug().Str("prompt", prompt.ID).Str("query", req.Query).Msg("confirmation timed out")
		return out, nil
	case errors.Is(err, ErrConfirmationUnsupported):
		out.Reason = AbandonUnsupported
		f.transition(req.Game, AwaitingConfirmation, Abandoned)
		return out, nil
	default:
		out.Reason = AbandonError
		f.transition(req.Game, AwaitingConfirmation, Abandoned)
		return out, err
	}

	key := sig.Key
	if key == "" {
		key = sug.Key
	}
	title := sug.Title
	if res, ok := snap.Resolve(key, req.CommunityID); ok {
		title = res.Title
		out.Resolution = &res
	} else {
		f.logger.Warn().Str("key", key).Str("title", sug.Title).Msg("confirmed key did not resolve; using suggested title")
	}
	f.transition(req.Game, AwaitingConfirmation, Resolved)
	out.State = Resolved
	out.Title = title
	out.Confirmed = true
	return out, nil
}

func (f *Flow) record(ctx context.Context, req Request, sug Suggestion) {
	f.logger.Info().
		Str("game", string(req.Game)).
		Str("query", req.Query).
		Str("community", req.CommunityID).
		Str("guess", sug.Title).
		Float64("score", sug.Score).
		Msg("unresolved query")
	if f.log == nil {
		return
	}
	q := UnresolvedQuery{
		ID:          uuid.NewString(),
		Game:        req.Game,
		Query:       req.Query,
		CommunityID: req.CommunityID,
		UserID:      req.UserID,
		GuessKey:    sug.Key,
		GuessTitle:  sug.Title,
		Score:       sug.Score,
		At:          f.now().UTC(),
	}
	if err := f.log.Record(ctx, q); err != nil {
		f.logger.Warn().Err(err).Str("query", req.Query).Msg("record unresolved query")
	}
}

func (f *Flow) transition(g game.Game, from, to State) {
	if f.observer != nil {
		f.observer.Transition(g, from, to)
	}
}
