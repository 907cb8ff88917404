// Package cooldown throttles chart queries per user and per channel in selected guilds.
package cooldown

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/lomotos10/GCM-bot/internal/config"
)

// Kind tells which limit blocked a query.
type Kind int

const (
	None Kind = iota
	User
	Channel
)

func (k Kind) String() string {
	switch k {
	case User:
		return "user"
	case Channel:
		return "channel"
	}
	return "none"
}

// Verdict is the result of Check.
type Verdict struct {
	Kind      Kind
	Remaining time.Duration
}

// Blocked reports whether the query must be refused.
func (v Verdict) Blocked() bool { return v.Kind != None }

// Message is the reply shown to a throttled user.
func (v Verdict) Message() string {
	secs := int((v.Remaining + time.Second - 1) / time.Second)
	return fmt.Sprintf("Channel cooldown: please wait %d seconds and try again, or try the #bot-commands channel for no cooldown.", secs)
}

// Limiter keeps one token bucket per user and per channel. The zero value is not usable.
type Limiter struct {
	enabled  bool
	user     time.Duration
	channel  time.Duration
	guilds   map[string]bool
	exempt   map[string]bool
	mu       sync.Mutex
	users    map[string]*rate.Limiter
	channels map[string]*rate.Limiter
	now      func() time.Time
}

// New builds a Limiter from cfg. A disabled config yields a Limiter that never blocks.
// An empty guild list applies the cooldown in every guild.
func New(cfg config.Cooldown) *Limiter {
	l := &Limiter{
		enabled:  cfg.Enabled,
		user:     cfg.User,
		channel:  cfg.Channel,
		guilds:   toSet(cfg.Guilds),
		exempt:   toSet(cfg.ExemptChannels),
		users:    make(map[string]*rate.Limiter),
		channels: make(map[string]*rate.Limiter),
		now:      time.Now,
	}
	return l
}

func toSet(ids []string) map[string]bool {
	m := make(map[string]bool, len(ids))
	for _, id := range ids {
		m[id] = true
	}
	return m
}

// Check consumes one query for userID in channelID of guildID, unless a limit blocks it.
// Direct messages (empty guildID) and exempt channels are never limited.
func (l *Limiter) Check(guildID, channelID, userID string) Verdict {
	if l == nil || !l.enabled || guildID == "" || l.exempt[channelID] {
		return Verdict{}
	}
	if len(l.guilds) > 0 && !l.guilds[guildID] {
		return Verdict{}
	}
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()
	ur := reserve(l.users, guildID+"/"+userID, l.user, now)
	cr := reserve(l.channels, channelID, l.channel, now)
	var v Verdict
	if d := ur.delay(now); d > 0 {
		v = Verdict{Kind: User, Remaining: d}
	} else if d := cr.delay(now); d > 0 {
		v = Verdict{Kind: Channel, Remaining: d}
	}
	if v.Blocked() {
		ur.cancel(now)
		cr.cancel(now)
	}
	return v
}

type reservation struct{ r *rate.Reservation }

func (r reservation) delay(now time.Time) time.Duration {
	if r.r == nil {
		return 0
	}
	return r.r.DelayFrom(now)
}

func (r reservation) cancel(now time.Time) {
	if r.r != nil {
		r.r.CancelAt(now)
	}
}

func reserve(m map[string]*rate.Limiter, key string, every time.Duration, now time.Time) reservation {
	if every <= 0 {
		return reservation{}
	}
	lim, ok := m[key]
	if !ok {
		lim = rate.NewLimiter(rate.Every(every), 1)
		m[key] = lim
	}
	return reservation{r: lim.ReserveN(now, 1)}
}
