package cooldown

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lomotos10/GCM-bot/internal/config"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newLimiter(cfg config.Cooldown) (*Limiter, *clock) {
	c := &clock{t: time.Unix(1700000000, 0)}
	l := New(cfg)
	l.now = c.now
	return l, c
}

func TestCheck_Disabled(t *testing.T) {
	l, _ := newLimiter(config.Default().Cooldown)
	for i := 0; i < 5; i++ {
		assert.False(t, l.Check("g", "c", "u").Blocked())
	}
}

func TestCheck_UserThenChannel(t *testing.T) {
	l, clk := newLimiter(config.Cooldown{Enabled: true, User: 30 * time.Minute, Channel: 5 * time.Minute})

	assert.False(t, l.Check("g", "c1", "alice").Blocked())

	v := l.Check("g", "c2", "alice")
	assert.Equal(t, User, v.Kind)
	assert.InDelta(t, float64(30*time.Minute), float64(v.Remaining), float64(time.Millisecond))

	v = l.Check("g", "c1", "bob")
	assert.Equal(t, Channel, v.Kind)
	assert.InDelta(t, float64(5*time.Minute), float64(v.Remaining), float64(time.Millisecond))

	// bob was refused, so his bucket is untouched
	clk.t = clk.t.Add(5*time.Minute + time.Second)
	assert.False(t, l.Check("g", "c1", "bob").Blocked())
	assert.Equal(t, User, l.Check("g", "c1", "alice").Kind)
}

func TestCheck_Scope(t *testing.T) {
	l, _ := newLimiter(config.Cooldown{
		Enabled:        true,
		User:           time.Minute,
		Channel:        time.Minute,
		Guilds:         []string{"g1"},
		ExemptChannels: []string{"bot-commands"},
	})
	assert.False(t, l.Check("g1", "c", "u").Blocked())
	assert.True(t, l.Check("g1", "c", "u").Blocked())

	for i := 0; i < 3; i++ {
		assert.False(t, l.Check("g2", "c", "u").Blocked(), "other guilds are not limited")
		assert.False(t, l.Check("g1", "bot-commands", "u").Blocked(), "exempt channel")
		assert.False(t, l.Check("", "dm", "u").Blocked(), "direct messages")
	}
}

func TestVerdict_Message(t *testing.T) {
	v := Verdict{Kind: Channel, Remaining: 90*time.Second + time.Millisecond}
	assert.Equal(t, "Channel cooldown: please wait 91 seconds and try again, or try the #bot-commands channel for no cooldown.", v.Message())
	var nilLimiter *Limiter
	assert.False(t, nilLimiter.Check("g", "c", "u").Blocked())
}
