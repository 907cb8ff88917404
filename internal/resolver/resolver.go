// Package resolver turns a free-form query into a canonical title using a global index and
// an optional per-community index, and drives the "did you mean" confirmation.
package resolver

import (
	"github.com/lomotos10/GCM-bot/internal/alias"
)

// TitleResolver resolves queries for one game.
type TitleResolver interface {
	Resolve(query, communityID string) (Resolution, bool)
	Suggest(query, communityID string) (Suggestion, bool)
}

var _ TitleResolver = (*Snapshot)(nil)

// Resolution is an exact hit.
type Resolution struct {
	Title     string
	Key       string
	Tier      alias.Tier
	Community bool
	Submitter string
}

// Suggestion is the closest guess for a query that did not resolve. Key is the matched
// index key, which resolves exactly once confirmed.
type Suggestion struct {
	Title     string
	Key       string
	Tier      alias.Tier
	Score     float64
	Community bool
	Submitter string
}

// Resolve searches the global index first, then the community index.
func Resolve(global, community *alias.Index, query string) (Resolution, bool) {
	if h, ok := global.Find(query); ok {
		return Resolution{Title: h.Title, Key: h.Key, Tier: h.Tier}, true
	}
	if h, ok := community.Find(query); ok {
		return Resolution{Title: h.Title, Key: h.Key, Tier: h.Tier, Community: true, Submitter: h.Submitter}, true
	}
	return Resolution{}, false
}

// Suggest returns the best fuzzy candidate across both indexes. On equal scores the global
// candidate wins; within an index the earlier tier wins.
func Suggest(global, community *alias.Index, query string) (Suggestion, bool) {
	var best Suggestion
	found := false
	if c, ok := global.ClosestMatch(query); ok {
		best = Suggestion{Title: c.Title, Key: c.Key, Tier: c.Tier, Score: c.Score}
		found = true
	}
	if c, ok := community.ClosestMatch(query); ok && (!found || c.Score > best.Score) {
		best = Suggestion{Title: c.Title, Key: c.Key, Tier: c.Tier, Score: c.Score, Community: true, Submitter: c.Submitter}
		found = true
	}
	return best, found
}

// ErrTitleNotFound is returned when a query neither resolves nor gets confirmed.
type ErrTitleNotFound struct {
	Query      string
	Suggestion *Suggestion
}

func (e *ErrTitleNotFound) Error() string {
	if e.Suggestion != nil {
		return "title not found: " + e.Query + " (closest: " + e.Suggestion.Title + ")"
	}
	return "title not found: " + e.Query
}

// Lookup resolves query through r. A miss returns *ErrTitleNotFound carrying the closest
// candidate, if any.
func Lookup(r TitleResolver, query, communityID string) (Resolution, error) {
	if res, ok := r.Resolve(query, communityID); ok {
		return res, nil
	}
	nf := &ErrTitleNotFound{Query: query}
	if sug, ok := r.Suggest(query, communityID); ok {
		nf.Suggestion = &sug
	}
	return Resolution{}, nf
}
