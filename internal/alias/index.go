// Package alias builds the per-game lookup tables that map titles, nicknames and their
// normalized forms to canonical titles.
package alias

import (
	"errors"

	"github.com/hbollon/go-edlib"
	"github.com/rs/zerolog"
)

// ErrEmptyCatalog is returned when an index is built from zero titles.
var ErrEmptyCatalog = errors.New("alias: empty catalog")

// Entry is the value stored under a key. Submitter is set only for manually submitted aliases.
type Entry struct {
	Title     string
	Submitter string
}

// Hit is a successful exact lookup.
type Hit struct {
	Entry
	Key  string
	Tier Tier
}

// Candidate is the closest entry of a fuzzy search.
type Candidate struct {
	Entry
	Key   string
	Tier  Tier
	Score float64
}

// Collision records a key that was remapped to a different value while building.
type Collision struct {
	Tier     Tier
	Key      string
	Previous Entry
	Current  Entry
}

// table keeps keys in first-insertion order so scans are deterministic.
type table struct {
	pos  map[string]int
	keys []string
	vals []Entry
}

func (t *table) put(key string, e Entry) (prev Entry, existed bool) {
	if t.pos == nil {
		t.pos = make(map[string]int)
	}
	if i, ok := t.pos[key]; ok {
		prev = t.vals[i]
		t.vals[i] = e
		return prev, true
	}
	t.pos[key] = len(t.keys)
	t.keys = append(t.keys, key)
	t.vals = append(t.vals, e)
	return Entry{}, false
}

func (t *table) get(key string) (Entry, bool) {
	i, ok := t.pos[key]
	if !ok {
		return Entry{}, false
	}
	return t.vals[i], true
}

// Index is an immutable set of tier tables. Build one with Build, BuildManual or a Builder.
type Index struct {
	tables     [tierCount]table
	titles     int
	collisions []Collision
}

// Lookup returns the title for query, probing tiers from least to most lossy.
func (idx *Index) Lookup(query string) (string, bool) {
	h, ok := idx.Find(query)
	return h.Title, ok
}

// Find is Lookup that also reports where the hit came from.
func (idx *Index) Find(query string) (Hit, bool) {
	if idx == nil {
		return Hit{}, false
	}
	keys := Derive(query)
	for t := Tier(0); t < tierCount; t++ {
		k := keys.For(t)
		if k == "" {
			continue
		}
		if e, ok := idx.tables[t].get(k); ok {
			return Hit{Entry: e, Key: k, Tier: t}, true
		}
	}
	return Hit{}, false
}

// ClosestMatch returns the entry whose key is most similar to query under Jaro-Winkler.
// Each tier is compared against the query's key for that tier; ties go to the earlier tier,
// then to the earlier inserted key. ok is false only for an index with no entries at all.
func (idx *Index) ClosestMatch(query string) (best Candidate, ok bool) {
	if idx == nil {
		return Candidate{}, false
	}
	keys := Derive(query)
	for t := Tier(0); t < tierCount; t++ {
		c, found := idx.tables[t].closest(keys.For(t))
		if !found {
			continue
		}
		c.Tier = t
		if !ok || c.Score > best.Score {
			best, ok = c, true
		}
	}
	return best, ok
}

func (t *table) closest(q string) (Candidate, bool) {
	var best Candidate
	found := false
	for i, k := range t.keys {
		score := similarity(q, k)
		if !found || score > best.Score {
			best = Candidate{Entry: t.vals[i], Key: k, Score: score}
			found = true
		}
	}
	return best, found
}

func similarity(a, b string) float64 {
	s := float64(edlib.JaroWinklerSimilarity(a, b))
	switch {
	case s < 0:
		return 0
	case s > 1:
		return 1
	}
	return s
}

// Len is the number of keys stored at tier t.
func (idx *Index) Len(t Tier) int {
	if idx == nil || t < 0 || t >= tierCount {
		return 0
	}
	return len(idx.tables[t].keys)
}

// Empty reports whether no tier holds any key.
func (idx *Index) Empty() bool {
	for t := Tier(0); t < tierCount; t++ {
		if idx.Len(t) > 0 {
			return false
		}
	}
	return true
}

// Titles is the number of titles the index was built from.
func (idx *Index) Titles() int {
	if idx == nil {
		return 0
	}
	return idx.titles
}

// Collisions lists every remapped key in insertion order.
func (idx *Index) Collisions() []Collision {
	if idx == nil {
		return nil
	}
	return idx.collisions
}

// Builder fills an Index. Insertion order decides collision winners, so callers must feed
// rows in their source order.
type Builder struct {
	idx      *Index
	logger   zerolog.Logger
	suppress bool
	known    map[string]struct{}
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the logger used for collision and skip warnings.
func WithLogger(l zerolog.Logger) Option {
	return func(b *Builder) { b.logger = l }
}

// SuppressCollisionWarnings stops collision log lines. Collisions are still recorded.
func SuppressCollisionWarnings(suppress bool) Option {
	return func(b *Builder) { b.suppress = suppress }
}

// WithKnownTitles makes AddNickname skip rows whose title is not in titles.
func WithKnownTitles(titles []string) Option {
	return func(b *Builder) {
		b.known = make(map[string]struct{}, len(titles))
		for _, t := range titles {
			b.known[t] = struct{}{}
		}
	}
}

// NewBuilder returns an empty Builder.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{idx: &Index{}, logger: zerolog.Nop()}
	for _, o := range opts {
		o(b)
	}
	return b
}

// AddTitle inserts a canonical title at the five main tiers.
func (b *Builder) AddTitle(title string) {
	keys := Derive(title)
	e := Entry{Title: title}
	for t := TierIdentity; t <= TierASCII; t++ {
		b.put(t, keys.For(t), e)
	}
	b.idx.titles++
}

// AddNickname inserts nickname at the three nickname tiers. It reports false when the
// row was skipped because its title is unknown.
func (b *Builder) AddNickname(title, nickname, submitter string) bool {
	if b.known != nil {
		if _, ok := b.known[title]; !ok {
			b.logger.Warn().Str("title", title).Str("nickname", nickname).Msg("alias target not in catalog; skipped")
			return false
		}
	}
	keys := Derive(nickname)
	e := Entry{Title: title, Submitter: submitter}
	for t := TierNicknameUnspaced; t < tierCount; t++ {
		b.put(t, keys.For(t), e)
	}
	return true
}

func (b *Builder) put(t Tier, key string, e Entry) {
	if key == "" {
		return
	}
	prev, existed := b.idx.tables[t].put(key, e)
	if !existed || prev == e {
		return
	}
	b.idx.collisions = append(b.idx.collisions, Collision{Tier: t, Key: key, Previous: prev, Current: e})
	if !b.suppress {
		b.logger.Warn().
			Str("tier", t.String()).
			Str("key", key).
			Str("previous", prev.Title).
			Str("title", e.Title).
			Msg("alias collision; keeping latest")
	}
}

// Index returns the built index. The Builder must not be used afterwards.
func (b *Builder) Index() *Index {
	idx := b.idx
	b.idx = nil
	return idx
}

// Nickname is one (title, nickname) row of a static alias list.
type Nickname struct {
	Title    string
	Nickname string
}

// Build creates the global index of one game from its catalog titles and nickname rows.
func Build(titles []string, nicknames []Nickname, opts ...Option) (*Index, error) {
	if len(titles) == 0 {
		return nil, ErrEmptyCatalog
	}
	b := NewBuilder(append([]Option{WithKnownTitles(titles)}, opts...)...)
	for _, t := range titles {
		b.AddTitle(t)
	}
	for _, n := range nicknames {
		b.AddNickname(n.Title, n.Nickname, "")
	}
	return b.Index(), nil
}

// ManualAlias is one community-submitted alias row.
type ManualAlias struct {
	Title                  string
	Nickname               string
	SubmitterID            string
	SubmitterDiscriminator string
	CommunityID            string
}

// Submitter renders the submitter as "id#discriminator".
func (m ManualAlias) Submitter() string {
	return m.SubmitterID + "#" + m.SubmitterDiscriminator
}

// BuildManual partitions rows by community and builds one nickname-only index per community.
// Communities with no rows have no entry in the result.
func BuildManual(titles []string, rows []ManualAlias, opts ...Option) map[string]*Index {
	builders := make(map[string]*Builder)
	for _, r := range rows {
		b, ok := builders[r.CommunityID]
		if !ok {
			b = NewBuilder(append([]Option{WithKnownTitles(titles)}, opts...)...)
			builders[r.CommunityID] = b
		}
		b.AddNickname(r.Title, r.Nickname, r.Submitter())
	}
	out := make(map[string]*Index, len(builders))
	for id, b := range builders {
		out[id] = b.Index()
	}
	return out
}
