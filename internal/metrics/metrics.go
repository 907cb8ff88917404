// Package metrics exposes Prometheus collectors for resolution, confirmation,
// snapshot and ingest activity.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/lomotos10/GCM-bot/internal/alias"
	"github.com/lomotos10/GCM-bot/internal/game"
	"github.com/lomotos10/GCM-bot/internal/resolver"
)

const namespace = "gcm"

// Metrics holds every collector, registered on one registry.
type Metrics struct {
	Registry *prometheus.Registry

	transitions    *prometheus.CounterVec
	resolveTier    *prometheus.CounterVec
	commands       *prometheus.CounterVec
	titles         *prometheus.GaugeVec
	collisions     *prometheus.GaugeVec
	communities    *prometheus.GaugeVec
	builtAt        *prometheus.GaugeVec
	reloadFailures *prometheus.CounterVec
	ingestCharts   *prometheus.GaugeVec
	sourceErrors   *prometheus.CounterVec
}

// New registers the collectors on a fresh registry, together with the Go and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGoCollector(), prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	f := promauto.With(reg)
	return &Metrics{
		Registry: reg,

		// Labels: game, from, to (awaiting_query, awaiting_confirmation, resolved, abandoned)
		transitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "confirm",
			Name:      "transitions_total",
			Help:      "Confirmation state machine transitions",
		}, []string{"game", "from", "to"}),
		resolveTier: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "resolve",
			Name:      "hits_total",
			Help:      "Direct resolutions by matching tier and scope",
		}, []string{"game", "tier", "scope"}),
		commands: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Handled commands by name and result",
		}, []string{"command", "result"}),
		titles: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "titles",
			Help:      "Catalog titles in the current snapshot",
		}, []string{"game"}),
		collisions: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "alias_collisions",
			Help:      "Alias keys overwritten while building the current global index",
		}, []string{"game"}),
		communities: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "communities",
			Help:      "Communities with manual aliases in the current snapshot",
		}, []string{"game"}),
		builtAt: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "built_timestamp_seconds",
			Help:      "Unix time the current snapshot was built",
		}, []string{"game"}),
		reloadFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "reload_failures_total",
			Help:      "Snapshot rebuilds that kept the previous snapshot",
		}, []string{"game"}),
		ingestCharts: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "charts",
			Help:      "Charts written by the last ingest",
		}, []string{"game"}),
		sourceErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "source_errors_total",
			Help:      "Chart sources that failed during ingest",
		}, []string{"source"}),
	}
}

// Transition implements resolver.Observer.
func (m *Metrics) Transition(g game.Game, from, to resolver.State) {
	m.transitions.WithLabelValues(string(g), from.String(), to.String()).Inc()
}

// Resolved counts a direct resolution.
func (m *Metrics) Resolved(g game.Game, res resolver.Resolution) {
	scope := "global"
	if res.Community {
		scope = "community"
	}
	m.resolveTier.WithLabelValues(string(g), res.Tier.String(), scope).Inc()
}

// Command counts one handled command; result is e.g. "ok", "not_found", "error".
func (m *Metrics) Command(name, result string) {
	m.commands.WithLabelValues(name, result).Inc()
}

// Snapshot records the shape of a freshly swapped snapshot.
func (m *Metrics) Snapshot(s *resolver.Snapshot) {
	g := string(s.Game)
	m.titles.WithLabelValues(g).Set(float64(s.Global.Titles()))
	m.collisions.WithLabelValues(g).Set(float64(collisionCount(s.Global)))
	m.communities.WithLabelValues(g).Set(float64(len(s.Communities)))
	m.builtAt.WithLabelValues(g).Set(float64(s.BuiltAt.Unix()))
}

// ReloadFailed counts a rebuild that kept the old snapshot.
func (m *Metrics) ReloadFailed(g game.Game) {
	m.reloadFailures.WithLabelValues(string(g)).Inc()
}

// Ingested records the number of charts written for g.
func (m *Metrics) Ingested(g game.Game, n int) {
	m.ingestCharts.WithLabelValues(string(g)).Set(float64(n))
}

// SourceFailed counts a failing ingest source.
func (m *Metrics) SourceFailed(source string) {
	m.sourceErrors.WithLabelValues(source).Inc()
}

func collisionCount(idx *alias.Index) int {
	return len(idx.Collisions())
}
