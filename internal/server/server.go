// Package server exposes the resolver over HTTP: health and readiness, Prometheus
// metrics, JSON lookups, a reload hook and a websocket console.
package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/lomotos10/GCM-bot/internal/data"
	"github.com/lomotos10/GCM-bot/internal/formatter"
	"github.com/lomotos10/GCM-bot/internal/game"
	"github.com/lomotos10/GCM-bot/internal/resolver"
)

// Reloader rebuilds every game's snapshot; *bot.Loader implements it.
type Reloader interface {
	ReloadAll(ctx context.Context) error
}

// Server holds the HTTP handlers.
type Server struct {
	registry *resolver.Registry
	catalog  data.Catalog
	reloader Reloader
	gatherer prometheus.Gatherer
	hub      *Hub
	logger   zerolog.Logger
}

// Option configures a Server.
type Option func(*Server)

func WithReloader(r Reloader) Option {
	return func(s *Server) { s.reloader = r }
}

// WithGatherer serves g on /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// WithConsole enables the /ws console backed by h.
func WithConsole(h *Hub) Option {
	return func(s *Server) { s.hub = h }
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// New returns a Server reading from reg and catalog.
func New(reg *resolver.Registry, catalog data.Catalog, opts ...Option) *Server {
	s := &Server{registry: reg, catalog: catalog, logger: zerolog.Nop()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Router builds the gin engine.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.accessLog())

	r.GET("/health", s.health)
	r.GET("/ready", s.ready)
	if s.gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}

	api := r.Group("/api")
	api.GET("/:game/resolve", s.resolve)
	api.GET("/:game/suggest", s.suggest)
	api.GET("/:game/charts/:title", s.chart)
	api.POST("/reload", s.reload)

	if s.hub != nil {
		r.GET("/ws", s.hub.Handler())
	}
	return r
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("http listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if s.hub != nil {
		s.hub.Close()
	}
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("http request")
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) ready(c *gin.Context) {
	games := gin.H{}
	var missing []string
	for _, g := range s.registry.Games() {
		snap, err := s.registry.Snapshot(g)
		if err != nil {
			missing = append(missing, string(g))
			continue
		}
		games[string(g)] = gin.H{
			"titles":      snap.Global.Titles(),
			"communities": len(snap.Communities),
			"built_at":    snap.BuiltAt.UTC(),
		}
	}
	body := gin.H{"games": games}
	if s.hub != nil {
		body["consoles"] = s.hub.Clients()
	}
	if len(missing) > 0 {
		body["status"] = "not_ready"
		body["missing"] = missing
		c.JSON(http.StatusServiceUnavailable, body)
		return
	}
	body["status"] = "ready"
	c.JSON(http.StatusOK, body)
}

// snapshot resolves the :game param and its snapshot, answering the request on failure.
func (s *Server) snapshot(c *gin.Context) (*resolver.Snapshot, bool) {
	g, err := game.Parse(c.Param("game"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return nil, false
	}
	snap, err := s.registry.Snapshot(g)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return nil, false
	}
	return snap, true
}

func query(c *gin.Context) (string, bool) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "q is required"})
		return "", false
	}
	return q, true
}

type resolutionJSON struct {
	Title     string `json:"title"`
	Key       string `json:"key"`
	Tier      string `json:"tier"`
	Community bool   `json:"community"`
	Submitter string `json:"submitter,omitempty"`
}

type suggestionJSON struct {
	Title     string  `json:"title"`
	Key       string  `json:"key"`
	Tier      string  `json:"tier"`
	Score     float64 `json:"score"`
	Community bool    `json:"community"`
	Submitter string  `json:"submitter,omitempty"`
}

func toSuggestionJSON(sug resolver.Suggestion) suggestionJSON {
	return suggestionJSON{
		Title:     sug.Title,
		Key:       sug.Key,
		Tier:      sug.Tier.String(),
		Score:     sug.Score,
		Community: sug.Community,
		Submitter: sug.Submitter,
	}
}

// resolve answers an exact lookup; a miss carries the closest candidate.
func (s *Server) resolve(c *gin.Context) {
	snap, ok := s.snapshot(c)
	if !ok {
		return
	}
	q, ok := query(c)
	if !ok {
		return
	}
	res, err := resolver.Lookup(snap, q, c.Query("community"))
	var nf *resolver.ErrTitleNotFound
	if errors.As(err, &nf) {
		body := gin.H{"error": "title not found", "query": q}
		if nf.Suggestion != nil {
			body["suggestion"] = toSuggestionJSON(*nf.Suggestion)
		}
		c.JSON(http.StatusNotFound, body)
		return
	}
	c.JSON(http.StatusOK, resolutionJSON{
		Title:     res.Title,
		Key:       res.Key,
		Tier:      res.Tier.String(),
		Community: res.Community,
		Submitter: res.Submitter,
	})
}

func (s *Server) suggest(c *gin.Context) {
	snap, ok := s.snapshot(c)
	if !ok {
		return
	}
	q, ok := query(c)
	if !ok {
		return
	}
	sug, ok := snap.Suggest(q, c.Query("community"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no candidate"})
		return
	}
	c.JSON(http.StatusOK, toSuggestionJSON(sug))
}

func (s *Server) chart(c *gin.Context) {
	g, err := game.Parse(c.Param("game"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	ch, err := s.catalog.Chart(c.Request.Context(), g, c.Param("title"))
	if err != nil {
		s.logger.Error().Err(err).Str("game", string(g)).Msg("load chart")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load failed"})
		return
	}
	if ch == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, formatter.ChartJSON(ch))
}

func (s *Server) reload(c *gin.Context) {
	if s.reloader == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "reload not configured"})
		return
	}
	if err := s.reloader.ReloadAll(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "reloaded"})
}
