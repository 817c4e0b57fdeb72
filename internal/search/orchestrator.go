package search

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/fleveque/deck-image-service/internal/cache"
	"github.com/fleveque/deck-image-service/internal/model"
	"github.com/fleveque/deck-image-service/internal/provider"
	"github.com/fleveque/deck-image-service/internal/storage"
	"github.com/fleveque/deck-image-service/internal/topic"
)

// eventBuffer decouples event production from consumption: the pipeline
// keeps working while a slow consumer catches up, and blocks (backpressure)
// only when the buffer fills.
const eventBuffer = 64

// Config holds the orchestrator's tuning knobs. Zero values fall back to
// the defaults noted on each field.
type Config struct {
	ImagesPerSlide     int           // final gallery cap per slide (6)
	TopicsPerSlide     int           // extraction cap per slide (5)
	BaseImagesPerTopic int           // minimum picks per topic (4)
	PerSlideShare      int           // extra picks per sharing slide (3)
	PoolMultiplier     int           // over-request factor for provider calls (3)
	MaxConcurrent      int           // concurrent topic searches (8)
	ProviderTimeout    time.Duration // per provider call (10s)
	RatePerSecond      float64       // token bucket on provider calls (10)
	RateBurst          int           // token bucket burst (10)
	Seed               int64         // selector RNG seed; 0 = from clock
}

func (c Config) withDefaults() Config {
	if c.ImagesPerSlide <= 0 {
		c.ImagesPerSlide = 6
	}
	if c.TopicsPerSlide <= 0 {
		c.TopicsPerSlide = topic.DefaultMaxPerSlide
	}
	if c.BaseImagesPerTopic <= 0 {
		c.BaseImagesPerTopic = 4
	}
	if c.PerSlideShare <= 0 {
		c.PerSlideShare = 3
	}
	if c.PoolMultiplier < 2 {
		c.PoolMultiplier = 3
	}
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = 8
	}
	if c.ProviderTimeout <= 0 {
		c.ProviderTimeout = 10 * time.Second
	}
	if c.RatePerSecond <= 0 {
		c.RatePerSecond = 10
	}
	if c.RateBurst <= 0 {
		c.RateBurst = 10
	}
	return c
}

// Orchestrator runs one external search per unique topic, concurrently,
// cache-then-provider, and feeds completions to the distribution engine as
// they arrive. A single topic failing (timeout, provider error, empty
// result) never aborts sibling topics — it resolves as zero images.
type Orchestrator struct {
	providers []provider.ImageProvider // ordered: primary first
	cache     *cache.ResultCache
	selector  *Selector
	limiter   *rate.Limiter
	calls     storage.ProviderCallRepository // nil disables call tracking
	cfg       Config
	logger    *zap.Logger
}

// NewOrchestrator wires the pipeline. The provider list order is the
// aggregation policy: each provider is tried/merged in sequence until the
// requested pool size is reached.
func NewOrchestrator(
	providers []provider.ImageProvider,
	resultCache *cache.ResultCache,
	calls storage.ProviderCallRepository,
	cfg Config,
	logger *zap.Logger,
) *Orchestrator {
	cfg = cfg.withDefaults()
	return &Orchestrator{
		providers: providers,
		cache:     resultCache,
		selector:  NewSelector(cfg.Seed, logger),
		limiter:   rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.RateBurst),
		calls:     calls,
		cfg:       cfg,
		logger:    logger,
	}
}

// Run is one started pipeline execution. Drain Events until it closes,
// then Galleries holds the final per-slide result.
type Run struct {
	Events  <-chan model.Event
	Session *Session
	Topics  []model.SearchTopic
	dist    *Distributor
}

// Galleries returns the final capped per-slide galleries. Only complete
// once Events has closed.
func (r *Run) Galleries() []SlideGallery { return r.dist.Galleries() }

// ImagesAssigned reports total images assigned across slides so far.
func (r *Run) ImagesAssigned() int { return r.dist.ImagesAssigned() }

// Start extracts topics from the outline (hints, when present, bypass
// heuristic extraction per slide), then launches the concurrent searches.
// It returns immediately; progress flows through the Run's event channel,
// which closes once every topic has resolved and the terminal event has
// been emitted. Cancelling ctx abandons outstanding provider calls and
// stops event emission; partial results are simply discarded.
func (o *Orchestrator) Start(ctx context.Context, outline model.Outline, hints map[string]string) *Run {
	topics := topic.BuildTopics(outline, hints, o.cfg.TopicsPerSlide)
	sess := NewSession(outline.ID)
	events := make(chan model.Event, eventBuffer)
	dist := NewDistributor(ctx, outline, topics, o.cfg.ImagesPerSlide, events, o.logger)
	opts := searchOptions(outline.StylePreferences)

	o.logger.Info("starting image search run",
		zap.String("deck_id", outline.ID),
		zap.String("run_id", sess.RunID),
		zap.Int("slides", len(outline.Slides)),
		zap.Int("topics", len(topics)),
	)

	go func() {
		defer close(events)

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(o.cfg.MaxConcurrent)
		for _, t := range topics {
			t := t
			g.Go(func() error {
				o.searchTopic(gctx, t, opts, sess, dist)
				return nil // failures are contained per topic
			})
		}
		_ = g.Wait()

		if ctx.Err() == nil {
			dist.Finish()
		}
	}()

	return &Run{Events: events, Session: sess, Topics: topics, dist: dist}
}

// searchTopic runs the strictly ordered per-topic pipeline:
// cache check → provider call(s) → diversity selection → distribution.
func (o *Orchestrator) searchTopic(ctx context.Context, t model.SearchTopic, opts provider.SearchOptions, sess *Session, dist *Distributor) {
	desired := o.cfg.BaseImagesPerTopic
	if share := len(t.SlideIDs) * o.cfg.PerSlideShare; share > desired {
		desired = share
	}
	// Over-request so the selector has room to avoid already-used images.
	poolSize := desired * o.cfg.PoolMultiplier

	key := cache.Key(strings.ToLower(t.Text), opts)
	pool, hit := o.cache.Get(key)
	if !hit {
		var fetched bool
		pool, fetched = o.fetchPool(ctx, t.Text, poolSize, opts, sess.RunID)
		// Cache the raw pool, not the post-selection subset, so later
		// topics in this run can still draw fresh picks from it. An empty
		// pool from a successful search is cached too — a topic with no
		// stock imagery stays empty for the TTL instead of re-querying
		// every provider on every run. Failures are not cached.
		if fetched && ctx.Err() == nil {
			o.cache.Put(key, pool)
		}
	}

	if ctx.Err() != nil {
		return
	}

	picks := o.selector.Pick(pool, desired, sess)
	dist.TopicCompleted(t, picks)
}

// fetchPool queries providers in configured order, merging (identity-
// deduplicated) results until the requested pool size is reached or the
// provider list is exhausted. Any provider failure is logged and treated
// as zero results from that provider. The second return reports whether
// at least one provider answered successfully — the result is cacheable
// even when that answer was empty.
func (o *Orchestrator) fetchPool(ctx context.Context, query string, poolSize int, opts provider.SearchOptions, runID string) ([]model.ImageCandidate, bool) {
	var pool []model.ImageCandidate
	succeeded := false
	seen := make(map[string]struct{})

	for _, p := range o.providers {
		if len(pool) >= poolSize {
			break
		}
		if err := o.limiter.Wait(ctx); err != nil {
			return pool, succeeded // run cancelled while queued
		}

		callCtx, cancel := context.WithTimeout(ctx, o.cfg.ProviderTimeout)
		start := time.Now()
		candidates, err := p.Search(callCtx, query, poolSize, opts)
		duration := time.Since(start).Milliseconds()
		cancel()

		o.recordCall(runID, query, p.Name(), len(candidates), err, duration)

		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				o.logger.Warn("provider search timed out",
					zap.String("topic", query),
					zap.String("provider", p.Name()),
				)
			} else {
				o.logger.Warn("provider search failed",
					zap.String("topic", query),
					zap.String("provider", p.Name()),
					zap.Error(err),
				)
			}
			continue
		}
		succeeded = true

		for _, c := range candidates {
			id := c.Identity()
			if id == "" {
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			pool = append(pool, c)
		}
	}

	return pool, succeeded
}

// recordCall persists one provider call for diagnostics. Best effort — a
// tracking failure never affects the search itself.
func (o *Orchestrator) recordCall(runID, query, providerName string, resultCount int, callErr error, durationMs int64) {
	if o.calls == nil {
		return
	}
	call := &model.ProviderCall{
		RunID:       runID,
		Topic:       query,
		Provider:    providerName,
		ResultCount: resultCount,
		Success:     callErr == nil,
	}
	call.DurationMs = &durationMs

	// Use a short background context: the run context may already be
	// cancelled, but the record is still worth keeping.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := o.calls.Create(ctx, call); err != nil {
		o.logger.Error("recording provider call", zap.Error(err))
	}
}

func searchOptions(prefs *model.StylePreferences) provider.SearchOptions {
	if prefs == nil {
		return provider.SearchOptions{}
	}
	return provider.SearchOptions{
		Orientation: prefs.Orientation,
		Color:       prefs.Color,
		Locale:      prefs.Locale,
	}
}
