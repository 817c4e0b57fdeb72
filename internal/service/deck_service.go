// Package service contains the business logic tying the pipeline together.
// DeckImageService runs the full flow for one outline:
//
//	Hints:  ask an LLM for per-slide queries (optional, ordered fallback)
//	Search: topic extraction → parallel provider fan-out → diverse selection
//	Fan-in: per-slide galleries, streamed as events
//
// Run and provider-call records are persisted for diagnostics; persistence
// failures never fail a search.
package service

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/fleveque/deck-image-service/internal/llm"
	"github.com/fleveque/deck-image-service/internal/model"
	"github.com/fleveque/deck-image-service/internal/search"
	"github.com/fleveque/deck-image-service/internal/storage"
)

// DeckImageService is the in-process entry point the HTTP layer and CLI use.
type DeckImageService struct {
	orchestrator *search.Orchestrator
	hintClients  []llm.Client // ordered: first is primary, rest are fallbacks
	hintLimiter  *rate.Limiter
	runRepo      storage.RunRepository // nil disables run tracking
	logger       *zap.Logger
}

// NewDeckImageService wires the service. hintClients may be empty — the
// pipeline then relies on heuristic topic extraction alone.
func NewDeckImageService(
	orchestrator *search.Orchestrator,
	hintClients []llm.Client,
	hintRatePerMinute int,
	runRepo storage.RunRepository,
	logger *zap.Logger,
) *DeckImageService {
	if hintRatePerMinute <= 0 {
		hintRatePerMinute = 10
	}
	rps := rate.Every(time.Minute / time.Duration(hintRatePerMinute))

	return &DeckImageService{
		orchestrator: orchestrator,
		hintClients:  hintClients,
		hintLimiter:  rate.NewLimiter(rps, 1), // burst of 1 — LLM calls are paid
		runRepo:      runRepo,
		logger:       logger,
	}
}

// RunResult is a started search: drain Events until it closes, then
// Galleries holds the final per-slide images.
type RunResult struct {
	RunID  string
	Events <-chan model.Event

	run *search.Run
}

// Galleries returns the final capped per-slide galleries. Complete once
// Events has closed.
func (r *RunResult) Galleries() []search.SlideGallery { return r.run.Galleries() }

// Topics returns the deduplicated topic set searched for this run.
func (r *RunResult) Topics() []model.SearchTopic { return r.run.Topics }

// CollectImages starts the image search for an outline. When the caller
// already has per-slide query hints they bypass hint generation; otherwise
// the configured LLM clients are asked first, degrading silently to
// heuristic extraction on any failure.
func (s *DeckImageService) CollectImages(ctx context.Context, outline model.Outline, hints map[string]string) (*RunResult, error) {
	if hints == nil {
		hints = s.suggestHints(ctx, outline)
	}

	run := s.orchestrator.Start(ctx, outline, hints)
	s.recordStart(outline, run)

	// Forward events so the service can observe the close and finalize the
	// run record without stealing events from the caller.
	out := make(chan model.Event, 16)
	go func() {
		defer close(out)
		for ev := range run.Events {
			select {
			case out <- ev:
			case <-ctx.Done():
				// Caller is gone; drain the rest so the pipeline can exit.
			}
		}
		s.recordFinish(ctx, run)
	}()

	return &RunResult{RunID: run.Session.RunID, Events: out, run: run}, nil
}

// suggestHints tries each configured LLM client in order; the first usable
// answer wins. Any failure just means heuristic extraction.
func (s *DeckImageService) suggestHints(ctx context.Context, outline model.Outline) map[string]string {
	for _, client := range s.hintClients {
		if err := s.hintLimiter.Wait(ctx); err != nil {
			return nil
		}

		hints, err := client.SuggestQueries(ctx, outline)
		if err != nil {
			s.logger.Warn("hint generation failed, trying next",
				zap.String("deck_id", outline.ID),
				zap.String("provider", client.ProviderName()),
				zap.Error(err),
			)
			continue
		}

		s.logger.Info("hints generated",
			zap.String("deck_id", outline.ID),
			zap.String("provider", client.ProviderName()),
			zap.Int("hints", len(hints)),
		)
		return hints
	}
	return nil
}

func (s *DeckImageService) recordStart(outline model.Outline, run *search.Run) {
	if s.runRepo == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	record := &model.DeckRun{
		ID:         run.Session.RunID,
		DeckID:     outline.ID,
		Title:      outline.Title,
		SlideCount: len(outline.Slides),
		TopicCount: len(run.Topics),
		Status:     model.RunRunning,
	}
	if err := s.runRepo.Create(ctx, record); err != nil {
		s.logger.Error("recording run start", zap.Error(err))
	}
}

func (s *DeckImageService) recordFinish(runCtx context.Context, run *search.Run) {
	if s.runRepo == nil {
		return
	}
	status := model.RunCompleted
	if runCtx.Err() != nil {
		status = model.RunFailed
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.runRepo.Finish(ctx, run.Session.RunID, len(run.Topics), run.ImagesAssigned(), status); err != nil {
		s.logger.Error("recording run finish", zap.Error(err))
	}
}
