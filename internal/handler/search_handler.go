package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fleveque/deck-image-service/internal/model"
	"github.com/fleveque/deck-image-service/internal/service"
)

// DeckSearcher is the slice of DeckImageService the handler needs.
// Declaring the interface at the consumer keeps the handler testable with
// a stub instead of a fully wired service.
type DeckSearcher interface {
	CollectImages(ctx context.Context, outline model.Outline, hints map[string]string) (*service.RunResult, error)
}

// SearchHandler handles image-search requests for deck outlines.
type SearchHandler struct {
	searcher DeckSearcher
	logger   *zap.Logger
}

// NewSearchHandler creates a new SearchHandler.
func NewSearchHandler(searcher DeckSearcher, logger *zap.Logger) *SearchHandler {
	return &SearchHandler{
		searcher: searcher,
		logger:   logger,
	}
}

// searchRequest is the POST body: the outline plus optional pre-computed
// per-slide query hints (slide id → query) that bypass topic extraction.
type searchRequest struct {
	Outline model.Outline     `json:"outline"`
	Hints   map[string]string `json:"hints,omitempty"`
}

// Search runs the image pipeline for an outline.
// Route: POST /api/v1/searches?stream=true
//
// With stream=true (the default) progress events are streamed as SSE in
// completion order; otherwise the response is a single JSON document with
// the final per-slide galleries.
func (h *SearchHandler) Search(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if req.Outline.ID == "" || len(req.Outline.Slides) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "outline must have an id and at least one slide"})
		return
	}

	result, err := h.searcher.CollectImages(c.Request.Context(), req.Outline, req.Hints)
	if err != nil {
		h.logger.Error("starting image search",
			zap.String("deck_id", req.Outline.ID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start search"})
		return
	}

	if c.DefaultQuery("stream", "true") == "true" {
		h.streamEvents(c, result)
		return
	}

	// Non-streaming mode: drain the event stream, respond once with the
	// final galleries. Degraded runs (all providers down) legitimately
	// return empty galleries rather than an error.
	var complete model.Event
	for ev := range result.Events {
		if ev.Type == model.EventCollectionComplete {
			complete = ev
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"run_id":                 result.RunID,
		"galleries":              result.Galleries(),
		"total_topics_searched":  complete.TotalTopicsSearched,
		"total_slides_processed": complete.TotalSlidesProcessed,
	})
}

// streamEvents writes the run's events as Server-Sent Events until the
// pipeline closes the channel or the client disconnects.
func (h *SearchHandler) streamEvents(c *gin.Context, result *service.RunResult) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Run-ID", result.RunID)

	c.Stream(func(w io.Writer) bool {
		ev, ok := <-result.Events
		if !ok {
			return false // channel closed — run finished
		}
		c.SSEvent(string(ev.Type), ev)
		return true
	})
}
