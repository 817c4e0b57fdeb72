package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fleveque/deck-image-service/internal/model"
	"github.com/fleveque/deck-image-service/internal/storage"
)

// AdminHandler handles administrative endpoints: run history and provider
// call accounting.
type AdminHandler struct {
	runRepo   storage.RunRepository
	callRepo  storage.ProviderCallRepository
	providers []string // configured provider names, for per-provider counts
	logger    *zap.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(runRepo storage.RunRepository, callRepo storage.ProviderCallRepository, providers []string, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		runRepo:   runRepo,
		callRepo:  callRepo,
		providers: providers,
		logger:    logger,
	}
}

// Stats returns run and provider-call statistics.
// Route: GET /api/v1/admin/stats
func (h *AdminHandler) Stats(c *gin.Context) {
	ctx := c.Request.Context()

	totalRuns, err := h.runRepo.Count(ctx)
	if err != nil {
		h.logger.Error("counting runs", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	completed, err := h.runRepo.CountByStatus(ctx, model.RunCompleted)
	if err != nil {
		h.logger.Error("counting completed runs", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	failed, err := h.runRepo.CountByStatus(ctx, model.RunFailed)
	if err != nil {
		h.logger.Error("counting failed runs", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	totalCalls, err := h.callRepo.Count(ctx)
	if err != nil {
		h.logger.Error("counting provider calls", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	failedCalls, err := h.callRepo.CountFailed(ctx)
	if err != nil {
		h.logger.Error("counting failed provider calls", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	byProvider := make(map[string]int64, len(h.providers))
	for _, name := range h.providers {
		count, err := h.callRepo.CountByProvider(ctx, name)
		if err != nil {
			h.logger.Error("counting calls by provider",
				zap.String("provider", name),
				zap.Error(err),
			)
			continue
		}
		byProvider[name] = count
	}

	c.JSON(http.StatusOK, gin.H{
		"runs": gin.H{
			"total":     totalRuns,
			"completed": completed,
			"failed":    failed,
		},
		"provider_calls": gin.H{
			"total":       totalCalls,
			"failed":      failedCalls,
			"by_provider": byProvider,
		},
	})
}

// Runs lists recent search runs.
// Route: GET /api/v1/admin/runs?limit=20
func (h *AdminHandler) Runs(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 || limit > 200 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 200"})
		return
	}

	runs, err := h.runRepo.ListRecent(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("listing runs", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"runs": runs})
}
