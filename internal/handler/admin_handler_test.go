package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fleveque/deck-image-service/internal/model"
	"github.com/fleveque/deck-image-service/internal/storage"
)

// fakeRunRepo serves canned data for handler tests.
type fakeRunRepo struct {
	runs []model.DeckRun
}

func (f *fakeRunRepo) Create(ctx context.Context, run *model.DeckRun) error { return nil }

func (f *fakeRunRepo) Get(ctx context.Context, id string) (*model.DeckRun, error) {
	for i := range f.runs {
		if f.runs[i].ID == id {
			return &f.runs[i], nil
		}
	}
	return nil, storage.ErrNotFound
}

func (f *fakeRunRepo) Finish(ctx context.Context, id string, topicCount, imagesFound int, status model.RunStatus) error {
	return nil
}

func (f *fakeRunRepo) Count(ctx context.Context) (int64, error) {
	return int64(len(f.runs)), nil
}

func (f *fakeRunRepo) CountByStatus(ctx context.Context, status model.RunStatus) (int64, error) {
	var n int64
	for _, r := range f.runs {
		if r.Status == status {
			n++
		}
	}
	return n, nil
}

func (f *fakeRunRepo) ListRecent(ctx context.Context, limit int) ([]model.DeckRun, error) {
	if limit > len(f.runs) {
		limit = len(f.runs)
	}
	return f.runs[:limit], nil
}

type fakeCallRepo struct {
	calls []model.ProviderCall
}

func (f *fakeCallRepo) Create(ctx context.Context, call *model.ProviderCall) error { return nil }

func (f *fakeCallRepo) Count(ctx context.Context) (int64, error) {
	return int64(len(f.calls)), nil
}

func (f *fakeCallRepo) CountByProvider(ctx context.Context, providerName string) (int64, error) {
	var n int64
	for _, c := range f.calls {
		if c.Provider == providerName {
			n++
		}
	}
	return n, nil
}

func (f *fakeCallRepo) CountFailed(ctx context.Context) (int64, error) {
	var n int64
	for _, c := range f.calls {
		if !c.Success {
			n++
		}
	}
	return n, nil
}

func newAdminRouter(runs *fakeRunRepo, calls *fakeCallRepo) *gin.Engine {
	h := NewAdminHandler(runs, calls, []string{"pexels", "unsplash"}, zap.NewNop())
	router := gin.New()
	router.GET("/stats", h.Stats)
	router.GET("/runs", h.Runs)
	return router
}

func TestAdminStats(t *testing.T) {
	runs := &fakeRunRepo{runs: []model.DeckRun{
		{ID: "r1", Status: model.RunCompleted},
		{ID: "r2", Status: model.RunCompleted},
		{ID: "r3", Status: model.RunFailed},
		{ID: "r4", Status: model.RunRunning},
	}}
	calls := &fakeCallRepo{calls: []model.ProviderCall{
		{Provider: "pexels", Success: true},
		{Provider: "pexels", Success: false},
		{Provider: "unsplash", Success: true},
	}}
	router := newAdminRouter(runs, calls)

	req := httptest.NewRequest("GET", "/stats", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp struct {
		Runs struct {
			Total     int64 `json:"total"`
			Completed int64 `json:"completed"`
			Failed    int64 `json:"failed"`
		} `json:"runs"`
		ProviderCalls struct {
			Total      int64            `json:"total"`
			Failed     int64            `json:"failed"`
			ByProvider map[string]int64 `json:"by_provider"`
		} `json:"provider_calls"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}

	if resp.Runs.Total != 4 || resp.Runs.Completed != 2 || resp.Runs.Failed != 1 {
		t.Errorf("runs = %+v, want total 4 / completed 2 / failed 1", resp.Runs)
	}
	if resp.ProviderCalls.Total != 3 || resp.ProviderCalls.Failed != 1 {
		t.Errorf("calls = %+v, want total 3 / failed 1", resp.ProviderCalls)
	}
	if resp.ProviderCalls.ByProvider["pexels"] != 2 || resp.ProviderCalls.ByProvider["unsplash"] != 1 {
		t.Errorf("by_provider = %v, want pexels 2 / unsplash 1", resp.ProviderCalls.ByProvider)
	}
}

func TestAdminRuns(t *testing.T) {
	runs := &fakeRunRepo{runs: []model.DeckRun{
		{ID: "r1"}, {ID: "r2"}, {ID: "r3"},
	}}
	router := newAdminRouter(runs, &fakeCallRepo{})

	req := httptest.NewRequest("GET", "/runs?limit=2", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp struct {
		Runs []model.DeckRun `json:"runs"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(resp.Runs) != 2 {
		t.Errorf("expected 2 runs, got %d", len(resp.Runs))
	}
}

func TestAdminRuns_InvalidLimit(t *testing.T) {
	router := newAdminRouter(&fakeRunRepo{}, &fakeCallRepo{})

	for _, limit := range []string{"0", "201", "abc"} {
		req := httptest.NewRequest("GET", "/runs?limit="+limit, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("limit %q: expected 400, got %d", limit, w.Code)
		}
	}
}

func TestHealthz(t *testing.T) {
	router := gin.New()
	router.GET("/healthz", NewHealthHandler().Healthz)

	req := httptest.NewRequest("GET", "/healthz", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp["status"] != "ok" || resp["service"] != "deck-image-service" {
		t.Errorf("unexpected health payload: %v", resp)
	}
}
