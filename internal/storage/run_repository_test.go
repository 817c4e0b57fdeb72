package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/fleveque/deck-image-service/internal/model"
)

// setupTestDB creates a temporary SQLite database for testing, cleaned up
// automatically when the test finishes.
func setupTestDB(t *testing.T) *testDeps {
	t.Helper()

	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	db, err := NewDatabase(dbPath)
	if err != nil {
		t.Fatalf("creating test database: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
		os.Remove(dbPath)
	})

	return &testDeps{
		runRepo:  NewRunRepository(db),
		callRepo: NewProviderCallRepository(db),
	}
}

type testDeps struct {
	runRepo  RunRepository
	callRepo ProviderCallRepository
}

func TestRunRepository_CreateAndGet(t *testing.T) {
	deps := setupTestDB(t)
	ctx := context.Background()

	run := &model.DeckRun{
		ID:         uuid.NewString(),
		DeckID:     "deck-1",
		Title:      "Pokemon Facts",
		SlideCount: 2,
	}
	if err := deps.runRepo.Create(ctx, run); err != nil {
		t.Fatalf("creating run: %v", err)
	}

	got, err := deps.runRepo.Get(ctx, run.ID)
	if err != nil {
		t.Fatalf("getting run: %v", err)
	}
	if got.DeckID != "deck-1" || got.Title != "Pokemon Facts" || got.SlideCount != 2 {
		t.Errorf("run round-trip mismatch: %+v", got)
	}
	// Status defaults to running when unset.
	if got.Status != model.RunRunning {
		t.Errorf("status = %s, want %s", got.Status, model.RunRunning)
	}
	if got.CreatedAt.IsZero() {
		t.Error("created_at was not set by the database")
	}
}

func TestRunRepository_Get_NotFound(t *testing.T) {
	deps := setupTestDB(t)

	_, err := deps.runRepo.Get(context.Background(), "no-such-run")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRunRepository_Finish(t *testing.T) {
	deps := setupTestDB(t)
	ctx := context.Background()

	run := &model.DeckRun{ID: uuid.NewString(), DeckID: "deck-1", SlideCount: 3}
	if err := deps.runRepo.Create(ctx, run); err != nil {
		t.Fatalf("creating run: %v", err)
	}

	if err := deps.runRepo.Finish(ctx, run.ID, 5, 18, model.RunCompleted); err != nil {
		t.Fatalf("finishing run: %v", err)
	}

	got, err := deps.runRepo.Get(ctx, run.ID)
	if err != nil {
		t.Fatalf("getting run: %v", err)
	}
	if got.Status != model.RunCompleted {
		t.Errorf("status = %s, want %s", got.Status, model.RunCompleted)
	}
	if got.TopicCount != 5 || got.ImagesFound != 18 {
		t.Errorf("counters = %d topics / %d images, want 5/18", got.TopicCount, got.ImagesFound)
	}
}

func TestRunRepository_Counts(t *testing.T) {
	deps := setupTestDB(t)
	ctx := context.Background()

	for i, status := range []model.RunStatus{model.RunCompleted, model.RunCompleted, model.RunFailed} {
		run := &model.DeckRun{ID: uuid.NewString(), DeckID: "deck-1", SlideCount: i}
		if err := deps.runRepo.Create(ctx, run); err != nil {
			t.Fatalf("creating run %d: %v", i, err)
		}
		if err := deps.runRepo.Finish(ctx, run.ID, 0, 0, status); err != nil {
			t.Fatalf("finishing run %d: %v", i, err)
		}
	}

	total, err := deps.runRepo.Count(ctx)
	if err != nil {
		t.Fatalf("counting runs: %v", err)
	}
	if total != 3 {
		t.Errorf("total = %d, want 3", total)
	}

	completed, err := deps.runRepo.CountByStatus(ctx, model.RunCompleted)
	if err != nil {
		t.Fatalf("counting completed: %v", err)
	}
	if completed != 2 {
		t.Errorf("completed = %d, want 2", completed)
	}

	failed, err := deps.runRepo.CountByStatus(ctx, model.RunFailed)
	if err != nil {
		t.Fatalf("counting failed: %v", err)
	}
	if failed != 1 {
		t.Errorf("failed = %d, want 1", failed)
	}
}

func TestRunRepository_ListRecent(t *testing.T) {
	deps := setupTestDB(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		run := &model.DeckRun{ID: uuid.NewString(), DeckID: "deck-1"}
		if err := deps.runRepo.Create(ctx, run); err != nil {
			t.Fatalf("creating run %d: %v", i, err)
		}
	}

	runs, err := deps.runRepo.ListRecent(ctx, 3)
	if err != nil {
		t.Fatalf("listing runs: %v", err)
	}
	if len(runs) != 3 {
		t.Errorf("listed %d runs, want 3", len(runs))
	}
}

func TestProviderCallRepository_CreateAndCount(t *testing.T) {
	deps := setupTestDB(t)
	ctx := context.Background()

	duration := int64(120)
	calls := []*model.ProviderCall{
		{RunID: "run-1", Topic: "pokemon", Provider: "pexels", ResultCount: 18, Success: true, DurationMs: &duration},
		{RunID: "run-1", Topic: "electric battles", Provider: "pexels", ResultCount: 12, Success: true},
		{RunID: "run-1", Topic: "evolution timeline", Provider: "unsplash", ResultCount: 0, Success: false},
	}
	for _, call := range calls {
		if err := deps.callRepo.Create(ctx, call); err != nil {
			t.Fatalf("creating call: %v", err)
		}
		if call.ID == 0 {
			t.Error("Create did not backfill the row id")
		}
	}

	total, err := deps.callRepo.Count(ctx)
	if err != nil {
		t.Fatalf("counting calls: %v", err)
	}
	if total != 3 {
		t.Errorf("total = %d, want 3", total)
	}

	pexels, err := deps.callRepo.CountByProvider(ctx, "pexels")
	if err != nil {
		t.Fatalf("counting by provider: %v", err)
	}
	if pexels != 2 {
		t.Errorf("pexels calls = %d, want 2", pexels)
	}

	failed, err := deps.callRepo.CountFailed(ctx)
	if err != nil {
		t.Fatalf("counting failed: %v", err)
	}
	if failed != 1 {
		t.Errorf("failed calls = %d, want 1", failed)
	}
}
