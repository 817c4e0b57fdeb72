package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/fleveque/deck-image-service/internal/model"
)

// ErrNotFound is returned when a run doesn't exist in the database.
// Callers check with errors.Is(err, ErrNotFound).
var ErrNotFound = errors.New("run not found")

// RunRepository persists deck search runs.
type RunRepository interface {
	Create(ctx context.Context, run *model.DeckRun) error
	Get(ctx context.Context, id string) (*model.DeckRun, error)
	Finish(ctx context.Context, id string, topicCount, imagesFound int, status model.RunStatus) error
	Count(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context, status model.RunStatus) (int64, error)
	ListRecent(ctx context.Context, limit int) ([]model.DeckRun, error)
}

type sqliteRunRepository struct {
	db *sqlx.DB
}

// NewRunRepository creates a SQLite-backed RunRepository.
func NewRunRepository(db *sqlx.DB) RunRepository {
	return &sqliteRunRepository{db: db}
}

func (r *sqliteRunRepository) Create(ctx context.Context, run *model.DeckRun) error {
	if run.Status == "" {
		run.Status = model.RunRunning
	}
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO deck_runs (id, deck_id, title, slide_count, topic_count, images_found, status)
		VALUES (:id, :deck_id, :title, :slide_count, :topic_count, :images_found, :status)
	`, run)
	if err != nil {
		return fmt.Errorf("creating run: %w", err)
	}
	return nil
}

func (r *sqliteRunRepository) Get(ctx context.Context, id string) (*model.DeckRun, error) {
	var run model.DeckRun
	err := r.db.GetContext(ctx, &run, "SELECT * FROM deck_runs WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting run %s: %w", id, err)
	}
	return &run, nil
}

func (r *sqliteRunRepository) Finish(ctx context.Context, id string, topicCount, imagesFound int, status model.RunStatus) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE deck_runs
		SET topic_count = ?, images_found = ?, status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, topicCount, imagesFound, status, id)
	if err != nil {
		return fmt.Errorf("finishing run %s: %w", id, err)
	}
	return nil
}

func (r *sqliteRunRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM deck_runs")
	return count, err
}

func (r *sqliteRunRepository) CountByStatus(ctx context.Context, status model.RunStatus) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM deck_runs WHERE status = ?", status)
	return count, err
}

func (r *sqliteRunRepository) ListRecent(ctx context.Context, limit int) ([]model.DeckRun, error) {
	var runs []model.DeckRun
	err := r.db.SelectContext(ctx, &runs,
		"SELECT * FROM deck_runs ORDER BY created_at DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("listing recent runs: %w", err)
	}
	return runs, nil
}

// ProviderCallRepository handles persistence of external search call tracking.
type ProviderCallRepository interface {
	Create(ctx context.Context, call *model.ProviderCall) error
	Count(ctx context.Context) (int64, error)
	CountByProvider(ctx context.Context, provider string) (int64, error)
	CountFailed(ctx context.Context) (int64, error)
}

type sqliteProviderCallRepository struct {
	db *sqlx.DB
}

// NewProviderCallRepository creates a SQLite-backed ProviderCallRepository.
func NewProviderCallRepository(db *sqlx.DB) ProviderCallRepository {
	return &sqliteProviderCallRepository{db: db}
}

func (r *sqliteProviderCallRepository) Create(ctx context.Context, call *model.ProviderCall) error {
	result, err := r.db.NamedExecContext(ctx, `
		INSERT INTO provider_calls (run_id, topic, provider, result_count, success, duration_ms)
		VALUES (:run_id, :topic, :provider, :result_count, :success, :duration_ms)
	`, call)
	if err != nil {
		return fmt.Errorf("creating provider call record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting last insert id: %w", err)
	}
	call.ID = id
	return nil
}

func (r *sqliteProviderCallRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM provider_calls")
	return count, err
}

func (r *sqliteProviderCallRepository) CountByProvider(ctx context.Context, provider string) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM provider_calls WHERE provider = ?", provider)
	return count, err
}

func (r *sqliteProviderCallRepository) CountFailed(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM provider_calls WHERE success = 0")
	return count, err
}
