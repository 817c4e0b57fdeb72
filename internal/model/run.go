package model

import "time"

// RunStatus represents the lifecycle state of one deck search run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// DeckRun is the persisted record of one deck-generation image search.
// Each field has two tags:
//   - `db:"column_name"` — used by sqlx to scan database rows
//   - `json:"field_name"` — used for JSON serialization (admin API)
type DeckRun struct {
	ID          string    `db:"id" json:"id"` // uuid
	DeckID      string    `db:"deck_id" json:"deck_id"`
	Title       string    `db:"title" json:"title"`
	SlideCount  int       `db:"slide_count" json:"slide_count"`
	TopicCount  int       `db:"topic_count" json:"topic_count"`
	ImagesFound int       `db:"images_found" json:"images_found"`
	Status      RunStatus `db:"status" json:"status"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// ProviderCall tracks each external image-search call for diagnostics and
// quota monitoring, the same way paid LLM calls are usually tracked.
type ProviderCall struct {
	ID          int64     `db:"id" json:"id"`
	RunID       string    `db:"run_id" json:"run_id"`
	Topic       string    `db:"topic" json:"topic"`
	Provider    string    `db:"provider" json:"provider"`
	ResultCount int       `db:"result_count" json:"result_count"`
	Success     bool      `db:"success" json:"success"`
	DurationMs  *int64    `db:"duration_ms" json:"duration_ms,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
