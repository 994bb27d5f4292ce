package database

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
)

// ErrRunNotFound is returned by GetRun for an unknown id.
var ErrRunNotFound = errors.New("run not found")

const runColumns = `id, video_title, source_path, mode, requested, source,
	COALESCE(fallback_reason, ''), duration_ms, segments, elapsed_ms,
	chapters, COALESCE(text_key, ''), COALESCE(tags, ''), created_at`

// RunRow is the input for recording a completed chapter run.
type RunRow struct {
	VideoTitle     string
	SourcePath     string
	Mode           string
	Requested      int
	Source         string // "engine" or "fallback"
	FallbackReason string
	Duration       time.Duration
	Segments       int
	Elapsed        time.Duration
	Chapters       json.RawMessage
	TextKey        string
	Tags           string
}

// Run is a stored chapter run.
type Run struct {
	ID             int64           `json:"id"`
	VideoTitle     string          `json:"video_title"`
	SourcePath     string          `json:"source_path,omitempty"`
	Mode           string          `json:"mode"`
	Requested      int             `json:"requested"`
	Source         string          `json:"source"`
	FallbackReason string          `json:"fallback_reason,omitempty"`
	DurationMs     int64           `json:"duration_ms"`
	Segments       int             `json:"segments"`
	ElapsedMs      int64           `json:"elapsed_ms"`
	Chapters       json.RawMessage `json:"chapters"`
	TextKey        string          `json:"text_key,omitempty"`
	Tags           string          `json:"tags,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// RunFilter narrows ListRuns. Zero values match everything.
type RunFilter struct {
	Source string
	Limit  int
}

// InsertRun records a run and returns its id.
func (db *DB) InsertRun(ctx context.Context, r RunRow) (int64, error) {
	chapters := r.Chapters
	if len(chapters) == 0 {
		chapters = json.RawMessage(`[]`)
	}
	var id int64
	err := db.Pool.QueryRow(ctx, `
		INSERT INTO chapter_runs (
			video_title, source_path, mode, requested, source, fallback_reason,
			duration_ms, segments, elapsed_ms, chapters, text_key, tags
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`,
		r.VideoTitle, r.SourcePath, r.Mode, r.Requested, r.Source, pqString(r.FallbackReason),
		r.Duration.Milliseconds(), r.Segments, r.Elapsed.Milliseconds(), chapters,
		pqString(r.TextKey), pqString(r.Tags),
	).Scan(&id)
	return id, err
}

// ListRuns returns the most recent runs, newest first.
func (db *DB) ListRuns(ctx context.Context, f RunFilter) ([]Run, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}
	rows, err := db.Pool.Query(ctx, `
		SELECT `+runColumns+`
		FROM chapter_runs
		WHERE ($1::text IS NULL OR source = $1)
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, pqString(f.Source), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetRun returns one run by id.
func (db *DB) GetRun(ctx context.Context, id int64) (*Run, error) {
	row := db.Pool.QueryRow(ctx, `SELECT `+runColumns+` FROM chapter_runs WHERE id = $1`, id)
	r, err := scanRun(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// pqString maps "" to NULL, so optional columns stay NULL and the
// ($1::text IS NULL OR ...) filter form matches everything.
func pqString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func scanRun(row pgx.Row) (Run, error) {
	var r Run
	err := row.Scan(
		&r.ID, &r.VideoTitle, &r.SourcePath, &r.Mode, &r.Requested, &r.Source,
		&r.FallbackReason, &r.DurationMs, &r.Segments, &r.ElapsedMs,
		&r.Chapters, &r.TextKey, &r.Tags, &r.CreatedAt,
	)
	return r, err
}
