package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"multicam/internal/persist"
)

// Status is the lifecycle state of a run.
type Status string

const (
	StatusRunning     Status = "running"
	StatusCompleted   Status = "completed"
	StatusFailed      Status = "failed"
	StatusInterrupted Status = "interrupted"
)

// ErrNotFound is returned when no run matches an id.
var ErrNotFound = errors.New("run not found")

// ErrAmbiguous is returned when an id prefix matches more than one run.
var ErrAmbiguous = errors.New("run id prefix is ambiguous")

// Run is one capture run.
type Run struct {
	ID          string
	Mode        string
	PixelFormat string
	Naming      string
	Root        string
	Cameras     int
	Rounds      int
	Images      int
	Status      Status
	Error       string
	StartedAt   time.Time
	FinishedAt  time.Time
}

// Image is one saved file of a run.
type Image struct {
	Key      string
	Label    string
	Serial   string
	Sequence int
	Path     string
	Bytes    int64
	SavedAt  time.Time
}

// StartRun inserts run with status running.
func (s *Store) StartRun(ctx context.Context, run Run) error {
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	_, err := s.exec(ctx,
		`INSERT INTO runs (id, mode, pixel_format, naming, root, cameras, status, started_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Mode, run.PixelFormat, run.Naming, run.Root, run.Cameras,
		StatusRunning, run.StartedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// FinishRun records the outcome of a run.
func (s *Store) FinishRun(ctx context.Context, id string, status Status, rounds int, runErr error) error {
	var message any
	if runErr != nil {
		message = runErr.Error()
	}
	res, err := s.exec(ctx,
		`UPDATE runs SET status = ?, rounds = ?, error_message = ?, finished_at = ? WHERE id = ?`,
		status, rounds, message, time.Now().UTC().Format(time.RFC3339Nano), id,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// RecordImage stores one saved file for run id.
func (s *Store) RecordImage(ctx context.Context, runID string, rec persist.ImageRecord) error {
	_, err := s.exec(ctx,
		`INSERT INTO images (run_id, image_key, label, serial, sequence, path, bytes, saved_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(run_id, image_key) DO UPDATE SET path = excluded.path, bytes = excluded.bytes, saved_at = excluded.saved_at`,
		runID, rec.Key, rec.Label, rec.Serial, rec.Sequence, rec.Path, rec.Bytes,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert image %s: %w", rec.Key, err)
	}
	return nil
}

// ForRun adapts the store to persist.Recorder for one run.
func (s *Store) ForRun(runID string) persist.Recorder {
	return runRecorder{store: s, runID: runID}
}

type runRecorder struct {
	store *Store
	runID string
}

func (r runRecorder) RecordImage(ctx context.Context, rec persist.ImageRecord) error {
	return r.store.RecordImage(ctx, r.runID, rec)
}

const runColumns = `r.id, r.mode, r.pixel_format, r.naming, r.root, r.cameras, r.rounds, r.status,
    r.error_message, r.started_at, r.finished_at,
    (SELECT COUNT(1) FROM images i WHERE i.run_id = r.id)`

// ListRuns returns the most recent runs first. A limit of zero lists all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs r ORDER BY r.started_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun returns the run whose id equals or starts with idOrPrefix.
func (s *Store) GetRun(ctx context.Context, idOrPrefix string) (*Run, error) {
	idOrPrefix = strings.TrimSpace(idOrPrefix)
	if idOrPrefix == "" {
		return nil, fmt.Errorf("%w: empty id", ErrNotFound)
	}
	run, err := scanRun(s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs r WHERE r.id = ?`, idOrPrefix))
	if err == nil {
		return &run, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs r WHERE r.id LIKE ? ORDER BY r.started_at DESC LIMIT 2`,
		stripLikeWildcards(idOrPrefix)+"%",
	)
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	defer rows.Close()

	var matches []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, idOrPrefix)
	case 1:
		return &matches[0], nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrAmbiguous, idOrPrefix)
	}
}

// ListImages returns the images of a run ordered by label and sequence.
func (s *Store) ListImages(ctx context.Context, runID string) ([]Image, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT image_key, label, serial, sequence, path, bytes, saved_at
         FROM images WHERE run_id = ? ORDER BY label, sequence`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	defer rows.Close()

	var images []Image
	for rows.Next() {
		var (
			img     Image
			savedAt string
		)
		if err := rows.Scan(&img.Key, &img.Label, &img.Serial, &img.Sequence, &img.Path, &img.Bytes, &savedAt); err != nil {
			return nil, fmt.Errorf("scan image: %w", err)
		}
		img.SavedAt = parseTime(savedAt)
		images = append(images, img)
	}
	return images, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		run        Run
		status     string
		errMessage sql.NullString
		startedAt  string
		finishedAt sql.NullString
	)
	if err := row.Scan(&run.ID, &run.Mode, &run.PixelFormat, &run.Naming, &run.Root, &run.Cameras, &run.Rounds,
		&status, &errMessage, &startedAt, &finishedAt, &run.Images); err != nil {
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	run.Status = Status(status)
	run.Error = errMessage.String
	run.StartedAt = parseTime(startedAt)
	if finishedAt.Valid {
		run.FinishedAt = parseTime(finishedAt.String)
	}
	return run, nil
}

func parseTime(value string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t
}

func stripLikeWildcards(value string) string {
	return strings.NewReplacer("%", "", "_", "").Replace(value)
}
