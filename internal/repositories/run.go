package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/ndx/internal/models"
	"github.com/desertthunder/ndx/internal/shared"
)

// RunRepository implements models.Repository[*models.RunRecord] for run history.
//
// A run and its outcomes are written in one transaction; outcomes are immutable afterwards.
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new RunRepository with the given database connection
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

const runColumns = `id, sequence, server_url, query_count, matched_count, missing_count, complete, playlist_name,
	created_at, updated_at, deleted_at`

// Create inserts the run with its outcomes and assigns the next sequence number.
func (r *RunRepository) Create(run *models.RunRecord) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	sequence, err := nextSequence(tx, "runs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	_, err = tx.Exec(`
		INSERT INTO runs (id, sequence, server_url, query_count, matched_count, missing_count, complete,
			playlist_name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID(),
		sequence,
		run.ServerURL,
		run.QueryCount,
		run.MatchedCount,
		run.MissingCount,
		run.Complete,
		run.PlaylistName,
		run.CreatedAt(),
		run.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO run_outcomes (run_id, position, query, status, song_id, title, artist, album, path)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare outcome insert: %w", err)
	}
	defer stmt.Close()

	for _, o := range run.Outcomes {
		var song models.Song
		if o.Song != nil {
			song = *o.Song
		}
		if _, err := stmt.Exec(run.ID(), o.Position, o.Query, string(o.Status),
			song.ID, song.Title, song.Artist, song.Album, song.Path); err != nil {
			return fmt.Errorf("failed to insert outcome %d: %w", o.Position, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}

	run.Sequence = sequence
	return nil
}

// Get retrieves a run with its outcomes, excluding soft-deleted runs
func (r *RunRepository) Get(id string) (*models.RunRecord, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE id = ? AND deleted_at IS NULL`
	return r.withOutcomes(r.scanOne(r.db.QueryRow(query, id), id))
}

// GetBySequence retrieves a run by its sequence number.
func (r *RunRepository) GetBySequence(sequence int) (*models.RunRecord, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE sequence = ? AND deleted_at IS NULL`
	return r.withOutcomes(r.scanOne(r.db.QueryRow(query, sequence), fmt.Sprintf("#%d", sequence)))
}

// Latest retrieves the most recent run.
func (r *RunRepository) Latest() (*models.RunRecord, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE deleted_at IS NULL ORDER BY sequence DESC LIMIT 1`
	return r.withOutcomes(r.scanOne(r.db.QueryRow(query), "latest"))
}

// Update stores the playlist name a run was submitted as. Counts and outcomes never change.
func (r *RunRepository) Update(run *models.RunRecord) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	run.Touch()

	result, err := r.db.Exec(`
		UPDATE runs
		SET playlist_name = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`, run.PlaylistName, run.UpdatedAt(), run.ID())
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}

	return affectedOne(result, shared.ErrRunNotFound, run.ID())
}

// SetPlaylistName records the playlist a run was submitted as without loading the run.
func (r *RunRepository) SetPlaylistName(id, name string) error {
	result, err := r.db.Exec(`
		UPDATE runs
		SET playlist_name = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`, name, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}

	return affectedOne(result, shared.ErrRunNotFound, id)
}

// Delete soft-deletes a run by ID
func (r *RunRepository) Delete(id string) error {
	result, err := r.db.Exec(`UPDATE runs SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}

	return affectedOne(result, shared.ErrRunNotFound, id)
}

// List retrieves runs newest first, without outcomes.
//
// Criteria: "complete" (bool) filters by completion, "limit" (int) caps the result.
func (r *RunRepository) List(criteria map[string]any) ([]*models.RunRecord, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE deleted_at IS NULL`
	args := []any{}

	if complete, ok := criteria["complete"].(bool); ok {
		query += " AND complete = ?"
		args = append(args, complete)
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.RunRecord
	for rows.Next() {
		run, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return runs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func (r *RunRepository) scanOne(row *sql.Row, ref string) (*models.RunRecord, error) {
	run, err := r.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrRunNotFound, ref)
	}
	return run, err
}

func (r *RunRepository) scan(row scanner) (*models.RunRecord, error) {
	var (
		id        string
		createdAt time.Time
		updatedAt time.Time
		deletedAt sql.NullTime
		run       models.RunRecord
	)

	err := row.Scan(&id, &run.Sequence, &run.ServerURL, &run.QueryCount, &run.MatchedCount, &run.MissingCount,
		&run.Complete, &run.PlaylistName, &createdAt, &updatedAt, &deletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	record := models.RestoreRunRecord(id, createdAt, updatedAt)
	record.Sequence = run.Sequence
	record.ServerURL = run.ServerURL
	record.QueryCount = run.QueryCount
	record.MatchedCount = run.MatchedCount
	record.MissingCount = run.MissingCount
	record.Complete = run.Complete
	record.PlaylistName = run.PlaylistName
	if deletedAt.Valid {
		record.DeletedAt = &deletedAt.Time
	}

	return record, nil
}

func (r *RunRepository) withOutcomes(run *models.RunRecord, err error) (*models.RunRecord, error) {
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(`
		SELECT position, query, status, song_id, title, artist, album, path
		FROM run_outcomes
		WHERE run_id = ?
		ORDER BY position ASC
	`, run.ID())
	if err != nil {
		return nil, fmt.Errorf("failed to query outcomes: %w", err)
	}
	defer rows.Close()

	run.Outcomes = []models.Outcome{}
	for rows.Next() {
		var (
			o      models.Outcome
			status string
			song   models.Song
		)
		if err := rows.Scan(&o.Position, &o.Query, &status, &song.ID, &song.Title, &song.Artist, &song.Album, &song.Path); err != nil {
			return nil, fmt.Errorf("failed to scan outcome: %w", err)
		}
		o.Status = models.OutcomeStatus(status)
		if o.Status == models.OutcomeMatched {
			o.Song = &song
		}
		run.Outcomes = append(run.Outcomes, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return run, nil
}

// affectedOne reports notFound when the statement changed no row.
func affectedOne(result sql.Result, notFound error, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", notFound, id)
	}
	return nil
}
