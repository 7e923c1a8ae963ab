package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/ndx/internal/models"
	"github.com/desertthunder/ndx/internal/shared"
)

// ChoiceRepository implements models.Repository[*models.Choice] for remembered disambiguation decisions.
//
// Choices are keyed by normalized query and deleted for real; there is nothing to restore.
type ChoiceRepository struct {
	db *sql.DB
}

// NewChoiceRepository creates a new ChoiceRepository with the given database connection
func NewChoiceRepository(db *sql.DB) *ChoiceRepository {
	return &ChoiceRepository{db: db}
}

const choiceColumns = `query_key, query, song_id, title, artist, album, path, hits, created_at, updated_at`

// Create inserts a new choice. Fails if the key already exists; see [ChoiceRepository.Upsert].
func (r *ChoiceRepository) Create(c *models.Choice) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	_, err := r.db.Exec(`
		INSERT INTO choices (`+choiceColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, c.ID(), c.Query, c.Song.ID, c.Song.Title, c.Song.Artist, c.Song.Album, c.Song.Path, c.Hits,
		c.CreatedAt(), c.UpdatedAt())
	if err != nil {
		return fmt.Errorf("failed to insert choice: %w", err)
	}

	return nil
}

// Upsert stores c, replacing the song of an existing choice for the same key. Hits are kept.
func (r *ChoiceRepository) Upsert(c *models.Choice) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	_, err := r.db.Exec(`
		INSERT INTO choices (`+choiceColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (query_key) DO UPDATE SET
			query = excluded.query,
			song_id = excluded.song_id,
			title = excluded.title,
			artist = excluded.artist,
			album = excluded.album,
			path = excluded.path,
			updated_at = excluded.updated_at
	`, c.ID(), c.Query, c.Song.ID, c.Song.Title, c.Song.Artist, c.Song.Album, c.Song.Path, c.Hits,
		c.CreatedAt(), c.UpdatedAt())
	if err != nil {
		return fmt.Errorf("failed to upsert choice: %w", err)
	}

	return nil
}

// Get retrieves a choice by its normalized query key
func (r *ChoiceRepository) Get(key string) (*models.Choice, error) {
	row := r.db.QueryRow(`SELECT `+choiceColumns+` FROM choices WHERE query_key = ?`, key)

	c, err := r.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrChoiceNotFound, key)
	}
	return c, err
}

// Update replaces the stored song and hit count of an existing choice
func (r *ChoiceRepository) Update(c *models.Choice) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	result, err := r.db.Exec(`
		UPDATE choices
		SET song_id = ?, title = ?, artist = ?, album = ?, path = ?, hits = ?, updated_at = ?
		WHERE query_key = ?
	`, c.Song.ID, c.Song.Title, c.Song.Artist, c.Song.Album, c.Song.Path, c.Hits, time.Now(), c.ID())
	if err != nil {
		return fmt.Errorf("failed to update choice: %w", err)
	}

	return affectedOne(result, shared.ErrChoiceNotFound, c.ID())
}

// Hit increments the number of times a choice answered a prompt.
func (r *ChoiceRepository) Hit(key string) error {
	result, err := r.db.Exec(`UPDATE choices SET hits = hits + 1 WHERE query_key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to record hit: %w", err)
	}

	return affectedOne(result, shared.ErrChoiceNotFound, key)
}

// Delete removes a choice by key
func (r *ChoiceRepository) Delete(key string) error {
	result, err := r.db.Exec(`DELETE FROM choices WHERE query_key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete choice: %w", err)
	}

	return affectedOne(result, shared.ErrChoiceNotFound, key)
}

// List retrieves choices, most recently updated first.
//
// Criteria: "song_id" (string) keeps choices resolved to one song.
func (r *ChoiceRepository) List(criteria map[string]any) ([]*models.Choice, error) {
	query := `SELECT ` + choiceColumns + ` FROM choices`
	args := []any{}

	if songID, ok := criteria["song_id"].(string); ok && songID != "" {
		query += " WHERE song_id = ?"
		args = append(args, songID)
	}

	query += " ORDER BY updated_at DESC, query_key ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query choices: %w", err)
	}
	defer rows.Close()

	var choices []*models.Choice
	for rows.Next() {
		c, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		choices = append(choices, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return choices, nil
}

func (r *ChoiceRepository) scan(row scanner) (*models.Choice, error) {
	var (
		key       string
		query     string
		song      models.Song
		hits      int
		createdAt time.Time
		updatedAt time.Time
	)

	err := row.Scan(&key, &query, &song.ID, &song.Title, &song.Artist, &song.Album, &song.Path, &hits, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan choice: %w", err)
	}

	c := models.RestoreChoice(key, createdAt, updatedAt)
	c.Query = query
	c.Song = song
	c.Hits = hits
	return c, nil
}
