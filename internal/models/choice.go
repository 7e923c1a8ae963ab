package models

import (
	"fmt"
	"time"
)

// Choice is a remembered disambiguation decision.
//
// Its id is the normalized query key, so one query keeps at most one choice.
type Choice struct {
	key       string
	Query     string
	Song      Song
	Hits      int
	createdAt time.Time
	updatedAt time.Time
}

// NewChoice creates a choice for query resolved to song under key.
func NewChoice(key, query string, song Song) *Choice {
	now := time.Now()
	return &Choice{key: key, Query: query, Song: song, createdAt: now, updatedAt: now}
}

// RestoreChoice rebuilds a choice read from storage.
func RestoreChoice(key string, createdAt, updatedAt time.Time) *Choice {
	return &Choice{key: key, createdAt: createdAt, updatedAt: updatedAt}
}

func (c *Choice) ID() string           { return c.key }
func (c *Choice) CreatedAt() time.Time { return c.createdAt }
func (c *Choice) UpdatedAt() time.Time { return c.updatedAt }

func (c *Choice) Validate() error {
	if c.key == "" {
		return fmt.Errorf("choice key is required")
	}
	if c.Song.ID == "" {
		return fmt.Errorf("choice for %q has no song id", c.Query)
	}
	return nil
}
