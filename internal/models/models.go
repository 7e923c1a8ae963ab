// package models defines the data model for the ndx matcher
package models

import (
	"fmt"
	"time"
)

// Model defines the base interface for all persistent models.
// Implementations include RunRecord and Choice.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	UpdatedAt() time.Time // UpdatedAt returns when this model was last updated
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the interface for data access operations.
// Implementations handle database interactions for specific model types.
type Repository[T Model] interface {
	Create(model T) error                      // Create inserts a new model into the database
	Get(id string) (T, error)                  // Get retrieves a model by its ID
	Update(model T) error                      // Update modifies an existing model in the database
	Delete(id string) error                    // Delete removes a model from the database by its ID
	List(criteria map[string]any) ([]T, error) // List retrieves all models matching the given criteria
}

// Song is a catalog entry returned by a search.
//
// The XML attributes match Subsonic's song/child elements.
type Song struct {
	ID     string `json:"id" xml:"id,attr" yaml:"id"`
	Title  string `json:"title" xml:"title,attr" yaml:"title"`
	Artist string `json:"artist" xml:"artist,attr" yaml:"artist"`
	Album  string `json:"album" xml:"album,attr" yaml:"album"`
	Path   string `json:"path" xml:"path,attr" yaml:"path,omitempty"`
}

// String renders the song the way it is listed to users.
func (s Song) String() string {
	if s.Album == "" {
		return fmt.Sprintf("%s - %s", s.Title, s.Artist)
	}
	return fmt.Sprintf("%s - %s [%s]", s.Title, s.Artist, s.Album)
}

// EventType discriminates stream events.
type EventType string

const (
	EventProgress EventType = "progress"
	EventResult   EventType = "result"
	EventDone     EventType = "done"
)

// MatchStatus is the server's classification of a result event.
type MatchStatus string

const (
	StatusUnique   MatchStatus = "unique"
	StatusMultiple MatchStatus = "multiple"
	StatusNone     MatchStatus = "none"
	// StatusMissing is what older servers send instead of [StatusNone].
	StatusMissing MatchStatus = "missing"
)

// Event is one line of the search stream.
//
// Index is 0-based. Fields not used by a type are left zero.
type Event struct {
	Type   EventType   `json:"type"`
	Index  int         `json:"index,omitempty"`
	Total  int         `json:"total,omitempty"`
	Query  string      `json:"query,omitempty"`
	Status MatchStatus `json:"status,omitempty"`
	Songs  []Song      `json:"songs,omitempty"`
}

// OutcomeStatus is the terminal state of one processed result.
type OutcomeStatus string

const (
	OutcomeMatched OutcomeStatus = "matched"
	OutcomeMissing OutcomeStatus = "missing"
)

// Outcome records how one result event was resolved.
// Song is set only when Status is [OutcomeMatched].
type Outcome struct {
	Position int           `json:"position" yaml:"position"`
	Query    string        `json:"query" yaml:"query"`
	Status   OutcomeStatus `json:"status" yaml:"status"`
	Song     *Song         `json:"song,omitempty" yaml:"song,omitempty"`
}

// Matched reports whether the outcome carries a song.
func (o Outcome) Matched() bool {
	return o.Status == OutcomeMatched && o.Song != nil
}

// MatchedOutcome builds a matched outcome; the position is assigned by the session.
func MatchedOutcome(query string, song Song) Outcome {
	return Outcome{Query: query, Status: OutcomeMatched, Song: &song}
}

// MissingOutcome builds a missing outcome; the position is assigned by the session.
func MissingOutcome(query string) Outcome {
	return Outcome{Query: query, Status: OutcomeMissing}
}
