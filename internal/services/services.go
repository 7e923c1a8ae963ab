// package services defines the HTTP clients ndx talks to: the ndx server (used by the matcher)
// and a Subsonic catalog such as Navidrome (used by the server).
package services

import (
	"context"

	"github.com/desertthunder/ndx/internal/models"
)

// Catalog is a music library that can be searched and can store playlists.
type Catalog interface {
	// Search returns the songs matching a free-text query, in the catalog's ranking order.
	Search(ctx context.Context, query string) ([]models.Song, error)

	// CreatePlaylist creates a playlist holding songIDs in order.
	CreatePlaylist(ctx context.Context, name string, songIDs []string) error

	// Ping checks connectivity and credentials.
	Ping(ctx context.Context) error

	// Name returns the name of the catalog (e.g., "Navidrome")
	Name() string
}

// GenerateRequest is the body of POST /api/generate.
type GenerateRequest struct {
	PlaylistName string        `json:"playlistName"`
	Songs        []models.Song `json:"songs"`
}

// GenerateResponse is the reply of POST /api/generate.
type GenerateResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// SearchRequest is the body of POST /api/search.
type SearchRequest struct {
	Items []string `json:"items"`
}

// PingResponse is the reply of GET /api/ping. Kind is one of "network_error", "auth_error" or "api_error"
// when Success is false.
type PingResponse struct {
	Success bool   `json:"success"`
	Kind    string `json:"kind,omitempty"`
	Error   string `json:"error,omitempty"`
}
