package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/desertthunder/ndx/internal/models"
	"github.com/desertthunder/ndx/internal/services"
	"github.com/go-chi/chi/v5/middleware"
)

const playlistCreatedMessage = "Playlist created on the server"

func respondJSON(w http.ResponseWriter, v any, status int) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// handleSearch streams one progress and one result event per item, then a done event.
//
// A failed catalog search yields a "none" result for that item; the stream itself never breaks.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req services.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.Items) == 0 {
		http.Error(w, "items must not be empty", http.StatusBadRequest)
		return
	}
	if s.catalog == nil {
		http.Error(w, "no catalog configured", http.StatusServiceUnavailable)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	ctx := r.Context()
	logger := s.logger.With("request_id", middleware.GetReqID(ctx))
	enc := json.NewEncoder(w)
	emit := func(ev models.Event) bool {
		if err := enc.Encode(ev); err != nil {
			logger.Debug("client went away", "error", err)
			return false
		}
		flusher.Flush()
		return true
	}

	total := len(req.Items)
	for i, raw := range req.Items {
		if ctx.Err() != nil {
			logger.Debug("search canceled", "index", i, "total", total)
			return
		}

		query := strings.TrimSpace(raw)
		if query == "" {
			if !emit(models.Event{Type: models.EventResult, Index: i, Total: total, Query: raw, Status: models.StatusNone}) {
				return
			}
			continue
		}

		if !emit(models.Event{Type: models.EventProgress, Index: i, Total: total, Query: query}) {
			return
		}

		songs := s.search(ctx, query)
		ev := models.Event{Type: models.EventResult, Index: i, Total: total, Query: query, Songs: songs}
		switch len(songs) {
		case 0:
			ev.Status = models.StatusNone
		case 1:
			ev.Status = models.StatusUnique
		default:
			ev.Status = models.StatusMultiple
		}
		if !emit(ev) {
			return
		}
	}
	emit(models.Event{Type: models.EventDone, Total: total})
}

// search looks up the title part of query and filters by title and artist. When the filter rejects
// every song the unfiltered results are returned so the user can still choose.
func (s *Server) search(ctx context.Context, query string) []models.Song {
	if err := s.limiter.Wait(ctx); err != nil {
		s.logger.Debug("rate limiter wait aborted", "query", query, "error", err)
		return nil
	}

	title, artist := ParseSongLine(query)
	raw, err := s.catalog.Search(ctx, title)
	if err != nil {
		s.logger.Warn("catalog search failed", "query", query, "error", err)
		return nil
	}

	songs := FilterSongs(raw, title, artist, s.logger)
	if len(songs) == 0 && len(raw) > 0 {
		s.logger.Info("no filtered match, returning raw results", "query", query, "count", len(raw))
		return raw
	}
	return songs
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req services.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, services.GenerateResponse{Error: "invalid request body"}, http.StatusBadRequest)
		return
	}

	name := strings.TrimSpace(req.PlaylistName)
	if name == "" {
		respondJSON(w, services.GenerateResponse{Error: "playlist name is required"}, http.StatusBadRequest)
		return
	}
	if len(req.Songs) == 0 {
		respondJSON(w, services.GenerateResponse{Error: "select at least one song"}, http.StatusBadRequest)
		return
	}

	ids := make([]string, 0, len(req.Songs))
	for _, song := range req.Songs {
		if id := strings.TrimSpace(song.ID); id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		respondJSON(w, services.GenerateResponse{Error: "selected songs have no valid id"}, http.StatusBadRequest)
		return
	}

	if s.catalog == nil {
		respondJSON(w, services.GenerateResponse{Error: "no catalog configured"}, http.StatusServiceUnavailable)
		return
	}

	if err := s.catalog.CreatePlaylist(r.Context(), name, ids); err != nil {
		s.logger.Error("failed to create playlist", "name", name, "error", err)
		respondJSON(w, services.GenerateResponse{Error: err.Error()}, http.StatusInternalServerError)
		return
	}

	s.logger.Info("playlist created", "name", name, "songs", len(ids))
	respondJSON(w, services.GenerateResponse{Success: true, Message: playlistCreatedMessage}, http.StatusOK)
}

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	if s.catalog == nil {
		respondJSON(w, services.PingResponse{Kind: services.KindNetwork, Error: "no catalog configured"}, http.StatusServiceUnavailable)
		return
	}

	err := s.catalog.Ping(r.Context())
	if err == nil {
		respondJSON(w, services.PingResponse{Success: true}, http.StatusOK)
		return
	}

	resp := services.PingResponse{Kind: services.KindAPI, Error: err.Error()}
	var pe *services.PingError
	if errors.As(err, &pe) {
		resp.Kind = pe.Kind
		resp.Error = pe.Err.Error()
	}
	respondJSON(w, resp, http.StatusBadGateway)
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, s.info, http.StatusOK)
}
