package server

import (
	"bufio"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/desertthunder/ndx/internal/models"
	"github.com/desertthunder/ndx/internal/services"
	tu "github.com/desertthunder/ndx/internal/testing"
)

func newTestServer(catalog services.Catalog, origins ...string) http.Handler {
	return New(Options{Catalog: catalog, AllowedOrigins: origins, Version: "test"}).Routes()
}

func post(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeEvents(t *testing.T, body string) []models.Event {
	t.Helper()
	var events []models.Event
	sc := bufio.NewScanner(strings.NewReader(body))
	for sc.Scan() {
		var ev models.Event
		if err := json.Unmarshal(sc.Bytes(), &ev); err != nil {
			t.Fatalf("invalid event line %q: %v", sc.Text(), err)
		}
		events = append(events, ev)
	}
	return events
}

func TestSearch(t *testing.T) {
	songA := models.Song{ID: "a", Title: "Song A", Artist: "Artist A"}
	songB1 := models.Song{ID: "b1", Title: "Song B", Artist: "Artist B"}
	songB2 := models.Song{ID: "b2", Title: "Song B (Live)", Artist: "Artist B"}

	t.Run("streams progress and result per item then done", func(t *testing.T) {
		catalog := &tu.MockCatalog{Results: map[string][]models.Song{
			"Song A": {songA},
			"Song B": {songB1, songB2},
		}}
		rec := post(t, newTestServer(catalog), "/api/search", `{"items":["Song A - Artist A","  ","Song B"]}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/x-ndjson") {
			t.Errorf("expected ndjson content type, got %q", ct)
		}

		events := decodeEvents(t, rec.Body.String())
		want := []struct {
			typ    models.EventType
			index  int
			status models.MatchStatus
			songs  int
		}{
			{models.EventProgress, 0, "", 0},
			{models.EventResult, 0, models.StatusUnique, 1},
			{models.EventResult, 1, models.StatusNone, 0},
			{models.EventProgress, 2, "", 0},
			{models.EventResult, 2, models.StatusMultiple, 2},
			{models.EventDone, 0, "", 0},
		}
		if len(events) != len(want) {
			t.Fatalf("expected %d events, got %d: %v", len(want), len(events), events)
		}
		for i, w := range want {
			ev := events[i]
			if ev.Type != w.typ || ev.Index != w.index || ev.Status != w.status || len(ev.Songs) != w.songs {
				t.Errorf("event %d = %+v, want %+v", i, ev, w)
			}
		}
		if events[1].Songs[0] != songA {
			t.Errorf("expected %v, got %v", songA, events[1].Songs[0])
		}
		if events[0].Total != 3 {
			t.Errorf("expected total 3, got %d", events[0].Total)
		}
	})

	t.Run("sends only the title to the catalog", func(t *testing.T) {
		catalog := &tu.MockCatalog{}
		post(t, newTestServer(catalog), "/api/search", `{"items":["Song A - Artist A","Song B"]}`)

		if !slices.Equal(catalog.Searches, []string{"Song A", "Song B"}) {
			t.Errorf("unexpected searches: %v", catalog.Searches)
		}
	})

	t.Run("falls back to raw results when the filter rejects everything", func(t *testing.T) {
		other := models.Song{ID: "x", Title: "Something Else", Artist: "Someone"}
		catalog := &tu.MockCatalog{Results: map[string][]models.Song{"Song C": {other}}}
		rec := post(t, newTestServer(catalog), "/api/search", `{"items":["Song C - Artist C"]}`)

		events := decodeEvents(t, rec.Body.String())
		if len(events) != 3 {
			t.Fatalf("expected 3 events, got %d", len(events))
		}
		if events[1].Status != models.StatusUnique || events[1].Songs[0].ID != "x" {
			t.Errorf("expected raw result, got %+v", events[1])
		}
	})

	t.Run("catalog failure yields none", func(t *testing.T) {
		catalog := &tu.MockCatalog{SearchErr: errors.New("boom")}
		rec := post(t, newTestServer(catalog), "/api/search", `{"items":["Song A"]}`)

		events := decodeEvents(t, rec.Body.String())
		if len(events) != 3 {
			t.Fatalf("expected 3 events, got %d", len(events))
		}
		if events[1].Status != models.StatusNone {
			t.Errorf("expected none, got %q", events[1].Status)
		}
		if events[2].Type != models.EventDone {
			t.Errorf("expected done, got %q", events[2].Type)
		}
	})

	t.Run("rejects bad requests", func(t *testing.T) {
		tests := []struct {
			name string
			body string
		}{
			{"invalid json", `{`},
			{"no items", `{"items":[]}`},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				catalog := &tu.MockCatalog{}
				rec := post(t, newTestServer(catalog), "/api/search", tt.body)
				if rec.Code != http.StatusBadRequest {
					t.Errorf("expected 400, got %d", rec.Code)
				}
				if len(catalog.Searches) != 0 {
					t.Errorf("expected no searches, got %v", catalog.Searches)
				}
			})
		}
	})

	t.Run("no catalog", func(t *testing.T) {
		rec := post(t, newTestServer(nil), "/api/search", `{"items":["Song A"]}`)
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("expected 503, got %d", rec.Code)
		}
	})
}

func TestGenerate(t *testing.T) {
	t.Run("creates the playlist", func(t *testing.T) {
		catalog := &tu.MockCatalog{}
		body := `{"playlistName":"  Mix  ","songs":[{"id":"1","title":"A"},{"id":" ","title":"B"},{"id":"2","title":"C"}]}`
		rec := post(t, newTestServer(catalog), "/api/generate", body)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		var resp services.GenerateResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if !resp.Success || resp.Message == "" {
			t.Errorf("unexpected response: %+v", resp)
		}
		if len(catalog.Created) != 1 {
			t.Fatalf("expected one playlist, got %d", len(catalog.Created))
		}
		got := catalog.Created[0]
		if got.Name != "Mix" || !slices.Equal(got.SongIDs, []string{"1", "2"}) {
			t.Errorf("unexpected playlist: %+v", got)
		}
	})

	t.Run("validation", func(t *testing.T) {
		tests := []struct {
			name string
			body string
		}{
			{"invalid json", `not json`},
			{"blank name", `{"playlistName":"   ","songs":[{"id":"1"}]}`},
			{"no songs", `{"playlistName":"Mix","songs":[]}`},
			{"no ids", `{"playlistName":"Mix","songs":[{"id":""},{"title":"x"}]}`},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				catalog := &tu.MockCatalog{}
				rec := post(t, newTestServer(catalog), "/api/generate", tt.body)
				if rec.Code != http.StatusBadRequest {
					t.Errorf("expected 400, got %d", rec.Code)
				}
				var resp services.GenerateResponse
				if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
					t.Fatalf("failed to decode response: %v", err)
				}
				if resp.Success || resp.Error == "" {
					t.Errorf("expected failure with message, got %+v", resp)
				}
				if len(catalog.Created) != 0 {
					t.Error("expected no playlist to be created")
				}
			})
		}
	})

	t.Run("catalog error", func(t *testing.T) {
		catalog := &tu.MockCatalog{CreateErr: errors.New("quota exceeded")}
		rec := post(t, newTestServer(catalog), "/api/generate", `{"playlistName":"Mix","songs":[{"id":"1"}]}`)
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "quota exceeded") {
			t.Errorf("expected error text in body, got %s", rec.Body.String())
		}
	})
}

func TestPing(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		success bool
		kind    string
	}{
		{"ok", nil, http.StatusOK, true, ""},
		{"auth", &services.PingError{Kind: services.KindAuth, Err: errors.New("wrong password")}, http.StatusBadGateway, false, services.KindAuth},
		{"network", &services.PingError{Kind: services.KindNetwork, Err: errors.New("refused")}, http.StatusBadGateway, false, services.KindNetwork},
		{"plain error", errors.New("odd"), http.StatusBadGateway, false, services.KindAPI},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestServer(&tu.MockCatalog{PingErr: tt.err})
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/ping", nil))

			if rec.Code != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, rec.Code)
			}
			var resp services.PingResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.Success != tt.success || resp.Kind != tt.kind {
				t.Errorf("unexpected response: %+v", resp)
			}
		})
	}
}

func TestInfo(t *testing.T) {
	h := New(Options{Catalog: &tu.MockCatalog{}, Version: "1.2.3", CatalogURL: "http://navi", CatalogUser: "admin"}).Routes()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/info", nil))

	var info Info
	if err := json.NewDecoder(rec.Body).Decode(&info); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	want := Info{Version: "1.2.3", Catalog: "mock", ServerURL: "http://navi", User: "admin"}
	if info != want {
		t.Errorf("expected %+v, got %+v", want, info)
	}
}

func TestCORS(t *testing.T) {
	preflight := func(h http.Handler, origin string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodOptions, "/api/search", nil)
		req.Header.Set("Origin", origin)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	t.Run("wildcard", func(t *testing.T) {
		rec := preflight(newTestServer(&tu.MockCatalog{}), "http://example.com")
		if rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rec.Code)
		}
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
			t.Errorf("expected *, got %q", got)
		}
	})

	t.Run("allowed origin is echoed", func(t *testing.T) {
		rec := preflight(newTestServer(&tu.MockCatalog{}, "http://a.test"), "http://a.test")
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://a.test" {
			t.Errorf("expected origin to be echoed, got %q", got)
		}
	})

	t.Run("other origin is not allowed", func(t *testing.T) {
		rec := preflight(newTestServer(&tu.MockCatalog{}, "http://a.test"), "http://b.test")
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Errorf("expected no allow header, got %q", got)
		}
	})
}

func TestStaticFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>ndx</h1>"), 0644); err != nil {
		t.Fatalf("failed to write index: %v", err)
	}

	h := New(Options{Catalog: &tu.MockCatalog{}, WebDir: dir}).Routes()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "ndx") {
		t.Errorf("expected index page, got %d: %s", rec.Code, rec.Body.String())
	}
}
