// Subsonic API [Catalog] implementation
//
// Works against Navidrome and other servers speaking the Subsonic REST API (XML responses).
package services

import (
	"context"
	"crypto/md5"
	"crypto/rand"
	"encoding/hex"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/desertthunder/ndx/internal/models"
	"github.com/desertthunder/ndx/internal/shared"
)

const (
	subsonicAPIVersion = "1.16.1"
	subsonicClientName = "ndx"
	defaultSongCount   = 50

	// subsonicWrongCredentials is the Subsonic error code for a bad user or password.
	subsonicWrongCredentials = 40
)

// PingError kinds reported by [SubsonicService.Ping].
const (
	KindNetwork = "network_error"
	KindAuth    = "auth_error"
	KindAPI     = "api_error"
)

type subsonicError struct {
	Code    int    `xml:"code,attr"`
	Message string `xml:"message,attr"`
}

// subsonicSongs accepts the three shapes servers use for search results.
type subsonicSongs struct {
	Songs    []models.Song `xml:"song"`
	Children []models.Song `xml:"child"`
	Matches  []struct {
		Song models.Song `xml:"song"`
	} `xml:"match"`
}

func (s subsonicSongs) list() []models.Song {
	switch {
	case len(s.Songs) > 0:
		return s.Songs
	case len(s.Children) > 0:
		return s.Children
	}
	songs := make([]models.Song, 0, len(s.Matches))
	for _, m := range s.Matches {
		songs = append(songs, m.Song)
	}
	return songs
}

type subsonicResponse struct {
	XMLName xml.Name       `xml:"subsonic-response"`
	Status  string         `xml:"status,attr"`
	Error   *subsonicError `xml:"error"`
	Search  subsonicSongs  `xml:"searchResult3"`
}

// PingError describes why a Subsonic ping failed.
type PingError struct {
	Kind string
	Err  error
}

func (e *PingError) Error() string { return e.Kind + ": " + e.Err.Error() }
func (e *PingError) Unwrap() error { return e.Err }

// SubsonicService implements [Catalog] for Subsonic servers using salted token authentication.
type SubsonicService struct {
	baseURL    string
	user       string
	password   string
	songCount  int
	httpClient *http.Client
	salt       func() string
}

// NewSubsonicService creates a catalog for the server at baseURL.
func NewSubsonicService(baseURL, user, password string, client *http.Client) *SubsonicService {
	if client == nil {
		client = http.DefaultClient
	}
	return &SubsonicService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		user:       user,
		password:   password,
		songCount:  defaultSongCount,
		httpClient: client,
		salt:       randomSalt,
	}
}

// WithSongCount sets how many songs each search requests.
func (s *SubsonicService) WithSongCount(n int) *SubsonicService {
	if n > 0 {
		s.songCount = n
	}
	return s
}

// Name returns the service name.
func (s *SubsonicService) Name() string {
	return "Navidrome"
}

func randomSalt() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// authParams returns the common query parameters; t is md5(password + salt).
func (s *SubsonicService) authParams() url.Values {
	salt := s.salt()
	sum := md5.Sum([]byte(s.password + salt))

	q := url.Values{}
	q.Set("u", s.user)
	q.Set("t", hex.EncodeToString(sum[:]))
	q.Set("s", salt)
	q.Set("v", subsonicAPIVersion)
	q.Set("c", subsonicClientName)
	return q
}

// call performs a GET against endpoint and decodes the envelope. Network failures wrap
// [shared.ErrServiceUnavailable], Subsonic errors wrap [shared.ErrInvalidCredentials] or [shared.ErrAPIRequest].
func (s *SubsonicService) call(ctx context.Context, endpoint string, params url.Values) (*subsonicResponse, error) {
	q := s.authParams()
	for k, vs := range params {
		for _, v := range vs {
			q.Add(k, v)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/rest/"+endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", shared.ErrServiceUnavailable, err)
	}

	var sr subsonicResponse
	if err := xml.Unmarshal(body, &sr); err != nil {
		return nil, fmt.Errorf("%w: failed to parse %s response (status %d): %v", shared.ErrAPIRequest, endpoint, resp.StatusCode, err)
	}

	if sr.Status != "ok" {
		if sr.Error == nil {
			return nil, fmt.Errorf("%w: %s returned status %q", shared.ErrAPIRequest, endpoint, sr.Status)
		}
		if sr.Error.Code == subsonicWrongCredentials {
			return nil, fmt.Errorf("%w: %s", shared.ErrInvalidCredentials, sr.Error.Message)
		}
		return nil, fmt.Errorf("%w: %s (code %d)", shared.ErrAPIRequest, sr.Error.Message, sr.Error.Code)
	}
	return &sr, nil
}

// Search calls search3 with the query and returns songs from whichever result shape the server uses.
func (s *SubsonicService) Search(ctx context.Context, query string) ([]models.Song, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("songCount", strconv.Itoa(s.songCount))
	params.Set("artistCount", "0")
	params.Set("albumCount", "0")

	sr, err := s.call(ctx, "search3.view", params)
	if err != nil {
		return nil, err
	}
	return sr.Search.list(), nil
}

// CreatePlaylist calls createPlaylist with the songs in order. The playlist is shared with all users.
func (s *SubsonicService) CreatePlaylist(ctx context.Context, name string, songIDs []string) error {
	params := url.Values{}
	params.Set("name", name)
	params.Set("shared", "true")
	for _, id := range songIDs {
		params.Add("songId", id)
	}

	_, err := s.call(ctx, "createPlaylist.view", params)
	return err
}

// Ping checks connectivity and credentials. Failures are returned as [*PingError].
func (s *SubsonicService) Ping(ctx context.Context) error {
	_, err := s.call(ctx, "ping.view", nil)
	if err == nil {
		return nil
	}

	kind := KindAPI
	switch {
	case errors.Is(err, shared.ErrServiceUnavailable):
		kind = KindNetwork
	case errors.Is(err, shared.ErrInvalidCredentials):
		kind = KindAuth
	}
	return &PingError{Kind: kind, Err: err}
}
