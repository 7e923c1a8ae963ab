// Package server is the HTTP backend of ndx. It sits between the matcher and a Subsonic catalog.
//
// # Endpoints
//
//   - POST /api/search takes {"items": [...]} and streams NDJSON events: a progress and a result event per
//     item, then a single done event. Items are read as "Title - Artist"; only the title is sent to the
//     catalog and the results are filtered by normalized title and artist (see [FilterSongs]). When the
//     filter rejects everything, the raw results are sent instead so the user can still pick one.
//   - POST /api/generate takes {"playlistName", "songs"} and creates the playlist in the catalog.
//   - GET /api/ping reports catalog connectivity with an error kind (network, auth or api).
//   - GET /api/info describes the server and the catalog it is bound to.
//
// Anything else is served from the configured web directory when it exists.
//
// # Middleware
//
// [Middleware] wraps an [http.Handler]. Routes uses chi's RequestID and Recoverer with [RequestLogger] and
// [CORS]. Catalog searches are throttled with a token bucket so a long list does not flood the catalog.
package server
