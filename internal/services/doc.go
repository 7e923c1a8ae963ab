// Package services implements the two HTTP clients of ndx.
//
// # Server Client
//
// [Client] is used by the matcher. [Client.Search] posts the query list to /api/search and hands back the
// NDJSON body for the stream decoder; [Client.Generate] validates locally and posts the matched songs to
// /api/generate; [Client.Ping] reports the server's catalog health.
//
// # Subsonic Catalog
//
// [SubsonicService] implements [Catalog] for Navidrome and other Subsonic servers, using salted token
// authentication (t = md5(password + salt)). Search results are read from song, child or match/song
// elements of searchResult3. Playlists are created shared.
//
// # Error Handling
//
// Services use sentinel errors from the shared package:
//   - [shared.ErrTransport] : search stream could not be opened (connection or non-2xx)
//   - [shared.ErrValidation] : playlist submission rejected locally, no request made
//   - [shared.ErrSubmit] : playlist submission rejected by the server
//   - [shared.ErrServiceUnavailable] : Subsonic server unreachable
//   - [shared.ErrInvalidCredentials] : Subsonic error code 40
//   - [shared.ErrAPIRequest] : any other Subsonic failure
package services
