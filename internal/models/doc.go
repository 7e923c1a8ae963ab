// Package models defines the domain entities shared by the ndx client, server and storage layers.
//
// The package contains two categories of types:
//
// 1. Wire and in-memory types: values that travel over the search stream or live for one run
//   - [Song] : a catalog entry returned by a search, identified by its opaque Subsonic id
//   - [Event] : one line of the NDJSON search stream (progress, result or done)
//   - [Outcome] : the resolution of one result event (matched or missing)
//   - [Session] : the accumulating outcomes of one run, read through [SessionSnapshot] copies
//
// 2. Persistent Entities: database-backed records
//   - [RunRecord] : a finished run (complete or not) with its outcomes
//   - [Choice] : a remembered disambiguation decision for a normalized query
//
// All persistent entities implement the Model interface providing ID, timestamps and validation.
// The Repository[T] interface defines standard CRUD operations for database access.
package models
