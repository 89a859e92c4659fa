// Package models defines domain entities and persistence interfaces for the playlister service.
//
// Entities:
//   - [User] : accounts with a unique (case-folded) email and display fields
//   - [Song] : catalog entries with listen and playlist-membership counters
//   - [Playlist] : owner-scoped ordered lists of [PlaylistSong] references with a listener set
//
// Every entity implements [Model]. The [Repository] interface defines the CRUD contract each backend
// satisfies, and [Store] groups one repository per entity into a swappable persistence adapter.
//
// Name comparisons throughout the service use [FoldKey]: whitespace trimmed and Unicode case folded.
package models
