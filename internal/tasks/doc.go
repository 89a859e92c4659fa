// Package tasks runs playlist exports with real-time progress reporting.
//
// # Operations
//
// [ExportEngine] reads playlists from a [Source] (the REST client in practice) and writes them
// through the formatter package:
//
//  1. [ExportEngine.Export] : one playlist, one format
//  2. [ExportEngine.BulkExport] : many playlists by ID
//     - A producer fetches playlists, paced by a token bucket limiter
//     - A bounded pool of workers writes files
//     - Per-playlist failures are collected, not fatal
//     - An export_manifest.json summarizes the run
//  3. [ExportEngine.ExportMatching] : lists playlists matching search criteria, then bulk exports them
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data.
// Updates use select with default so a slow reader never stalls an export.
package tasks
