// Package tasks runs multi-request library operations with real-time progress reporting.
//
// # Core Operations
//
//  1. [Engine.Dump] : Fetch every library feed
//     - Retrieves tracks, playlists, playlist entries and devices
//     - A failing feed is recorded and the remaining feeds are still fetched
//
//  2. [Engine.BulkExport] : Export playlists concurrently
//     - Fetches playlists and entries once and groups entries per playlist
//     - Dispatches one job per playlist through a rate limiter to a worker pool
//     - Writes each playlist with the formatter package and a manifest summarizing the run
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data.
// Updates use select with default to prevent blocking.
package tasks
