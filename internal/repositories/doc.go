// Package repositories caches the user's library tracks in SQLite.
//
// The schema lives in the embedded migrations of the shared package ([shared.RunMigrations]).
//
// [TrackRepository] keys rows by the API track id and gives each row a uuid and a
// monotonically increasing sequence number, so listings come back in first-seen order.
// Deletes are soft: a track removed from the library keeps its row with deleted_at set and is
// revived if it reappears.
//
// [TrackCacheAdapter] drives `gmusic cache sync`: it mirrors a full track listing into the
// repository and reports what changed.
package repositories
