package repositories

import (
	"fmt"

	"github.com/desertthunder/gmusic/internal/services"
)

// SyncResult counts the row changes made by [TrackCacheAdapter.Sync].
type SyncResult struct {
	Added   int
	Updated int
	Removed int
}

// TrackCacheAdapter mirrors the remote library into a [TrackRepository].
type TrackCacheAdapter struct {
	repo *TrackRepository
}

// NewTrackCacheAdapter creates a new TrackCacheAdapter with the given repository
func NewTrackCacheAdapter(repo *TrackRepository) *TrackCacheAdapter {
	return &TrackCacheAdapter{repo: repo}
}

// Sync upserts every track and soft-deletes cached tracks missing from tracks.
// Tracks without a title are skipped.
func (a *TrackCacheAdapter) Sync(tracks []services.Track) (SyncResult, error) {
	var result SyncResult
	seen := make(map[string]struct{}, len(tracks))

	for _, t := range tracks {
		if t.Title == "" {
			continue
		}

		cached := FromTrack(t)
		created, err := a.repo.Upsert(cached)
		if err != nil {
			return result, fmt.Errorf("failed to cache track %s: %w", cached.TrackID, err)
		}
		seen[cached.TrackID] = struct{}{}

		if created {
			result.Added++
		} else {
			result.Updated++
		}
	}

	existing, err := a.repo.List()
	if err != nil {
		return result, err
	}
	for _, t := range existing {
		if _, ok := seen[t.TrackID]; ok {
			continue
		}
		if err := a.repo.Delete(t.TrackID); err != nil {
			return result, err
		}
		result.Removed++
	}

	return result, nil
}
