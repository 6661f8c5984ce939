// package services defines interface Library for the music catalog API
//
// Library feeds, store lookups, search and streaming
package services

import (
	"context"
	"net/url"
)

// Library defines the operations the CLI needs from the music API. [Client] implements it.
type Library interface {
	// Tracks retrieves every track in the user's library, following pagination.
	Tracks(ctx context.Context) ([]Track, error)

	// Playlists retrieves every playlist the user created or subscribed to.
	Playlists(ctx context.Context) ([]Playlist, error)

	// PlaylistEntries retrieves the entries of all user playlists.
	// Each embedded track carries the entry's track id.
	PlaylistEntries(ctx context.Context) ([]PlaylistEntry, error)

	// SharedPlaylistEntries retrieves the entries of a playlist shared through shareToken.
	SharedPlaylistEntries(ctx context.Context, shareToken string) ([]SharedPlaylistEntry, error)

	// Devices lists the devices registered to the account.
	Devices(ctx context.Context) ([]DeviceManagementInfo, error)

	// StoreTrack fetches a catalog track by its store id.
	StoreTrack(ctx context.Context, id string) (*Track, error)

	// Album fetches a catalog album with its tracks.
	Album(ctx context.Context, id string) (*Album, error)

	// Artist fetches a catalog artist.
	Artist(ctx context.Context, id string) (*Artist, error)

	// Search queries all result categories, returning up to maxResults hits.
	Search(ctx context.Context, query string, maxResults int) ([]SearchCluster, error)

	// StreamURL resolves a short-lived media URL for id on deviceID.
	StreamURL(ctx context.Context, id, deviceID string) (*url.URL, error)

	// Close releases background resources.
	Close() error
}

var _ Library = (*Client)(nil)
