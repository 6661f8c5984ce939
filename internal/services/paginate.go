package services

import (
	"context"
	"fmt"

	"github.com/desertthunder/gmusic/internal/shared"
)

// DefaultMaxPages bounds a [Paginator] that was not given an explicit cap.
const DefaultMaxPages = 1000

// Paginator drains a cursor-paginated listing.
//
// Fetch is called first with a nil cursor, then with each cursor the previous page returned,
// until Cursor reports none (nil or empty).
type Paginator[R, T any] struct {
	Fetch  func(ctx context.Context, cursor *string) (R, error)
	Items  func(R) []T
	Cursor func(R) *string
	// MaxPages caps the number of Fetch calls; zero means [DefaultMaxPages], negative means no cap.
	MaxPages int
}

// FetchAll returns every item in arrival order. Any page failure aborts with no partial result.
func (p Paginator[R, T]) FetchAll(ctx context.Context) ([]T, error) {
	limit := p.MaxPages
	if limit == 0 {
		limit = DefaultMaxPages
	}

	var (
		items  []T
		cursor *string
	)
	for page := 1; ; page++ {
		resp, err := p.Fetch(ctx, cursor)
		if err != nil {
			return nil, err
		}
		items = append(items, p.Items(resp)...)

		next := p.Cursor(resp)
		if next == nil || *next == "" {
			return items, nil
		}
		if cursor != nil && *next == *cursor {
			return nil, fmt.Errorf("%w: cursor %q repeated", shared.ErrPaginationLimit, *next)
		}
		if limit > 0 && page >= limit {
			return nil, fmt.Errorf("%w: more than %d pages", shared.ErrPaginationLimit, limit)
		}

		c := *next
		cursor = &c
	}
}

// NormalizeEntries sets each embedded track's ID to the entry's track id.
func NormalizeEntries(entries []PlaylistEntry) {
	for i := range entries {
		if entries[i].Track != nil {
			entries[i].Track.ID = entries[i].TrackID
		}
	}
}

// NormalizeSharedEntries is [NormalizeEntries] for shared playlist entries.
func NormalizeSharedEntries(entries []SharedPlaylistEntry) {
	for i := range entries {
		if entries[i].Track != nil {
			entries[i].Track.ID = entries[i].TrackID
		}
	}
}
