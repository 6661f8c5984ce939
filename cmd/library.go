package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/gmusic/internal/formatter"
	"github.com/desertthunder/gmusic/internal/services"
	"github.com/desertthunder/gmusic/internal/shared"
	"github.com/urfave/cli/v3"
)

// Tracks lists every track in the library.
func (r *Runner) Tracks(ctx context.Context, cmd *cli.Command) error {
	return r.withLibrary(func(lib services.Library) error {
		tracks, err := lib.Tracks(ctx)
		if err != nil {
			return fmt.Errorf("failed to fetch tracks: %w", err)
		}
		r.logger.Debug("fetched tracks", "count", len(tracks))

		if cmd.Bool("json") {
			return r.writeJSON(tracks, cmd.Bool("pretty"))
		}

		r.writePlainHeader(fmt.Sprintf("Library (%d tracks)", len(tracks)))
		r.writeTracks(tracks)
		return nil
	})
}

// Playlists lists the user's playlists.
func (r *Runner) Playlists(ctx context.Context, cmd *cli.Command) error {
	return r.withLibrary(func(lib services.Library) error {
		playlists, err := lib.Playlists(ctx)
		if err != nil {
			return fmt.Errorf("failed to fetch playlists: %w", err)
		}

		if cmd.Bool("json") {
			return r.writeJSON(playlists, cmd.Bool("pretty"))
		}

		r.writePlainHeader(fmt.Sprintf("Playlists (%d)", len(playlists)))
		for i, p := range playlists {
			r.writePlain("%d. %s [%s]\n", i+1, p.Name, p.Type)
			r.writePlain("   ID: %s\n", p.ID)
			if p.ShareToken != "" {
				r.writePlain("   Share token: %s\n", p.ShareToken)
			}
		}
		return nil
	})
}

// Entries lists playlist entries, optionally restricted to one playlist.
func (r *Runner) Entries(ctx context.Context, cmd *cli.Command) error {
	playlistID := cmd.String("playlist")

	return r.withLibrary(func(lib services.Library) error {
		entries, err := lib.PlaylistEntries(ctx)
		if err != nil {
			return fmt.Errorf("failed to fetch playlist entries: %w", err)
		}
		if playlistID != "" {
			entries = filterEntries(entries, playlistID)
		}

		if cmd.Bool("json") {
			return r.writeJSON(entries, cmd.Bool("pretty"))
		}

		r.writePlainHeader(fmt.Sprintf("Playlist entries (%d)", len(entries)))
		for _, e := range entries {
			title := e.TrackID
			if e.Track != nil {
				title = fmt.Sprintf("%s - %s", e.Track.Artist, e.Track.Title)
			}
			r.writePlain("%s #%s  %s\n", e.PlaylistID, e.AbsolutePosition, title)
		}
		return nil
	})
}

// Shared lists the entries of a playlist shared through a share token.
func (r *Runner) Shared(ctx context.Context, cmd *cli.Command) error {
	token := cmd.StringArg("token")
	if token == "" {
		return fmt.Errorf("%w: share token is required", shared.ErrMissingArgument)
	}

	return r.withLibrary(func(lib services.Library) error {
		entries, err := lib.SharedPlaylistEntries(ctx, token)
		if err != nil {
			return fmt.Errorf("failed to fetch shared playlist: %w", err)
		}

		if cmd.Bool("json") {
			return r.writeJSON(entries, cmd.Bool("pretty"))
		}

		r.writePlainHeader(fmt.Sprintf("Shared playlist (%d entries)", len(entries)))
		for _, e := range entries {
			if e.Track != nil {
				r.writePlain("%s. %s - %s\n", e.AbsolutePosition, e.Track.Artist, e.Track.Title)
			} else {
				r.writePlain("%s. %s\n", e.AbsolutePosition, e.TrackID)
			}
		}
		return nil
	})
}

// Devices lists the devices registered to the account. Their ids are valid stream device ids.
func (r *Runner) Devices(ctx context.Context, cmd *cli.Command) error {
	return r.withLibrary(func(lib services.Library) error {
		devices, err := lib.Devices(ctx)
		if err != nil {
			return fmt.Errorf("failed to fetch devices: %w", err)
		}

		if cmd.Bool("json") {
			return r.writeJSON(devices, cmd.Bool("pretty"))
		}

		r.writePlainHeader(fmt.Sprintf("Devices (%d)", len(devices)))
		for _, d := range devices {
			name := d.FriendlyName
			if name == "" {
				name = "(unnamed)"
			}
			r.writePlain("%s  %s [%s]\n", d.ID, name, d.Type)
		}
		return nil
	})
}

func (r *Runner) writeTracks(tracks []services.Track) {
	for i, t := range tracks {
		r.writePlain("%d. %s - %s [%s]\n", i+1, t.Artist, t.Title, formatter.FormatDuration(t.DurationMillis))
		if t.ID != "" {
			r.writePlain("   ID: %s\n", t.ID)
		}
	}
}

func filterEntries(entries []services.PlaylistEntry, playlistID string) []services.PlaylistEntry {
	var kept []services.PlaylistEntry
	for _, e := range entries {
		if e.PlaylistID == playlistID {
			kept = append(kept, e)
		}
	}
	return kept
}
