package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/gmusic/internal/formatter"
	"github.com/desertthunder/gmusic/internal/services"
	"github.com/desertthunder/gmusic/internal/shared"
	"github.com/urfave/cli/v3"
)

func requireID(cmd *cli.Command) (string, error) {
	id := cmd.StringArg("id")
	if id == "" {
		return "", fmt.Errorf("%w: id is required", shared.ErrMissingArgument)
	}
	return id, nil
}

// Track fetches a store track.
func (r *Runner) Track(ctx context.Context, cmd *cli.Command) error {
	id, err := requireID(cmd)
	if err != nil {
		return err
	}

	return r.withLibrary(func(lib services.Library) error {
		track, err := lib.StoreTrack(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to fetch track: %w", err)
		}

		if cmd.Bool("json") {
			return r.writeJSON(track, cmd.Bool("pretty"))
		}

		r.writePlainHeader(track.Title)
		r.writePlain("Artist:   %s\n", track.Artist)
		r.writePlain("Album:    %s\n", track.Album)
		r.writePlain("Duration: %s\n", formatter.FormatDuration(track.DurationMillis))
		if track.Year > 0 {
			r.writePlain("Year:     %d\n", track.Year)
		}
		r.writePlain("Store ID: %s\n", track.StoreID)
		return nil
	})
}

// Album fetches a store album with its tracks.
func (r *Runner) Album(ctx context.Context, cmd *cli.Command) error {
	id, err := requireID(cmd)
	if err != nil {
		return err
	}

	return r.withLibrary(func(lib services.Library) error {
		album, err := lib.Album(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to fetch album: %w", err)
		}

		if cmd.Bool("json") {
			return r.writeJSON(album, cmd.Bool("pretty"))
		}

		r.writePlainHeader(fmt.Sprintf("%s - %s", album.AlbumArtist, album.Name))
		if album.Year > 0 {
			r.writePlain("Year: %d\n", album.Year)
		}
		r.writeTracks(album.Tracks)
		return nil
	})
}

// Artist fetches a store artist.
func (r *Runner) Artist(ctx context.Context, cmd *cli.Command) error {
	id, err := requireID(cmd)
	if err != nil {
		return err
	}

	return r.withLibrary(func(lib services.Library) error {
		artist, err := lib.Artist(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to fetch artist: %w", err)
		}

		if cmd.Bool("json") {
			return r.writeJSON(artist, cmd.Bool("pretty"))
		}

		r.writePlainHeader(artist.Name)
		for _, a := range artist.Albums {
			r.writePlain("Album: %s (%s)\n", a.Name, a.ID)
		}
		if len(artist.TopTracks) > 0 {
			r.writePlainln("Top tracks")
			r.writeTracks(artist.TopTracks)
		}
		return nil
	})
}

// Search queries the catalog and prints each result cluster.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := cmd.StringArg("query")
	if query == "" {
		return fmt.Errorf("%w: search query is required", shared.ErrMissingArgument)
	}

	return r.withLibrary(func(lib services.Library) error {
		clusters, err := lib.Search(ctx, query, cmd.Int("max"))
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}

		if cmd.Bool("json") {
			return r.writeJSON(clusters, cmd.Bool("pretty"))
		}

		r.writePlainHeader(fmt.Sprintf("Results for %q", query))
		for _, c := range clusters {
			if len(c.Entries) == 0 {
				continue
			}
			name := c.DisplayName
			if name == "" {
				name = c.Cluster.Type
			}
			r.writePlainln("%s", name)
			for _, e := range c.Entries {
				r.writePlain("  %s\n", describeResult(e))
			}
		}
		return nil
	})
}

// Stream resolves a short-lived media URL for a track.
func (r *Runner) Stream(ctx context.Context, cmd *cli.Command) error {
	id, err := requireID(cmd)
	if err != nil {
		return err
	}

	device := cmd.String("device")
	if device == "" {
		device = r.config.Credentials.DeviceID
	}

	return r.withLibrary(func(lib services.Library) error {
		u, err := lib.StreamURL(ctx, id, device)
		if err != nil {
			return fmt.Errorf("failed to resolve stream URL: %w", err)
		}

		if cmd.Bool("json") {
			return r.writeJSON(map[string]string{"id": id, "url": u.String()}, cmd.Bool("pretty"))
		}
		return r.writePlain("%s\n", u.String())
	})
}

func describeResult(e services.SearchResult) string {
	switch {
	case e.Track != nil:
		return fmt.Sprintf("track    %s - %s (%s)", e.Track.Artist, e.Track.Title, e.Track.StoreID)
	case e.Album != nil:
		return fmt.Sprintf("album    %s - %s (%s)", e.Album.AlbumArtist, e.Album.Name, e.Album.ID)
	case e.Artist != nil:
		return fmt.Sprintf("artist   %s (%s)", e.Artist.Name, e.Artist.ID)
	case e.Playlist != nil:
		return fmt.Sprintf("playlist %s (%s)", e.Playlist.Name, e.Playlist.ShareToken)
	default:
		return fmt.Sprintf("type %s", e.Type)
	}
}
