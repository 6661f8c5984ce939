package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/gmusic/internal/formatter"
	"github.com/desertthunder/gmusic/internal/services"
	"github.com/desertthunder/gmusic/internal/shared"
	"github.com/urfave/cli/v3"
)

// Export writes the library, or one playlist with --playlist, as CSV, Markdown or text.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	format := cmd.String("format")
	output := cmd.String("output")
	playlistID := cmd.String("playlist")

	switch format {
	case "csv", "md", "markdown", "text", "txt":
	default:
		return fmt.Errorf("%w: unknown format %q (csv, md, text)", shared.ErrInvalidArgument, format)
	}

	return r.withLibrary(func(lib services.Library) error {
		export, err := buildExport(ctx, lib, playlistID)
		if err != nil {
			return err
		}
		r.logger.Info("exporting tracks", "title", export.Title, "tracks", len(export.Tracks), "format", format)

		switch format {
		case "csv":
			path, err := formatter.WriteCSVExport(export, output)
			if err != nil {
				return err
			}
			return r.writeOK("Exported %d tracks to %s", len(export.Tracks), path)
		case "md", "markdown":
			result, err := formatter.WriteMarkdownExport(ctx, export, output, formatter.MarkdownOpts{
				Cover:      cmd.Bool("cover"),
				HTTPClient: r.httpClient,
			})
			if err != nil {
				return err
			}
			r.writeOK("Exported %d tracks to %s", len(export.Tracks), result.Directory)
			for _, f := range result.Files {
				r.writePlain("  %s\n", f)
			}
			return nil
		default:
			path, err := formatter.WriteTextExport(export, output)
			if err != nil {
				return err
			}
			return r.writeOK("Exported %d tracks to %s", len(export.Tracks), path)
		}
	})
}

// buildExport collects the whole library when playlistID is empty, otherwise the tracks of
// that playlist in entry order.
func buildExport(ctx context.Context, lib services.Library, playlistID string) (*formatter.TrackExport, error) {
	if playlistID == "" {
		tracks, err := lib.Tracks(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch tracks: %w", err)
		}
		return &formatter.TrackExport{ID: "library", Title: "Library", Tracks: tracks}, nil
	}

	playlists, err := lib.Playlists(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch playlists: %w", err)
	}

	export := &formatter.TrackExport{ID: playlistID}
	for _, p := range playlists {
		if p.ID == playlistID {
			export.Title = p.Name
			break
		}
	}
	if export.Title == "" {
		return nil, fmt.Errorf("%w: no playlist with id %s", shared.ErrInvalidArgument, playlistID)
	}

	entries, err := lib.PlaylistEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch playlist entries: %w", err)
	}
	for _, e := range filterEntries(entries, playlistID) {
		if e.Track != nil {
			export.Tracks = append(export.Tracks, *e.Track)
		}
	}
	return export, nil
}
