package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/desertthunder/gmusic/internal/repositories"
	"github.com/desertthunder/gmusic/internal/services"
	"github.com/desertthunder/gmusic/internal/shared"
	"github.com/urfave/cli/v3"
)

// openCache opens the configured database with migrations applied.
func (r *Runner) openCache() (*sql.DB, error) {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return db, nil
}

// CacheSync mirrors the library's tracks into the local database.
func (r *Runner) CacheSync(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openCache()
	if err != nil {
		return err
	}
	defer db.Close()

	adapter := repositories.NewTrackCacheAdapter(repositories.NewTrackRepository(db))

	return r.withLibrary(func(lib services.Library) error {
		tracks, err := lib.Tracks(ctx)
		if err != nil {
			return fmt.Errorf("failed to fetch tracks: %w", err)
		}

		result, err := adapter.Sync(tracks)
		if err != nil {
			return fmt.Errorf("failed to sync cache: %w", err)
		}

		r.logger.Info("cache synced", "added", result.Added, "updated", result.Updated, "removed", result.Removed)
		if cmd.Bool("json") {
			return r.writeJSON(result, cmd.Bool("pretty"))
		}
		return r.writeOK("Cache synced: %d added, %d updated, %d removed", result.Added, result.Updated, result.Removed)
	})
}

// CacheList prints the cached tracks without contacting the API.
func (r *Runner) CacheList(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openCache()
	if err != nil {
		return err
	}
	defer db.Close()

	tracks, err := repositories.NewTrackRepository(db).List()
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(tracks, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("Cached tracks (%d)", len(tracks)))
	for _, t := range tracks {
		r.writePlain("%4d. %s - %s [%s]\n", t.Sequence, t.Artist, t.Title, t.Duration())
	}
	return nil
}

// cacheCommand handles the opt-in local track cache
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Cache library tracks locally",
		Commands: []*cli.Command{
			{
				Name:   "sync",
				Usage:  "Mirror the library's tracks into the database",
				Flags:  outputFlags(),
				Action: r.CacheSync,
			},
			{
				Name:   "list",
				Usage:  "List cached tracks",
				Flags:  outputFlags(),
				Action: r.CacheList,
			},
		},
	}
}
