package main

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/desertthunder/gmusic/internal/services"
	"github.com/desertthunder/gmusic/internal/shared"
	"github.com/desertthunder/gmusic/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Dump fetches every library feed and prints them as one JSON document.
// Feeds that fail are listed under "errors" instead of failing the command.
func (r *Runner) Dump(ctx context.Context, cmd *cli.Command) error {
	return r.withLibrary(func(lib services.Library) error {
		progress, done := r.showProgress()
		result, err := tasks.NewEngine(lib, r.logger).Dump(ctx, progress)
		close(progress)
		done()
		if err != nil {
			return err
		}

		data := result.Data()
		if path := cmd.String("output"); path != "" {
			out, err := shared.MarshalJSON(data, cmd.Bool("pretty"))
			if err != nil {
				return err
			}
			if err := os.WriteFile(path, out, 0644); err != nil {
				return err
			}
			return r.writeOK("Dumped library to %s (%d errors)", path, len(data.Errors))
		}
		return r.writeJSON(data, cmd.Bool("pretty"))
	})
}

// ExportAll exports every playlist, or those named with --playlist, into one directory.
func (r *Runner) ExportAll(ctx context.Context, cmd *cli.Command) error {
	return r.withLibrary(func(lib services.Library) error {
		progress, done := r.showProgress()
		result, err := tasks.NewEngine(lib, r.logger).BulkExport(ctx, progress, cmd.StringSlice("playlist"), tasks.BulkExportOpts{
			Format:     cmd.String("format"),
			OutputDir:  cmd.String("output"),
			NumWorkers: cmd.Int("workers"),
			Cover:      cmd.Bool("cover"),
			HTTPClient: r.httpClient,
		})
		close(progress)
		done()
		if err != nil {
			return err
		}

		r.writeOK("Exported %d/%d playlists to %s", result.SuccessfulExports, result.TotalPlaylists, result.OutputDirectory)
		if result.FailedExports > 0 {
			r.writeFail("%d failed, see %s", result.FailedExports, filepath.Base(result.ManifestPath))
		}
		return nil
	})
}

// showProgress logs updates from the returned channel until it is closed, keeping
// stdout clean for command output. The caller closes the channel and then calls done.
func (r *Runner) showProgress() (chan tasks.ProgressUpdate, func()) {
	progress := make(chan tasks.ProgressUpdate, 16)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for update := range progress {
			r.logger.Info(update.Message, "phase", update.Phase, "step", update.Step, "total", update.Total)
		}
	}()
	return progress, wg.Wait
}
