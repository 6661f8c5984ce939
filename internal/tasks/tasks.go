package tasks

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/gmusic/internal/services"
	"github.com/desertthunder/gmusic/internal/shared"
)

// EndpointResult records a failed fetch during [Engine.Dump].
type EndpointResult struct {
	Endpoint string
	Error    error
}

// DumpResult contains everything fetched from the library.
type DumpResult struct {
	Tracks    []services.Track
	Playlists []services.Playlist
	Entries   []services.PlaylistEntry
	Devices   []services.DeviceManagementInfo
	Errors    []EndpointResult // Failed endpoint fetches
}

// DumpData is the serialized form of [DumpResult].
type DumpData struct {
	Tracks    []services.Track                `json:"tracks,omitempty"`
	Playlists []services.Playlist             `json:"playlists,omitempty"`
	Entries   []services.PlaylistEntry        `json:"entries,omitempty"`
	Devices   []services.DeviceManagementInfo `json:"devices,omitempty"`
	Errors    []string                        `json:"errors,omitempty"`
}

// Data converts the result for JSON output.
func (r *DumpResult) Data() DumpData {
	data := DumpData{
		Tracks:    r.Tracks,
		Playlists: r.Playlists,
		Entries:   r.Entries,
		Devices:   r.Devices,
	}
	for _, e := range r.Errors {
		data.Errors = append(data.Errors, fmt.Sprintf("%s: %v", e.Endpoint, e.Error))
	}
	return data
}

type endpointOperation struct {
	name    string
	fetch   func(ctx context.Context) error
	phase   Phase
	message string
}

// Engine runs multi-request library operations with progress reporting.
type Engine struct {
	lib    services.Library
	logger *log.Logger
}

// NewEngine creates a new Engine over lib.
func NewEngine(lib services.Library, logger *log.Logger) *Engine {
	return &Engine{lib: lib, logger: shared.WithLogger(logger, "component", "tasks")}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *Engine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Dump fetches every library feed. A failing feed is recorded in the result and the rest
// are still fetched; only a done context stops the dump early.
func (e *Engine) Dump(ctx context.Context, progress chan<- ProgressUpdate) (*DumpResult, error) {
	if e.lib == nil {
		return nil, fmt.Errorf("%w: library not initialized", shared.ErrMissingArgument)
	}

	result := &DumpResult{Errors: []EndpointResult{}}

	endpoints := []endpointOperation{
		{name: "trackfeed", phase: FetchTracks, message: "Fetching tracks...", fetch: func(ctx context.Context) (err error) {
			result.Tracks, err = e.lib.Tracks(ctx)
			return err
		}},
		{name: "playlistfeed", phase: FetchPlaylists, message: "Fetching playlists...", fetch: func(ctx context.Context) (err error) {
			result.Playlists, err = e.lib.Playlists(ctx)
			return err
		}},
		{name: "plentryfeed", phase: FetchEntries, message: "Fetching playlist entries...", fetch: func(ctx context.Context) (err error) {
			result.Entries, err = e.lib.PlaylistEntries(ctx)
			return err
		}},
		{name: "devicemanagementinfo", phase: FetchDevices, message: "Fetching devices...", fetch: func(ctx context.Context) (err error) {
			result.Devices, err = e.lib.Devices(ctx)
			return err
		}},
	}

	for i, op := range endpoints {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		e.sendProgress(progress, operationUpdate(op, i+1, len(endpoints)))

		if err := op.fetch(ctx); err != nil {
			e.logger.Warn("dump endpoint failed", "endpoint", op.name, "error", err)
			result.Errors = append(result.Errors, EndpointResult{Endpoint: op.name, Error: err})
		}
	}

	return result, nil
}
