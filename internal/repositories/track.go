package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/desertthunder/gmusic/internal/services"
	"github.com/desertthunder/gmusic/internal/shared"
)

// ErrTrackNotFound is returned when no active row matches a track id.
var ErrTrackNotFound = errors.New("track not found")

// CachedTrack is a library track as stored in the local cache.
type CachedTrack struct {
	ID             string
	Sequence       int
	TrackID        string
	StoreID        string
	Title          string
	Artist         string
	Album          string
	AlbumArtist    string
	TrackNumber    int
	DurationMillis int64
	Year           int
	Genre          string
	PlayCount      int
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      *time.Time
}

// Duration is the track length.
func (t *CachedTrack) Duration() time.Duration {
	return time.Duration(t.DurationMillis) * time.Millisecond
}

// FromTrack converts an API track into its cached form. The track's ID is the cache key;
// store tracks without one fall back to the store id.
func FromTrack(t services.Track) *CachedTrack {
	duration, _ := strconv.ParseInt(t.DurationMillis, 10, 64)

	trackID := t.ID
	if trackID == "" {
		trackID = t.StoreID
	}

	return &CachedTrack{
		TrackID:        trackID,
		StoreID:        t.StoreID,
		Title:          t.Title,
		Artist:         t.Artist,
		Album:          t.Album,
		AlbumArtist:    t.AlbumArtist,
		TrackNumber:    int(t.TrackNumber),
		DurationMillis: duration,
		Year:           int(t.Year),
		Genre:          t.Genre,
		PlayCount:      int(t.PlayCount),
	}
}

// TrackRepository persists [CachedTrack] rows with soft delete support.
type TrackRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewTrackRepository creates a new TrackRepository with the given database connection
func NewTrackRepository(db *sql.DB) *TrackRepository {
	return &TrackRepository{db: db, now: time.Now}
}

const trackColumns = `id, sequence, track_id, store_id, title, artist, album, album_artist,
	track_number, duration_millis, year, genre, play_count, created_at, updated_at, deleted_at`

// Upsert inserts track or refreshes the existing row with the same track id, reviving it if
// it was soft-deleted. It reports whether a new row was created.
func (r *TrackRepository) Upsert(track *CachedTrack) (bool, error) {
	if track.Title == "" {
		return false, fmt.Errorf("%w: track title is required", shared.ErrInvalidArgument)
	}
	if track.TrackID == "" {
		track.TrackID = shared.GenerateID()
	}

	now := r.now()

	var (
		id       string
		sequence int
	)
	err := r.db.QueryRow("SELECT id, sequence FROM tracks WHERE track_id = ?", track.TrackID).Scan(&id, &sequence)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return true, r.insert(track, now)
	case err != nil:
		return false, fmt.Errorf("failed to look up track: %w", err)
	}

	query := `
		UPDATE tracks
		SET store_id = ?, title = ?, artist = ?, album = ?, album_artist = ?, track_number = ?,
			duration_millis = ?, year = ?, genre = ?, play_count = ?, updated_at = ?, deleted_at = NULL
		WHERE id = ?
	`
	_, err = r.db.Exec(query,
		track.StoreID,
		track.Title,
		track.Artist,
		track.Album,
		track.AlbumArtist,
		track.TrackNumber,
		track.DurationMillis,
		track.Year,
		track.Genre,
		track.PlayCount,
		now,
		id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update track: %w", err)
	}

	track.ID = id
	track.Sequence = sequence
	track.UpdatedAt = now
	track.DeletedAt = nil
	return false, nil
}

func (r *TrackRepository) insert(track *CachedTrack, now time.Time) error {
	sequence, err := NextSequence(r.db, "tracks")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()

	query := `
		INSERT INTO tracks (` + trackColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL)
	`
	_, err = r.db.Exec(query,
		id,
		sequence,
		track.TrackID,
		track.StoreID,
		track.Title,
		track.Artist,
		track.Album,
		track.AlbumArtist,
		track.TrackNumber,
		track.DurationMillis,
		track.Year,
		track.Genre,
		track.PlayCount,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert track: %w", err)
	}

	track.ID = id
	track.Sequence = sequence
	track.CreatedAt = now
	track.UpdatedAt = now
	return nil
}

// Get retrieves a track by its track id, excluding soft-deleted tracks
func (r *TrackRepository) Get(trackID string) (*CachedTrack, error) {
	query := `SELECT ` + trackColumns + ` FROM tracks WHERE track_id = ? AND deleted_at IS NULL`

	track, err := scanTrack(r.db.QueryRow(query, trackID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrTrackNotFound, trackID)
	}
	return track, err
}

// List retrieves all active tracks in the order they were first cached
func (r *TrackRepository) List() ([]*CachedTrack, error) {
	query := `SELECT ` + trackColumns + ` FROM tracks WHERE deleted_at IS NULL ORDER BY sequence ASC`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks: %w", err)
	}
	defer rows.Close()

	var tracks []*CachedTrack
	for rows.Next() {
		track, err := scanTrack(rows)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, track)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return tracks, nil
}

// Count returns the number of active tracks
func (r *TrackRepository) Count() (int, error) {
	var n int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM tracks WHERE deleted_at IS NULL").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count tracks: %w", err)
	}
	return n, nil
}

// Delete soft-deletes a track by its track id
func (r *TrackRepository) Delete(trackID string) error {
	query := `
		UPDATE tracks
		SET deleted_at = ?
		WHERE track_id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, r.now(), trackID)
	if err != nil {
		return fmt.Errorf("failed to delete track: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrTrackNotFound, trackID)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrack(row rowScanner) (*CachedTrack, error) {
	var (
		t         CachedTrack
		deletedAt sql.NullTime
	)

	err := row.Scan(
		&t.ID, &t.Sequence, &t.TrackID, &t.StoreID, &t.Title, &t.Artist, &t.Album, &t.AlbumArtist,
		&t.TrackNumber, &t.DurationMillis, &t.Year, &t.Genre, &t.PlayCount, &t.CreatedAt, &t.UpdatedAt, &deletedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan track: %w", err)
	}

	if deletedAt.Valid {
		t.DeletedAt = &deletedAt.Time
	}
	return &t, nil
}
