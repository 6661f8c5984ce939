package services

// ListResponse is the paginated envelope shared by every feed endpoint.
type ListResponse[T any] struct {
	Data struct {
		Items []T `json:"items"`
	} `json:"data"`
	Kind          string  `json:"kind"`
	NextPageToken *string `json:"nextPageToken,omitempty"`
}

// PageRequest is the body of a paged feed request.
type PageRequest struct {
	StartToken string `json:"start-token,omitempty"`
	MaxResults string `json:"max-results,omitempty"`
}

// ImageRef points at artwork.
type ImageRef struct {
	URL string `json:"url"`
}

// TrackRating is the user's thumbs value: "0" none, "1" dislike, "5" like.
type TrackRating string

const (
	RatingNone    TrackRating = "0"
	RatingDislike TrackRating = "1"
	RatingLike    TrackRating = "5"
)

// Track is a library or store track.
type Track struct {
	ID              string       `json:"id"`
	Title           string       `json:"title"`
	Artist          string       `json:"artist"`
	ArtistID        []string     `json:"artistId,omitempty"`
	AlbumID         string       `json:"albumId,omitempty"`
	Album           string       `json:"album"`
	AlbumArtist     string       `json:"albumArtist,omitempty"`
	TrackNumber     uint64       `json:"trackNumber"`
	TotalTrackCount uint64       `json:"totalTrackCount,omitempty"`
	DurationMillis  string       `json:"durationMillis"`
	AlbumArtRef     []ImageRef   `json:"albumArtRef,omitempty"`
	ArtistArtRef    []ImageRef   `json:"artistArtRef,omitempty"`
	DiscNumber      uint64       `json:"discNumber,omitempty"`
	TotalDiscCount  uint64       `json:"totalDiscCount,omitempty"`
	StoreID         string       `json:"storeId,omitempty"`
	Comment         string       `json:"comment,omitempty"`
	Year            uint64       `json:"year,omitempty"`
	BeatsPerMinute  uint64       `json:"beatsPerMinute,omitempty"`
	Genre           string       `json:"genre,omitempty"`
	PlayCount       uint64       `json:"playCount,omitempty"`
	Rating          *TrackRating `json:"rating,omitempty"`
}

// Playlist is a user-created, subscribed or generated playlist.
type Playlist struct {
	ID                    string     `json:"id"`
	Name                  string     `json:"name"`
	Deleted               bool       `json:"deleted,omitempty"`
	Type                  string     `json:"type"`
	LastModifiedTimestamp string     `json:"lastModifiedTimestamp,omitempty"`
	RecentTimestamp       string     `json:"recentTimestamp,omitempty"`
	ShareToken            string     `json:"shareToken"`
	OwnerProfilePhotoURL  string     `json:"ownerProfilePhotoUrl,omitempty"`
	OwnerName             string     `json:"ownerName,omitempty"`
	AccessControlled      bool       `json:"accessControlled,omitempty"`
	ShareState            string     `json:"shareState,omitempty"`
	CreationTimestamp     string     `json:"creationTimestamp,omitempty"`
	AlbumArtRef           []ImageRef `json:"albumArtRef,omitempty"`
	Description           string     `json:"description,omitempty"`
	ExplicitType          string     `json:"explicitType,omitempty"`
	ContentType           string     `json:"contentType,omitempty"`
}

// PlaylistEntry places a track in a playlist. The embedded Track arrives without an ID;
// see [NormalizeEntries].
type PlaylistEntry struct {
	Kind                  string `json:"kind"`
	ID                    string `json:"id"`
	ClientID              string `json:"clientId"`
	PlaylistID            string `json:"playlistId"`
	AbsolutePosition      string `json:"absolutePosition"`
	TrackID               string `json:"trackId"`
	CreationTimestamp     string `json:"creationTimestamp"`
	LastModifiedTimestamp string `json:"lastModifiedTimestamp"`
	Deleted               bool   `json:"deleted"`
	Source                string `json:"source"`
	Track                 *Track `json:"track,omitempty"`
}

// SharedPlaylistRequest asks for the entries of one or more shared playlists.
type SharedPlaylistRequest struct {
	Entries []SharedPlaylistFilter `json:"entries"`
}

// SharedPlaylistFilter selects a page of one shared playlist.
type SharedPlaylistFilter struct {
	ShareToken string `json:"shareToken"`
	StartToken string `json:"start-token,omitempty"`
	MaxResults string `json:"max-results,omitempty"`
}

// SharedPlaylistResponse is the response of the shared entries endpoint.
type SharedPlaylistResponse struct {
	Kind    string           `json:"kind"`
	Entries []SharedPlaylist `json:"entries"`
}

// SharedPlaylist holds one page of a shared playlist's entries.
type SharedPlaylist struct {
	ShareToken    string                `json:"shareToken"`
	ResponseCode  string                `json:"responseCode"`
	NextPageToken *string               `json:"nextPageToken,omitempty"`
	PlaylistEntry []SharedPlaylistEntry `json:"playlistEntry"`
}

// SharedPlaylistEntry is a [PlaylistEntry] seen through a share token.
type SharedPlaylistEntry struct {
	Kind                  string `json:"kind"`
	ID                    string `json:"id"`
	AbsolutePosition      string `json:"absolutePosition"`
	TrackID               string `json:"trackId"`
	CreationTimestamp     string `json:"creationTimestamp"`
	LastModifiedTimestamp string `json:"lastModifiedTimestamp"`
	Deleted               bool   `json:"deleted"`
	Source                string `json:"source"`
	Track                 *Track `json:"track,omitempty"`
}

// Album is a store album, optionally with its tracks.
type Album struct {
	ID           string   `json:"albumId"`
	Kind         string   `json:"kind"`
	Name         string   `json:"name"`
	AlbumArtist  string   `json:"albumArtist"`
	AlbumArtRef  string   `json:"albumArtRef,omitempty"`
	Artist       string   `json:"artist"`
	ArtistID     []string `json:"artistId"`
	Year         uint64   `json:"year,omitempty"`
	Tracks       []Track  `json:"tracks,omitempty"`
	Description  string   `json:"description,omitempty"`
	ExplicitType string   `json:"explicitType"`
	ContentType  string   `json:"contentType,omitempty"`
}

// Artist is a store artist with albums and top tracks.
type Artist struct {
	ID            string     `json:"artistId"`
	Kind          string     `json:"kind"`
	Name          string     `json:"name"`
	ArtistArtRef  string     `json:"artistArtRef,omitempty"`
	ArtistArtRefs []ImageRef `json:"artistArtRefs,omitempty"`
	ArtistBio     string     `json:"artistBio,omitempty"`
	Albums        []Album    `json:"albums,omitempty"`
	TopTracks     []Track    `json:"topTracks,omitempty"`
	TotalAlbums   uint64     `json:"total_albums,omitempty"`
}

// DeviceManagementInfo is a device registered to the account.
type DeviceManagementInfo struct {
	ID                 string `json:"id"`
	FriendlyName       string `json:"friendlyName,omitempty"`
	LastAccessedTimeMs string `json:"lastAccessedTimeMs"`
	SmartPhone         bool   `json:"smartPhone,omitempty"`
	Type               string `json:"type"`
	Kind               string `json:"kind"`
}

// SearchResponse is the response of the query endpoint.
type SearchResponse struct {
	Kind           string          `json:"kind"`
	ClusterDetail  []SearchCluster `json:"clusterDetail"`
	SuggestedQuery string          `json:"suggestedQuery,omitempty"`
}

// SearchCluster groups results of one category.
type SearchCluster struct {
	Cluster     SearchClusterInfo `json:"cluster"`
	DisplayName string            `json:"displayName,omitempty"`
	Entries     []SearchResult    `json:"entries,omitempty"`
	ResultToken string            `json:"resultToken,omitempty"`
}

// SearchClusterInfo identifies a cluster.
type SearchClusterInfo struct {
	Category string `json:"category"`
	ID       string `json:"id"`
	Type     string `json:"type"`
}

// SearchResult is one hit; exactly one of the entity fields is set, matching Type.
type SearchResult struct {
	Score                  float64             `json:"score,omitempty"`
	Type                   string              `json:"type"`
	BestResult             bool                `json:"best_result,omitempty"`
	NavigationalResult     bool                `json:"navigational_result,omitempty"`
	NavigationalConfidence float64             `json:"navigational_confidence,omitempty"`
	Cluster                []SearchClusterInfo `json:"cluster,omitempty"`
	Track                  *Track              `json:"track,omitempty"`
	Playlist               *Playlist           `json:"playlist,omitempty"`
	Artist                 *Artist             `json:"artist,omitempty"`
	Album                  *Album              `json:"album,omitempty"`
}
