package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/gmusic/internal/shared"
	"github.com/desertthunder/gmusic/internal/signature"
)

const (
	DefaultBaseURL   = "https://mclients.googleapis.com/sj/v2.5/"
	DefaultStreamURL = "https://mclients.googleapis.com/music/mplay"

	// DefaultPageSize is the max-results sent with each feed page.
	DefaultPageSize = 20000
	// DefaultSearchResults is used when Search is called without a positive limit.
	DefaultSearchResults = 50

	searchCategories = "1,2,3,4,5,6,7,8,9"
)

// ClientOpts configures a [Client]. Executor is required; everything else has a default.
type ClientOpts struct {
	Executor  *Executor
	Signer    *signature.Signer
	BaseURL   string
	StreamURL string
	MaxPages  int
	PageSize  int
	Cache     *CatalogCache
	Logger    *log.Logger
}

// Client is the music API: library feeds, store lookups, search and stream URLs.
type Client struct {
	exec      *Executor
	signer    *signature.Signer
	baseURL   string
	streamURL string
	maxPages  int
	pageSize  int
	cache     *CatalogCache
	logger    *log.Logger
}

// NewClient creates a client. It panics if the compiled-in signing key is malformed.
func NewClient(opts ClientOpts) (*Client, error) {
	if opts.Executor == nil {
		return nil, fmt.Errorf("%w: executor is required", shared.ErrMissingArgument)
	}

	signature.MustKey()

	c := &Client{
		exec:      opts.Executor,
		signer:    opts.Signer,
		baseURL:   opts.BaseURL,
		streamURL: opts.StreamURL,
		maxPages:  opts.MaxPages,
		pageSize:  opts.PageSize,
		cache:     opts.Cache,
		logger:    shared.WithLogger(opts.Logger, "component", "client"),
	}
	if c.signer == nil {
		c.signer = signature.NewSigner(signature.Standard)
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(c.baseURL, "/") {
		c.baseURL += "/"
	}
	if c.streamURL == "" {
		c.streamURL = DefaultStreamURL
	}
	if c.pageSize <= 0 {
		c.pageSize = DefaultPageSize
	}
	return c, nil
}

// Close stops the catalog cache, if any.
func (c *Client) Close() error {
	if c.cache != nil {
		c.cache.Stop()
	}
	return nil
}

func (c *Client) endpoint(name string) string {
	return c.baseURL + name
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values, v any) error {
	resp, err := c.exec.Execute(ctx, Request{Method: http.MethodGet, URL: c.endpoint(endpoint), Params: params})
	if err != nil {
		return err
	}
	return resp.Decode(v)
}

func (c *Client) post(ctx context.Context, endpoint string, body, v any) error {
	resp, err := c.exec.Execute(ctx, Request{Method: http.MethodPost, URL: c.endpoint(endpoint), Body: body})
	if err != nil {
		return err
	}
	return resp.Decode(v)
}

// feed drains a paged POST endpoint.
func feed[T any](ctx context.Context, c *Client, endpoint string) ([]T, error) {
	p := Paginator[*ListResponse[T], T]{
		Fetch: func(ctx context.Context, cursor *string) (*ListResponse[T], error) {
			body := PageRequest{MaxResults: strconv.Itoa(c.pageSize)}
			if cursor != nil {
				body.StartToken = *cursor
			}

			var page ListResponse[T]
			if err := c.post(ctx, endpoint, body, &page); err != nil {
				return nil, err
			}
			return &page, nil
		},
		Items:    func(r *ListResponse[T]) []T { return r.Data.Items },
		Cursor:   func(r *ListResponse[T]) *string { return r.NextPageToken },
		MaxPages: c.maxPages,
	}

	items, err := p.FetchAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", endpoint, err)
	}
	c.logger.Debug("feed fetched", "endpoint", endpoint, "items", len(items))
	return items, nil
}

// Tracks lists every track in the user's library.
func (c *Client) Tracks(ctx context.Context) ([]Track, error) {
	return feed[Track](ctx, c, "trackfeed")
}

// Playlists lists every playlist the user created or subscribed to.
func (c *Client) Playlists(ctx context.Context) ([]Playlist, error) {
	return feed[Playlist](ctx, c, "playlistfeed")
}

// PlaylistEntries lists the entries of all user playlists with embedded track ids filled in.
func (c *Client) PlaylistEntries(ctx context.Context) ([]PlaylistEntry, error) {
	entries, err := feed[PlaylistEntry](ctx, c, "plentryfeed")
	if err != nil {
		return nil, err
	}
	NormalizeEntries(entries)
	return entries, nil
}

// SharedPlaylistEntries lists the entries of the playlist behind shareToken.
func (c *Client) SharedPlaylistEntries(ctx context.Context, shareToken string) ([]SharedPlaylistEntry, error) {
	if shareToken == "" {
		return nil, fmt.Errorf("%w: share token", shared.ErrMissingArgument)
	}

	p := Paginator[*SharedPlaylist, SharedPlaylistEntry]{
		Fetch: func(ctx context.Context, cursor *string) (*SharedPlaylist, error) {
			filter := SharedPlaylistFilter{ShareToken: shareToken, MaxResults: strconv.Itoa(c.pageSize)}
			if cursor != nil {
				filter.StartToken = *cursor
			}

			var resp SharedPlaylistResponse
			if err := c.post(ctx, "plentries/shared", SharedPlaylistRequest{Entries: []SharedPlaylistFilter{filter}}, &resp); err != nil {
				return nil, err
			}
			for i := range resp.Entries {
				if resp.Entries[i].ShareToken == shareToken {
					return &resp.Entries[i], nil
				}
			}
			return &SharedPlaylist{ShareToken: shareToken}, nil
		},
		Items:    func(r *SharedPlaylist) []SharedPlaylistEntry { return r.PlaylistEntry },
		Cursor:   func(r *SharedPlaylist) *string { return r.NextPageToken },
		MaxPages: c.maxPages,
	}

	entries, err := p.FetchAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("plentries/shared: %w", err)
	}
	NormalizeSharedEntries(entries)
	return entries, nil
}

// Devices lists the devices registered to the account.
func (c *Client) Devices(ctx context.Context) ([]DeviceManagementInfo, error) {
	var resp ListResponse[DeviceManagementInfo]
	if err := c.get(ctx, "devicemanagementinfo", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data.Items, nil
}

// StoreTrack fetches a catalog track. Store ids start with "T".
func (c *Client) StoreTrack(ctx context.Context, id string) (*Track, error) {
	if !strings.HasPrefix(id, "T") {
		return nil, fmt.Errorf("%w: %q is not a store track id", shared.ErrInvalidArgument, id)
	}

	return cached(c.cache, "track", id, func() (*Track, error) {
		var track Track
		params := url.Values{"alt": {"json"}, "nid": {id}}
		if err := c.get(ctx, "fetchtrack", params, &track); err != nil {
			return nil, err
		}
		return &track, nil
	})
}

// Album fetches a catalog album including its tracks.
func (c *Client) Album(ctx context.Context, id string) (*Album, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: album id", shared.ErrMissingArgument)
	}

	return cached(c.cache, "album", id, func() (*Album, error) {
		var album Album
		params := url.Values{"alt": {"json"}, "nid": {id}, "include-tracks": {"true"}}
		if err := c.get(ctx, "fetchalbum", params, &album); err != nil {
			return nil, err
		}
		return &album, nil
	})
}

// Artist fetches a catalog artist.
func (c *Client) Artist(ctx context.Context, id string) (*Artist, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: artist id", shared.ErrMissingArgument)
	}

	return cached(c.cache, "artist", id, func() (*Artist, error) {
		var artist Artist
		params := url.Values{"alt": {"json"}, "nid": {id}}
		if err := c.get(ctx, "fetchartist", params, &artist); err != nil {
			return nil, err
		}
		return &artist, nil
	})
}

// Search queries every result category. maxResults ≤ 0 uses [DefaultSearchResults].
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]SearchCluster, error) {
	if maxResults <= 0 {
		maxResults = DefaultSearchResults
	}

	params := url.Values{
		"ct":          {searchCategories},
		"ic":          {"true"},
		"q":           {query},
		"max-results": {strconv.Itoa(maxResults)},
	}

	var resp SearchResponse
	if err := c.get(ctx, "query", params, &resp); err != nil {
		return nil, err
	}
	return resp.ClusterDetail, nil
}

// StreamURL resolves the short-lived media URL for a track as played on deviceID.
//
// Store ids (prefix "T") are sent as mjck, library ids as songid. The media body is not read.
func (c *Client) StreamURL(ctx context.Context, id, deviceID string) (*url.URL, error) {
	if deviceID == "" {
		return nil, shared.ErrMissingDeviceID
	}
	if id == "" {
		return nil, fmt.Errorf("%w: track id", shared.ErrMissingArgument)
	}

	sig, err := c.signer.Sign(id)
	if err != nil {
		return nil, err
	}

	params := url.Values{
		"opt": {"hi"},
		"net": {"mob"},
		"pt":  {"e"},
		"slt": {sig.Salt},
		"sig": {sig.Value},
	}
	if strings.HasPrefix(id, "T") {
		params.Set("mjck", id)
	} else {
		params.Set("songid", id)
	}

	resp, err := c.exec.Execute(ctx, Request{
		Method:      http.MethodGet,
		URL:         c.streamURL,
		Params:      params,
		Header:      http.Header{"X-Device-ID": {deviceID}},
		DiscardBody: true,
	})
	if err != nil {
		return nil, err
	}
	return resp.URL, nil
}
