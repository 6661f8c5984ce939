package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/gmusic/internal/shared"
	"github.com/desertthunder/gmusic/internal/signature"
	tu "github.com/desertthunder/gmusic/internal/testing"
)

// fakeAPI serves canned JSON per path and records each request.
type fakeAPI struct {
	mu     sync.Mutex
	routes map[string]func(w http.ResponseWriter, r *http.Request, body []byte)
	hits   map[string]int
	seen   []*http.Request
	bodies []string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		routes: map[string]func(http.ResponseWriter, *http.Request, []byte){},
		hits:   map[string]int{},
	}
}

func (f *fakeAPI) handle(path string, fn func(w http.ResponseWriter, r *http.Request, body []byte)) {
	f.routes[path] = fn
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	f.mu.Lock()
	f.hits[r.URL.Path]++
	f.seen = append(f.seen, r)
	f.bodies = append(f.bodies, string(body))
	fn, ok := f.routes[r.URL.Path]
	f.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	fn(w, r, body)
}

func (f *fakeAPI) count(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[path]
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func newTestClient(t *testing.T, api *fakeAPI, opts ClientOpts) *Client {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	opts.Executor = NewExecutor(freshCache(), &tu.FakeGateway{}, WithHTTPClient(srv.Client()))
	if opts.BaseURL == "" {
		opts.BaseURL = srv.URL + "/sj/v2.5"
	}
	if opts.StreamURL == "" {
		opts.StreamURL = srv.URL + "/music/mplay"
	}

	c, err := NewClient(opts)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestNewClient(t *testing.T) {
	t.Run("Requires Executor", func(t *testing.T) {
		_, err := NewClient(ClientOpts{})
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("Defaults", func(t *testing.T) {
		c, err := NewClient(ClientOpts{Executor: NewExecutor(freshCache(), &tu.FakeGateway{})})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if c.baseURL != DefaultBaseURL {
			t.Errorf("expected base URL %s, got %s", DefaultBaseURL, c.baseURL)
		}
		if c.streamURL != DefaultStreamURL {
			t.Errorf("expected stream URL %s, got %s", DefaultStreamURL, c.streamURL)
		}
		if c.pageSize != DefaultPageSize {
			t.Errorf("expected page size %d, got %d", DefaultPageSize, c.pageSize)
		}
		if c.signer == nil || c.signer.Encoding != signature.Standard {
			t.Error("expected standard signer by default")
		}
	})

	t.Run("Base URL Gets Trailing Slash", func(t *testing.T) {
		c, _ := NewClient(ClientOpts{Executor: NewExecutor(freshCache(), nil), BaseURL: "http://x/sj"})
		if c.endpoint("trackfeed") != "http://x/sj/trackfeed" {
			t.Errorf("unexpected endpoint %s", c.endpoint("trackfeed"))
		}
	})
}

func TestClient(t *testing.T) {
	t.Run("Tracks Follows Pages", func(t *testing.T) {
		api := newFakeAPI()
		api.handle("/sj/v2.5/trackfeed", func(w http.ResponseWriter, r *http.Request, body []byte) {
			var req PageRequest
			_ = json.Unmarshal(body, &req)

			switch req.StartToken {
			case "":
				writeJSON(w, map[string]any{
					"kind":          "sj#trackList",
					"nextPageToken": "p2",
					"data":          map[string]any{"items": []map[string]any{{"id": "a", "title": "One"}}},
				})
			case "p2":
				writeJSON(w, map[string]any{
					"kind": "sj#trackList",
					"data": map[string]any{"items": []map[string]any{{"id": "b", "title": "Two"}}},
				})
			default:
				t.Errorf("unexpected start token %q", req.StartToken)
			}
		})

		c := newTestClient(t, api, ClientOpts{PageSize: 250})
		tracks, err := c.Tracks(context.Background())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(tracks) != 2 || tracks[0].ID != "a" || tracks[1].ID != "b" {
			t.Errorf("unexpected tracks %+v", tracks)
		}
		if api.count("/sj/v2.5/trackfeed") != 2 {
			t.Errorf("expected 2 page requests, got %d", api.count("/sj/v2.5/trackfeed"))
		}
		if !strings.Contains(api.bodies[0], `"max-results":"250"`) {
			t.Errorf("expected page size in body, got %s", api.bodies[0])
		}
		if api.seen[0].Method != http.MethodPost {
			t.Errorf("expected POST, got %s", api.seen[0].Method)
		}
	})

	t.Run("Playlists", func(t *testing.T) {
		api := newFakeAPI()
		api.handle("/sj/v2.5/playlistfeed", func(w http.ResponseWriter, _ *http.Request, _ []byte) {
			writeJSON(w, map[string]any{
				"kind": "sj#playlistList",
				"data": map[string]any{"items": []map[string]any{
					{"id": "p1", "name": "Mix", "type": "USER_GENERATED", "shareToken": "s1"},
				}},
			})
		})

		playlists, err := newTestClient(t, api, ClientOpts{}).Playlists(context.Background())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(playlists) != 1 || playlists[0].ShareToken != "s1" || playlists[0].Type != "USER_GENERATED" {
			t.Errorf("unexpected playlists %+v", playlists)
		}
	})

	t.Run("PlaylistEntries Normalizes Track IDs", func(t *testing.T) {
		api := newFakeAPI()
		api.handle("/sj/v2.5/plentryfeed", func(w http.ResponseWriter, _ *http.Request, _ []byte) {
			writeJSON(w, map[string]any{
				"kind": "sj#playlistEntryList",
				"data": map[string]any{"items": []map[string]any{
					{"id": "E1", "trackId": "T9", "playlistId": "p1", "track": map[string]any{"title": "x"}},
					{"id": "E2", "trackId": "L2", "playlistId": "p1"},
				}},
			})
		})

		entries, err := newTestClient(t, api, ClientOpts{}).PlaylistEntries(context.Background())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if entries[0].Track == nil || entries[0].Track.ID != "T9" {
			t.Errorf("expected embedded track id T9, got %+v", entries[0].Track)
		}
		if entries[1].Track != nil {
			t.Error("expected second entry to have no track")
		}
		if !strings.Contains(api.bodies[0], `"max-results":"20000"`) {
			t.Errorf("expected default page size, got %s", api.bodies[0])
		}
	})

	t.Run("SharedPlaylistEntries", func(t *testing.T) {
		api := newFakeAPI()
		api.handle("/sj/v2.5/plentries/shared", func(w http.ResponseWriter, _ *http.Request, body []byte) {
			var req SharedPlaylistRequest
			if err := json.Unmarshal(body, &req); err != nil || len(req.Entries) != 1 {
				t.Errorf("unexpected request body %s", body)
				return
			}
			f := req.Entries[0]
			if f.ShareToken != "share-1" {
				t.Errorf("expected share token, got %q", f.ShareToken)
			}

			page := map[string]any{
				"shareToken":    "share-1",
				"responseCode":  "OK",
				"playlistEntry": []map[string]any{{"id": "S" + f.StartToken, "trackId": "T" + f.StartToken, "track": map[string]any{}}},
			}
			if f.StartToken == "" {
				page["nextPageToken"] = "2"
			}
			writeJSON(w, map[string]any{"kind": "sj#listSharedPlaylistEntriesResponse", "entries": []any{page}})
		})

		entries, err := newTestClient(t, api, ClientOpts{}).SharedPlaylistEntries(context.Background(), "share-1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(entries) != 2 {
			t.Fatalf("expected 2 entries across pages, got %d", len(entries))
		}
		if entries[1].Track.ID != "T2" {
			t.Errorf("expected normalized id T2, got %q", entries[1].Track.ID)
		}
	})

	t.Run("SharedPlaylistEntries Requires Token", func(t *testing.T) {
		_, err := newTestClient(t, newFakeAPI(), ClientOpts{}).SharedPlaylistEntries(context.Background(), "")
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("Devices", func(t *testing.T) {
		api := newFakeAPI()
		api.handle("/sj/v2.5/devicemanagementinfo", func(w http.ResponseWriter, r *http.Request, _ []byte) {
			if r.Method != http.MethodGet {
				t.Errorf("expected GET, got %s", r.Method)
			}
			writeJSON(w, map[string]any{
				"kind": "sj#devicemanagementinfoList",
				"data": map[string]any{"items": []map[string]any{
					{"id": "0x1", "friendlyName": "Phone", "type": "ANDROID", "lastAccessedTimeMs": "1", "kind": "sj#devicemanagementinfo"},
				}},
			})
		})

		devices, err := newTestClient(t, api, ClientOpts{}).Devices(context.Background())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(devices) != 1 || devices[0].FriendlyName != "Phone" {
			t.Errorf("unexpected devices %+v", devices)
		}
	})

	t.Run("StoreTrack", func(t *testing.T) {
		t.Run("Rejects Library IDs", func(t *testing.T) {
			api := newFakeAPI()
			_, err := newTestClient(t, api, ClientOpts{}).StoreTrack(context.Background(), "abc")
			if !errors.Is(err, shared.ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
			if len(api.seen) != 0 {
				t.Error("expected no request")
			}
		})

		t.Run("Fetches With Params", func(t *testing.T) {
			api := newFakeAPI()
			api.handle("/sj/v2.5/fetchtrack", func(w http.ResponseWriter, r *http.Request, _ []byte) {
				q := r.URL.Query()
				if q.Get("nid") != "Tabc" || q.Get("alt") != "json" {
					t.Errorf("unexpected query %s", r.URL.RawQuery)
				}
				writeJSON(w, map[string]any{"storeId": "Tabc", "title": "Song"})
			})

			track, err := newTestClient(t, api, ClientOpts{}).StoreTrack(context.Background(), "Tabc")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if track.Title != "Song" {
				t.Errorf("unexpected track %+v", track)
			}
		})

		t.Run("Catalog Cache Hit", func(t *testing.T) {
			api := newFakeAPI()
			api.handle("/sj/v2.5/fetchtrack", func(w http.ResponseWriter, _ *http.Request, _ []byte) {
				writeJSON(w, map[string]any{"storeId": "T1", "title": "Song"})
			})

			cache := NewCatalogCache(time.Minute)
			c := newTestClient(t, api, ClientOpts{Cache: cache})

			for range 3 {
				if _, err := c.StoreTrack(context.Background(), "T1"); err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
			}
			if api.count("/sj/v2.5/fetchtrack") != 1 {
				t.Errorf("expected 1 request, got %d", api.count("/sj/v2.5/fetchtrack"))
			}
			if cache.Len() != 1 {
				t.Errorf("expected 1 cached entry, got %d", cache.Len())
			}
		})

		t.Run("Cached Entries Are Copied", func(t *testing.T) {
			api := newFakeAPI()
			api.handle("/sj/v2.5/fetchtrack", func(w http.ResponseWriter, _ *http.Request, _ []byte) {
				writeJSON(w, map[string]any{"storeId": "T1", "title": "Song"})
			})

			c := newTestClient(t, api, ClientOpts{Cache: NewCatalogCache(time.Minute)})

			first, err := c.StoreTrack(context.Background(), "T1")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			first.Title = "changed by caller"

			second, err := c.StoreTrack(context.Background(), "T1")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if second == first {
				t.Error("expected each lookup to return its own track")
			}
			if second.Title != "Song" {
				t.Errorf("expected cached title Song, got %q", second.Title)
			}
			if api.count("/sj/v2.5/fetchtrack") != 1 {
				t.Errorf("expected second lookup to hit the cache, got %d requests", api.count("/sj/v2.5/fetchtrack"))
			}
		})

		t.Run("Failure Is Not Cached", func(t *testing.T) {
			api := newFakeAPI()
			calls := 0
			api.handle("/sj/v2.5/fetchtrack", func(w http.ResponseWriter, _ *http.Request, _ []byte) {
				calls++
				if calls == 1 {
					w.WriteHeader(http.StatusNotFound)
					return
				}
				writeJSON(w, map[string]any{"title": "Song"})
			})

			c := newTestClient(t, api, ClientOpts{Cache: NewCatalogCache(time.Minute)})
			if _, err := c.StoreTrack(context.Background(), "T1"); !errors.Is(err, shared.ErrAPIRequest) {
				t.Errorf("expected ErrAPIRequest, got %v", err)
			}
			if _, err := c.StoreTrack(context.Background(), "T1"); err != nil {
				t.Errorf("expected retry to succeed, got %v", err)
			}
		})
	})

	t.Run("Album", func(t *testing.T) {
		api := newFakeAPI()
		api.handle("/sj/v2.5/fetchalbum", func(w http.ResponseWriter, r *http.Request, _ []byte) {
			if r.URL.Query().Get("include-tracks") != "true" {
				t.Errorf("expected include-tracks=true, got %s", r.URL.RawQuery)
			}
			writeJSON(w, map[string]any{"albumId": "B1", "name": "Record", "tracks": []map[string]any{{"title": "t"}}})
		})

		album, err := newTestClient(t, api, ClientOpts{}).Album(context.Background(), "B1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if album.ID != "B1" || len(album.Tracks) != 1 {
			t.Errorf("unexpected album %+v", album)
		}
	})

	t.Run("Artist", func(t *testing.T) {
		api := newFakeAPI()
		api.handle("/sj/v2.5/fetchartist", func(w http.ResponseWriter, r *http.Request, _ []byte) {
			if r.URL.Query().Get("nid") != "A1" {
				t.Errorf("expected nid=A1, got %s", r.URL.RawQuery)
			}
			writeJSON(w, map[string]any{"artistId": "A1", "name": "Band", "total_albums": 3})
		})

		artist, err := newTestClient(t, api, ClientOpts{}).Artist(context.Background(), "A1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if artist.ID != "A1" || artist.TotalAlbums != 3 {
			t.Errorf("unexpected artist %+v", artist)
		}
	})

	t.Run("Search", func(t *testing.T) {
		api := newFakeAPI()
		api.handle("/sj/v2.5/query", func(w http.ResponseWriter, r *http.Request, _ []byte) {
			q := r.URL.Query()
			if q.Get("ct") != "1,2,3,4,5,6,7,8,9" || q.Get("ic") != "true" || q.Get("q") != "daft punk" {
				t.Errorf("unexpected query %s", r.URL.RawQuery)
			}
			if q.Get("max-results") != "50" {
				t.Errorf("expected default max-results 50, got %s", q.Get("max-results"))
			}
			writeJSON(w, map[string]any{
				"kind": "sj#searchresponse",
				"clusterDetail": []map[string]any{{
					"cluster": map[string]any{"category": "1", "id": "c", "type": "1"},
					"entries": []map[string]any{{"type": "1", "track": map[string]any{"title": "One More Time"}}},
				}},
			})
		})

		clusters, err := newTestClient(t, api, ClientOpts{}).Search(context.Background(), "daft punk", 0)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(clusters) != 1 || clusters[0].Entries[0].Track.Title != "One More Time" {
			t.Errorf("unexpected clusters %+v", clusters)
		}
	})

	t.Run("StreamURL", func(t *testing.T) {
		signer := signature.NewSigner(signature.Standard).WithClock(func() time.Time { return time.UnixMilli(1000) })

		newStreamAPI := func(t *testing.T) *fakeAPI {
			api := newFakeAPI()
			api.handle("/music/mplay", func(w http.ResponseWriter, r *http.Request, _ []byte) {
				if got := r.Header.Get("X-Device-ID"); got != "device-1" {
					t.Errorf("expected device header, got %q", got)
				}
				http.Redirect(w, r, "/media/stream.mp3?"+r.URL.RawQuery, http.StatusFound)
			})
			api.handle("/media/stream.mp3", func(w http.ResponseWriter, _ *http.Request, _ []byte) {
				_, _ = w.Write([]byte("audio bytes"))
			})
			return api
		}

		t.Run("Store Track", func(t *testing.T) {
			api := newStreamAPI(t)
			u, err := newTestClient(t, api, ClientOpts{Signer: signer}).StreamURL(context.Background(), "T1", "device-1")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if u.Path != "/media/stream.mp3" {
				t.Errorf("expected final redirect URL, got %s", u)
			}

			q := u.Query()
			for key, want := range map[string]string{
				"opt": "hi", "net": "mob", "pt": "e",
				"slt": "1000", "sig": "HUOPeKjRofacLiQqlCgIZ3zcqHo=",
				"mjck": "T1",
			} {
				if got := q.Get(key); got != want {
					t.Errorf("expected %s=%q, got %q", key, want, got)
				}
			}
			if q.Has("songid") {
				t.Error("expected no songid for a store id")
			}
		})

		t.Run("Library Track", func(t *testing.T) {
			api := newStreamAPI(t)
			u, err := newTestClient(t, api, ClientOpts{Signer: signer}).StreamURL(context.Background(), "abc-123", "device-1")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if u.Query().Get("songid") != "abc-123" || u.Query().Has("mjck") {
				t.Errorf("expected songid only, got %s", u.RawQuery)
			}
		})

		t.Run("Missing Device ID", func(t *testing.T) {
			api := newStreamAPI(t)
			_, err := newTestClient(t, api, ClientOpts{}).StreamURL(context.Background(), "T1", "")
			if !errors.Is(err, shared.ErrMissingDeviceID) {
				t.Errorf("expected ErrMissingDeviceID, got %v", err)
			}
			if len(api.seen) != 0 {
				t.Error("expected no request")
			}
		})
	})

	t.Run("Protocol Error Surfaces", func(t *testing.T) {
		api := newFakeAPI()
		api.handle("/sj/v2.5/devicemanagementinfo", func(w http.ResponseWriter, _ *http.Request, _ []byte) {
			w.WriteHeader(http.StatusForbidden)
		})

		_, err := newTestClient(t, api, ClientOpts{}).Devices(context.Background())

		var perr *shared.ProtocolError
		if !errors.As(err, &perr) || perr.StatusCode != http.StatusForbidden {
			t.Errorf("expected ProtocolError 403, got %v", err)
		}
	})
}
