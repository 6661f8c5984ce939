// Package services talks to the music API: it signs every request with the shared token,
// drains paginated feeds and exposes the catalog operations through [Library].
//
// # Executor
//
// [Executor] is the only code that sends API requests. Each request goes through:
//
//  1. a proactive refresh when the shared [auth.TokenCache] reports a stale token
//  2. the first attempt, with default query parameters dv, hl and tier
//  3. on 401 only, one unconditional refresh and one resend of the same request
//
// There is never a third attempt. Error statuses surface as [*shared.ProtocolError].
//
// # Pagination
//
// [Paginator] follows next-page cursors until the server stops returning one. A cursor that
// repeats, or a listing longer than MaxPages, stops with [shared.ErrPaginationLimit].
//
// # Client
//
// [Client] maps the endpoints of the original example programs onto [Library]. Playlist
// entries are normalized so each embedded track carries the entry's track id. Stream URLs are
// signed by the signature package and resolved by following the redirect without reading the
// media body.
//
// Store lookups may be memoized in a [CatalogCache] (ttlcache), which [Client.Close] stops.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrNotAuthenticated] : no token loaded
//   - [shared.ErrAuthFailed] : the token endpoint rejected a refresh
//   - [shared.ErrTransport] : the request never got a response
//   - [shared.ErrAPIRequest] : error status, via [*shared.ProtocolError]
//   - [shared.ErrDecode] : body did not match the expected shape
package services
