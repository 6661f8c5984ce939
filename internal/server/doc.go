// Package server provides the loopback HTTP front end for the browser login flow.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # Callback Handler
//
// [CallbackHandler] receives the OAuth redirect, validates the state parameter and sends the
// authorization code through a channel. It only processes one callback.
//
// # Browser Login
//
// [BrowserLogin] is the [auth.LoginHandler] used by `gmusic login --browser`. It starts a temporary
// server on the configured host and port, opens the authorization URL, and shuts the server down
// once the code arrives or the wait times out with [shared.ErrTimeout]. The code exchange itself
// stays with the auth package.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
