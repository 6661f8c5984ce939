// package server contains the router and handlers for the login callback server
package server

import (
	"net/http"
)

// Middleware decorates a handler. The login server uses it to log each redirect.
type Middleware func(http.Handler) http.Handler

// Handler is an [http.Handler] that knows the ServeMux patterns it answers.
type Handler interface {
	http.Handler
	Routes() []string // ServeMux patterns, e.g. "GET /callback"
}

// Router registers handlers behind a shared middleware stack.
type Router interface {
	http.Handler
	Use(middleware ...Middleware)
	Handle(method, path string, handler http.Handler)
	Handler(handler Handler)
	Patterns() []string
}

var _ Router = (*BasicRouter)(nil)
