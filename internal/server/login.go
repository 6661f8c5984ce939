package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/gmusic/internal/auth"
	"github.com/desertthunder/gmusic/internal/shared"
)

// DefaultLoginTimeout bounds how long [BrowserLogin] waits for the redirect.
const DefaultLoginTimeout = 2 * time.Minute

// BrowserLogin implements [auth.LoginHandler] by opening the authorization URL in a browser
// and capturing the redirect on a loopback HTTP server.
//
// The gateway's redirect URL must point at Addr with the /callback path.
type BrowserLogin struct {
	Addr    string
	Timeout time.Duration
	Logger  *log.Logger
	// Out receives the fallback instructions when the browser cannot be opened.
	Out io.Writer
	// Open launches the browser; nil uses [shared.OpenBrowser].
	Open func(url string) error
	// Ready, when set, receives the bound address once the server is listening.
	Ready chan<- string
}

var _ auth.LoginHandler = BrowserLogin{}

// Authorize serves /callback until a code arrives, the timeout elapses or ctx is done.
func (b BrowserLogin) Authorize(ctx context.Context, authorizeURL string) (string, error) {
	logger := shared.WithLogger(b.Logger, "component", "login")

	timeout := b.Timeout
	if timeout <= 0 {
		timeout = DefaultLoginTimeout
	}
	open := b.Open
	if open == nil {
		open = shared.OpenBrowser
	}

	var state string
	if u, err := url.Parse(authorizeURL); err == nil {
		state = u.Query().Get("state")
	}

	callback := NewCallbackHandler(state)
	router := NewBasicRouter()
	router.Use(requestLogger(logger))
	router.Handler(callback)

	ln, err := net.Listen("tcp", b.Addr)
	if err != nil {
		return "", fmt.Errorf("failed to start callback server: %w", err)
	}

	httpServer := &http.Server{Handler: router, ReadHeaderTimeout: 10 * time.Second}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Infof("starting callback server at %v", ln.Addr())
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("error shutting down server", "error", err)
		}
	}()

	if b.Ready != nil {
		b.Ready <- ln.Addr().String()
	}

	if err := open(authorizeURL); err != nil {
		logger.Warnf("failed to open browser automatically %v", err)
		if b.Out != nil {
			fmt.Fprintf(b.Out, "Please open this URL in your browser:\n%s\n\n", authorizeURL)
		}
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case result := <-callback.Result():
		if result.Error() != nil {
			return "", result.Error()
		}
		return result.Code, nil
	case err := <-serverErrors:
		return "", fmt.Errorf("server error: %w", err)
	case <-timer.C:
		return "", fmt.Errorf("%w: authorization timed out after %v", shared.ErrTimeout, timeout)
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func requestLogger(l *log.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			l.Debug("callback request", "method", r.Method, "path", r.URL.Path)
			next.ServeHTTP(w, r)
		})
	}
}
