package auth

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// LoginHandler turns an authorization URL into an authorization code.
//
// Implementations include a terminal prompt ([StdioLogin]), a loopback redirect capture
// (server.BrowserLogin) and scripted test doubles.
type LoginHandler interface {
	Authorize(ctx context.Context, authorizeURL string) (code string, err error)
}

// LoginFunc adapts a function to [LoginHandler].
type LoginFunc func(ctx context.Context, authorizeURL string) (string, error)

func (f LoginFunc) Authorize(ctx context.Context, authorizeURL string) (string, error) {
	return f(ctx, authorizeURL)
}

// StdioLogin prints the URL to Out and reads the pasted code from In.
type StdioLogin struct {
	In  io.Reader
	Out io.Writer
}

// Authorize prompts for the code and returns the first non-empty line read.
func (s StdioLogin) Authorize(_ context.Context, authorizeURL string) (string, error) {
	fmt.Fprintf(s.Out, "Open this URL in your browser:\n%s\n\nPaste the authorization code: ", authorizeURL)

	scanner := bufio.NewScanner(s.In)
	for scanner.Scan() {
		if code := strings.TrimSpace(scanner.Text()); code != "" {
			return code, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("failed to read authorization code: %w", err)
	}
	return "", fmt.Errorf("no authorization code entered")
}

// Login runs the interactive authorization-code flow and stores the resulting token in cache.
func Login(ctx context.Context, gw Gateway, handler LoginHandler, cache *TokenCache) error {
	authURL, verifier := gw.BeginAuthorization()

	code, err := handler.Authorize(ctx, authURL)
	if err != nil {
		return fmt.Errorf("authorization failed: %w", err)
	}

	token, err := gw.ExchangeCode(ctx, code, verifier)
	if err != nil {
		return err
	}

	cache.Set(token)
	return nil
}
