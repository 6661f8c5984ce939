// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/gmusic/internal/auth"
)

// FakeGateway is a test double for [auth.Gateway] that counts calls and hands out
// access tokens "fresh-1", "fresh-2", ... on refresh.
type FakeGateway struct {
	AuthorizeURL string
	CodeToken    auth.Token
	CodeErr      error
	RefreshErr   error
	RefreshTTL   time.Duration
	// Delay holds each refresh open, for concurrency tests.
	Delay time.Duration

	mu            sync.Mutex
	codes         []string
	refreshTokens []string
	refreshes     atomic.Int32
}

func (g *FakeGateway) BeginAuthorization() (string, string) {
	if g.AuthorizeURL == "" {
		return "https://auth.example/authorize", "verifier"
	}
	return g.AuthorizeURL, "verifier"
}

func (g *FakeGateway) ExchangeCode(_ context.Context, code, _ string) (auth.Token, error) {
	g.mu.Lock()
	g.codes = append(g.codes, code)
	g.mu.Unlock()

	if g.CodeErr != nil {
		return auth.Token{}, g.CodeErr
	}
	return g.CodeToken, nil
}

func (g *FakeGateway) ExchangeRefresh(ctx context.Context, refreshToken string) (auth.Token, error) {
	n := g.refreshes.Add(1)

	g.mu.Lock()
	g.refreshTokens = append(g.refreshTokens, refreshToken)
	g.mu.Unlock()

	if g.Delay > 0 {
		select {
		case <-time.After(g.Delay):
		case <-ctx.Done():
			return auth.Token{}, ctx.Err()
		}
	}
	if g.RefreshErr != nil {
		return auth.Token{}, g.RefreshErr
	}

	ttl := g.RefreshTTL
	if ttl == 0 {
		ttl = time.Hour
	}
	return auth.Token{AccessToken: "fresh-" + strconv.Itoa(int(n)), TTL: ttl}, nil
}

// Refreshes is the number of ExchangeRefresh calls so far.
func (g *FakeGateway) Refreshes() int { return int(g.refreshes.Load()) }

// Codes returns every authorization code passed to ExchangeCode.
func (g *FakeGateway) Codes() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.codes...)
}

// RefreshTokens returns every refresh token passed to ExchangeRefresh.
func (g *FakeGateway) RefreshTokens() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.refreshTokens...)
}

// FixedClock returns a clock func that reports *at; tests move time by assigning to it.
func FixedClock(at *time.Time) func() time.Time {
	return func() time.Time { return *at }
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
