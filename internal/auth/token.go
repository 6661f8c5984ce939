package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/gmusic/internal/shared"
	"golang.org/x/sync/singleflight"
)

// Token is an access/refresh credential pair with its issuance instant and lifetime.
type Token struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	IssuedAt     time.Time
	TTL          time.Duration
}

// ExpiresAt is IssuedAt + TTL.
func (t Token) ExpiresAt() time.Time {
	return t.IssuedAt.Add(t.TTL)
}

// TokenCache holds the single current [Token] for every request-issuing collaborator.
//
// All access goes through one mutex; values are copied in and out. Refreshes are not
// coalesced unless the cache was built [WithSingleFlight], so two racing callers may both
// hit the gateway and the later write wins.
type TokenCache struct {
	mu        sync.Mutex
	token     Token
	populated bool

	now    func() time.Time
	logger *log.Logger
	group  *singleflight.Group
}

// CacheOption configures a [TokenCache].
type CacheOption func(*TokenCache)

// WithClock replaces the wall clock used for stamping and freshness checks.
func WithClock(now func() time.Time) CacheOption {
	return func(c *TokenCache) { c.now = now }
}

// WithLogger sets the logger used for refresh events.
func WithLogger(l *log.Logger) CacheOption {
	return func(c *TokenCache) { c.logger = shared.WithLogger(l, "component", "tokens") }
}

// WithSingleFlight collapses concurrent refreshes into one gateway exchange.
func WithSingleFlight() CacheOption {
	return func(c *TokenCache) { c.group = &singleflight.Group{} }
}

// NewTokenCache creates an empty cache.
func NewTokenCache(opts ...CacheOption) *TokenCache {
	c := &TokenCache{now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = shared.WithLogger(nil, "component", "tokens")
	}
	return c
}

// Set replaces the stored token. A zero IssuedAt is stamped with the current time.
func (c *TokenCache) Set(t Token) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if t.IssuedAt.IsZero() {
		t.IssuedAt = c.now()
	}
	c.token = t
	c.populated = true
}

// Get returns a copy of the current token.
func (c *TokenCache) Get() (Token, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.populated {
		return Token{}, shared.ErrNotAuthenticated
	}
	return c.token, nil
}

// IsPopulated reports whether a token has ever been stored.
func (c *TokenCache) IsPopulated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.populated
}

// RequiresRefresh reports whether the cache is empty or the token has expired.
//
// This is a snapshot; a concurrent refresh may land right after it returns.
func (c *TokenCache) RequiresRefresh() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.populated {
		return true
	}
	return !c.now().Before(c.token.ExpiresAt())
}

// AuthHeader returns the Authorization header value for the current access token.
func (c *TokenCache) AuthHeader() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.populated {
		return "", shared.ErrNotAuthenticated
	}
	return "Bearer " + c.token.AccessToken, nil
}

// Refresh exchanges the stored refresh token for a new access token through gw.
//
// Only the access token, its lifetime and issuance instant are replaced; the refresh token is kept.
//
// With [WithSingleFlight] the shared exchange is detached from every caller's cancellation:
// a caller whose ctx is done returns ctx.Err() while the exchange still completes for the
// others that joined it.
func (c *TokenCache) Refresh(ctx context.Context, gw Gateway) error {
	if c.group == nil {
		return c.refresh(ctx, gw)
	}

	detached := context.WithoutCancel(ctx)
	ch := c.group.DoChan("refresh", func() (any, error) {
		return nil, c.refresh(detached, gw)
	})

	select {
	case res := <-ch:
		if res.Shared {
			c.logger.Debug("joined in-flight refresh")
		}
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *TokenCache) refresh(ctx context.Context, gw Gateway) error {
	refreshToken, err := c.refreshToken()
	if err != nil {
		return err
	}

	c.logger.Debug("refreshing access token")

	fresh, err := gw.ExchangeRefresh(ctx, refreshToken)
	if err != nil {
		return fmt.Errorf("token refresh failed: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.populated {
		return shared.ErrNotAuthenticated
	}

	issued := fresh.IssuedAt
	if issued.IsZero() {
		issued = c.now()
	}
	c.token.AccessToken = fresh.AccessToken
	c.token.TTL = fresh.TTL
	c.token.IssuedAt = issued
	if fresh.TokenType != "" {
		c.token.TokenType = fresh.TokenType
	}

	c.logger.Debug("access token refreshed", "expires_at", c.token.ExpiresAt())
	return nil
}

func (c *TokenCache) refreshToken() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.populated {
		return "", shared.ErrNotAuthenticated
	}
	if c.token.RefreshToken == "" {
		return "", shared.ErrNoRefreshToken
	}
	return c.token.RefreshToken, nil
}
