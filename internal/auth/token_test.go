package auth

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/gmusic/internal/shared"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type stubGateway struct {
	token  Token
	err    error
	delay  time.Duration
	calls  atomic.Int32
	gotRTs []string
	mu     sync.Mutex
}

func (s *stubGateway) BeginAuthorization() (string, string) {
	return "https://auth.example/authorize?state=x", "verifier"
}

func (s *stubGateway) ExchangeCode(_ context.Context, code, verifier string) (Token, error) {
	if s.err != nil {
		return Token{}, s.err
	}
	t := s.token
	t.TokenType = code + ":" + verifier
	return t, nil
}

func (s *stubGateway) ExchangeRefresh(_ context.Context, refreshToken string) (Token, error) {
	s.calls.Add(1)
	s.mu.Lock()
	s.gotRTs = append(s.gotRTs, refreshToken)
	s.mu.Unlock()

	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if s.err != nil {
		return Token{}, s.err
	}
	return s.token, nil
}

func TestTokenCache(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("Empty Cache", func(t *testing.T) {
		c := NewTokenCache()

		if c.IsPopulated() {
			t.Error("expected new cache to be empty")
		}
		if !c.RequiresRefresh() {
			t.Error("expected empty cache to require refresh")
		}
		if _, err := c.Get(); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
		if _, err := c.AuthHeader(); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("Freshness Window", func(t *testing.T) {
		now := base
		c := NewTokenCache(WithClock(func() time.Time { return now }))
		c.Set(Token{AccessToken: "a1", RefreshToken: "r1", TTL: 3600 * time.Second})

		checks := []struct {
			offset time.Duration
			want   bool
		}{
			{0, false},
			{3599 * time.Second, false},
			{3600 * time.Second, true},
			{3601 * time.Second, true},
		}
		for _, tc := range checks {
			now = base.Add(tc.offset)
			if got := c.RequiresRefresh(); got != tc.want {
				t.Errorf("at +%v: expected RequiresRefresh=%v, got %v", tc.offset, tc.want, got)
			}
		}
	})

	t.Run("Zero TTL Is Immediately Stale", func(t *testing.T) {
		c := NewTokenCache(WithClock(func() time.Time { return base }))
		c.Set(Token{AccessToken: "a1", RefreshToken: "r1"})

		if !c.RequiresRefresh() {
			t.Error("expected zero lifetime token to require refresh")
		}
	})

	t.Run("Set Keeps Explicit IssuedAt", func(t *testing.T) {
		c := NewTokenCache(WithClock(func() time.Time { return base }))
		issued := base.Add(-2 * time.Hour)
		c.Set(Token{AccessToken: "a1", IssuedAt: issued, TTL: time.Hour})

		got, err := c.Get()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !got.IssuedAt.Equal(issued) {
			t.Errorf("expected IssuedAt %v, got %v", issued, got.IssuedAt)
		}
		if !c.RequiresRefresh() {
			t.Error("expected token issued two hours ago with one hour TTL to be stale")
		}
	})

	t.Run("AuthHeader", func(t *testing.T) {
		c := NewTokenCache()
		c.Set(Token{AccessToken: "a1", TTL: time.Hour})

		got, err := c.AuthHeader()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got != "Bearer a1" {
			t.Errorf("expected 'Bearer a1', got %q", got)
		}
	})

	t.Run("Refresh", func(t *testing.T) {
		t.Run("Retains Refresh Token", func(t *testing.T) {
			now := base
			c := NewTokenCache(WithClock(func() time.Time { return now }))
			c.Set(Token{AccessToken: "a1", RefreshToken: "r1", TTL: time.Hour})

			now = base.Add(90 * time.Minute)
			gw := &stubGateway{token: Token{AccessToken: "a2", TTL: 3600 * time.Second}}

			if err := c.Refresh(context.Background(), gw); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			got, _ := c.Get()
			if got.AccessToken != "a2" {
				t.Errorf("expected access token a2, got %s", got.AccessToken)
			}
			if got.RefreshToken != "r1" {
				t.Errorf("expected refresh token r1 to be retained, got %q", got.RefreshToken)
			}
			if got.TTL != time.Hour {
				t.Errorf("expected TTL 1h, got %v", got.TTL)
			}
			if !got.IssuedAt.Equal(now) {
				t.Errorf("expected IssuedAt %v, got %v", now, got.IssuedAt)
			}
			if c.RequiresRefresh() {
				t.Error("expected refreshed token to be fresh")
			}
			if gw.gotRTs[0] != "r1" {
				t.Errorf("expected gateway to receive r1, got %s", gw.gotRTs[0])
			}
		})

		t.Run("Ignores New Refresh Token", func(t *testing.T) {
			c := NewTokenCache()
			c.Set(Token{AccessToken: "a1", RefreshToken: "r1", TTL: time.Hour})

			gw := &stubGateway{token: Token{AccessToken: "a2", RefreshToken: "r2", TTL: time.Hour}}
			if err := c.Refresh(context.Background(), gw); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			got, _ := c.Get()
			if got.RefreshToken != "r1" {
				t.Errorf("expected refresh token r1, got %s", got.RefreshToken)
			}
		})

		t.Run("Empty Cache", func(t *testing.T) {
			gw := &stubGateway{}
			err := NewTokenCache().Refresh(context.Background(), gw)
			if !errors.Is(err, shared.ErrNotAuthenticated) {
				t.Errorf("expected ErrNotAuthenticated, got %v", err)
			}
			if gw.calls.Load() != 0 {
				t.Error("expected gateway not to be called")
			}
		})

		t.Run("Missing Refresh Token", func(t *testing.T) {
			c := NewTokenCache()
			c.Set(Token{AccessToken: "a1", TTL: time.Hour})

			err := c.Refresh(context.Background(), &stubGateway{})
			if !errors.Is(err, shared.ErrNoRefreshToken) {
				t.Errorf("expected ErrNoRefreshToken, got %v", err)
			}
		})

		t.Run("Gateway Failure Leaves Token", func(t *testing.T) {
			c := NewTokenCache()
			c.Set(Token{AccessToken: "a1", RefreshToken: "r1", TTL: time.Hour})

			gw := &stubGateway{err: shared.ErrAuthFailed}
			err := c.Refresh(context.Background(), gw)
			if !errors.Is(err, shared.ErrAuthFailed) {
				t.Errorf("expected ErrAuthFailed, got %v", err)
			}

			got, _ := c.Get()
			if got.AccessToken != "a1" {
				t.Errorf("expected access token a1 to remain, got %s", got.AccessToken)
			}
		})

		t.Run("Replaces Token Type When Present", func(t *testing.T) {
			c := NewTokenCache()
			c.Set(Token{AccessToken: "a1", RefreshToken: "r1", TokenType: "Bearer", TTL: time.Hour})

			if err := c.Refresh(context.Background(), &stubGateway{token: Token{AccessToken: "a2"}}); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			got, _ := c.Get()
			if got.TokenType != "Bearer" {
				t.Errorf("expected token type Bearer to remain, got %q", got.TokenType)
			}
		})
	})

	t.Run("SingleFlight", func(t *testing.T) {
		c := NewTokenCache(WithSingleFlight())
		c.Set(Token{AccessToken: "a1", RefreshToken: "r1", TTL: time.Hour})

		gw := &stubGateway{token: Token{AccessToken: "a2", TTL: time.Hour}, delay: 50 * time.Millisecond}

		var wg sync.WaitGroup
		errs := make(chan error, 8)
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs <- c.Refresh(context.Background(), gw)
			}()
		}
		wg.Wait()
		close(errs)

		for err := range errs {
			if err != nil {
				t.Errorf("expected no error, got %v", err)
			}
		}
		if n := gw.calls.Load(); n >= 8 {
			t.Errorf("expected concurrent refreshes to be coalesced, got %d gateway calls", n)
		}
	})

	t.Run("SingleFlight Survives Canceled First Caller", func(t *testing.T) {
		c := NewTokenCache(WithSingleFlight())
		c.Set(Token{AccessToken: "a1", RefreshToken: "r1", TTL: time.Hour})

		gw := &stubGateway{token: Token{AccessToken: "a2", TTL: time.Hour}, delay: 200 * time.Millisecond}

		firstCtx, cancel := context.WithCancel(context.Background())
		first := make(chan error, 1)
		go func() { first <- c.Refresh(firstCtx, gw) }()

		deadline := time.Now().Add(time.Second)
		for gw.calls.Load() == 0 {
			if time.Now().After(deadline) {
				t.Fatal("first refresh never reached the gateway")
			}
			time.Sleep(time.Millisecond)
		}

		second := make(chan error, 1)
		go func() { second <- c.Refresh(context.Background(), gw) }()
		time.Sleep(20 * time.Millisecond)
		cancel()

		if err := <-first; !errors.Is(err, context.Canceled) {
			t.Errorf("expected canceled caller to get context.Canceled, got %v", err)
		}
		if err := <-second; err != nil {
			t.Fatalf("expected live caller to succeed, got %v", err)
		}
		if n := gw.calls.Load(); n != 1 {
			t.Errorf("expected one shared exchange, got %d", n)
		}
		if tok, _ := c.Get(); tok.AccessToken != "a2" {
			t.Errorf("expected refreshed access token a2, got %q", tok.AccessToken)
		}
	})

	t.Run("Concurrent Access", func(t *testing.T) {
		c := NewTokenCache()
		c.Set(Token{AccessToken: "a1", RefreshToken: "r1", TTL: time.Hour})
		gw := &stubGateway{token: Token{AccessToken: "a2", TTL: time.Hour}}

		var wg sync.WaitGroup
		for range 16 {
			wg.Add(2)
			go func() {
				defer wg.Done()
				_ = c.Refresh(context.Background(), gw)
			}()
			go func() {
				defer wg.Done()
				_ = c.RequiresRefresh()
				_, _ = c.AuthHeader()
			}()
		}
		wg.Wait()

		got, _ := c.Get()
		if got.RefreshToken != "r1" {
			t.Errorf("expected refresh token r1, got %s", got.RefreshToken)
		}
	})
}

func TestLogin(t *testing.T) {
	t.Run("Stores Exchanged Token", func(t *testing.T) {
		gw := &stubGateway{token: Token{AccessToken: "a1", RefreshToken: "r1", TTL: time.Hour}}
		cache := NewTokenCache()

		var seenURL string
		handler := LoginFunc(func(_ context.Context, u string) (string, error) {
			seenURL = u
			return "code-1", nil
		})

		if err := Login(context.Background(), gw, handler, cache); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if seenURL != "https://auth.example/authorize?state=x" {
			t.Errorf("unexpected authorize URL %s", seenURL)
		}

		got, err := cache.Get()
		if err != nil {
			t.Fatalf("expected populated cache, got %v", err)
		}
		if got.RefreshToken != "r1" {
			t.Errorf("expected refresh token r1, got %s", got.RefreshToken)
		}
		if got.TokenType != "code-1:verifier" {
			t.Errorf("expected code and verifier to reach the gateway, got %s", got.TokenType)
		}
	})

	t.Run("Handler Failure", func(t *testing.T) {
		cache := NewTokenCache()
		handler := LoginFunc(func(context.Context, string) (string, error) {
			return "", shared.ErrTimeout
		})

		err := Login(context.Background(), &stubGateway{}, handler, cache)
		if !errors.Is(err, shared.ErrTimeout) {
			t.Errorf("expected ErrTimeout, got %v", err)
		}
		if cache.IsPopulated() {
			t.Error("expected cache to stay empty")
		}
	})

	t.Run("Exchange Failure", func(t *testing.T) {
		cache := NewTokenCache()
		handler := LoginFunc(func(context.Context, string) (string, error) { return "code", nil })

		err := Login(context.Background(), &stubGateway{err: shared.ErrAuthFailed}, handler, cache)
		if !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", err)
		}
		if cache.IsPopulated() {
			t.Error("expected cache to stay empty")
		}
	})
}
