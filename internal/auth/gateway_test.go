package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/gmusic/internal/shared"
)

func newTokenServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func testGateway(t *testing.T, tokenURL string) *OAuthGateway {
	t.Helper()
	gw, err := NewOAuthGateway(Credentials{ClientID: "id", ClientSecret: "secret"}, nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	return gw.WithEndpoint("https://auth.example/authorize", tokenURL)
}

func TestOAuthGateway(t *testing.T) {
	t.Run("NewOAuthGateway", func(t *testing.T) {
		t.Run("Missing Client ID", func(t *testing.T) {
			_, err := NewOAuthGateway(Credentials{ClientSecret: "secret"}, nil)
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})

		t.Run("Missing Client Secret", func(t *testing.T) {
			_, err := NewOAuthGateway(Credentials{ClientID: "id"}, nil)
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})

		t.Run("Defaults", func(t *testing.T) {
			gw, err := NewOAuthGateway(Credentials{ClientID: "id", ClientSecret: "secret"}, nil)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			cfg := gw.Config()
			if cfg.RedirectURL != OOBRedirectURL {
				t.Errorf("expected oob redirect, got %s", cfg.RedirectURL)
			}
			if cfg.Endpoint.TokenURL != googleTokenURL {
				t.Errorf("expected Google token URL, got %s", cfg.Endpoint.TokenURL)
			}
			if len(cfg.Scopes) != 1 || cfg.Scopes[0] != musicScope {
				t.Errorf("expected music scope, got %v", cfg.Scopes)
			}
		})
	})

	t.Run("BeginAuthorization", func(t *testing.T) {
		gw := testGateway(t, "http://unused")
		authURL, verifier := gw.BeginAuthorization()

		if verifier == "" {
			t.Fatal("expected a PKCE verifier")
		}

		u, err := url.Parse(authURL)
		if err != nil {
			t.Fatalf("expected valid URL, got %v", err)
		}
		q := u.Query()
		for key, want := range map[string]string{
			"client_id":             "id",
			"response_type":         "code",
			"access_type":           "offline",
			"code_challenge_method": "S256",
			"redirect_uri":          OOBRedirectURL,
			"scope":                 musicScope,
		} {
			if got := q.Get(key); got != want {
				t.Errorf("expected %s=%q, got %q", key, want, got)
			}
		}
		if q.Get("code_challenge") == "" {
			t.Error("expected code_challenge to be set")
		}
		if q.Get("state") == "" {
			t.Error("expected state to be set")
		}
	})

	t.Run("ExchangeCode", func(t *testing.T) {
		srv := newTokenServer(t, func(w http.ResponseWriter, r *http.Request) {
			if err := r.ParseForm(); err != nil {
				t.Errorf("failed to parse form: %v", err)
			}
			if r.Form.Get("grant_type") != "authorization_code" {
				t.Errorf("expected authorization_code grant, got %s", r.Form.Get("grant_type"))
			}
			if r.Form.Get("code") != "the-code" {
				t.Errorf("expected code the-code, got %s", r.Form.Get("code"))
			}
			if r.Form.Get("code_verifier") != "the-verifier" {
				t.Errorf("expected verifier, got %s", r.Form.Get("code_verifier"))
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"access_token":"a1","refresh_token":"r1","token_type":"Bearer","expires_in":3600}`))
		})

		gw := testGateway(t, srv.URL)
		issued := time.Now()
		gw.now = func() time.Time { return issued }

		tok, err := gw.ExchangeCode(context.Background(), "the-code", "the-verifier")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if tok.AccessToken != "a1" || tok.RefreshToken != "r1" {
			t.Errorf("unexpected token %+v", tok)
		}
		if !tok.IssuedAt.Equal(issued) {
			t.Errorf("expected IssuedAt %v, got %v", issued, tok.IssuedAt)
		}
		if tok.TTL < 3600*time.Second || tok.TTL > 3610*time.Second {
			t.Errorf("expected TTL near 3600s, got %v", tok.TTL)
		}
	})

	t.Run("ExchangeRefresh", func(t *testing.T) {
		t.Run("Success", func(t *testing.T) {
			srv := newTokenServer(t, func(w http.ResponseWriter, r *http.Request) {
				_ = r.ParseForm()
				if r.Form.Get("grant_type") != "refresh_token" {
					t.Errorf("expected refresh_token grant, got %s", r.Form.Get("grant_type"))
				}
				if r.Form.Get("refresh_token") != "r1" {
					t.Errorf("expected refresh token r1, got %s", r.Form.Get("refresh_token"))
				}
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"access_token":"a2","token_type":"Bearer","expires_in":1800}`))
			})

			tok, err := testGateway(t, srv.URL).ExchangeRefresh(context.Background(), "r1")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if tok.AccessToken != "a2" {
				t.Errorf("expected access token a2, got %s", tok.AccessToken)
			}
			if tok.TTL <= 0 || tok.TTL > 1800*time.Second {
				t.Errorf("expected TTL within 1800s, got %v", tok.TTL)
			}
		})

		t.Run("Rejected", func(t *testing.T) {
			srv := newTokenServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			})

			_, err := testGateway(t, srv.URL).ExchangeRefresh(context.Background(), "r1")
			if !errors.Is(err, shared.ErrAuthFailed) {
				t.Errorf("expected ErrAuthFailed, got %v", err)
			}
			if !strings.Contains(err.Error(), "invalid_grant") {
				t.Errorf("expected error to carry server reason, got %v", err)
			}
		})

		t.Run("Unreachable", func(t *testing.T) {
			srv := httptest.NewServer(http.NotFoundHandler())
			tokenURL := srv.URL
			srv.Close()

			_, err := testGateway(t, tokenURL).ExchangeRefresh(context.Background(), "r1")
			if !errors.Is(err, shared.ErrTransport) {
				t.Errorf("expected ErrTransport, got %v", err)
			}
		})
	})
}
