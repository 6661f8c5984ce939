package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/desertthunder/gmusic/internal/shared"
	"golang.org/x/oauth2"
)

const (
	googleAuthURL  = "https://accounts.google.com/o/oauth2/v2/auth"
	googleTokenURL = "https://www.googleapis.com/oauth2/v3/token"

	// OOBRedirectURL asks the authorization server to display the code for copy/paste.
	OOBRedirectURL = "urn:ietf:wg:oauth:2.0:oob"

	musicScope = "https://www.googleapis.com/auth/skyjam"
)

// Gateway performs the network side of OAuth: the authorization-code and refresh-token exchanges.
type Gateway interface {
	// BeginAuthorization returns the URL the user must visit and the PKCE verifier bound to it.
	BeginAuthorization() (authorizeURL, verifier string)

	// ExchangeCode trades an authorization code for a full token.
	ExchangeCode(ctx context.Context, code, verifier string) (Token, error)

	// ExchangeRefresh trades a refresh token for a new access token and lifetime.
	// The returned token may have an empty RefreshToken.
	ExchangeRefresh(ctx context.Context, refreshToken string) (Token, error)
}

// Credentials is the OAuth client registration.
type Credentials struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// Validate checks both the client id and secret are present.
func (c Credentials) Validate() error {
	if c.ClientID == "" {
		return fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}
	if c.ClientSecret == "" {
		return fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}
	return nil
}

// OAuthGateway implements [Gateway] with [oauth2.Config] and PKCE.
type OAuthGateway struct {
	config     *oauth2.Config
	httpClient *http.Client
	now        func() time.Time
}

// NewOAuthGateway creates a gateway for creds. A nil client uses [http.DefaultClient].
func NewOAuthGateway(creds Credentials, client *http.Client) (*OAuthGateway, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	redirectURL := creds.RedirectURL
	if redirectURL == "" {
		redirectURL = OOBRedirectURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &OAuthGateway{
		config: &oauth2.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{musicScope},
			Endpoint: oauth2.Endpoint{
				AuthURL:  googleAuthURL,
				TokenURL: googleTokenURL,
			},
		},
		httpClient: client,
		now:        time.Now,
	}, nil
}

// WithEndpoint points the gateway at different authorization and token URLs.
func (g *OAuthGateway) WithEndpoint(authURL, tokenURL string) *OAuthGateway {
	g.config.Endpoint = oauth2.Endpoint{AuthURL: authURL, TokenURL: tokenURL}
	return g
}

// Config returns the underlying OAuth2 configuration.
func (g *OAuthGateway) Config() *oauth2.Config {
	return g.config
}

// BeginAuthorization builds an offline-access authorization URL with an S256 PKCE challenge.
func (g *OAuthGateway) BeginAuthorization() (string, string) {
	verifier := oauth2.GenerateVerifier()
	authURL := g.config.AuthCodeURL(
		shared.GenerateID(),
		oauth2.AccessTypeOffline,
		oauth2.S256ChallengeOption(verifier),
	)
	return authURL, verifier
}

// ExchangeCode trades code and its PKCE verifier for a token.
func (g *OAuthGateway) ExchangeCode(ctx context.Context, code, verifier string) (Token, error) {
	tok, err := g.config.Exchange(g.context(ctx), code, oauth2.VerifierOption(verifier))
	if err != nil {
		return Token{}, classify("code exchange", err)
	}
	return g.fromOAuth2(tok), nil
}

// ExchangeRefresh trades refreshToken for a new access token.
func (g *OAuthGateway) ExchangeRefresh(ctx context.Context, refreshToken string) (Token, error) {
	src := g.config.TokenSource(g.context(ctx), &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		return Token{}, classify("refresh exchange", err)
	}

	// oauth2 copies the old refresh token forward when the server omits it; callers only
	// rely on the access half.
	return g.fromOAuth2(tok), nil
}

func (g *OAuthGateway) context(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, g.httpClient)
}

func (g *OAuthGateway) fromOAuth2(tok *oauth2.Token) Token {
	issued := g.now()
	var ttl time.Duration
	if !tok.Expiry.IsZero() {
		ttl = tok.Expiry.Sub(issued)
		if ttl < 0 {
			ttl = 0
		}
	}
	return Token{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		IssuedAt:     issued,
		TTL:          ttl,
	}
}

func classify(op string, err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		return fmt.Errorf("%w: %s rejected: %v", shared.ErrAuthFailed, op, err)
	}
	return fmt.Errorf("%w: %s: %v", shared.ErrTransport, op, err)
}
