package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/desertthunder/gmusic/internal/shared"
)

// DefaultTokenFile is the relative path tokens are persisted to.
const DefaultTokenFile = ".google-auth.json"

type tokenRecord struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenType    string    `json:"token_type,omitempty"`
	IssuedAt     time.Time `json:"issued_at,omitzero"`
	ExpiresIn    int64     `json:"expires_in"`
}

// TokenFile persists a [TokenCache] as a single JSON object.
type TokenFile struct {
	Path string
}

// NewTokenFile returns a TokenFile at path, or at [DefaultTokenFile] when path is empty.
func NewTokenFile(path string) TokenFile {
	if path == "" {
		path = DefaultTokenFile
	}
	return TokenFile{Path: path}
}

// Store writes the cached token with owner-only permissions.
func (f TokenFile) Store(cache *TokenCache) error {
	token, err := cache.Get()
	if err != nil {
		return fmt.Errorf("no token available to persist: %w", err)
	}

	data, err := json.Marshal(tokenRecord{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    token.TokenType,
		IssuedAt:     token.IssuedAt.UTC(),
		ExpiresIn:    int64(token.TTL / time.Second),
	})
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}

	if dir := filepath.Dir(f.Path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("failed to create token directory: %w", err)
		}
	}

	if err := os.WriteFile(f.Path, data, 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

// Load reads the token file into cache. A record without issued_at is treated as issued now.
func (f TokenFile) Load(cache *TokenCache) error {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return fmt.Errorf("failed to read token file: %w", err)
	}

	var rec tokenRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return fmt.Errorf("%w: token file %s: %v", shared.ErrDecode, f.Path, err)
	}
	if rec.AccessToken == "" && rec.RefreshToken == "" {
		return fmt.Errorf("%w: token file %s holds no token", shared.ErrNotAuthenticated, f.Path)
	}

	cache.Set(Token{
		AccessToken:  rec.AccessToken,
		RefreshToken: rec.RefreshToken,
		TokenType:    rec.TokenType,
		IssuedAt:     rec.IssuedAt,
		TTL:          time.Duration(rec.ExpiresIn) * time.Second,
	})
	return nil
}
