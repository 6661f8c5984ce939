package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./gmusic.db" {
			t.Errorf("expected database path ./gmusic.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 3000 {
			t.Errorf("expected server port 3000, got %d", config.Server.Port)
		}

		if config.Auth.TokenFile != ".google-auth.json" {
			t.Errorf("expected token file .google-auth.json, got %s", config.Auth.TokenFile)
		}

		if config.Credentials.ClientID != "" || config.Credentials.ClientSecret != "" {
			t.Errorf("expected no default credentials, got %q/%q", config.Credentials.ClientID, config.Credentials.ClientSecret)
		}

		if config.API.MaxPages != 1000 {
			t.Errorf("expected max pages 1000, got %d", config.API.MaxPages)
		}

		if config.Signature.URLSafe {
			t.Error("expected standard signature encoding by default")
		}

		if config.Credentials.RedirectURI != "urn:ietf:wg:oauth:2.0:oob" {
			t.Errorf("expected out-of-band redirect, got %s", config.Credentials.RedirectURI)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		if config.Database.Path != DefaultConfig().Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[credentials]
client_id = "test_client_id"
client_secret = "test_secret"

[api]
max_pages = 5
requests_per_second = 2.5

[signature]
url_safe = true
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Credentials.ClientID != "test_client_id" {
			t.Errorf("expected client_id test_client_id, got %s", config.Credentials.ClientID)
		}
		if config.API.MaxPages != 5 {
			t.Errorf("expected max pages 5, got %d", config.API.MaxPages)
		}
		if config.API.RequestsPerSecond != 2.5 {
			t.Errorf("expected 2.5 requests per second, got %v", config.API.RequestsPerSecond)
		}
		if !config.Signature.URLSafe {
			t.Error("expected url_safe to be set")
		}
		if config.Server.Port != 3000 {
			t.Errorf("expected unset values to keep defaults, got port %d", config.Server.Port)
		}
	})

	t.Run("LoadConfig rejects malformed TOML", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("[api\nmax_pages ="), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		_, err := LoadConfig(configPath)
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("ApplyEnv", func(t *testing.T) {
		t.Setenv("GMUSIC_CLIENT_ID", "env-id")
		t.Setenv("GMUSIC_DEVICE_ID", "env-device")

		config := DefaultConfig()
		config.Credentials.ClientSecret = "file-secret"
		config.ApplyEnv()

		if config.Credentials.ClientID != "env-id" {
			t.Errorf("expected env client id, got %s", config.Credentials.ClientID)
		}
		if config.Credentials.ClientSecret != "file-secret" {
			t.Errorf("expected file client secret to survive, got %s", config.Credentials.ClientSecret)
		}
		if config.Credentials.DeviceID != "env-device" {
			t.Errorf("expected env device id, got %s", config.Credentials.DeviceID)
		}
	})

	t.Run("Duration", func(t *testing.T) {
		if d, err := Duration(""); err != nil || d != 0 {
			t.Errorf("expected zero duration for empty string, got %v, %v", d, err)
		}
		if d, err := Duration("90s"); err != nil || d != 90*time.Second {
			t.Errorf("expected 90s, got %v, %v", d, err)
		}
		if _, err := Duration("soon"); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}
