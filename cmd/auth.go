package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/desertthunder/gmusic/internal/auth"
	"github.com/desertthunder/gmusic/internal/server"
	"github.com/desertthunder/gmusic/internal/shared"
	"github.com/urfave/cli/v3"
)

// Login runs the authorization-code flow and saves the resulting tokens.
//
// Without --browser the user pastes the code shown after consenting; with it, the redirect
// is captured on the configured loopback address.
func (r *Runner) Login(ctx context.Context, cmd *cli.Command) error {
	var (
		handler  auth.LoginHandler
		redirect string
	)

	if cmd.Bool("browser") {
		addr := net.JoinHostPort(r.config.Server.Host, strconv.Itoa(r.config.Server.Port))
		redirect = "http://" + addr + "/callback"

		timeout, err := shared.Duration(r.config.Auth.LoginTimeout)
		if err != nil {
			return err
		}
		handler = server.BrowserLogin{Addr: addr, Timeout: timeout, Logger: r.logger, Out: r.output}
	} else {
		handler = auth.StdioLogin{In: r.input, Out: r.output}
	}

	gw, err := r.authGateway(redirect)
	if err != nil {
		return err
	}

	r.logger.Info("starting authorization", "browser", cmd.Bool("browser"))
	if err := auth.Login(ctx, gw, handler, r.tokens); err != nil {
		return err
	}

	if err := r.tokenFile.Store(r.tokens); err != nil {
		return fmt.Errorf("failed to save tokens: %w", err)
	}

	r.logger.Info("tokens saved", "path", r.tokenFile.Path)
	r.writePlain("\n")
	return r.writeOK("Authorization successful\nTokens saved to: %s", r.tokenFile.Path)
}

// tokenStatus is the printable state of the stored token. It never includes the secrets.
type tokenStatus struct {
	Path            string    `json:"path"`
	Authenticated   bool      `json:"authenticated"`
	HasRefreshToken bool      `json:"has_refresh_token"`
	TokenType       string    `json:"token_type,omitempty"`
	IssuedAt        time.Time `json:"issued_at,omitzero"`
	ExpiresAt       time.Time `json:"expires_at,omitzero"`
	Stale           bool      `json:"stale"`
}

// Status reports whether tokens are stored and whether the access token is still fresh.
func (r *Runner) Status(ctx context.Context, cmd *cli.Command) error {
	status := tokenStatus{Path: r.tokenFile.Path}

	if !r.tokens.IsPopulated() {
		if err := r.tokenFile.Load(r.tokens); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}

	if token, err := r.tokens.Get(); err == nil {
		status.Authenticated = true
		status.HasRefreshToken = token.RefreshToken != ""
		status.TokenType = token.TokenType
		status.IssuedAt = token.IssuedAt
		status.ExpiresAt = token.ExpiresAt()
		status.Stale = r.tokens.RequiresRefresh()
	}

	if cmd.Bool("json") {
		return r.writeJSON(status, cmd.Bool("pretty"))
	}

	if !status.Authenticated {
		return r.writeFail("Not authenticated (no tokens at %s)\n%s", status.Path, r.palette.Help("Run 'gmusic login' to authorize."))
	}

	r.writeOK("Authenticated")
	r.writePlain("Token file: %s\n", status.Path)
	r.writePlain("Expires:    %s\n", status.ExpiresAt.Format(time.RFC3339))
	r.writePlain("Refresh:    %v\n", status.HasRefreshToken)
	if status.Stale {
		r.writePlain("Access token is stale and will be refreshed on the next request\n")
	}
	return nil
}

func loginCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Authorize this client and save the tokens",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "browser",
				Usage: "Open a browser and capture the redirect on the loopback server",
			},
		},
		Action: r.Login,
		Commands: []*cli.Command{
			{
				Name:   "status",
				Usage:  "Show the stored token state",
				Flags:  outputFlags(),
				Action: r.Status,
			},
		},
	}
}
