package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/gmusic/internal/auth"
	"github.com/desertthunder/gmusic/internal/services"
	"github.com/desertthunder/gmusic/internal/shared"
	"github.com/desertthunder/gmusic/internal/signature"
	"github.com/desertthunder/gmusic/internal/ui"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	library    services.Library
	tokens     *auth.TokenCache
	gateway    auth.Gateway
	tokenFile  auth.TokenFile
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	input      io.Reader
	palette    *ui.Palette

	// owned is set when the runner built the library itself and must persist tokens and close it.
	owned bool
}

// RunnerOpts contains configuration options for creating a Runner.
//
// Library, Tokens and Gateway are built from Config on first use when left nil.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Library    services.Library
	Tokens     *auth.TokenCache
	Gateway    auth.Gateway
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Input      io.Reader
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Tokens == nil {
		cacheOpts := []auth.CacheOption{auth.WithLogger(opts.Logger)}
		if opts.Config.Auth.SingleFlight {
			cacheOpts = append(cacheOpts, auth.WithSingleFlight())
		}
		opts.Tokens = auth.NewTokenCache(cacheOpts...)
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		library:    opts.Library,
		tokens:     opts.Tokens,
		gateway:    opts.Gateway,
		tokenFile:  auth.NewTokenFile(opts.Config.Auth.TokenFile),
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		input:      opts.Input,
		palette:    ui.NewPalette(opts.Output),
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, loginCommand,
		tracksCommand, playlistsCommand, entriesCommand, sharedCommand, devicesCommand,
		trackCommand, albumCommand, artistCommand, searchCommand, streamCommand,
		exportCommand, exportAllCommand, dumpCommand, cacheCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// authGateway returns the injected gateway or builds one from the configured credentials.
// A non-empty redirectURL overrides the configured redirect URI.
func (r *Runner) authGateway(redirectURL string) (auth.Gateway, error) {
	if r.gateway != nil {
		return r.gateway, nil
	}
	if redirectURL == "" {
		redirectURL = r.config.Credentials.RedirectURI
	}

	gw, err := auth.NewOAuthGateway(auth.Credentials{
		ClientID:     r.config.Credentials.ClientID,
		ClientSecret: r.config.Credentials.ClientSecret,
		RedirectURL:  redirectURL,
	}, r.httpClient)
	if err != nil {
		return nil, err
	}
	return gw, nil
}

// connect returns the music library, building the full client stack on first use.
//
// Tokens are loaded from the token file unless the cache is already populated.
func (r *Runner) connect() (services.Library, error) {
	if r.library != nil {
		return r.library, nil
	}

	gw, err := r.authGateway("")
	if err != nil {
		return nil, err
	}

	if !r.tokens.IsPopulated() {
		if err := r.tokenFile.Load(r.tokens); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("%w: no token file at %s, run 'gmusic login' first", shared.ErrNotAuthenticated, r.tokenFile.Path)
			}
			return nil, err
		}
		r.logger.Debug("loaded tokens", "path", r.tokenFile.Path)
	}

	exec := services.NewExecutor(r.tokens, gw,
		services.WithHTTPClient(r.httpClient),
		services.WithRateLimit(r.config.API.RequestsPerSecond),
		services.WithExecutorLogger(r.logger),
	)

	ttl, err := shared.Duration(r.config.Cache.CatalogTTL)
	if err != nil {
		return nil, err
	}
	var catalog *services.CatalogCache
	if ttl > 0 {
		catalog = services.NewCatalogCache(ttl)
	}

	enc := signature.Standard
	if r.config.Signature.URLSafe {
		enc = signature.URLSafe
	}

	client, err := services.NewClient(services.ClientOpts{
		Executor:  exec,
		Signer:    signature.NewSigner(enc),
		BaseURL:   r.config.API.BaseURL,
		StreamURL: r.config.API.StreamURL,
		MaxPages:  r.config.API.MaxPages,
		PageSize:  r.config.API.PageSize,
		Cache:     catalog,
		Logger:    r.logger,
	})
	if err != nil {
		if catalog != nil {
			catalog.Stop()
		}
		return nil, err
	}

	r.library = client
	r.owned = true
	return client, nil
}

// withLibrary runs fn against the library. When the runner built the library, a token
// refreshed during fn is written back to the token file and the library is closed.
func (r *Runner) withLibrary(fn func(services.Library) error) error {
	lib, err := r.connect()
	if err != nil {
		return err
	}

	err = fn(lib)

	if r.owned {
		if r.tokens.IsPopulated() {
			if serr := r.tokenFile.Store(r.tokens); serr != nil {
				r.logger.Warn("failed to persist tokens", "error", serr)
			}
		}
		lib.Close()
		r.library = nil
		r.owned = false
	}
	return err
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return err
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", r.palette.Title(title))
	r.writePlain("═══════════════════════════════════════\n")
}

// writeOK prints a success line prefixed with a check mark.
func (r *Runner) writeOK(format string, args ...any) error {
	return r.writePlain("%s %s\n", r.palette.OK("✓"), fmt.Sprintf(format, args...))
}

// writeFail prints a failure line prefixed with a cross.
func (r *Runner) writeFail(format string, args ...any) error {
	return r.writePlain("%s %s\n", r.palette.Err("✗"), fmt.Sprintf(format, args...))
}

// outputFlags are shared by every command that prints API data.
func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print JSON output",
		},
	}
}
