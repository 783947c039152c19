package cli

import (
	"io"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"go-inventory-checklist/pkg/apiclient"
	"go-inventory-checklist/pkg/config"
	"go-inventory-checklist/pkg/identity"
	"go-inventory-checklist/pkg/logger"
	"go-inventory-checklist/pkg/querycache"
	"go-inventory-checklist/pkg/session"
)

// clientApp is the client-side wiring shared by the user commands: identity
// session on disk, API client, query cache and the user syncer.
type clientApp struct {
	cfg    *config.Config
	log    zerolog.Logger
	store  *identity.FileStore
	auth   *identity.Client
	api    *apiclient.Client
	cache  *querycache.Client
	syncer *session.Syncer
}

func (o *RootOptions) clientApp(stderr io.Writer) (*clientApp, error) {
	cfg, err := o.LoadConfig()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "load config", err)
	}
	return newClientApp(cfg, cliLogger(stderr, cfg.Log.Level, o.Verbose)), nil
}

func newClientApp(cfg *config.Config, log zerolog.Logger) *clientApp {
	store := identity.NewFileStore(cfg.API.SessionFile)
	auth := identity.NewClient(identity.Config{
		URL:     cfg.Identity.URL,
		AnonKey: cfg.Identity.AnonKey,
		Store:   store,
		Logger:  &log,
	})
	api := apiclient.NewClient(cfg.API.BaseURL, auth, log)
	cache := querycache.New(querycache.Config{
		StaleTime:            cfg.Cache.StaleTime,
		GCTime:               cfg.Cache.GCTime,
		RefetchOnWindowFocus: cfg.Cache.RefetchOnWindowFocus,
	}, log)

	return &clientApp{
		cfg:    cfg,
		log:    log,
		store:  store,
		auth:   auth,
		api:    api,
		cache:  cache,
		syncer: session.New(auth, api, log),
	}
}

func (a *clientApp) Close() {
	a.syncer.Close()
	a.cache.Clear()
}

// realtimeEndpoint turns the API base URL into the websocket feed URL.
func realtimeEndpoint(baseURL string) (string, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path += "/realtime/v1"
	return u.String(), nil
}

// cliLogger writes diagnostics to stderr; below warn only when verbose.
func cliLogger(w io.Writer, level string, verbose bool) zerolog.Logger {
	lvl := logger.ParseLevel(level)
	if !verbose && lvl < zerolog.WarnLevel {
		lvl = zerolog.WarnLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, NoColor: true}).Level(lvl).With().Timestamp().Logger()
}
