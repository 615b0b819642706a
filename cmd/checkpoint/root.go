package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/eventra/checkpoint/internal/adapter"
	"github.com/eventra/checkpoint/internal/config"
	"github.com/eventra/checkpoint/internal/logger"
	"github.com/eventra/checkpoint/internal/service"
	"github.com/eventra/checkpoint/internal/store"
)

// Flag values merged below environment variables and the JSON config file.
var flagCfg struct {
	apiURL           string
	apiToken         string
	organizer        string
	event            string
	dsn              string
	configFile       string
	logFile          string
	requestTimeout   time.Duration
	syncInterval     time.Duration
	downloadInterval time.Duration
	failureCooldown  time.Duration
}

var rootCmd = &cobra.Command{
	Use:   "checkpoint",
	Short: "Offline-first ticket check-in client",
	Long: `checkpoint keeps a local replica of an event's ticket data and
redeems tickets against it, with or without a server connection.
Locally accepted check-ins are queued and uploaded on the next sync.`,
	SilenceUsage: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagCfg.apiURL, "api-url", "", "server API base URL")
	pf.StringVar(&flagCfg.apiToken, "api-token", "", "device API token")
	pf.StringVar(&flagCfg.organizer, "organizer", "", "organizer slug")
	pf.StringVar(&flagCfg.event, "event", "", "event slug")
	pf.StringVarP(&flagCfg.dsn, "database", "d", "", "local replica database path")
	pf.StringVarP(&flagCfg.configFile, "config", "c", "", "JSON config file path")
	pf.StringVar(&flagCfg.logFile, "log-file", "", "rotated log file path")
	pf.DurationVar(&flagCfg.requestTimeout, "request-timeout", 0, "outbound request timeout")
	pf.DurationVar(&flagCfg.syncInterval, "sync-interval", 0, "minimum time between sync cycles")
	pf.DurationVar(&flagCfg.downloadInterval, "download-interval", 0, "minimum time between download phases")
	pf.DurationVar(&flagCfg.failureCooldown, "failure-cooldown", 0, "back-off after a failed sync cycle")
}

// app bundles everything a command needs. Commands call newApp in their
// RunE and defer close.
type app struct {
	cfg    *config.StructuredConfig
	log    *logger.Logger
	store  *store.ClientStorages
	api    adapter.APIClient
	syncer service.Syncer
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.GetConfigWith(&config.StructuredConfig{
		API: config.API{
			BaseURL:        flagCfg.apiURL,
			Token:          flagCfg.apiToken,
			Organizer:      flagCfg.organizer,
			Event:          flagCfg.event,
			RequestTimeout: flagCfg.requestTimeout,
		},
		Storage: config.Storage{DB: config.DB{DSN: flagCfg.dsn}},
		Sync: config.Sync{
			Interval:         flagCfg.syncInterval,
			DownloadInterval: flagCfg.downloadInterval,
			FailureCooldown:  flagCfg.failureCooldown,
		},
		Log:          config.Log{File: flagCfg.logFile},
		JSONFilePath: flagCfg.configFile,
	})
	if err != nil {
		return nil, err
	}

	var log *logger.Logger
	if cfg.Log.File != "" {
		log = logger.NewFileLogger("checkpoint", cfg.Log.File)
	} else {
		log = logger.NewLogger("checkpoint")
	}

	st, err := store.NewClientStorages(ctx, cfg.Storage, log)
	if err != nil {
		return nil, err
	}
	api, err := adapter.NewHTTPAPIClient(cfg.API, log)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:    cfg,
		log:    log,
		store:  st,
		api:    api,
		syncer: service.NewSyncManager(st, api, *cfg, log),
	}, nil
}

// checkProvider picks the provider implementation for the given mode.
func (a *app) checkProvider(mode string, listID int64) (service.TicketCheckProvider, error) {
	switch mode {
	case "", "offline":
		return service.NewOfflineCheckProvider(a.store, a.cfg.API.Event, listID, a.log), nil
	case "online":
		return service.NewOnlineCheckProvider(a.store, a.api, a.cfg.API.Organizer, a.cfg.API.Event, listID, a.log), nil
	case "proxy":
		return service.NewProxyCheckProvider(a.api, a.cfg.API.Event, listID, a.log), nil
	default:
		return nil, fmt.Errorf("unknown check mode %q (want offline, online or proxy)", mode)
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
