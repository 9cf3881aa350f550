package cli

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/AaronLay10/DecisionSim/internal/api"
	"github.com/AaronLay10/DecisionSim/internal/catalog"
	"github.com/AaronLay10/DecisionSim/internal/config"
	"github.com/AaronLay10/DecisionSim/internal/events"
	"github.com/AaronLay10/DecisionSim/internal/logging"
	"github.com/AaronLay10/DecisionSim/internal/mqtt"
	"github.com/AaronLay10/DecisionSim/internal/orchestrator"
	"github.com/AaronLay10/DecisionSim/internal/storage"
	"github.com/AaronLay10/DecisionSim/internal/storage/file"
	"github.com/AaronLay10/DecisionSim/internal/storage/postgres"
	"github.com/AaronLay10/DecisionSim/internal/storage/sqlite"
	"github.com/AaronLay10/DecisionSim/internal/version"
)

func newServeCmd(flags *globalFlags) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Listen port (overrides config)")
	return cmd
}

// openStore returns the configured session store and, for database drivers,
// its event log.
func openStore(ctx context.Context, cfg config.StorageConfig) (storage.Store, storage.EventLog, error) {
	switch cfg.Driver {
	case config.DriverFile:
		s, err := file.Open(cfg.Path)
		return s, nil, err
	case config.DriverSQLite:
		s, err := sqlite.Open(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	case config.DriverPostgres:
		c, err := postgres.New(ctx, cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		return c, c, nil
	case config.DriverMemory, "":
		return storage.NewMemoryStore(), nil, nil
	}
	return nil, nil, fmt.Errorf("unknown storage driver: %q", cfg.Driver)
}

func serve(ctx context.Context, cfg *config.Config) error {
	logger := logging.NewLogger(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)
	slog.SetDefault(logger)
	events.SetLogger(logger)

	cat, err := catalog.Load(cfg.Content.Dir, cfg.Content.IncludeBuiltin)
	if err != nil {
		return fmt.Errorf("failed to load scenarios: %w", err)
	}
	logger.Info("scenarios loaded", "count", cat.Len(), "dir", cfg.Content.Dir, "builtin", cfg.Content.IncludeBuiltin)

	creds, err := config.LoadCredentials()
	if err != nil {
		return err
	}
	var tlsCfg *tls.Config
	if cfg.Server.TLSEnabled() {
		if tlsCfg, err = api.LoadTLSConfig(cfg.Server.TLSCert, cfg.Server.TLSKey); err != nil {
			return err
		}
	}

	readiness := api.NewReadiness()
	readiness.Register("storage", false)

	store, eventLog, err := openStore(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to open %s storage: %w", cfg.Storage.Driver, err)
	}
	defer store.Close()
	readiness.Set("storage", true)
	if eventLog != nil {
		events.SetSink(eventLog)
		defer events.SetSink(nil)
	}

	mgr := orchestrator.NewManager(cat,
		orchestrator.WithStore(store),
		orchestrator.WithLogger(logger),
		orchestrator.WithDefaultMaxDecisions(cfg.Sessions.MaxDecisions),
	)
	if cfg.Sessions.Restore {
		n, err := mgr.Restore(ctx)
		if err != nil {
			return fmt.Errorf("failed to restore sessions: %w", err)
		}
		logger.Info("sessions restored", "count", n)
	}

	if cfg.MQTT.Enabled {
		readiness.Register("mqtt", true)
		client := mqtt.NewClient(cfg.MQTT.URL, cfg.MQTT.ClientID, logger)
		defer client.Disconnect()
		if err := client.Connect(); err != nil {
			logger.Warn("mqtt unavailable, retrying in background", "broker", cfg.MQTT.URL, "error", err)
		}
		bridge := mqtt.NewBridge(client, mgr, cfg.MQTT.TopicPrefix, logger)
		go func() {
			if err := bridge.Run(ctx); err != nil {
				logger.Error("mqtt bridge stopped", "error", err)
			}
		}()
		go trackConnection(ctx, readiness, "mqtt", client.IsConnected)
	}

	srv := api.New(mgr,
		api.WithAuth(api.NewAuth(creds)),
		api.WithReadiness(readiness),
		api.WithEventLog(eventLog),
		api.WithLogger(logger),
	)

	hostname, _ := os.Hostname()
	events.Emit("info", events.SystemStartup, "decisionsim starting", map[string]interface{}{
		"version":   version.Version,
		"hostname":  hostname,
		"pid":       os.Getpid(),
		"scenarios": cat.Len(),
		"storage":   cfg.Storage.Driver,
		"auth":      creds.Enabled(),
		"tls":       tlsCfg != nil,
	})

	err = srv.ListenAndServe(ctx, fmt.Sprintf(":%d", cfg.Server.Port), tlsCfg, cfg.Server.ShutdownTimeout)
	events.Emit("info", events.SystemShutdown, "decisionsim stopping", nil)
	return err
}

// trackConnection mirrors a connection flag into readiness until ctx is done.
func trackConnection(ctx context.Context, r *api.Readiness, name string, connected func() bool) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()
	for {
		r.Set(name, connected())
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
