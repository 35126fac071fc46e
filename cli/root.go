// Package cli provides the main command-line interface and HTTP server for
// the elogy core. It wires config, store, attachment pipeline, action
// dispatcher, and domain service together and exposes them over the api
// package's routes.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-sdk-go-v2/config"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"elogy.dev/core/action"
	"elogy.dev/core/api"
	"elogy.dev/core/attachment"
	"elogy.dev/core/common"
	cfg "elogy.dev/core/config"
	coreHTTP "elogy.dev/core/http"
	"elogy.dev/core/logbook"
	"elogy.dev/core/searchcache"
	"elogy.dev/core/store"
)

// cfgFile holds the path to an optional YAML configuration file. When unset,
// initConfig looks for an optional .elogy.yaml in the working directory and
// the home directory.
var cfgFile string

// RootCmd is the elogy core's entrypoint: a single long-running server
// command, no subcommands.
var RootCmd = &cobra.Command{
	Use:   "elogy",
	Short: "electronic logbook service core",
	Long: `elogy serves the logbook/entry/attachment HTTP API described in
its specification: a content repository for hierarchical logbooks of
chronologically ordered entries, with revision history, cooperative edit
locking, and a searchable attachment pipeline.

Configuration is read from environment variables (see config.ConfigLoader)
and, optionally, a YAML file passed via --config.`,
	RunE: runServer,
}

func init() {
	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "optional YAML config file")
	RootCmd.PersistentFlags().Int("port", 0, "HTTP port (overrides PORT)")
	RootCmd.PersistentFlags().String("database-driver", "", "sqlite or postgres (overrides DATABASE_DRIVER)")
	RootCmd.PersistentFlags().String("database-name", "", "sqlite file path or postgres DSN (overrides DATABASE_NAME)")
	RootCmd.PersistentFlags().String("upload-folder", "", "local attachment storage root (overrides UPLOAD_FOLDER)")

	viper.BindPFlag("port", RootCmd.PersistentFlags().Lookup("port"))
	viper.BindPFlag("database_driver", RootCmd.PersistentFlags().Lookup("database-driver"))
	viper.BindPFlag("database_name", RootCmd.PersistentFlags().Lookup("database-name"))
	viper.BindPFlag("upload_folder", RootCmd.PersistentFlags().Lookup("upload-folder"))

	cobra.OnInitialize(initConfig)
}

// initConfig loads an optional YAML file into Viper. Its values only take
// effect where explicitly read in runServer (as overrides on top of
// config.ConfigLoader's environment-driven defaults); a missing file is not
// an error.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(".elogy")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home)
		}
	}
	viper.AutomaticEnv()
	_ = viper.ReadInConfig()
}

func runServer(cmd *cobra.Command, args []string) error {
	all, err := cfg.NewConfigLoader("ELOGY").LoadAll()
	if err != nil {
		return fmt.Errorf("cli: load config: %w", err)
	}
	if p := viper.GetInt("port"); p != 0 {
		all.Server.Port = p
	}
	if d := viper.GetString("database_driver"); d != "" {
		all.Database.Driver = d
	}
	if n := viper.GetString("database_name"); n != "" {
		all.Database.Name = n
	}
	if f := viper.GetString("upload_folder"); f != "" {
		all.Upload.Folder = f
	}

	logger := common.NewLogger(common.LoggerConfig{
		Level:   common.LogLevel(all.Service.LogLevel),
		Format:  all.Service.LogFormat,
		Service: all.Service.Name,
		Version: all.Service.Version,
	})

	s, err := store.Open(store.Config{Driver: all.Database.Driver, DatabaseName: all.Database.Name}, logger)
	if err != nil {
		return fmt.Errorf("cli: open store: %w", err)
	}

	blobs, err := buildBlobstore(all.Upload, logger)
	if err != nil {
		return fmt.Errorf("cli: build blobstore: %w", err)
	}
	pipeline := &attachment.Pipeline{Blobs: blobs, Store: s}

	dispatcher := action.New(logger, all.Actions.WorkerCount, all.Actions.QueueDepth)
	defer dispatcher.Close()
	registerActionLogging(dispatcher, logger)

	svc := logbook.New(s, pipeline, dispatcher, logger)

	cache, err := searchcache.New(all.Cache.RedisURL, all.Cache.TTL)
	if err != nil {
		return fmt.Errorf("cli: build search cache: %w", err)
	}

	e := coreHTTP.NewEchoServer(coreHTTP.ServerConfig{
		Port:            all.Server.Port,
		Debug:           all.Server.Debug,
		BodyLimit:       "100M",
		ReadTimeout:     all.Server.ReadTimeout,
		WriteTimeout:    all.Server.WriteTimeout,
		ShutdownTimeout: all.Server.ShutdownTimeout,
		AllowedOrigins:  all.CORS.AllowedOrigins,
	})
	e.GET("/health", coreHTTP.HealthCheckHandlerWithDetails(all.Service.Name, all.Service.Version, func() map[string]interface{} {
		return map[string]interface{}{
			"database_driver": all.Database.Driver,
			"upload_backend":  all.Upload.Backend,
			"search_cache":    cache != nil,
		}
	}))

	api.SetupRoutes(e, api.Deps{
		Logbook:  svc,
		Store:    s,
		Pipeline: pipeline,
		Cache:    cache,
		Logger:   logger,
	})

	errCh := make(chan error, 1)
	go func() {
		if err := coreHTTP.StartServer(e, coreHTTP.ServerConfig{Port: all.Server.Port}); err != nil {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	notifySignals(quit)

	select {
	case err := <-errCh:
		return fmt.Errorf("cli: server: %w", err)
	case <-quit:
		logger.Info("shutting down")
	}

	return coreHTTP.GracefulShutdown(e, all.Server.ShutdownTimeout)
}

// buildBlobstore constructs the configured Blobstore backend (local
// filesystem or S3, selected by UPLOAD_BACKEND).
func buildBlobstore(up cfg.UploadConfig, logger *logrus.Logger) (attachment.Blobstore, error) {
	switch up.Backend {
	case "", "local":
		logger.WithField("backend", "local").Info("attachment blobstore configured")
		return &attachment.LocalBlobstore{Root: up.Folder}, nil
	case "s3":
		awsCfg, err := config.LoadDefaultConfig(context.Background(), config.WithRegion(up.S3Region))
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		client := awss3.NewFromConfig(awsCfg)
		logger.WithField("backend", "s3").WithField("bucket", up.S3Bucket).Info("attachment blobstore configured")
		return attachment.NewS3Blobstore(client, up.S3Bucket), nil
	default:
		return nil, fmt.Errorf("unknown upload backend %q", up.Backend)
	}
}

// registerActionLogging wires a structured-log handler onto every signal the
// dispatcher can fire, as a baseline observability hook; a real deployment
// would add project-specific handlers (notifications, search reindex hooks)
// alongside this one.
func registerActionLogging(d *action.Dispatcher, logger *logrus.Logger) {
	for _, signal := range []string{action.SignalNewEntry, action.SignalEditEntry, action.SignalNewLogbook, action.SignalEditLogbook} {
		sig := signal
		d.Register(sig, func(ctx context.Context, signal string, payload json.RawMessage) {
			logger.WithField("signal", signal).Debug("action fired")
		})
	}
}

// notifySignals arranges for SIGINT/SIGTERM to be delivered on c, used by
// runServer to trigger graceful shutdown.
func notifySignals(c chan os.Signal) {
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
}
