package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anonto42/playmaker/backend/internal/logging"
	"github.com/anonto42/playmaker/backend/internal/metrics"
	"github.com/anonto42/playmaker/backend/internal/realtime"
	"github.com/anonto42/playmaker/backend/internal/router"
	"github.com/anonto42/playmaker/backend/pkg/config"
	"github.com/anonto42/playmaker/backend/pkg/firebase"
	"github.com/anonto42/playmaker/backend/validators"
	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	cfgFile string
)

func main() {
	config.LoadDotEnv()

	rootCmd := &cobra.Command{
		Use:   "playmaker-api",
		Short: "Playmaker social backend",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}

	setupFlags(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupFlags(cmd *cobra.Command) {
	config.ApplyDefaults(viper.GetViper())
	defaults := config.NewViper()
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	cmd.PersistentFlags().String("port", defaults.GetString("port"), "HTTP listen port")
	cmd.PersistentFlags().String("metrics-port", defaults.GetString("metrics.port"), "Prometheus metrics listen port")
	cmd.PersistentFlags().String("mongo-database", defaults.GetString("mongo.database"), "MongoDB database name")
	cmd.PersistentFlags().String("log-level", defaults.GetString("log.level"), "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("firebase-credentials", defaults.GetString("firebase.credentials.path"), "Firebase service account file")

	bindFlag(cmd, "port", "port")
	bindFlag(cmd, "metrics.port", "metrics-port")
	bindFlag(cmd, "mongo.database", "mongo-database")
	bindFlag(cmd, "log.level", "log-level")
	bindFlag(cmd, "firebase.credentials.path", "firebase-credentials")
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	if err := viper.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if cfgFile != "" && errors.As(err, &configNotFound) {
			return err
		}
	}

	return nil
}

func runServer(ctx context.Context) error {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(cfg.LogLevel, cfg.Env)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	db, err := config.InitDB(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer db.CloseDB()

	deps := router.Dependencies{
		Postgres:  db.Postgres,
		Mongo:     db.MongoDB,
		Logger:    logger,
		JWTSecret: cfg.JWTSecret,
		TokenTTL:  cfg.TokenTTL,
	}

	if cfg.FirebaseCredentialsPath != "" {
		firebaseApp, err := firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath, logger.Named("firebase"))
		if err != nil {
			return err
		}
		deps.FirebaseAuth = firebaseApp.AuthClient
	} else {
		logger.Warn("FIREBASE_CREDENTIALS_PATH not set, firebase login disabled")
	}

	m := metrics.New()
	deps.Metrics = m
	deps.Hub = realtime.NewHub(logger.Named("hub"), m)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validators.NewValidator()
	config.SetupMiddleware(e, logger)

	if err := router.SetupRoutes(e, deps); err != nil {
		return err
	}

	metricsServer := &http.Server{
		Addr:              ":" + cfg.MetricsPort,
		Handler:           m.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 2)
	go func() {
		logger.Info("server starting", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	go func() {
		logger.Info("metrics server starting", zap.String("port", cfg.MetricsPort))
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-signalCtx.Done():
		logger.Info("shutting down")
	case err = <-errCh:
		logger.Error("server failed", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if shutdownErr := e.Shutdown(shutdownCtx); shutdownErr != nil {
		logger.Error("http shutdown failed", zap.Error(shutdownErr))
	}
	if shutdownErr := metricsServer.Shutdown(shutdownCtx); shutdownErr != nil {
		logger.Error("metrics shutdown failed", zap.Error(shutdownErr))
	}
	return err
}
