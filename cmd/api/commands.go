package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/comitanigiacomo/2moro-engine/internal/adapters/repository"
	"github.com/comitanigiacomo/2moro-engine/internal/config"
)

type rootOptions struct {
	envFile string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "2moro",
		Short:         "2moro life OS backend",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "optional dotenv file loaded before the environment")

	serve := newServeCmd(opts)
	root.AddCommand(serve, newMigrateCmd(opts))

	// Running the binary bare starts the server.
	root.RunE = serve.RunE
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsDevelopment() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func setup(opts *rootOptions) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(opts.envFile)
	if err != nil {
		return nil, nil, err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, logger, nil
}

func connectDB(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*sqlx.DB, error) {
	logger.Info("Connecting to database...", zap.String("host", cfg.DB.Host), zap.String("name", cfg.DB.Name))

	db, err := sqlx.ConnectContext(ctx, "pgx", cfg.DB.DSN())
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	db.SetMaxOpenConns(cfg.DB.MaxOpenConns)
	db.SetMaxIdleConns(cfg.DB.MaxOpenConns)
	db.SetConnMaxLifetime(5 * time.Minute)

	logger.Info("Database connected successfully.")
	return db, nil
}

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded SQL schema and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup(opts)
			if err != nil {
				return err
			}
			defer logger.Sync()

			db, err := connectDB(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer db.Close()

			return repository.Migrate(cmd.Context(), db, logger)
		},
	}
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	var skipMigrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup(opts)
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg, logger, !skipMigrate)
		},
	}
	cmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "do not apply the schema on startup")

	return cmd
}

func serve(ctx context.Context, cfg *config.Config, logger *zap.Logger, migrate bool) error {
	a, err := newApp(ctx, cfg, logger, migrate)
	if err != nil {
		return err
	}
	defer a.Close()

	workerCtx, cancelWorker := context.WithCancel(context.Background())
	a.worker.Start(workerCtx)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      a.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("2moro engine running", zap.String("addr", "http://localhost:"+cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		cancelWorker()
		<-a.worker.Done()
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Stop signal received. Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	shutdownErr := srv.Shutdown(shutdownCtx)

	cancelWorker()
	<-a.worker.Done()

	if shutdownErr != nil {
		return fmt.Errorf("forced shutdown: %w", shutdownErr)
	}

	logger.Info("Server stopped gracefully.")
	return nil
}
