package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"companion-connect/internal/platform/config"
	"companion-connect/internal/platform/logger"
	"companion-connect/internal/router"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// @title Companion Connect API
// @version 1.0
// @description Registro de ingresos de animales del refugio: alta, edición, baja y búsqueda.
// @BasePath /

func main() {
	if err := rootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCommand() *cobra.Command {
	v := viper.New()
	config.SetDefaults(v)

	cmd := &cobra.Command{
		Use:          "companion-connect",
		Short:        "Animal intake records API",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.BindEnv(v); err != nil {
				return err
			}
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}

	f := cmd.Flags()
	f.String("port", "8080", "HTTP listen port")
	f.String("store-driver", "", "record store: dynamodb, postgres or memory")
	f.String("table", "animals", "DynamoDB table name")
	f.String("dsn", "", "Postgres DSN")
	f.Duration("store-timeout", 10*time.Second, "timeout per store operation")
	f.String("log-level", "info", "log level")
	f.String("log-format", "json", "log format: json or text")

	_ = v.BindPFlag("port", f.Lookup("port"))
	_ = v.BindPFlag("store.driver", f.Lookup("store-driver"))
	_ = v.BindPFlag("dynamodb.table", f.Lookup("table"))
	_ = v.BindPFlag("postgres.dsn", f.Lookup("dsn"))
	_ = v.BindPFlag("store.timeout", f.Lookup("store-timeout"))
	_ = v.BindPFlag("log.level", f.Lookup("log-level"))
	_ = v.BindPFlag("log.format", f.Lookup("log-format"))

	return cmd
}

func serve(parent context.Context, cfg config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logger.New(cfg.LoggerOptions())

	store, err := router.OpenStore(ctx, cfg)
	if err != nil {
		log.Error("open store failed", map[string]any{"driver": cfg.StoreDriver, "error": err})
		return err
	}
	defer func() { _ = store.Close() }()

	h := router.NewRouter(router.Options{
		Logger:       log,
		Repo:         store.Repo,
		Backend:      store.Backend,
		StoreTimeout: cfg.StoreTimeout,
		SessionTTL:   cfg.SessionTTL,
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      h,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", map[string]any{"addr": cfg.Addr(), "store": store.Backend})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error("server error", map[string]any{"error": err})
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Info("shutting down", nil)
	return srv.Shutdown(shutdownCtx)
}
