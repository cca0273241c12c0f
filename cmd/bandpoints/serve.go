package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/bandpoints/internal/auth"
	"github.com/mmynk/bandpoints/internal/config"
	"github.com/mmynk/bandpoints/internal/metrics"
	"github.com/mmynk/bandpoints/internal/middleware"
	"github.com/mmynk/bandpoints/internal/realtime"
	"github.com/mmynk/bandpoints/internal/service"
	"github.com/mmynk/bandpoints/internal/storage/sqlite"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the bandpoints server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Addr = addr
		}
		if dbPath, _ := cmd.Flags().GetString("db"); dbPath != "" {
			cfg.DBPath = dbPath
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (overrides ADDR)")
	serveCmd.Flags().String("db", "", "SQLite database path (overrides DB_PATH)")
	rootCmd.AddCommand(serveCmd)
}

// newBroker picks Redis pub/sub when configured, otherwise in-process fan-out.
func newBroker(cfg *config.Config) (realtime.Broker, error) {
	if cfg.RedisAddr == "" {
		slog.Info("Using in-process change broker")
		return realtime.NewMemoryBroker(), nil
	}
	broker, err := realtime.NewRedisBroker(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, "")
	if err != nil {
		return nil, err
	}
	slog.Info("Using Redis change broker", "addr", cfg.RedisAddr)
	return broker, nil
}

// closeOnce returns a func that closes b on its first call and logs any error.
func closeOnce(b realtime.Broker) func() {
	return sync.OnceFunc(func() {
		if err := b.Close(); err != nil {
			slog.Warn("Failed to close broker", "error", err)
		}
	})
}

func serve(ctx context.Context, cfg *config.Config) error {
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.DBPath)

	broker, err := newBroker(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize broker: %w", err)
	}
	closeBroker := closeOnce(broker)
	defer closeBroker()

	m := metrics.New()
	mux := http.NewServeMux()
	service.Mount(mux, service.Deps{
		Store:         store,
		Authenticator: auth.NewPasswordAuthenticator(store),
		JWT:           auth.NewJWTManager(cfg.JWTSecret, cfg.TokenDuration),
		Broker:        broker,
		Metrics:       m,
		Logger:        slog.Default(),
	})
	mux.Handle("GET /metrics", m.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Add logging and CORS middleware
	handler := middleware.HTTPLogging(middleware.CORS(mux))

	// Wrap with h2c for HTTP/2 without TLS (required for Connect streaming over cleartext)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           h2c.NewHandler(handler, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Connect server starting", "address", cfg.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Shutting down", "timeout", cfg.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	// Close the broker first so open watch streams end instead of holding Shutdown.
	closeBroker()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}
