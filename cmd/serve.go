package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/medrem/internal/config"
	"github.com/Tiliavir/medrem/internal/server"
	"github.com/Tiliavir/medrem/internal/store"
)

var (
	serveAddr      string
	serveStore     string
	serveStorePath string
	serveAccessLog bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the record API server",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides config)")
	serveCmd.Flags().StringVar(&serveStore, "store", "", "Store driver: json or sqlite (overrides config)")
	serveCmd.Flags().StringVar(&serveStorePath, "store-path", "", "Data file path (overrides config)")
	serveCmd.Flags().BoolVar(&serveAccessLog, "access-log", true, "Log every request")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}
	if serveStore != "" {
		cfg.Server.StoreDriver = serveStore
	}
	if serveStorePath != "" {
		cfg.Server.StorePath = serveStorePath
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	path, err := storePath(cfg.Server)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	st, err := store.Open(cfg.Server.StoreDriver, path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           server.NewRouter(server.Options{Store: st, Logger: logger, AccessLog: serveAccessLog}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("listening", "addr", cfg.Server.Addr, "store", cfg.Server.StoreDriver, "path", path)
	if err := serveUntil(ctx, srv, st, logger); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(2)
	}
	return nil
}

// serveUntil runs srv until ctx is done or listening fails. The store is
// closed on every return path.
func serveUntil(ctx context.Context, srv *http.Server, st store.Store, logger *slog.Logger) error {
	defer func() {
		if err := st.Close(); err != nil {
			logger.Error("closing store", "err", err)
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", "err", err)
		}
		return nil
	}
}

// storePath returns the configured data file, or medicine_data.json /
// medicine_data.db in ~/.medrem.
func storePath(sc config.ServerConfig) (string, error) {
	if sc.StorePath != "" {
		return sc.StorePath, nil
	}
	dir, err := config.Dir()
	if err != nil {
		return "", err
	}
	name := "medicine_data.json"
	if sc.StoreDriver == "sqlite" {
		name = "medicine_data.db"
	}
	return filepath.Join(dir, name), nil
}
