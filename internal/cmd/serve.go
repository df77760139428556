package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/praetor-ai/praetor/internal/engine"
	"github.com/praetor-ai/praetor/internal/httpapi"
	"github.com/praetor-ai/praetor/internal/logging"
	"github.com/praetor-ai/praetor/internal/persist"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the deliberation engine behind the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := logging.NewLogger(cfg.Logging.Dir, cfg.Logging.Level)
		if err != nil {
			return fmt.Errorf("initialize logging: %w", err)
		}
		defer log.Close()

		store, closeStore, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		if closeStore != nil {
			defer closeStore()
		}
		writer := persist.NewWriter(store, log)

		defaults, err := engine.DefaultsFrom(cfg.Debate)
		if err != nil {
			return err
		}
		eng := engine.New(defaults,
			engine.WithLogger(log),
			engine.WithWriter(writer),
		)
		defer eng.Close()

		srv := &http.Server{
			Addr:    cfg.Server.ListenAddr,
			Handler: httpapi.NewServer(eng, log).Router(),
		}

		errCh := make(chan error, 1)
		go func() {
			log.Info("http server listening", "addr", cfg.Server.ListenAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-errCh:
			return fmt.Errorf("http server: %w", err)
		case sig := <-stop:
			log.Info("shutting down", "signal", sig.String())
		}

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Warn("shutdown incomplete", "error", err)
		}
		writer.Flush()
		return nil
	},
}

// openStore builds the configured persistence store. The returned close
// function may be nil.
func openStore(ctx context.Context) (persist.Store, func(), error) {
	switch cfg.Persistence.Driver {
	case "none", "":
		return nil, nil, nil
	case "file":
		store, err := persist.NewFileStore(cfg.Persistence.Dir)
		if err != nil {
			return nil, nil, err
		}
		return store, nil, nil
	case "postgres":
		store, err := persist.NewPostgresStore(ctx, cfg.Persistence.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown persistence driver %q", cfg.Persistence.Driver)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
