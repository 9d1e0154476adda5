package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/lehmann314159/vocabtyper/internal/api"
	"github.com/lehmann314159/vocabtyper/internal/scheduler"
)

const shutdownTimeout = 5 * time.Second

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		reporter := scheduler.New(a.study, a.logger, a.cfg.Scheduler.StatsInterval)
		if err := reporter.Start(); err != nil {
			return err
		}
		defer reporter.Stop()

		handler := api.NewHandler(a.study, a.words, a.logger)
		srv := &http.Server{
			Addr:              a.cfg.Addr(),
			Handler:           api.NewRouter(handler, a.logger, a.cfg.CORS.AllowedOrigins),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			a.logger.WithField("addr", srv.Addr).Info("starting server")
			errCh <- srv.ListenAndServe()
		}()

		// Graceful shutdown
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		select {
		case sig := <-sigCh:
			a.logger.Infof("received signal: %s, shutting down", sig)
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(ctx)
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
