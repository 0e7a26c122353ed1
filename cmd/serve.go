package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/theopenlane/mcpscout/internal/api"
)

// serveCmd is the cobra command that starts the mcpscout API server
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "start the mcpscout api server",
	Run: func(cmd *cobra.Command, _ []string) {
		err := serve(cmd.Context())
		cobra.CheckErr(err)
	},
}

// init registers the serve command on the root command
func init() {
	rootCmd.AddCommand(serveCmd)
}

// serve initializes dependencies and starts the mcpscout API server
func serve(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	classifier, err := setupClassifier(cfg)
	if err != nil {
		return fmt.Errorf("setting up classifier: %w", err)
	}

	s, cleanup, err := setupScanner(cfg, classifier)
	if err != nil {
		return err
	}
	defer cleanup()

	prober := setupProber(cfg, classifier)

	handler := api.NewRouter(s, prober, cfg.Server.MaxBodySize, cfg.Server.RequestTimeout)

	srv := &http.Server{
		Addr:         cfg.Server.Listen,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.ShutdownGracePeriod)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("server shutdown error")
		}
	}()

	log.Info().Str("listen", cfg.Server.Listen).Msg("starting mcpscout service")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen: %w", err)
	}

	return nil
}
