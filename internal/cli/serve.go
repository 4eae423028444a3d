package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"medifinder/m/internal/api"
	"medifinder/m/internal/catalog"
	"medifinder/m/internal/config"
	"medifinder/m/internal/dashboard"
	"medifinder/m/internal/identity"
	"medifinder/m/internal/ordering"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openStore(cmd.Context(), *cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			tokens := identity.NewTokens(cfg.Secret, cfg.TokenTTL)
			handler := api.New(api.Services{
				Catalog:   catalog.NewService(db),
				Identity:  identity.NewService(db, tokens),
				Tokens:    tokens,
				Dashboard: dashboard.NewService(db, dashboard.Options{StockValidation: cfg.StockValidation}),
				Ordering:  ordering.NewService(db),
			}, cfg.CORSOrigins)

			srv := &http.Server{
				Addr:         ":" + cfg.HTTPPort,
				Handler:      handler.Router(),
				ReadTimeout:  5 * time.Second,
				WriteTimeout: 10 * time.Second,
				IdleTimeout:  120 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				log.Info().Str("port", cfg.HTTPPort).Str("stockValidation", string(cfg.StockValidation)).Msg("MediFinder API listening")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(sig)

			select {
			case err, ok := <-errCh:
				if ok {
					return errors.Wrap(err, "http server")
				}
				return nil
			case s := <-sig:
				log.Info().Str("signal", s.String()).Msg("shutting down")
			}

			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				return errors.Wrap(err, "graceful shutdown")
			}
			log.Info().Msg("server stopped")
			return nil
		},
	}
}
