// Package cli holds the medifinder command tree.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"medifinder/m/internal/config"
	"medifinder/m/internal/database"
	"medifinder/m/internal/logging"
	"medifinder/m/internal/migrations"
)

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// NewRootCommand builds the command tree. Each subcommand reads its
// configuration through the persistent pre-run.
func NewRootCommand() *cobra.Command {
	var (
		cfg config.Config
		dsn string
	)

	root := &cobra.Command{
		Use:           "medifinder",
		Short:         "Pharmacy and medicine finder for Kigali",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cfg = config.Load()
			if dsn != "" {
				cfg.DatabaseDSN = dsn
			}
			logging.Setup(cfg.LogLevel, cfg.LogFormat)
		},
	}
	root.PersistentFlags().StringVar(&dsn, "db", "", "database DSN (overrides DATABASE_DSN)")

	root.AddCommand(
		newServeCommand(&cfg),
		newMigrateCommand(&cfg),
		newSeedCommand(&cfg),
		newLinkUsersCommand(&cfg),
		newCreateStaffCommand(&cfg),
	)
	return root
}

// openStore connects to the configured database and applies the schema.
func openStore(ctx context.Context, cfg config.Config) (*sqlx.DB, error) {
	db, err := database.Connect(cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}
	if err := migrations.Run(ctx, db); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "migrate database")
	}
	log.Debug().Str("dsn", cfg.DatabaseDSN).Msg("store ready")
	return db, nil
}

func newMigrateCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openStore(cmd.Context(), *cfg)
			if err != nil {
				return err
			}
			defer db.Close()
			log.Info().Str("dsn", cfg.DatabaseDSN).Msg("schema up to date")
			return nil
		},
	}
}
