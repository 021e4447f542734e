// Package cli wires the giftledger commands.
package cli

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dukerupert/giftledger/internal/config"
	"github.com/dukerupert/giftledger/internal/database"
	"github.com/dukerupert/giftledger/internal/kv"
	"github.com/dukerupert/giftledger/internal/logging"
)

type rootOptions struct {
	dbPath   string
	logLevel string
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "giftledger",
		Short: "giftledger – record the gift money received at a banquet",
		Long: `giftledger keeps a ledger of the gifts received at an event, shows the
latest entries on a guest-facing screen, and imports or exports backups.
Data lives in a single SQLite file.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.dbPath, "db", "", "SQLite database file (overrides GIFTLEDGER_DB_PATH)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "debug, info, warn or error (overrides GIFTLEDGER_LOG_LEVEL)")

	root.AddCommand(
		newServeCmd(opts),
		newImportCmd(opts),
		newExportCmd(opts),
		newStatsCmd(opts),
		newGuestCmd(opts),
	)
	return root
}

// Execute is the entry point called from main.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// env holds what every command needs: resolved configuration, a logger
// and the open store.
type env struct {
	cfg    config.Config
	logger *slog.Logger
	db     *sql.DB
	store  kv.Store
}

func (e *env) Close() error {
	return e.db.Close()
}

func (o *rootOptions) load() (config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, err
	}
	if o.dbPath != "" {
		cfg.DBPath = o.dbPath
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	return cfg, logging.Setup(cfg.LogLevel), nil
}

func (o *rootOptions) open() (*env, error) {
	cfg, logger, err := o.load()
	if err != nil {
		return nil, err
	}
	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return &env{cfg: cfg, logger: logger, db: db, store: kv.NewSQLite(db)}, nil
}
