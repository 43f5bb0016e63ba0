// Command isowctl administers an ISOW deployment: password accounts and
// seed import/export of the directory records.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/isow/backend/internal/domain/account"
	"github.com/isow/backend/internal/domain/record"
	"github.com/isow/backend/internal/infrastructure/config"
	"github.com/isow/backend/internal/infrastructure/logger"
	"github.com/isow/backend/internal/infrastructure/persistence"
	"github.com/isow/backend/internal/infrastructure/recordstore"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// backend hands commands the stores they work on
type backend interface {
	Accounts(ctx context.Context) (account.Repository, error)
	Records(ctx context.Context) (record.Store, error)
	Close() error
}

// configBackend opens stores from the server configuration on first use
type configBackend struct {
	cfg *config.Config
	log *zap.Logger
	db  *persistence.Database
}

func (b *configBackend) database() (*persistence.Database, error) {
	if b.db != nil {
		return b.db, nil
	}
	db, err := persistence.NewDatabase(&b.cfg.Database,
		persistence.WithLogger(logger.NewGormLogger(b.log, logger.MapGormLogLevel(b.cfg.Log.Level), 0)))
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	b.db = db
	return db, nil
}

func (b *configBackend) Accounts(context.Context) (account.Repository, error) {
	db, err := b.database()
	if err != nil {
		return nil, err
	}
	return persistence.NewGormAccountRepository(db.DB), nil
}

func (b *configBackend) Records(ctx context.Context) (record.Store, error) {
	deps := recordstore.Deps{Logger: b.log}
	if b.cfg.Records.Backend == recordstore.BackendGorm {
		db, err := b.database()
		if err != nil {
			return nil, err
		}
		deps.DB = db.DB
	}
	return recordstore.Open(ctx, b.cfg, deps)
}

func (b *configBackend) Close() error {
	if b.db == nil {
		return nil
	}
	return b.db.Close()
}

func newRootCmd(open func(logLevel string) (backend, error), out io.Writer) *cobra.Command {
	var logLevel string
	var be backend

	root := &cobra.Command{
		Use:           "isowctl",
		Short:         "Administer ISOW accounts and directory records",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			b, err := open(logLevel)
			if err != nil {
				return err
			}
			be = b
			return nil
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if be == nil {
				return nil
			}
			return be.Close()
		},
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	current := func() backend { return be }
	root.AddCommand(newAccountsCmd(current), newRecordsCmd(current))
	return root
}

func openConfigBackend(logLevel string) (backend, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log, err := logger.New(&logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stderr",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		return nil, err
	}
	return &configBackend{cfg: cfg, log: log}, nil
}

func main() {
	if err := newRootCmd(openConfigBackend, os.Stdout).Execute(); err != nil {
		var exit exitError
		if errors.As(err, &exit) {
			fmt.Fprintln(os.Stderr, exit.Error())
			os.Exit(exit.code)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// exitError carries a specific process exit code
type exitError struct {
	code int
	err  error
}

func (e exitError) Error() string { return e.err.Error() }

func (e exitError) Unwrap() error { return e.err }
