// Command maintenance runs one notification maintenance operation and exits.
//
//	maintenance delete-open
//	maintenance reset-today
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"groona_alerts/internal/app"
	"groona_alerts/internal/infra/config"
	idb "groona_alerts/internal/infra/database"
	"groona_alerts/internal/infra/logger"
)

type maintainer interface {
	DeleteOpen(ctx context.Context) (int64, error)
	ResetToday(ctx context.Context) (int64, error)
}

func main() {
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() != 1 {
		usage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("Could not load application configuration: %v", err)
	}
	logger.Init(cfg)
	log := logger.Component("maintenance")

	if cfg.Store.Driver != "postgres" {
		log.Fatalf("Maintenance needs the postgres store, got STORE_DRIVER=%s", cfg.Store.Driver)
	}

	ctx := context.Background()
	db, err := idb.NewPostgresConnection(ctx, cfg.Store.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("Could not connect to database")
	}
	defer db.Close()

	svc := app.NewMaintenanceService(idb.NewPostgresNotificationRepository(db), log)
	if err := run(ctx, flag.Arg(0), svc, os.Stdout); err != nil {
		log.WithError(err).Error("Maintenance failed")
		db.Close()
		os.Exit(1)
	}
}

func run(ctx context.Context, op string, svc maintainer, out io.Writer) error {
	var (
		deleted int64
		err     error
	)
	switch op {
	case "delete-open":
		deleted, err = svc.DeleteOpen(ctx)
	case "reset-today":
		deleted, err = svc.ResetToday(ctx)
	default:
		return fmt.Errorf("unknown operation %q", op)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s: deleted %d notifications\n", op, deleted)
	return nil
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: maintenance delete-open|reset-today")
}
