// Command migrate applies, inspects and reverts the SQL schema migrations.
//
//	migrate up              apply pending migrations
//	migrate auto            run GORM AutoMigrate for every model
//	migrate status          print applied and pending migrations
//	migrate down <version>  revert one applied migration
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"respawn/internal/config"
	"respawn/internal/database"
	"respawn/internal/middleware"

	"gorm.io/gorm"
)

var errUsage = errors.New("usage: migrate <up|auto|status|down> [version]")

func main() {
	flag.Parse()
	if err := run(context.Background(), flag.Args(), os.Stdout); err != nil {
		middleware.Logger.Error("migrate failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) < 1 {
		return errUsage
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	middleware.Logger = middleware.NewLogger(os.Stderr, cfg.Env)

	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: false})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	m := database.NewMigrator(db, database.Registered())

	switch strings.ToLower(strings.TrimSpace(args[0])) {
	case "up":
		n, err := m.Up(ctx)
		if err != nil {
			return fmt.Errorf("sql migrations failed after %d applied: %w", n, err)
		}
		fmt.Fprintf(out, "applied %d migration(s)\n", n)
	case "auto":
		cfg.DBSchemaMode = database.SchemaModeAuto
		if err := database.ApplySchema(ctx, db, cfg); err != nil {
			return fmt.Errorf("auto schema apply failed: %w", err)
		}
		fmt.Fprintln(out, "automigrate complete")
	case "status":
		return printStatus(ctx, out, db, cfg, m)
	case "down":
		if len(args) < 2 {
			return errUsage
		}
		version, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid version %q: %w", args[1], err)
		}
		if err := m.Down(ctx, version); err != nil {
			return fmt.Errorf("rollback failed: %w", err)
		}
		fmt.Fprintf(out, "rolled back %06d\n", version)
	default:
		return errUsage
	}
	return nil
}

func printStatus(ctx context.Context, out io.Writer, db *gorm.DB, cfg *config.Config, m *database.Migrator) error {
	status, err := database.GetSchemaStatus(ctx, db, cfg)
	if err != nil {
		return fmt.Errorf("schema status failed: %w", err)
	}
	applied, err := m.Applied(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "env=%s mode=%s run_sql=%t run_auto=%t\n\n",
		status.Environment, status.Mode, status.WillRunSQL, status.WillRunAutoMigrate)

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "VERSION\tNAME\tSTATE\tAPPLIED AT")
	for _, l := range applied {
		fmt.Fprintf(w, "%06d\t%s\tapplied\t%s\n", l.Version, l.Name, l.AppliedAt.Format("2006-01-02 15:04:05"))
	}
	for _, p := range status.PendingMigrations {
		fmt.Fprintf(w, "%06d\t%s\tpending\t-\n", p.Version, p.Name)
	}
	return w.Flush()
}
