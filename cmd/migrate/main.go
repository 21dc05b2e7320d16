// Command migrate manages the commission database schema.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"

	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	"github.com/ticketbook/backend/internal/infrastructure/config"
	"github.com/ticketbook/backend/internal/infrastructure/logger"
	"github.com/ticketbook/backend/internal/infrastructure/migration"
	"go.uber.org/zap"
)

// sourceDir is where create and list look when --path is not given
const sourceDir = "migrations"

type options struct {
	path     string
	config   string
	logLevel string
}

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Apply and author commission schema migrations",
		Long:          "Applies the migrations embedded in the binary, or those under --path.\nDatabase settings come from config.toml and COMMISSION_DATABASE_* variables.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.path, "path", "", "migrations directory (default: embedded migrations)")
	root.PersistentFlags().StringVar(&opts.config, "config", "", "config file path (default: search ., ./config, /app)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	var confirmDown bool
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back every migration, dropping the commission ledger",
		Args:  cobra.NoArgs,
		RunE: opts.withMigrator(func(m *migration.Migrator, _ []string) error {
			if !confirmDown {
				return errors.New("down removes all commission data; rerun with --yes")
			}
			return m.Down()
		}),
	}
	down.Flags().BoolVar(&confirmDown, "yes", false, "confirm rolling back every migration")

	root.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: opts.withMigrator(func(m *migration.Migrator, _ []string) error {
				return m.Up()
			}),
		},
		down,
		&cobra.Command{
			Use:   "step <n>",
			Short: "Apply n migrations, or roll back -n",
			Args:  cobra.ExactArgs(1),
			RunE: opts.withMigrator(func(m *migration.Migrator, args []string) error {
				n, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid step count %q", args[0])
				}
				return m.Steps(n)
			}),
		},
		&cobra.Command{
			Use:   "goto <version>",
			Short: "Migrate up or down to a version",
			Args:  cobra.ExactArgs(1),
			RunE: opts.withMigrator(func(m *migration.Migrator, args []string) error {
				version, err := strconv.ParseUint(args[0], 10, 32)
				if err != nil {
					return fmt.Errorf("invalid version %q", args[0])
				}
				return m.GoTo(uint(version))
			}),
		},
		&cobra.Command{
			Use:   "force <version>",
			Short: "Mark a version as applied without running it, to clear a dirty state",
			Args:  cobra.ExactArgs(1),
			RunE: opts.withMigrator(func(m *migration.Migrator, args []string) error {
				version, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid version %q", args[0])
				}
				return m.Force(version)
			}),
		},
		newStatusCommand(opts),
		newCreateCommand(opts),
		newListCommand(opts),
	)
	return root
}

func newStatusCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the applied migration version",
		Args:  cobra.NoArgs,
		RunE: opts.withMigrator(func(m *migration.Migrator, _ []string) error {
			status, err := m.Status()
			if err != nil {
				return err
			}
			if status.Version == 0 {
				fmt.Println("no migrations applied")
				return nil
			}
			fmt.Printf("version %d", status.Version)
			if status.Dirty {
				fmt.Print(" (dirty: fix the schema, then force the version)")
			}
			fmt.Println()
			return nil
		}),
	}
}

func newCreateCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "create <name> [description]",
		Short:   "Create an up/down migration pair",
		Example: `  migrate create add_refunds "Track refunded payments"`,
		Args:    cobra.RangeArgs(1, 2),
		RunE: func(_ *cobra.Command, args []string) error {
			description := ""
			if len(args) == 2 {
				description = args[1]
			}
			mf, err := migration.CreateMigration(opts.sourceDir(), args[0], description)
			if err != nil {
				return err
			}
			fmt.Println(mf.UpPath)
			fmt.Println(mf.DownPath)
			return nil
		},
	}
}

func newListCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List migration files on disk",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			files, err := migration.ListMigrations(opts.sourceDir())
			if err != nil {
				return err
			}
			for _, f := range files {
				fmt.Println(f)
			}
			return nil
		},
	}
}

// withMigrator opens the configured database and a migrator over it for the
// duration of fn. Closing the migrator closes the connection.
func (o *options) withMigrator(fn func(m *migration.Migrator, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		log, err := logger.New(&logger.Config{
			Level:      o.logLevel,
			Format:     "console",
			Output:     "stderr",
			TimeFormat: "2006-01-02 15:04:05",
		})
		if err != nil {
			return err
		}
		defer func() {
			_ = logger.Sync(log)
		}()

		cfg, err := config.LoadFile(o.config)
		if err != nil {
			return err
		}
		db, err := sql.Open("postgres", cfg.Database.DSN())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		if err := db.PingContext(cmd.Context()); err != nil {
			_ = db.Close()
			return fmt.Errorf("failed to reach database: %w", err)
		}

		m, err := migration.New(db, o.path, log)
		if err != nil {
			_ = db.Close()
			return err
		}
		defer func() {
			_ = m.Close()
		}()

		log.Debug("migrator ready",
			zap.String("command", cmd.Name()),
			zap.String("source", o.sourceLabel()),
		)
		return fn(m, args)
	}
}

func (o *options) sourceDir() string {
	if o.path == "" {
		return sourceDir
	}
	return o.path
}

func (o *options) sourceLabel() string {
	if o.path == "" {
		return "embedded"
	}
	return o.path
}
