package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	commissionapp "github.com/ticketbook/backend/internal/application/commission"
	"github.com/ticketbook/backend/internal/infrastructure/config"
	"github.com/ticketbook/backend/internal/infrastructure/logger"
	"github.com/ticketbook/backend/internal/infrastructure/persistence"
	"go.uber.org/zap"
)

// services are the commission services a command works with
type services struct {
	recalc      *commissionapp.RecalculationService
	query       *commissionapp.QueryService
	diagnostics *commissionapp.DiagnosticsService
	close       func()
}

type contextKey struct{}

var (
	cfgFile  string
	logLevel string
)

// NewRootCommand builds the command tree
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "commissionctl",
		Short:         "Recompute and inspect ticket book commission",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := bootstrap(cfgFile, logLevel)
			if err != nil {
				return err
			}
			cmd.SetContext(context.WithValue(cmd.Context(), contextKey{}, svc))
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if svc, ok := cmd.Context().Value(contextKey{}).(*services); ok {
				svc.close()
			}
		},
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path (default: search ., ./config, /app)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(
		newRecalculateCommand(),
		newRecordsCommand(),
		newTotalCommand(),
		newSummaryCommand(),
		newDiagnoseCommand(),
		newSweepCommand(),
	)
	return root
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	root := NewRootCommand()
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// bootstrap opens the database and wires the commission services
func bootstrap(path, level string) (*services, error) {
	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.New(&logger.Config{
		Level:      level,
		Format:     "console",
		Output:     "stderr",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	db, err := persistence.Open(&cfg.Database,
		logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Database.LogLevel)))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	bookRepo := persistence.NewGormBookRepository(db.DB)
	distributionRepo := persistence.NewGormDistributionRepository(db.DB)
	paymentRepo := persistence.NewGormPaymentRepository(db.DB)
	settingsRepo := persistence.NewGormSettingsRepository(db.DB)
	recordRepo := persistence.NewGormCommissionRecordRepository(db.DB)

	resolver := commissionapp.NewSettingsResolver(settingsRepo, log)
	recalc := commissionapp.NewRecalculationService(
		persistence.NewGormTransactionScope(db.DB),
		bookRepo,
		distributionRepo,
		resolver,
		commissionapp.NewCommissionLedger(log),
		commissionapp.RecalculationConfig{
			Workers:      cfg.Commission.Workers,
			MaxRetries:   cfg.Commission.MaxRetries,
			RetryBackoff: cfg.Commission.RetryBackoff,
			BookTimeout:  cfg.Commission.BookTimeout,
		},
		log,
	)

	return &services{
		recalc:      recalc,
		query:       commissionapp.NewQueryService(recordRepo, settingsRepo, log),
		diagnostics: commissionapp.NewDiagnosticsService(bookRepo, distributionRepo, paymentRepo, recordRepo, resolver, log),
		close: func() {
			if err := db.Close(); err != nil {
				log.Warn("Error closing database", zap.Error(err))
			}
			_ = logger.Sync(log)
		},
	}, nil
}

// servicesFrom returns the services bootstrapped for cmd
func servicesFrom(cmd *cobra.Command) *services {
	return cmd.Context().Value(contextKey{}).(*services)
}

// uuidArg validates that the single positional argument is a UUID
func uuidArg(name string) cobra.PositionalArgs {
	return func(_ *cobra.Command, args []string) error {
		if len(args) != 1 {
			return fmt.Errorf("expected exactly one %s argument, got %d", name, len(args))
		}
		if _, err := uuid.Parse(args[0]); err != nil {
			return fmt.Errorf("invalid %s %q: %w", name, args[0], err)
		}
		return nil
	}
}

// writeJSON prints v as indented JSON
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
