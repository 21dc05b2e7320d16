package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	commissionapp "github.com/ticketbook/backend/internal/application/commission"
)

func newRecalculateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recalculate",
		Short: "Recompute commission for an event or a single book",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "event <event_id>",
		Short: "Recompute every book of an event",
		Args:  uuidArg("event_id"),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := servicesFrom(cmd).recalc.RecalculateEvent(cmd.Context(), uuid.MustParse(args[0]))
			if err != nil {
				return err
			}
			if err := writeJSON(cmd.OutOrStdout(), report); err != nil {
				return err
			}
			if report.BooksFailed > 0 {
				return fmt.Errorf("%d of %d books failed", report.BooksFailed, report.BooksProcessed)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "book <book_id>",
		Short: "Recompute a single book",
		Args:  uuidArg("book_id"),
		RunE: func(cmd *cobra.Command, args []string) error {
			outcome, err := servicesFrom(cmd).recalc.RecalculateBook(cmd.Context(), uuid.MustParse(args[0]))
			if outcome != nil {
				if writeErr := writeJSON(cmd.OutOrStdout(), outcome); writeErr != nil {
					return writeErr
				}
			}
			return err
		},
	})

	return cmd
}

func newRecordsCommand() *cobra.Command {
	var filter commissionapp.ListRecordsFilter

	cmd := &cobra.Command{
		Use:   "records <event_id>",
		Short: "List the commission records of an event",
		Args:  uuidArg("event_id"),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := servicesFrom(cmd).query.ListCommissionRecords(cmd.Context(), uuid.MustParse(args[0]), filter)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), records)
		},
	}
	cmd.Flags().StringVar(&filter.CommissionType, "type", "", "only records of this type (early, standard, extra_books)")
	cmd.Flags().StringVar(&filter.Level1Value, "level-1-value", "", "only records of this level 1 value")
	return cmd
}

func newTotalCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "total <event_id>",
		Short: "Print the total commission of an event",
		Args:  uuidArg("event_id"),
		RunE: func(cmd *cobra.Command, args []string) error {
			total, err := servicesFrom(cmd).query.SumCommission(cmd.Context(), uuid.MustParse(args[0]))
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), total)
		},
	}
}

func newSummaryCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "summary <event_id>",
		Short: "Summarize an event's commission by level 1 value",
		Args:  uuidArg("event_id"),
		RunE: func(cmd *cobra.Command, args []string) error {
			summary, err := servicesFrom(cmd).query.SummarizeByLevel1(cmd.Context(), uuid.MustParse(args[0]))
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), summary)
		},
	}
}

func newDiagnoseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "diagnose <event_id>",
		Short: "Compare expected and persisted commission per book without writing",
		Args:  uuidArg("event_id"),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := servicesFrom(cmd).diagnostics.Diagnose(cmd.Context(), uuid.MustParse(args[0]))
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), report)
		},
	}
}

func newSweepCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Recompute every event that has commission settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc := servicesFrom(cmd)
			eventIDs, err := svc.query.RecalculableEventIDs(cmd.Context())
			if err != nil {
				return err
			}

			failed := 0
			reports := make([]*commissionapp.RecalculationReport, 0, len(eventIDs))
			for _, eventID := range eventIDs {
				report, err := svc.recalc.SweepEvent(cmd.Context(), eventID)
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "event %s: %v\n", eventID, err)
					failed++
					continue
				}
				failed += report.BooksFailed
				reports = append(reports, report)
			}
			if err := writeJSON(cmd.OutOrStdout(), reports); err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("sweep finished with %d failures", failed)
			}
			return nil
		},
	}
}
