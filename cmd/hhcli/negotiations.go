package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/hhcli/internal/db"
	"github.com/jonathan/hhcli/internal/observability"
)

var (
	negotiationsPage    int
	negotiationsPerPage int
	negotiationsJSON    bool

	historyVacancy string
	historyBatch   string
	historyStatus  string
	historyLimit   int
	historyOffset  int
	historyJSON    bool
)

var negotiationsCmd = &cobra.Command{
	Use:   "negotiations",
	Short: "List your responses as hh.ru sees them",
	Args:  cobra.NoArgs,
	RunE:  runNegotiations,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List responses recorded by hhcli",
	Long:  "List responses recorded in the database. Requires DATABASE_URL.",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	negotiationsCmd.Flags().IntVar(&negotiationsPage, "page", 0, "Page number (0-based)")
	negotiationsCmd.Flags().IntVar(&negotiationsPerPage, "per-page", 20, "Page size (max 100)")
	negotiationsCmd.Flags().BoolVar(&negotiationsJSON, "json", false, "Print JSON")

	historyCmd.Flags().StringVar(&historyVacancy, "vacancy", "", "Only this vacancy")
	historyCmd.Flags().StringVar(&historyBatch, "batch", "", "Only this batch id")
	historyCmd.Flags().StringVar(&historyStatus, "status", "", "Only this status")
	historyCmd.Flags().IntVar(&historyLimit, "limit", db.DefaultListLimit, "Maximum rows")
	historyCmd.Flags().IntVar(&historyOffset, "offset", 0, "Rows to skip")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "Print JSON")

	rootCmd.AddCommand(negotiationsCmd)
	rootCmd.AddCommand(historyCmd)
}

func runNegotiations(cmd *cobra.Command, _ []string) error {
	if negotiationsPerPage < 1 || negotiationsPerPage > 100 {
		return fmt.Errorf("--per-page must be between 1 and 100")
	}
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()
	if err := a.requireToken(); err != nil {
		return err
	}

	page, err := a.client.ListNegotiations(cmd.Context(), negotiationsPage, negotiationsPerPage)
	if err != nil {
		return err
	}
	if negotiationsJSON {
		return writeJSON(cmd.OutOrStdout(), page)
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintNegotiations(page)
	return nil
}

func runHistory(cmd *cobra.Command, _ []string) error {
	if historyLimit < 0 || historyOffset < 0 {
		return fmt.Errorf("--limit and --offset must not be negative")
	}
	filter := db.ResponseFilter{
		VacancyID: historyVacancy,
		Status:    historyStatus,
		Limit:     historyLimit,
		Offset:    historyOffset,
	}
	if historyBatch != "" {
		id, err := uuid.Parse(historyBatch)
		if err != nil {
			return fmt.Errorf("--batch must be a UUID: %w", err)
		}
		filter.BatchID = &id
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()
	if a.cfg.DatabaseURL == "" {
		return fmt.Errorf("history requires DATABASE_URL")
	}

	_, database, err := a.stores(cmd.Context())
	if err != nil {
		return err
	}
	defer database.Close()

	rows, err := database.ListResponses(cmd.Context(), filter)
	if err != nil {
		return err
	}
	if historyJSON {
		return writeJSON(cmd.OutOrStdout(), rows)
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintHistory(rows)
	return nil
}
