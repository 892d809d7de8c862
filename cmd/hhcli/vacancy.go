package main

import (
	"github.com/spf13/cobra"

	"github.com/jonathan/hhcli/internal/observability"
)

var vacancyJSON bool

var vacancyCmd = &cobra.Command{
	Use:   "vacancy ID",
	Short: "Show one vacancy",
	Args:  cobra.ExactArgs(1),
	RunE:  runVacancy,
}

func init() {
	vacancyCmd.Flags().BoolVar(&vacancyJSON, "json", false, "Print the raw vacancy as JSON")
	rootCmd.AddCommand(vacancyCmd)
}

func runVacancy(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	v, err := a.client.GetVacancy(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if vacancyJSON {
		return writeJSON(cmd.OutOrStdout(), v)
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintVacancy(v)
	return nil
}
