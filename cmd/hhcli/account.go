package main

import (
	"github.com/spf13/cobra"

	"github.com/jonathan/hhcli/internal/observability"
)

var accountJSON bool

var meCmd = &cobra.Command{
	Use:   "me",
	Short: "Show the authenticated account",
	Args:  cobra.NoArgs,
	RunE:  runMe,
}

var resumesCmd = &cobra.Command{
	Use:   "resumes",
	Short: "List your resumes",
	Args:  cobra.NoArgs,
	RunE:  runResumes,
}

func init() {
	meCmd.Flags().BoolVar(&accountJSON, "json", false, "Print JSON")
	resumesCmd.Flags().BoolVar(&accountJSON, "json", false, "Print JSON")
	rootCmd.AddCommand(meCmd)
	rootCmd.AddCommand(resumesCmd)
}

func runMe(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()
	if err := a.requireToken(); err != nil {
		return err
	}

	me, err := a.client.Me(cmd.Context())
	if err != nil {
		return err
	}
	if accountJSON {
		return writeJSON(cmd.OutOrStdout(), me)
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintMe(me)
	return nil
}

func runResumes(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()
	if err := a.requireToken(); err != nil {
		return err
	}

	resumes, err := a.client.MyResumes(cmd.Context())
	if err != nil {
		return err
	}
	if accountJSON {
		return writeJSON(cmd.OutOrStdout(), resumes)
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintResumes(resumes)
	return nil
}
