package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/hhcli/internal/observability"
	"github.com/jonathan/hhcli/internal/settings"
)

var (
	settingsResume      string
	settingsMessage     string
	settingsMessageFile string
	settingsJSON        bool
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change the saved resume and cover letter",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the saved defaults",
	Args:  cobra.NoArgs,
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change the saved defaults",
	Long: `Change the resume and cover letter used when a command does not pass
them explicitly. Only the flags you pass are changed; --message "" clears the
saved letter.`,
	Args: cobra.NoArgs,
	RunE: runSettingsSet,
}

func init() {
	settingsShowCmd.Flags().BoolVar(&settingsJSON, "json", false, "Print JSON")

	settingsSetCmd.Flags().StringVar(&settingsResume, "resume", "", "Resume id")
	settingsSetCmd.Flags().StringVarP(&settingsMessage, "message", "m", "", "Cover letter")
	settingsSetCmd.Flags().StringVar(&settingsMessageFile, "message-file", "", "Read the cover letter from a file")

	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	store, database, err := a.stores(cmd.Context())
	if err != nil {
		return err
	}
	if database != nil {
		defer database.Close()
	}
	st, err := store.Load(cmd.Context())
	if err != nil {
		return err
	}
	if settingsJSON {
		return writeJSON(cmd.OutOrStdout(), st)
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintSettings(st)
	return nil
}

func runSettingsSet(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	if !flags.Changed("resume") && !flags.Changed("message") && !flags.Changed("message-file") {
		return fmt.Errorf("nothing to change: pass --resume, --message or --message-file")
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	ctx := cmd.Context()
	store, database, err := a.stores(ctx)
	if err != nil {
		return err
	}
	if database != nil {
		defer database.Close()
	}
	current, err := store.Load(ctx)
	if err != nil {
		return err
	}

	next := settings.Settings{ResumeID: current.ResumeID}
	if flags.Changed("resume") {
		next.ResumeID = strings.TrimSpace(settingsResume)
	}
	if next.Message, err = resolveMessage(cmd, settingsMessage, settingsMessageFile, current); err != nil {
		return err
	}
	if err := store.Save(ctx, next); err != nil {
		return err
	}

	saved, err := store.Load(ctx)
	if err != nil {
		return err
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintSettings(saved)
	return nil
}
