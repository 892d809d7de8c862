package main

import (
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/hhcli/internal/hh"
	"github.com/jonathan/hhcli/internal/observability"
	"github.com/jonathan/hhcli/internal/respond"
)

var (
	respondResume      string
	respondMessage     string
	respondMessageFile string
	respondJSON        bool
)

var canRespondCmd = &cobra.Command{
	Use:   "can-respond ID",
	Short: "Check whether a resume may respond to a vacancy",
	Args:  cobra.ExactArgs(1),
	RunE:  runCanRespond,
}

var respondCmd = &cobra.Command{
	Use:   "respond ID",
	Short: "Send one response to a vacancy",
	Long: `Send a single response to a vacancy. The resume and cover letter default
to the saved settings. The response is sent once and never retried.`,
	Args: cobra.ExactArgs(1),
	RunE: runRespond,
}

func init() {
	canRespondCmd.Flags().StringVar(&respondResume, "resume", "", "Resume id (default: saved)")
	canRespondCmd.Flags().BoolVar(&respondJSON, "json", false, "Print JSON")

	respondCmd.Flags().StringVar(&respondResume, "resume", "", "Resume id (default: saved)")
	respondCmd.Flags().StringVarP(&respondMessage, "message", "m", "", "Cover letter (default: saved)")
	respondCmd.Flags().StringVar(&respondMessageFile, "message-file", "", "Read the cover letter from a file")
	respondCmd.Flags().BoolVar(&respondJSON, "json", false, "Print JSON")

	rootCmd.AddCommand(canRespondCmd)
	rootCmd.AddCommand(respondCmd)
}

// canRespondResult is the JSON form of a can-respond verdict.
type canRespondResult struct {
	VacancyID        string `json:"vacancy_id"`
	ResumeID         string `json:"resume_id"`
	Eligible         bool   `json:"eligible"`
	RequiresLetter   bool   `json:"requires_letter"`
	AlreadyResponded bool   `json:"already_responded"`
	Note             string `json:"note,omitempty"`
}

func runCanRespond(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()
	if err := a.requireToken(); err != nil {
		return err
	}

	ctx := cmd.Context()
	store, database, err := a.stores(ctx)
	if err != nil {
		return err
	}
	if database != nil {
		defer database.Close()
	}
	saved, err := store.Load(ctx)
	if err != nil {
		return err
	}
	resumeID, err := resolveResume(respondResume, saved)
	if err != nil {
		return err
	}

	responder := hh.NewResponder(a.client)
	contacted, err := responder.AlreadyContacted(ctx, args[0])
	if err != nil {
		return err
	}
	verdict, err := responder.CheckEligible(ctx, args[0], resumeID)
	if err != nil {
		return err
	}

	if respondJSON {
		return writeJSON(cmd.OutOrStdout(), canRespondResult{
			VacancyID:        args[0],
			ResumeID:         resumeID,
			Eligible:         verdict.Eligible,
			RequiresLetter:   verdict.RequiresLetter,
			AlreadyResponded: contacted,
			Note:             verdict.Note,
		})
	}
	if contacted {
		verdict.Note = joinNote(verdict.Note, "already responded")
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintEligibility(args[0], verdict)
	return nil
}

func joinNote(note, extra string) string {
	if note == "" {
		return extra
	}
	return note + "; " + extra
}

func runRespond(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()
	if err := a.requireToken(); err != nil {
		return err
	}

	ctx := cmd.Context()
	store, database, err := a.stores(ctx)
	if err != nil {
		return err
	}
	if database != nil {
		defer database.Close()
	}
	saved, err := store.Load(ctx)
	if err != nil {
		return err
	}
	resumeID, err := resolveResume(respondResume, saved)
	if err != nil {
		return err
	}
	message, err := resolveMessage(cmd, respondMessage, respondMessageFile, saved)
	if err != nil {
		return err
	}

	outcome, err := respond.Submit(ctx, hh.NewResponder(a.client), args[0], resumeID, message)
	if err != nil {
		return err
	}
	if database != nil {
		cfg := respond.Config{ResumeID: resumeID, Message: message}
		if _, err := database.LogOutcome(ctx, uuid.Nil, cfg, outcome, false); err != nil {
			a.log.Warn("failed to record response", zap.String("vacancy_id", outcome.TargetID), zap.Error(err))
		}
	}

	if respondJSON {
		if err := writeJSON(cmd.OutOrStdout(), outcome); err != nil {
			return err
		}
	} else {
		observability.NewPrinter(cmd.OutOrStdout()).PrintOutcome(outcome)
	}
	if outcome.Status == respond.StatusFailed {
		return &respondFailedError{outcome: outcome}
	}
	return nil
}

// respondFailedError makes a failed single response exit non-zero after the
// outcome has been printed.
type respondFailedError struct {
	outcome respond.Outcome
}

func (e *respondFailedError) Error() string {
	return "response to " + e.outcome.TargetID + " failed: " + e.outcome.Reason
}
