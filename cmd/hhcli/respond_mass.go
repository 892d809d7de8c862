package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/hhcli/internal/hh"
	"github.com/jonathan/hhcli/internal/report"
	"github.com/jonathan/hhcli/internal/respond"
	"github.com/jonathan/hhcli/internal/settings"
	"github.com/jonathan/hhcli/internal/targets"
)

var (
	massIDsFile       string
	massResume        string
	massMessage       string
	massMessageFile   string
	massSkipTested    bool
	massRequireLetter bool
	massRateLimit     float64
	massLimit         int
	massDryRun        bool
	massOut           string
	massFormat        string
	massNoSave        bool
	massQuiet         bool
)

var respondMassCmd = &cobra.Command{
	Use:   "respond-mass [ID|URL...]",
	Short: "Respond to many vacancies in one paced batch",
	Long: `Respond to a list of vacancies one at a time.

Vacancy ids come from the arguments (any text; every run of digits is an id,
so vacancy URLs work) and from --ids-file (.txt, .csv, .tsv, .json or .jsonl).
Each vacancy is skipped if you already responded to it, skipped if the resume
is not eligible, and otherwise answered once, with at least --rate-limit
seconds between submissions.

Dry run is the default: nothing is sent until you pass --dry-run=false.
Interrupting the command finishes the vacancy in progress and reports what
was done so far.`,
	RunE: runRespondMass,
}

func init() {
	f := respondMassCmd.Flags()
	f.StringVar(&massIDsFile, "ids-file", "", "Read vacancy ids from a file")
	f.StringVar(&massResume, "resume", "", "Resume id (default: saved)")
	f.StringVarP(&massMessage, "message", "m", "", "Cover letter (default: saved)")
	f.StringVar(&massMessageFile, "message-file", "", "Read the cover letter from a file")
	f.BoolVar(&massSkipTested, "skip-tested", true, "Skip vacancies you already responded to")
	f.BoolVar(&massRequireLetter, "require-letter", false, "Refuse to start without a cover letter")
	f.Float64Var(&massRateLimit, "rate-limit", respond.DefaultConfig().RateLimit.Seconds(), "Minimum seconds between submissions")
	f.IntVar(&massLimit, "limit", 0, "Stop after N responses (0 = no limit)")
	f.BoolVar(&massDryRun, "dry-run", true, "Check eligibility only, send nothing")
	f.StringVarP(&massOut, "out", "o", "", "Write the report to a file (format from extension)")
	f.StringVar(&massFormat, "format", "", "Report format: text, json, yaml, csv")
	f.BoolVar(&massNoSave, "no-save", false, "Do not remember the resume and message as defaults")
	f.BoolVarP(&massQuiet, "quiet", "q", false, "Do not print per-vacancy progress")
	rootCmd.AddCommand(respondMassCmd)
}

// collectTargets reads ids from args and the optional ids file, preserving order.
func collectTargets(args []string, idsFile string) ([]string, error) {
	ids := targets.ExtractFromText(strings.Join(args, " "))
	if idsFile != "" {
		fromFile, err := targets.ReadFile(idsFile)
		if err != nil {
			return nil, err
		}
		ids = append(ids, fromFile...)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("no vacancy ids given: pass ids as arguments or use --ids-file")
	}
	return ids, nil
}

func massFormatFor(flagValue, out string) (report.Format, error) {
	if flagValue != "" {
		return report.ParseFormat(flagValue)
	}
	if out != "" {
		return report.FormatForPath(out), nil
	}
	return report.Text, nil
}

func runRespondMass(cmd *cobra.Command, args []string) error {
	ids, err := collectTargets(args, massIDsFile)
	if err != nil {
		return err
	}
	format, err := massFormatFor(massFormat, massOut)
	if err != nil {
		return err
	}
	if massRateLimit < 0 {
		return fmt.Errorf("--rate-limit must not be negative")
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()
	if err := a.requireToken(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	cfg := respond.DefaultConfig()
	cfg.ResumeID = strings.TrimSpace(massResume)
	if cfg.ResumeID == "" {
		cfg.ResumeID = saved.ResumeID
	}
	if cfg.Message, err = resolveMessage(cmd, massMessage, massMessageFile, saved); err != nil {
		return err
	}
	cfg.SkipTested = massSkipTested
	cfg.RequireLetter = massRequireLetter
	cfg.RateLimit = time.Duration(massRateLimit * float64(time.Second))
	cfg.Limit = massLimit
	cfg.DryRun = massDryRun

	opts := []respond.Option{respond.WithLogger(a.log)}
	if !massQuiet {
		progress := cmd.ErrOrStderr()
		done := 0
		opts = append(opts, respond.WithObserver(func(o respond.Outcome) {
			done++
			line := fmt.Sprintf("[%d/%d] %s %s", done, len(ids), o.TargetID, o.Status)
			if o.Reason != "" {
				line += ": " + o.Reason
			} else if o.Note != "" {
				line += " (" + o.Note + ")"
			}
			fmt.Fprintln(progress, line)
		}))
	}

	result, err := respond.Run(ctx, hh.NewResponder(a.client), ids, cfg, opts...)
	if err != nil {
		return err
	}

	// Bookkeeping runs even when the batch was interrupted.
	bg := context.WithoutCancel(ctx)
	if database != nil {
		if err := database.LogResult(bg, cfg, result); err != nil {
			a.log.Warn("failed to record batch", zap.String("batch_id", result.BatchID.String()), zap.Error(err))
		}
	}
	if !massNoSave {
		if err := store.Save(bg, settings.Settings{ResumeID: cfg.ResumeID, Message: cfg.Message}); err != nil {
			a.log.Warn("failed to save settings", zap.Error(err))
		}
	}

	if massOut != "" {
		if err := report.WriteFile(massOut, format, result); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "report written to %s\n", massOut)
		if err := report.Write(cmd.OutOrStdout(), report.Text, result); err != nil {
			return err
		}
	} else if err := report.Write(cmd.OutOrStdout(), format, result); err != nil {
		return err
	}

	if result.Aborted {
		return fmt.Errorf("interrupted after %d of %d vacancies", len(result.Outcomes), len(ids))
	}
	return nil
}
