// Package observability provides formatted output utilities for the CLI's
// human-readable mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/hhcli/internal/db"
	"github.com/jonathan/hhcli/internal/hh"
	"github.com/jonathan/hhcli/internal/respond"
	"github.com/jonathan/hhcli/internal/settings"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 72
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 10
	// maxDescriptionLines caps the description excerpt in PrintVacancy
	maxDescriptionLines = 12
)

// Printer handles formatted output for human-readable mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(title, boxWidth-4))
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintVacancy outputs a summary of a vacancy with an excerpt of its description.
func (p *Printer) PrintVacancy(v *hh.Vacancy) {
	if v == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("ID:        %s\n", v.ID))
	if v.Employer != nil {
		sb.WriteString(fmt.Sprintf("Employer:  %s\n", v.Employer.Name))
	}
	if v.Area != nil {
		sb.WriteString(fmt.Sprintf("Area:      %s\n", v.Area.Name))
	}
	if salary := hh.FormatSalary(v.Salary); salary != "" {
		sb.WriteString(fmt.Sprintf("Salary:    %s\n", salary))
	}
	if v.Experience != nil {
		sb.WriteString(fmt.Sprintf("Exp:       %s\n", v.Experience.Name))
	}
	if v.AlternateURL != "" {
		sb.WriteString(fmt.Sprintf("URL:       %s\n", v.AlternateURL))
	}

	var flags []string
	if v.Archived {
		flags = append(flags, "archived")
	}
	if hh.HasRequiredTest(v) {
		flags = append(flags, "test required")
	}
	if hh.RequiresLetter(v) {
		flags = append(flags, "letter required")
	}
	if hh.HasRelation(v, "got_response") {
		flags = append(flags, "already responded")
	}
	if len(flags) > 0 {
		sb.WriteString(fmt.Sprintf("Flags:     %s\n", strings.Join(flags, ", ")))
	}

	if len(v.KeySkills) > 0 {
		skills := make([]string, 0, len(v.KeySkills))
		for _, s := range v.KeySkills {
			skills = append(skills, s.Name)
		}
		sb.WriteString(fmt.Sprintf("Skills:    %s\n", strings.Join(skills, ", ")))
	}

	if text, err := hh.DescriptionText(v.Description); err == nil && text != "" {
		sb.WriteString("\n")
		lines := strings.Split(text, "\n")
		count := min(len(lines), maxDescriptionLines)
		for i := 0; i < count; i++ {
			sb.WriteString(lines[i] + "\n")
		}
		if len(lines) > maxDescriptionLines {
			sb.WriteString(fmt.Sprintf("... and %d more lines\n", len(lines)-maxDescriptionLines))
		}
	}

	p.printBox(v.Name, strings.TrimSuffix(sb.String(), "\n"))
}

// PrintSearchPage outputs one page of search results.
func (p *Printer) PrintSearchPage(page *hh.Page[hh.Vacancy]) {
	if page == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d, page %d of %d\n", page.Found, page.Page+1, max(page.Pages, 1)))
	for _, v := range page.Items {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s  %s\n", v.ID, v.Name))
		var meta []string
		if v.Employer != nil {
			meta = append(meta, v.Employer.Name)
		}
		if v.Area != nil {
			meta = append(meta, v.Area.Name)
		}
		if salary := hh.FormatSalary(v.Salary); salary != "" {
			meta = append(meta, salary)
		}
		if len(meta) > 0 {
			sb.WriteString(fmt.Sprintf("    %s\n", strings.Join(meta, " · ")))
		}
	}

	p.printBox("VACANCIES", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintResumes outputs the applicant's resumes.
func (p *Printer) PrintResumes(resumes []hh.Resume) {
	if len(resumes) == 0 {
		p.printBox("RESUMES", "No resumes found")
		return
	}

	var sb strings.Builder
	count := min(len(resumes), maxItemsToShow)
	for i := 0; i < count; i++ {
		r := resumes[i]
		sb.WriteString(fmt.Sprintf("%s  %s", r.ID, r.Title))
		if r.Status != nil {
			sb.WriteString(fmt.Sprintf(" [%s]", r.Status.Name))
		}
		sb.WriteString("\n")
	}
	if len(resumes) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("... and %d more\n", len(resumes)-maxItemsToShow))
	}

	p.printBox("RESUMES", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintMe outputs the authenticated user.
func (p *Printer) PrintMe(me *hh.Me) {
	if me == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("ID:         %s\n", me.ID))
	sb.WriteString(fmt.Sprintf("Name:       %s\n", strings.TrimSpace(me.FirstName+" "+me.LastName)))
	if me.Email != "" {
		sb.WriteString(fmt.Sprintf("Email:      %s\n", me.Email))
	}
	sb.WriteString(fmt.Sprintf("Applicant:  %t", me.IsApplicant))

	p.printBox("ACCOUNT", sb.String())
}

// PrintEligibility outputs a can-respond verdict.
func (p *Printer) PrintEligibility(vacancyID string, verdict respond.Eligibility) {
	var sb strings.Builder
	if verdict.Eligible {
		sb.WriteString("✅ can respond\n")
	} else {
		sb.WriteString("⛔ cannot respond\n")
	}
	if verdict.RequiresLetter {
		sb.WriteString("cover letter required\n")
	}
	if verdict.Note != "" {
		sb.WriteString(verdict.Note + "\n")
	}

	p.printBox("VACANCY "+vacancyID, strings.TrimSuffix(sb.String(), "\n"))
}

// PrintOutcome outputs the result of a single response.
func (p *Printer) PrintOutcome(o respond.Outcome) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Status:       %s\n", o.Status))
	if o.HTTPStatus != 0 {
		sb.WriteString(fmt.Sprintf("HTTP:         %d\n", o.HTTPStatus))
	}
	if o.NegotiationID != "" {
		sb.WriteString(fmt.Sprintf("Negotiation:  %s\n", o.NegotiationID))
	}
	if o.RequestID != "" {
		sb.WriteString(fmt.Sprintf("Request ID:   %s\n", o.RequestID))
	}
	if o.Reason != "" {
		sb.WriteString(fmt.Sprintf("Error:        %s\n", o.Reason))
	}
	if o.Note != "" {
		sb.WriteString(fmt.Sprintf("Note:         %s\n", o.Note))
	}

	p.printBox("RESPONSE "+o.TargetID, strings.TrimSuffix(sb.String(), "\n"))
}

// PrintSettings outputs the stored defaults.
func (p *Printer) PrintSettings(s settings.Settings) {
	var sb strings.Builder
	resume := s.ResumeID
	if resume == "" {
		resume = "(not set)"
	}
	sb.WriteString(fmt.Sprintf("Resume:   %s\n", resume))
	if s.Message == "" {
		sb.WriteString("Message:  (not set)")
	} else {
		sb.WriteString("Message:\n")
		sb.WriteString(s.Message)
	}
	if !s.UpdatedAt.IsZero() {
		sb.WriteString(fmt.Sprintf("\n\nUpdated:  %s", s.UpdatedAt.Format("2006-01-02 15:04")))
	}

	p.printBox("SETTINGS", sb.String())
}

// PrintNegotiations outputs one page of the applicant's negotiations.
func (p *Printer) PrintNegotiations(page *hh.Page[hh.Negotiation]) {
	if page == nil || len(page.Items) == 0 {
		p.printBox("NEGOTIATIONS", "No negotiations found")
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d, page %d of %d\n", page.Found, page.Page+1, max(page.Pages, 1)))
	for _, n := range page.Items {
		state := "?"
		if n.State != nil {
			state = n.State.Name
		}
		title := ""
		if n.Vacancy != nil {
			title = n.Vacancy.ID + "  " + n.Vacancy.Name
		}
		sb.WriteString(fmt.Sprintf("\n%-12s %s\n", state, title))
		if n.UpdatedAt != "" {
			sb.WriteString(fmt.Sprintf("             updated %s\n", n.UpdatedAt))
		}
	}

	p.printBox("NEGOTIATIONS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintHistory outputs recorded responses, newest first.
func (p *Printer) PrintHistory(rows []db.SentResponse) {
	if len(rows) == 0 {
		p.printBox("HISTORY", "No responses recorded")
		return
	}

	var sb strings.Builder
	for _, r := range rows {
		line := fmt.Sprintf("%s  %-10s %s", r.CreatedAt.Format("2006-01-02 15:04"), r.VacancyID, r.Status)
		if r.DryRun {
			line += " (dry run)"
		}
		if r.Reason != nil {
			line += "  " + *r.Reason
		} else if r.Note != nil {
			line += "  " + *r.Note
		}
		sb.WriteString(line + "\n")
	}

	p.printBox("HISTORY", strings.TrimSuffix(sb.String(), "\n"))
}
