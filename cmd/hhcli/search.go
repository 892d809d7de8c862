package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/hhcli/internal/hh"
	"github.com/jonathan/hhcli/internal/observability"
)

var (
	searchParams  hh.SearchParams
	searchQuery   hh.TextQuery
	searchLimit   int
	searchJSON    bool
	searchIDsOut  string
	searchPerPage int
)

var searchCmd = &cobra.Command{
	Use:   "search [text]",
	Short: "Search vacancies",
	Long: `Search vacancies with the hh.ru search filters.

The --name, --company and --desc flags build an advanced query using the
NAME:, COMPANY_NAME: and DESCRIPTION: prefixes; it is combined with the
positional text. With --limit the command follows pagination until that many
vacancies are collected. --ids-out writes the found ids one per line, ready for
'hhcli respond-mass --ids-file'.`,
	Args: cobra.ArbitraryArgs,
	RunE: runSearch,
}

func init() {
	f := searchCmd.Flags()
	f.StringSliceVar(&searchParams.Area, "area", nil, "Area id (repeatable)")
	f.StringSliceVar(&searchParams.ProfessionalRole, "role", nil, "Professional role id (repeatable)")
	f.StringVar(&searchParams.Experience, "experience", "", "Experience: noExperience, between1And3, between3And6, moreThan6")
	f.StringVar(&searchParams.Employment, "employment", "", "Employment type")
	f.StringVar(&searchParams.Schedule, "schedule", "", "Schedule: fullDay, remote, flexible, shift")
	f.IntVar(&searchParams.Salary, "salary", 0, "Desired salary")
	f.StringVar(&searchParams.Currency, "currency", "", "Salary currency code")
	f.BoolVar(&searchParams.OnlyWithSalary, "only-with-salary", false, "Only vacancies with a salary")
	f.IntVar(&searchParams.Period, "period", 0, "Published within this many days")
	f.StringVar(&searchParams.OrderBy, "order-by", "", "Order: relevance, publication_time, salary_desc, salary_asc")
	f.IntVar(&searchParams.Page, "page", 0, "Page number (0-based)")
	f.IntVar(&searchPerPage, "per-page", 20, "Page size (max 100)")

	f.StringSliceVar(&searchQuery.Name, "name", nil, "Keyword required in the title")
	f.StringSliceVar(&searchQuery.NameNot, "name-not", nil, "Keyword excluded from the title")
	f.StringSliceVar(&searchQuery.Company, "company", nil, "Keyword required in the employer name")
	f.StringSliceVar(&searchQuery.CompanyNot, "company-not", nil, "Keyword excluded from the employer name")
	f.StringSliceVar(&searchQuery.Description, "desc", nil, "Keyword required in the description")
	f.StringSliceVar(&searchQuery.DescriptionNot, "desc-not", nil, "Keyword excluded from the description")
	f.BoolVar(&searchQuery.MatchAll, "all", false, "Require every include keyword instead of any")

	f.IntVar(&searchLimit, "limit", 0, "Collect up to N vacancies across pages")
	f.BoolVar(&searchJSON, "json", false, "Print JSON")
	f.StringVar(&searchIDsOut, "ids-out", "", "Write found vacancy ids to this file")
	rootCmd.AddCommand(searchCmd)
}

// searchText combines the positional text with the advanced query.
func searchText(text string, q hh.TextQuery) string {
	expr := q.String()
	switch {
	case expr == "":
		return text
	case text == "":
		return expr
	default:
		return "(" + text + ") AND " + expr
	}
}

func runSearch(cmd *cobra.Command, args []string) error {
	if searchPerPage < 1 || searchPerPage > 100 {
		return fmt.Errorf("--per-page must be between 1 and 100")
	}
	if searchLimit < 0 {
		return fmt.Errorf("--limit must not be negative")
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	params := searchParams
	params.PerPage = searchPerPage
	params.Text = searchText(strings.Join(args, " "), searchQuery)

	var page *hh.Page[hh.Vacancy]
	if searchLimit > 0 {
		items, err := a.client.Vacancies(cmd.Context(), params, searchLimit)
		if err != nil {
			return err
		}
		page = &hh.Page[hh.Vacancy]{Items: items, Found: len(items), Pages: 1, PerPage: len(items)}
	} else {
		page, err = a.client.SearchVacancies(cmd.Context(), params)
		if err != nil {
			return err
		}
	}

	if searchIDsOut != "" {
		if err := writeIDs(searchIDsOut, page.Items); err != nil {
			return err
		}
	}
	if searchJSON {
		return writeJSON(cmd.OutOrStdout(), page)
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintSearchPage(page)
	return nil
}

func writeIDs(path string, items []hh.Vacancy) error {
	var sb strings.Builder
	for _, v := range items {
		sb.WriteString(v.ID)
		sb.WriteByte('\n')
	}
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write ids: %w", err)
	}
	return nil
}
