package hh

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// FormatSalary renders a salary fork as "от 100000 до 150000 RUR gross".
// It returns "" for a nil salary.
func FormatSalary(s *Salary) string {
	if s == nil {
		return ""
	}
	var parts []string
	if s.From != nil && *s.From != 0 {
		parts = append(parts, "от "+strconv.Itoa(*s.From))
	}
	if s.To != nil && *s.To != 0 {
		parts = append(parts, "до "+strconv.Itoa(*s.To))
	}
	if s.Currency != "" {
		parts = append(parts, s.Currency)
	}
	if s.Gross != nil {
		if *s.Gross {
			parts = append(parts, "gross")
		} else {
			parts = append(parts, "net")
		}
	}
	return strings.Join(parts, " ")
}

// RequiresLetter reports whether the vacancy only accepts responses with a cover letter.
func RequiresLetter(v *Vacancy) bool {
	return v != nil && v.ResponseLetterRequired
}

// HasRequiredTest reports whether responding requires passing the employer's test.
func HasRequiredTest(v *Vacancy) bool {
	if v == nil {
		return false
	}
	if v.Test != nil && v.Test.Required {
		return true
	}
	return v.HasTest
}

// HasRelation reports whether the vacancy relations include rel
// (e.g. "got_response", "favorited").
func HasRelation(v *Vacancy, rel string) bool {
	if v == nil {
		return false
	}
	for _, r := range v.Relations {
		if r == rel {
			return true
		}
	}
	return false
}

// DescriptionText converts the HTML vacancy description into plain text,
// one block element per line.
func DescriptionText(html string) (string, error) {
	if strings.TrimSpace(html) == "" {
		return "", nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse description HTML: %w", err)
	}

	doc.Find("script, style, noscript").Remove()
	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find("p, li, div, h1, h2, h3, h4, ul, ol").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})
	doc.Find("li").Each(func(_ int, s *goquery.Selection) {
		s.PrependHtml("• ")
	})

	return cleanWhitespace(doc.Find("body").Text()), nil
}

// cleanWhitespace trims every line and drops empty ones.
func cleanWhitespace(text string) string {
	lines := strings.Split(text, "\n")
	var cleaned []string
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}

// TextQuery builds an advanced search expression for the text parameter
// using the NAME:, COMPANY_NAME: and DESCRIPTION: prefixes.
type TextQuery struct {
	Name           []string `json:"name,omitempty"`
	NameNot        []string `json:"name_not,omitempty"`
	Company        []string `json:"company,omitempty"`
	CompanyNot     []string `json:"company_not,omitempty"`
	Description    []string `json:"description,omitempty"`
	DescriptionNot []string `json:"description_not,omitempty"`
	MatchAll       bool     `json:"match_all,omitempty"` // join include blocks with AND instead of OR
}

// String renders the query, or "" when no keyword is set.
func (q TextQuery) String() string {
	joiner := " OR "
	if q.MatchAll {
		joiner = " AND "
	}

	var include []string
	for _, b := range []string{
		queryBlock("NAME", q.Name, joiner),
		queryBlock("COMPANY_NAME", q.Company, joiner),
		queryBlock("DESCRIPTION", q.Description, joiner),
	} {
		if b != "" {
			include = append(include, b)
		}
	}

	var parts []string
	if len(include) > 0 {
		parts = append(parts, strings.Join(include, joiner))
	}
	for _, ex := range []struct {
		field string
		kws   []string
	}{
		{"NAME", q.NameNot},
		{"COMPANY_NAME", q.CompanyNot},
		{"DESCRIPTION", q.DescriptionNot},
	} {
		if b := queryBlock(ex.field, ex.kws, " OR "); b != "" {
			parts = append(parts, "NOT "+b)
		}
	}
	return strings.Join(parts, joiner)
}

func queryBlock(field string, keywords []string, joiner string) string {
	var toks []string
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		if strings.ContainsAny(kw, " \t") {
			kw = `"` + kw + `"`
		}
		toks = append(toks, field+":"+kw)
	}
	if len(toks) == 0 {
		return ""
	}
	return "(" + strings.Join(toks, joiner) + ")"
}
