package hh

import (
	"net/url"
	"strconv"
)

// IDName is the {id, name} pair hh.ru uses for dictionary values.
type IDName struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// Salary is a vacancy salary fork. Nil bounds are open.
type Salary struct {
	From     *int   `json:"from" yaml:"from,omitempty"`
	To       *int   `json:"to" yaml:"to,omitempty"`
	Currency string `json:"currency" yaml:"currency,omitempty"`
	Gross    *bool  `json:"gross" yaml:"gross,omitempty"`
}

// Employer is the short employer object embedded in vacancies.
type Employer struct {
	ID           string `json:"id" yaml:"id"`
	Name         string `json:"name" yaml:"name"`
	AlternateURL string `json:"alternate_url,omitempty" yaml:"alternate_url,omitempty"`
	Trusted      bool   `json:"trusted" yaml:"trusted"`
}

// VacancyTest describes an employer questionnaire attached to a vacancy.
type VacancyTest struct {
	Required bool `json:"required" yaml:"required"`
}

// KeySkill is one entry of a vacancy's key_skills.
type KeySkill struct {
	Name string `json:"name" yaml:"name"`
}

// Vacancy is the subset of the vacancy object hhcli uses. Search results
// carry fewer fields than GET /vacancies/{id}.
type Vacancy struct {
	ID                     string       `json:"id" yaml:"id"`
	Name                   string       `json:"name" yaml:"name"`
	Area                   *IDName      `json:"area,omitempty" yaml:"area,omitempty"`
	Salary                 *Salary      `json:"salary,omitempty" yaml:"salary,omitempty"`
	Employer               *Employer    `json:"employer,omitempty" yaml:"employer,omitempty"`
	Experience             *IDName      `json:"experience,omitempty" yaml:"experience,omitempty"`
	Schedule               *IDName      `json:"schedule,omitempty" yaml:"schedule,omitempty"`
	Employment             *IDName      `json:"employment,omitempty" yaml:"employment,omitempty"`
	AlternateURL           string       `json:"alternate_url,omitempty" yaml:"alternate_url,omitempty"`
	PublishedAt            string       `json:"published_at,omitempty" yaml:"published_at,omitempty"`
	Archived               bool         `json:"archived" yaml:"archived"`
	HasTest                bool         `json:"has_test" yaml:"has_test"`
	Test                   *VacancyTest `json:"test,omitempty" yaml:"test,omitempty"`
	ResponseLetterRequired bool         `json:"response_letter_required" yaml:"response_letter_required"`
	Relations              []string     `json:"relations,omitempty" yaml:"relations,omitempty"`
	Description            string       `json:"description,omitempty" yaml:"description,omitempty"`
	KeySkills              []KeySkill   `json:"key_skills,omitempty" yaml:"key_skills,omitempty"`
}

// Resume is a resume owned by the authenticated applicant.
type Resume struct {
	ID           string  `json:"id" yaml:"id"`
	Title        string  `json:"title" yaml:"title"`
	Status       *IDName `json:"status,omitempty" yaml:"status,omitempty"`
	AlternateURL string  `json:"alternate_url,omitempty" yaml:"alternate_url,omitempty"`
	UpdatedAt    string  `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

// Me is the authenticated user.
type Me struct {
	ID          string `json:"id" yaml:"id"`
	FirstName   string `json:"first_name" yaml:"first_name"`
	LastName    string `json:"last_name" yaml:"last_name"`
	Email       string `json:"email,omitempty" yaml:"email,omitempty"`
	IsApplicant bool   `json:"is_applicant" yaml:"is_applicant"`
}

// Negotiation is a response or invitation as listed by /negotiations.
type Negotiation struct {
	ID        string   `json:"id" yaml:"id"`
	State     *IDName  `json:"state,omitempty" yaml:"state,omitempty"`
	CreatedAt string   `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	UpdatedAt string   `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
	Vacancy   *Vacancy `json:"vacancy,omitempty" yaml:"vacancy,omitempty"`
	Resume    *Resume  `json:"resume,omitempty" yaml:"resume,omitempty"`
}

// NegotiationResult is what POST /negotiations reports back.
type NegotiationResult struct {
	ID         string
	RequestID  string
	HTTPStatus int
}

// Page is one page of a paginated listing.
type Page[T any] struct {
	Items   []T `json:"items"`
	Found   int `json:"found"`
	Pages   int `json:"pages"`
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
}

// SearchParams are the supported /vacancies filters. Zero values are omitted.
type SearchParams struct {
	Text             string   `json:"text,omitempty"`
	Area             []string `json:"area,omitempty"`
	ProfessionalRole []string `json:"professional_role,omitempty"`
	Experience       string   `json:"experience,omitempty"`
	Employment       string   `json:"employment,omitempty"`
	Schedule         string   `json:"schedule,omitempty"`
	Salary           int      `json:"salary,omitempty"`
	Currency         string   `json:"currency,omitempty"`
	OnlyWithSalary   bool     `json:"only_with_salary,omitempty"`
	Period           int      `json:"period,omitempty"` // days
	OrderBy          string   `json:"order_by,omitempty"`
	Page             int      `json:"page,omitempty"`
	PerPage          int      `json:"per_page,omitempty" validate:"omitempty,max=100"`
}

// Values encodes p as query parameters, skipping unset fields.
func (p SearchParams) Values() url.Values {
	v := url.Values{}
	setString := func(key, val string) {
		if val != "" {
			v.Set(key, val)
		}
	}
	setInt := func(key string, val int) {
		if val > 0 {
			v.Set(key, strconv.Itoa(val))
		}
	}

	setString("text", p.Text)
	for _, a := range p.Area {
		if a != "" {
			v.Add("area", a)
		}
	}
	for _, r := range p.ProfessionalRole {
		if r != "" {
			v.Add("professional_role", r)
		}
	}
	setString("experience", p.Experience)
	setString("employment", p.Employment)
	setString("schedule", p.Schedule)
	setInt("salary", p.Salary)
	setString("currency", p.Currency)
	if p.OnlyWithSalary {
		v.Set("only_with_salary", "true")
	}
	setInt("period", p.Period)
	setString("order_by", p.OrderBy)
	setInt("page", p.Page)
	setInt("per_page", p.PerPage)
	return v
}
