package hh

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// maxPerPage is the largest page size /vacancies accepts.
const maxPerPage = 100

// Me returns the authenticated user. It doubles as a token check.
func (c *Client) Me(ctx context.Context) (*Me, error) {
	var me Me
	if err := c.getJSON(ctx, "/me", nil, true, &me); err != nil {
		return nil, err
	}
	return &me, nil
}

// SearchVacancies returns one page of search results.
func (c *Client) SearchVacancies(ctx context.Context, params SearchParams) (*Page[Vacancy], error) {
	var page Page[Vacancy]
	if err := c.getJSON(ctx, "/vacancies", params.Values(), false, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Vacancies walks search result pages starting at params.Page until the
// upstream runs out of pages or limit items were collected. limit <= 0 means
// no limit beyond what the API exposes.
func (c *Client) Vacancies(ctx context.Context, params SearchParams, limit int) ([]Vacancy, error) {
	if params.PerPage <= 0 || params.PerPage > maxPerPage {
		params.PerPage = maxPerPage
	}

	var out []Vacancy
	for {
		page, err := c.SearchVacancies(ctx, params)
		if err != nil {
			return out, fmt.Errorf("fetch page %d: %w", params.Page, err)
		}
		if len(page.Items) == 0 {
			return out, nil
		}
		for _, v := range page.Items {
			out = append(out, v)
			if limit > 0 && len(out) >= limit {
				return out, nil
			}
		}
		if params.Page >= page.Pages-1 {
			return out, nil
		}
		params.Page++
	}
}

// GetVacancy returns the full vacancy. When the client has a token the
// request is authenticated, which makes hh.ru fill in relations.
func (c *Client) GetVacancy(ctx context.Context, id string) (*Vacancy, error) {
	id, err := cleanID("vacancy id", id)
	if err != nil {
		return nil, err
	}
	var v Vacancy
	if err := c.getJSON(ctx, "/vacancies/"+url.PathEscape(id), nil, c.tokens != nil, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// VacancyResumes lists the applicant's resumes that may respond to the vacancy.
func (c *Client) VacancyResumes(ctx context.Context, vacancyID string) ([]Resume, error) {
	vacancyID, err := cleanID("vacancy id", vacancyID)
	if err != nil {
		return nil, err
	}
	var page Page[Resume]
	if err := c.getJSON(ctx, "/vacancies/"+url.PathEscape(vacancyID)+"/resumes", nil, true, &page); err != nil {
		return nil, err
	}
	return page.Items, nil
}

// MyResumes lists the applicant's resumes.
func (c *Client) MyResumes(ctx context.Context) ([]Resume, error) {
	var page Page[Resume]
	if err := c.getJSON(ctx, "/resumes/mine", nil, true, &page); err != nil {
		return nil, err
	}
	return page.Items, nil
}

func cleanID(what, id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", fmt.Errorf("%s is empty", what)
	}
	return id, nil
}

func pageQuery(page, perPage int) url.Values {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(perPage))
	return q
}
